// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/statusdeck/internal/auth"
	"github.com/hitoshi/statusdeck/internal/authz"
	"github.com/hitoshi/statusdeck/internal/component"
	"github.com/hitoshi/statusdeck/internal/config"
	"github.com/hitoshi/statusdeck/internal/dashboard"
	"github.com/hitoshi/statusdeck/internal/database"
	"github.com/hitoshi/statusdeck/internal/handler"
	"github.com/hitoshi/statusdeck/internal/incident"
	"github.com/hitoshi/statusdeck/internal/logger"
	"github.com/hitoshi/statusdeck/internal/metrics"
	"github.com/hitoshi/statusdeck/internal/page"
	"github.com/hitoshi/statusdeck/internal/public"
	"github.com/hitoshi/statusdeck/internal/repository"
	"github.com/hitoshi/statusdeck/internal/security"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	pageRepo := repository.NewPostgresStatusPageRepo(db)
	componentRepo := repository.NewPostgresComponentRepo(db)
	incidentRepo := repository.NewPostgresIncidentRepo(db)
	subscriberRepo := repository.NewPostgresSubscriberRepo(db)

	// 3. 横断サービスの初期化
	sanitizer := security.NewContentSanitizer()
	resolver := authz.NewResolver(pageRepo, componentRepo, incidentRepo)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.TokenMaxAge)*time.Second)
	authService := auth.NewService(tokenIssuer, userRepo, sessionRepo, slog.Default())

	pageService := page.NewService(pageRepo, userRepo, resolver, sanitizer, slog.Default())
	componentService := component.NewService(componentRepo, resolver, sanitizer, slog.Default())
	incidentService := incident.NewService(incidentRepo, resolver, sanitizer, slog.Default())
	publicService := public.NewService(
		pageRepo, componentRepo, incidentRepo, subscriberRepo,
		public.NopNotifier{}, slog.Default(),
	)
	dashboardService := dashboard.NewService(pageRepo, componentRepo, incidentRepo, subscriberRepo)

	// 5. ルーターの構築
	deps := &handler.RouterDeps{
		Logger: slog.Default(),

		TokenVerifier:     tokenIssuer,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Collector:         collector,
		Gatherer:          registry,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
			TokenMaxAge:  cfg.TokenMaxAge,
		},

		PageService:      pageService,
		ComponentService: componentService,
		IncidentService:  incidentService,

		PublicService:     publicService,
		PublicCacheMaxAge: cfg.PublicCacheMaxAge,

		DashboardService: dashboardService,

		DB: db,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
