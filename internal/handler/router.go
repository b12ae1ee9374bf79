package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/statusdeck/internal/metrics"
	"github.com/hitoshi/statusdeck/internal/middleware"
)

// Pinger はデータベース疎通確認のインターフェース。sql.DBがこれを満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	Collector         metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ステータスページ
	PageService PageServiceInterface

	// コンポーネント
	ComponentService ComponentServiceInterface

	// インシデント
	IncidentService IncidentServiceInterface

	// 公開面
	PublicService     PublicServiceInterface
	PublicCacheMaxAge int

	// ダッシュボード
	DashboardService DashboardServiceInterface

	// ヘルスチェック
	DB Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics
//
// 認証ミドルウェアは管理系ルートのグループにのみ適用する。
// 公開面（/public/*）、認証の入口（signup/login/logout）、運用系（/health, /metrics）は
// ミドルウェアチェーンの認証部分の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Collector != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Collector)
	pageHandler := NewPageHandler(deps.PageService)
	componentHandler := NewComponentHandler(deps.ComponentService)
	incidentHandler := NewIncidentHandler(deps.IncidentService, deps.Collector)
	publicHandler := NewPublicHandler(deps.PublicService, deps.Collector, deps.PublicCacheMaxAge)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// /auth/meのみトークン必須
		r.With(middleware.NewAuthMiddleware(deps.TokenVerifier)).Get("/me", authHandler.Me)
	})

	// 公開ステータスページと購読
	r.Route("/public", func(r chi.Router) {
		r.Get("/status/{subdomain}", publicHandler.ShowPublicPage)
		r.Post("/subscribe", publicHandler.Subscribe)
		r.Get("/subscribe/confirm", publicHandler.ConfirmSubscription)
	})

	// 運用系
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))

		// ステータスページ管理
		r.Route("/status-pages", func(r chi.Router) {
			r.Get("/", pageHandler.ListPages)
			r.Post("/", pageHandler.CreatePage)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", pageHandler.GetPage)
				r.Put("/", pageHandler.UpdatePage)
				r.Delete("/", pageHandler.DeletePage)
			})
		})

		// コンポーネント管理
		r.Route("/components", func(r chi.Router) {
			r.Get("/", componentHandler.ListComponents)
			r.Post("/", componentHandler.CreateComponent)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", componentHandler.GetComponent)
				r.Put("/", componentHandler.UpdateComponent)
				r.Delete("/", componentHandler.DeleteComponent)
			})
		})

		// インシデント管理
		r.Route("/incidents", func(r chi.Router) {
			r.Get("/", incidentHandler.ListIncidents)
			r.Post("/", incidentHandler.CreateIncident)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", incidentHandler.GetIncident)
				r.Put("/", incidentHandler.UpdateIncident)
				r.Delete("/", incidentHandler.DeleteIncident)

				// 経過報告タイムライン
				r.Get("/updates", incidentHandler.ListIncidentUpdates)
				r.Post("/updates", incidentHandler.AppendIncidentUpdate)
			})
		})

		// ダッシュボード
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", dashboardHandler.Stats)
			r.Get("/activity", dashboardHandler.Activity)
		})
	})

	return r
}

// NewHealthHandler はデータベース疎通を確認するヘルスチェックハンドラーを返す。
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
