package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/statusdeck/internal/model"
	"github.com/hitoshi/statusdeck/internal/repository"
)

// bcryptCost はパスワードハッシュの計算コスト。
const bcryptCost = 10

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// defaultComponentNames はサインアップ時に自動作成するコンポーネント名。
// position 1から順に割り当てる。
var defaultComponentNames = []string{"Website", "API", "Database"}

// SignupInput はサインアップの入力。
// Planは省略時freeとして扱う。
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Company  string
	Plan     string
}

// LoginInput はログインの入力。
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult は認証成功時の結果。トークンと有効期限を持つ。
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Service はサインアップ・ログイン・ユーザー取得を提供する。
type Service struct {
	issuer      *TokenIssuer
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	logger      *slog.Logger
}

// NewService はauth.Serviceを生成する。
func NewService(issuer *TokenIssuer, userRepo repository.UserRepository, sessionRepo repository.SessionRepository, logger *slog.Logger) *Service {
	return &Service{
		issuer:      issuer,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Signup は新規ユーザーを登録し、初期ステータスページとコンポーネント群を
// 同一トランザクションで作成してトークンを発行する。
// 途中で失敗した場合、ユーザーだけが作られページがない状態は残らない。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, model.NewInvalidInputError("名前、メールアドレス、パスワードは必須です")
	}
	if len(input.Password) < minPasswordLength {
		return nil, model.NewPasswordTooShortError()
	}

	plan, err := resolvePlan(input.Plan)
	if err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	now := time.Now()
	user := &model.User{
		ID:           model.NewID(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Company:      input.Company,
		Plan:         plan,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pageName := input.Company
	if pageName == "" {
		pageName = input.Name
	}
	page := &model.StatusPage{
		ID:           model.NewID(),
		UserID:       user.ID,
		Name:         pageName + " Status",
		Subdomain:    defaultSubdomain(input.Email),
		PrimaryColor: "#3B82F6",
		IsPublic:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	components := make([]*model.Component, 0, len(defaultComponentNames))
	for i, name := range defaultComponentNames {
		components = append(components, &model.Component{
			ID:           model.NewID(),
			StatusPageID: page.ID,
			Name:         name,
			Status:       model.ComponentStatusOperational,
			Position:     i + 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.userRepo.CreateWithDefaultPage(ctx, user, page, components); err != nil {
		// 事前チェックの後に同じメールアドレスで登録された場合
		if repository.IsUniqueViolation(err) {
			return nil, model.NewEmailTakenError()
		}
		return nil, model.NewInternalError(err)
	}

	s.logger.Info("ユーザーを登録しました", "user_id", user.ID, "subdomain", page.Subdomain)

	return s.issueFor(ctx, user)
}

// Login は資格情報を検証してトークンを発行する。
// ユーザー不在とパスワード不一致を区別せず、同一の認証エラーを返す。
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Email == "" || input.Password == "" {
		return nil, model.NewInvalidInputError("メールアドレスとパスワードは必須です")
	}

	user, err := s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, model.NewUnauthenticatedError()
	}

	// 期限切れセッション行の遅延ガベージコレクション。失敗してもログインは続行する。
	if deleted, err := s.sessionRepo.DeleteExpired(ctx); err != nil {
		s.logger.Warn("期限切れセッションの削除に失敗しました", "error", err)
	} else if deleted > 0 {
		s.logger.Info("期限切れセッションを削除しました", "count", deleted)
	}

	return s.issueFor(ctx, user)
}

// CurrentUser は認証済み主体に対応するユーザーを取得する。
// トークンは有効だがユーザー行が消えている場合も認証エラーとして扱う。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, model.NewInternalError(err)
	}
	if user == nil {
		return nil, model.NewUnauthenticatedError()
	}
	return user, nil
}

// issueFor はトークンを発行し、失効管理用のセッション行を記録する。
func (s *Service) issueFor(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.issuer.Issue(user)
	if err != nil {
		return nil, model.NewInternalError(err)
	}

	session := &model.Session{
		ID:        model.NewID(),
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, model.NewInternalError(err)
	}

	return &AuthResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// resolvePlan はサインアップ入力のプラン指定を検証して返す。省略時はfree。
func resolvePlan(plan string) (model.Plan, error) {
	switch plan {
	case "":
		return model.PlanFree, nil
	case string(model.PlanFree):
		return model.PlanFree, nil
	case string(model.PlanPro):
		return model.PlanPro, nil
	default:
		return "", model.NewInvalidInputError("planはfreeまたはproを指定してください")
	}
}

// defaultSubdomain はメールアドレスのローカル部から初期サブドメインを導出する。
// 英数字以外を除去して小文字化し、衝突回避のため4文字のランダム接尾辞を付ける。
func defaultSubdomain(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "status"
	}
	return base + "-" + model.NewID()[:4]
}
