package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/studydesk/internal/model"
	"github.com/hitoshi/studydesk/internal/repository"
)

// Service は認証に関するビジネスロジックを提供する。
// 資格情報の検証とトークンの発行・失効は外部プロバイダーに委譲し、
// 本体ではユーザープロフィールのローカルミラーのみを管理する。
type Service struct {
	provider IdentityProvider
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(provider IdentityProvider, userRepo repository.UserRepository) *Service {
	return &Service{
		provider: provider,
		userRepo: userRepo,
	}
}

// Signup は新規ユーザーをプロバイダーに登録し、ローカルプロフィールを作成する。
// プロバイダーが登録を拒否した場合はSIGNUP_FAILEDエラーを返す。
func (s *Service) Signup(ctx context.Context, profile SignupProfile) (*model.Identity, error) {
	profile.Email = strings.TrimSpace(profile.Email)
	profile.Username = strings.TrimSpace(profile.Username)
	profile.FullName = strings.TrimSpace(profile.FullName)

	if profile.Email == "" || profile.Password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です")
	}

	identity, reason, err := s.provider.RegisterIdentity(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}
	if identity == nil {
		slog.Info("signup rejected by provider",
			slog.String("email", profile.Email),
			slog.String("reason", reason),
		)
		return nil, model.NewSignupFailedError(reason)
	}

	if err := s.syncProfile(ctx, identity); err != nil {
		// プロフィールのミラーは次回ログイン時に再同期されるため、ここでは失敗させない
		slog.Warn("failed to sync user profile after signup",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("new user registered",
		slog.String("user_id", identity.UserID),
		slog.String("email", identity.Email),
	)

	return identity, nil
}

// Login は認証情報を検証し、新しいセッションを発行する。
// 認証失敗の場合はLOGIN_FAILEDエラーを返す。
func (s *Service) Login(ctx context.Context, creds Credentials) (*SessionResult, error) {
	creds.Email = strings.TrimSpace(creds.Email)

	if creds.Email == "" || creds.Password == "" {
		return nil, model.NewLoginFailedError()
	}

	result, err := s.provider.CreateSession(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if result == nil {
		slog.Info("login failed", slog.String("email", creds.Email))
		return nil, model.NewLoginFailedError()
	}

	if err := s.syncProfile(ctx, &result.Identity); err != nil {
		slog.Warn("failed to sync user profile after login",
			slog.String("user_id", result.Identity.UserID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("user logged in", slog.String("user_id", result.Identity.UserID))

	return result, nil
}

// Logout はセッショントークンを失効させる。
// プロバイダー側の失効に失敗してもクッキーの破棄は行われるため、エラーにはしない。
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	if err := s.provider.RevokeSession(ctx, token); err != nil {
		slog.Warn("failed to revoke session", slog.String("error", err.Error()))
		return
	}

	slog.Info("user logged out")
}

// syncProfile はプロバイダーのユーザー情報をローカルプロフィールにミラーする。
func (s *Service) syncProfile(ctx context.Context, identity *model.Identity) error {
	now := time.Now()
	return s.userRepo.Upsert(ctx, &model.UserProfile{
		ID:        identity.UserID,
		Email:     identity.Email,
		Username:  identity.Username,
		FullName:  identity.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
