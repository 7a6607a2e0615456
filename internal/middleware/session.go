// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/studydesk/internal/model"
)

const sessionCookieName = "token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// SessionVerifier はセッショントークンの検証に必要なインターフェース。
// auth.IdentityProviderの部分集合として定義する。
type SessionVerifier interface {
	// VerifySession はトークンを検証する。無効なトークンの場合はnilを返す。
	VerifySession(ctx context.Context, token string) (*model.Identity, error)
}

// AuthFailureRecorder はセッション検証失敗の記録に必要なインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// NewSessionMiddleware はHTTP Only Cookieからセッショントークンを読み取り、
// 外部プロバイダーで検証するミドルウェアを返す。
// 認証済みIdentityをリクエストコンテキストに注入する。
// Cookieが存在しない場合はプロバイダーに問い合わせず即座に401を返す。
// トークンが無効な場合は401、プロバイダーとの通信に失敗した場合は500を返す。
func NewSessionMiddleware(verifier SessionVerifier, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Cookieからセッショントークンを取得
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 2. 外部プロバイダーでトークンを検証
			identity, err := verifier.VerifySession(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to verify session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if identity == nil {
				recorder.RecordAuthFailure()
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			// 3. 認証済みIdentityをコンテキストに注入
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みIdentityを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func IdentityFromContext(ctx context.Context) (*model.Identity, error) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok || identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("identity not found in context")
	}
	return identity, nil
}

// ContextWithIdentity はコンテキストに認証済みIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
