// Package auth は外部認証プロバイダーとの連携とセッション発行のビジネスロジックを提供する。
package auth

import (
	"context"

	"github.com/hitoshi/studydesk/internal/model"
)

// Credentials はログイン時の認証情報を表す。
type Credentials struct {
	Email    string
	Password string
}

// SignupProfile はサインアップ時にプロバイダーへ渡すプロフィール情報を表す。
type SignupProfile struct {
	Email    string
	Password string
	Username string
	FullName string
}

// SessionResult はセッション発行の結果を表す。
// Tokenは不透明な文字列であり、本体側で解析・生成されることはない。
type SessionResult struct {
	Token    string
	Identity model.Identity
}

// IdentityProvider は外部認証サービスのインターフェース。
// トークンの発行・検証・失効はすべてプロバイダー側の責務であり、
// 本体はトークンを不透明な資格情報として転送するだけに留める。
type IdentityProvider interface {
	// VerifySession はセッショントークンを検証し、対応するIdentityを返す。
	// トークンが無効・期限切れの場合はnilを返す（エラーにはしない）。
	// 同一の有効なトークンに対して繰り返し呼び出しても同一のIdentityを返す（冪等）。
	VerifySession(ctx context.Context, token string) (*model.Identity, error)

	// CreateSession は認証情報を検証し、新しいセッショントークンを発行する。
	// 認証失敗の場合はnilを返す（エラーにはしない）。
	CreateSession(ctx context.Context, creds Credentials) (*SessionResult, error)

	// RegisterIdentity は新規ユーザーをプロバイダーに登録する。
	// パスワード強度やメール形式の検証はプロバイダー側に委譲する。
	// プロバイダーが登録を拒否した場合は拒否理由とともにnilを返す。
	RegisterIdentity(ctx context.Context, profile SignupProfile) (*model.Identity, string, error)

	// RevokeSession はセッショントークンを失効させる。
	// ログアウト時のベストエフォート処理として使用する。
	RevokeSession(ctx context.Context, token string) error
}
