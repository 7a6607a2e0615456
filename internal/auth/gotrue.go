package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hitoshi/studydesk/internal/model"
)

// GoTrueConfig はGoTrue互換認証プロバイダーの設定。
type GoTrueConfig struct {
	// BaseURL は認証サービスのベースURL（例: "https://auth.example.com/auth/v1"）。
	// テスト時はhttptestサーバーのURLで差し替える。
	BaseURL string
	// ServiceKey はバックエンド用のサービスキー。全リクエストのapikeyヘッダーに付与される。
	ServiceKey string
}

// GoTrueProvider はGoTrue互換の外部認証サービスに対するIdentityProvider実装。
// パスワードの保存・検証・トークン発行はすべてサービス側で行われる。
type GoTrueProvider struct {
	config GoTrueConfig
}

// NewGoTrueProvider はGoTrueProviderを生成する。
func NewGoTrueProvider(config GoTrueConfig) *GoTrueProvider {
	return &GoTrueProvider{config: config}
}

// gotrueUser はGoTrueのユーザー表現。
type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	UserMetadata struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// gotrueTokenResponse はトークンエンドポイントのレスポンス。
type gotrueTokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	User        gotrueUser `json:"user"`
}

// gotrueErrorResponse はGoTrueのエラーレスポンス。
// バージョンによりフィールド名が異なるため両方を受ける。
type gotrueErrorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
}

// reason はエラーレスポンスから人間可読な拒否理由を取り出す。
func (e *gotrueErrorResponse) reason() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Message != "":
		return e.Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	}
	return "rejected by identity provider"
}

// VerifySession はセッショントークンを検証し、対応するIdentityを返す。
// GET {base}/user にBearerトークンを付与して問い合わせる。
// 401/403は無効トークンとしてnilを返し、それ以外の失敗はエラーを返す。
func (p *GoTrueProvider) VerifySession(ctx context.Context, token string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.BaseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.config.ServiceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// 有効トークン: ユーザー情報をIdentityに変換
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	default:
		return nil, fmt.Errorf("verify session failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("empty user id in verify response")
	}

	return identityFromUser(&user), nil
}

// CreateSession は認証情報を検証し、新しいセッショントークンを発行する。
// POST {base}/token?grant_type=password を呼び出す。
// 400/401は認証失敗としてnilを返し、それ以外の失敗はエラーを返す。
func (p *GoTrueProvider) CreateSession(ctx context.Context, creds Credentials) (*SessionResult, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/token?grant_type=password", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.config.ServiceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// 認証成功
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		return nil, nil
	default:
		return nil, fmt.Errorf("create session failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp gotrueTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &SessionResult{
		Token:    tokenResp.AccessToken,
		Identity: *identityFromUser(&tokenResp.User),
	}, nil
}

// RegisterIdentity は新規ユーザーをプロバイダーに登録する。
// POST {base}/signup を呼び出す。4xxは登録拒否として拒否理由を返す。
func (p *GoTrueProvider) RegisterIdentity(ctx context.Context, profile SignupProfile) (*model.Identity, string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"email":    profile.Email,
		"password": profile.Password,
		"data": map[string]string{
			"username":  profile.Username,
			"full_name": profile.FullName,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode signup profile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/signup", bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create signup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.config.ServiceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("signup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read signup response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// 登録成功
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var errResp gotrueErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, "rejected by identity provider", nil
		}
		return nil, errResp.reason(), nil
	default:
		return nil, "", fmt.Errorf("signup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user gotrueUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, "", fmt.Errorf("failed to parse signup response: %w", err)
	}
	if user.ID == "" {
		return nil, "", fmt.Errorf("empty user id in signup response")
	}

	return identityFromUser(&user), "", nil
}

// RevokeSession はセッショントークンを失効させる。
// POST {base}/logout を呼び出す。失効済みトークンでもエラーにはしない。
func (p *GoTrueProvider) RevokeSession(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.config.ServiceKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("logout failed with status %d", resp.StatusCode)
	}

	return nil
}

// identityFromUser はGoTrueのユーザー表現をIdentityに変換する。
func identityFromUser(u *gotrueUser) *model.Identity {
	return &model.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.UserMetadata.Username,
		FullName: u.UserMetadata.FullName,
		Role:     u.Role,
	}
}

// compile-time interface check
var _ IdentityProvider = (*GoTrueProvider)(nil)
