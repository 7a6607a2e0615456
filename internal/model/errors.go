package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeTaskNotFound    = "TASK_NOT_FOUND"
	ErrCodeCourseNotFound  = "COURSE_NOT_FOUND"
	ErrCodeTopicNotFound   = "TOPIC_NOT_FOUND"
	ErrCodeSignupFailed    = "SIGNUP_FAILED"
	ErrCodeLoginFailed     = "LOGIN_FAILED"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// セッションCookieの欠落・無効トークンのいずれも同一のエラーになる。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
// 他ユーザー所有のタスクに対する操作も同一のエラーになる（存在の秘匿）。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  fmt.Sprintf("指定されたタスクが見つかりません: %s", taskID),
		Category: "resource",
		Action:   "タスクIDを確認してください。",
	}
}

// NewCourseNotFoundError はコース未検出エラーを生成する。
func NewCourseNotFoundError(courseID string) *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  fmt.Sprintf("指定されたコースが見つかりません: %s", courseID),
		Category: "resource",
		Action:   "コースIDを確認してください。",
	}
}

// NewTopicNotFoundError はトピック未検出エラーを生成する。
func NewTopicNotFoundError(topicID string) *APIError {
	return &APIError{
		Code:     ErrCodeTopicNotFound,
		Message:  fmt.Sprintf("指定されたトピックが見つかりません: %s", topicID),
		Category: "resource",
		Action:   "トピックIDを確認してください。",
	}
}

// NewSignupFailedError はサインアップ失敗エラーを生成する。
// プロバイダー側の拒否理由をそのままメッセージに含める。
func NewSignupFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSignupFailed,
		Message:  fmt.Sprintf("サインアップに失敗しました: %s", reason),
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度お試しください。",
	}
}
