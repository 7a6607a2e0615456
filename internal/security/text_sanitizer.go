// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力およびAI生成コンテンツをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// タスクテキストは完全なプレーンテキストに、コース教材は安全なタグのみに制限する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はコンテンツサニタイズ機能のインターフェースを定義する。
// タスク作成時およびコースインポート時の保存前に使用される。
type TextSanitizerService interface {
	// SanitizePlain はすべてのHTMLタグを除去したプレーンテキストを返す。
	// タスクテキストやタイトルなど、マークアップを持たないフィールドに使用する。
	// 前後の空白も除去する。同一入力に対して常に同一出力を返す（冪等）。
	SanitizePlain(raw string) string

	// SanitizeMaterials はコース教材のHTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, a, ul, ol, li, blockquote, pre, code, strong, em）のみを
	// 通過させ、script, iframe, styleタグおよびon*イベント属性を除去する。
	SanitizeMaterials(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	plain     *bluemonday.Policy
	materials *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのポリシーを構築する。
//   - plain: StrictPolicy（全タグ除去）
//   - materials: p, br, a, ul, ol, li, blockquote, pre, code, strong, em を許可。
//     aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与され、
//     相対URLは許可されない。
func NewTextSanitizer() *textSanitizer {
	materials := bluemonday.NewPolicy()
	materials.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)
	materials.AllowAttrs("href").OnElements("a")
	materials.AllowStandardURLs()
	materials.AllowRelativeURLs(false)
	materials.AddTargetBlankToFullyQualifiedLinks(true)
	materials.RequireNoReferrerOnLinks(true)

	return &textSanitizer{
		plain:     bluemonday.StrictPolicy(),
		materials: materials,
	}
}

// SanitizePlain はすべてのHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizePlain(raw string) string {
	return strings.TrimSpace(s.plain.Sanitize(raw))
}

// SanitizeMaterials はコース教材のHTMLをサニタイズして安全なHTMLを返す。
func (s *textSanitizer) SanitizeMaterials(raw string) string {
	return s.materials.Sanitize(raw)
}
