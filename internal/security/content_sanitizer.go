// Package security はユーザー入力の無害化を提供する。
//
// 連絡先とメモの自由記述欄は外部レンダラーで表示されるため、
// 保存前にbluemondayでマークアップを除去してプレーンテキストにする。
package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストの無害化インターフェース。
type TextSanitizer interface {
	// SanitizeText はHTMLタグを除去したプレーンテキストを返す。
	// script, styleなどの要素は中身ごと除去する。前後の空白は取り除く。
	SanitizeText(raw string) string

	// SanitizeURL はhttpまたはhttpsの絶対URLのみを受け付ける。
	// それ以外のスキームや相対URLの場合はfalseを返す。
	SanitizeURL(raw string) (string, bool)
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// 許可タグなしのStrictPolicyを使う。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxSanitizePasses は文字参照の復元と再除去を繰り返す上限回数。
const maxSanitizePasses = 4

// SanitizeText はHTMLタグを除去したプレーンテキストを返す。
// 文字参照を元の文字に戻した結果に再びタグが現れる場合があるため、
// 除去と復元を結果が変わらなくなるまで繰り返す。
// 上限回数で収束しない入力は文字参照のまま返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	text := strings.TrimSpace(raw)
	for i := 0; i < maxSanitizePasses; i++ {
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
		if next == text {
			return text
		}
		text = next
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// SanitizeURL はhttpまたはhttpsでホストを持つURLのみを返す。
func (s *textSanitizer) SanitizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
