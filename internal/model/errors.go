// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrHashingFailure はパスワードの鍵導出処理が失敗したことを示す。
	// 500系エラーとして扱う。
	ErrHashingFailure = errors.New("password hashing failed")

	// ErrInvalidCredentials はメールアドレスまたはパスワードが一致しないことを示す。
	// どちらが誤っていたかは呼び出し元に区別させない。
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken は同じメールアドレスのユーザーが既に存在することを示す。
	ErrEmailTaken = errors.New("email already registered")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, contact, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeContactNotFound = "CONTACT_NOT_FOUND"
	ErrCodeNoteNotFound    = "NOTE_NOT_FOUND"
	ErrCodeInvalidIntent   = "INVALID_INTENT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
)

// NewContactNotFoundError は連絡先未検出エラーを生成する。
// 他ユーザーの連絡先も存在しないものとして扱う。
func NewContactNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeContactNotFound,
		Message:  "Contact not found",
		Category: "contact",
		Action:   "Check the URL. The contact may have been deleted.",
	}
}

// NewNoteNotFoundError はメモ未検出エラーを生成する。
func NewNoteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  "Note not found",
		Category: "contact",
		Action:   "Check the URL. The note may have been deleted.",
	}
}

// NewInvalidIntentError は未知のintentが指定された場合のエラーを生成する。
func NewInvalidIntentError(intent string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidIntent,
		Message:  fmt.Sprintf("Unexpected operation by the intent of %q", intent),
		Category: "validation",
		Action:   "Unable to proceed with this operation.",
	}
}

// NewInvalidRequestError はリクエストの形式が不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: "validation",
		Action:   "Check the submitted form and try again.",
	}
}

// ValidationError はフォーム項目ごとの検証エラーを保持する。
// Fieldsのキーはフォームの項目名、値はその項目のエラーメッセージ一覧。
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError は単一項目の検証エラーを生成する。
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Error はerrorインターフェースを実装する。
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
