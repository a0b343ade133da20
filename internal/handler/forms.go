package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/contactbook/internal/model"
)

// loginForm はログイン・新規登録フォームの入力。
// EmailとPasswordは項目自体が送信されなかった場合にnilとなる。
// rememberは新規登録では使用しない。
type loginForm struct {
	Email    *string `form:"email" validate:"required,email"`
	Password *string `form:"password" validate:"required,min=8"`
	Remember string `form:"remember" validate:"omitempty,eq=on"`
}

// contactForm は連絡先編集フォームの入力。
type contactForm struct {
	First     string `form:"first"`
	Last      string `form:"last"`
	AvatarURL string `form:"avatarUrl" validate:"omitempty,url"`
}

// noteForm はメモ作成・編集フォームの入力。
type noteForm struct {
	Title string `form:"title" validate:"required"`
	Body  string `form:"body" validate:"required,max=260"`
}

// fieldMessages は "項目名.検証タグ" ごとのエラーメッセージ。
var fieldMessages = map[string]string{
	"email.required":    "Required",
	"email.email":       "Invalid email",
	"password.required": "Required",
	"password.min":      "Must be at least 8 characters",
	"remember.eq":       `Invalid literal value, expected "on"`,
	"avatarUrl.url":     "Invalid url",
	"title.required":    "Title is required",
	"body.required":     "Description is required",
	"body.max":          "Description is too long",
}

const defaultFieldMessage = "Invalid value"

var formValidator = newFormValidator()

// newFormValidator はエラーの項目名にformタグを使うvalidatorを生成する。
func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateForm はフォーム構造体を検証し、失敗した場合は項目別の *model.ValidationError を返す。
func validateForm(form any) error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &model.ValidationError{Fields: make(map[string][]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = defaultFieldMessage
		}
		verr.Fields[fe.Field()] = append(verr.Fields[fe.Field()], msg)
	}
	return verr
}

// formValue はフォーム項目の値を前後の空白を除いて返す。
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// sentFormValue はformValueと同じ値を返すが、項目が送信されていなければnilを返す。
func sentFormValue(r *http.Request, key string) *string {
	v := formValue(r, key)
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	return &v
}

func parseLoginForm(r *http.Request) loginForm {
	return loginForm{
		Email:    sentFormValue(r, "email"),
		Password: sentFormValue(r, "password"),
		Remember: formValue(r, "remember"),
	}
}

// credentials は検証済みフォームのメールアドレスとパスワードを返す。
func (f loginForm) credentials() (email, password string) {
	if f.Email != nil {
		email = *f.Email
	}
	if f.Password != nil {
		password = *f.Password
	}
	return email, password
}

func parseContactForm(r *http.Request) contactForm {
	return contactForm{
		First:     formValue(r, "first"),
		Last:      formValue(r, "last"),
		AvatarURL: formValue(r, "avatarUrl"),
	}
}

func parseNoteForm(r *http.Request) noteForm {
	return noteForm{
		Title: formValue(r, "title"),
		Body:  formValue(r, "body"),
	}
}

// nullIfEmpty は空文字列をnilに変換する。
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// safeRedirect はリダイレクト先としてアプリ内の相対パスのみを許可する。
// "/" で始まらない値や "//" または "/\" で始まる値はfallbackに置き換える。
func safeRedirect(to, fallback string) string {
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.HasPrefix(to, `/\`) {
		return fallback
	}
	return to
}
