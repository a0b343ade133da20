// Package repository はデータ永続化のインターフェースを定義する。
// 連絡先とメモの操作はすべて所有ユーザーIDで絞り込む。
package repository

import (
	"context"

	"github.com/hitoshi/contactbook/internal/model"
)

// UserRepository はユーザーと資格情報の永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByEmailWithCredential はログイン検証用にユーザーと資格情報を取得する。
	// 見つからない場合はnilを返す。
	FindByEmailWithCredential(ctx context.Context, email string) (*model.UserWithCredential, error)

	// CreateWithCredential はユーザーと資格情報を同一トランザクションで作成する。
	// メールアドレスが重複する場合はmodel.ErrEmailTakenを返す。
	CreateWithCredential(ctx context.Context, user *model.User, credential *model.Credential) error
}

// ContactRepository は連絡先の永続化インターフェース。
// 他ユーザーの連絡先は存在しないものとして扱う。
type ContactRepository interface {
	// CountByUserID はユーザーの連絡先総数を返す。
	CountByUserID(ctx context.Context, userID string) (int, error)

	// ListByUserID はユーザーの連絡先一覧を姓の昇順、作成日時の昇順で返す。
	// queryが空でない場合は姓名の部分一致（大文字小文字を区別しない）で絞り込む。
	ListByUserID(ctx context.Context, userID, query string) ([]model.ContactSummary, error)

	// Create は連絡先を作成する。
	Create(ctx context.Context, contact *model.Contact) error

	// FindByID は指定IDの連絡先を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Contact, error)

	// UpdateName は連絡先の氏名とアバターURLを更新する。
	// 対象が存在しない場合はfalseを返す。
	UpdateName(ctx context.Context, userID, id string, input model.ContactNameInput) (bool, error)

	// ToggleFavorite はお気に入りフラグを反転し、反転後の値を返す。
	// 対象が存在しない場合はfound=falseを返す。
	ToggleFavorite(ctx context.Context, userID, id string) (favorite bool, found bool, err error)

	// Delete は連絡先を削除する。対象が存在しない場合はfalseを返す。
	// 関連するnotesはCASCADE削除される。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// NoteRepository は連絡先メモの永続化インターフェース。
// 連絡先の所有ユーザーで絞り込むため、すべての操作にuserIDを取る。
type NoteRepository interface {
	// ListByContact は連絡先のメモ一覧を作成日時の降順で返す。
	ListByContact(ctx context.Context, userID, contactID string) ([]model.Note, error)

	// FindByID は指定IDのメモを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, contactID, id string) (*model.Note, error)

	// Create はメモを作成する。連絡先がユーザーの所有でない場合はfalseを返す。
	Create(ctx context.Context, userID string, note *model.Note) (bool, error)

	// Update はメモのタイトルと本文を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, userID string, note *model.Note) (bool, error)

	// Delete はメモを削除する。対象が存在しない場合はfalseを返す。
	Delete(ctx context.Context, userID, contactID, id string) (bool, error)
}
