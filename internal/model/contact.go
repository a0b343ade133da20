package model

import "time"

// Contact はユーザーが管理する連絡先を表す。
// 未入力の項目はnilで表現する。
type Contact struct {
	ID            string
	UserID        string
	FirstName     *string
	LastName      *string
	AvatarURL     *string
	Favorite      bool
	Title         *string
	Company       *string
	Email         *string
	Phone         *string
	Location      *string
	TwitterHandle *string
	WebsiteURL    *string
	LinkedinURL   *string
	About         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ContactSummary は連絡先一覧表示用の要約情報。
type ContactSummary struct {
	ID        string
	FirstName *string
	LastName  *string
	AvatarURL *string
	Favorite  bool
}

// ContactNameInput は連絡先編集フォームで更新可能な項目。
type ContactNameInput struct {
	FirstName *string
	LastName  *string
	AvatarURL *string
}

// Note は連絡先に紐づくメモを表す。
type Note struct {
	ID        string
	ContactID string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
