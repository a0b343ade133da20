package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credential はユーザーのパスワード資格情報を表す。
// Hashは "salt:derivedKeyHex" 形式で、平文は保持しない。
type Credential struct {
	UserID string
	Hash   string
}

// UserWithCredential はログイン検証用にユーザーと資格情報を結合した構造体。
// 資格情報が存在しない場合、Credentialはnilとなる。
type UserWithCredential struct {
	User
	Credential *Credential
}
