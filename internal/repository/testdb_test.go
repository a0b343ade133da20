package repository

import (
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/hitoshi/contactbook/internal/database"
	"github.com/hitoshi/contactbook/internal/model"
)

// openTestDB はマイグレーション済みのテスト用DBを返す。
// TEST_DATABASE_URL が未設定または接続できない場合はスキップする。
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("テスト用データベースに接続できません（スキップ）: %v", err)
	}

	if err := database.RunMigrations(dbURL); err != nil {
		db.Close()
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE users, passwords, contacts, notes CASCADE`); err != nil {
		db.Close()
		t.Fatalf("テーブルの初期化に失敗: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// insertUser はテスト用ユーザーを作成する。
func insertUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	now := time.Now()
	repo := NewPostgresUserRepo(db)
	err := repo.CreateWithCredential(t.Context(),
		&model.User{ID: id, Email: email, CreatedAt: now, UpdatedAt: now},
		&model.Credential{UserID: id, Hash: "salt:key"},
	)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
}

// insertContact はテスト用連絡先を作成する。
func insertContact(t *testing.T, db *sql.DB, userID, id string, first, last *string, createdAt time.Time) {
	t.Helper()
	repo := NewPostgresContactRepo(db)
	err := repo.Create(t.Context(), &model.Contact{
		ID: id, UserID: userID, FirstName: first, LastName: last,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("failed to create contact %s: %v", id, err)
	}
}

func strPtr(s string) *string { return &s }
