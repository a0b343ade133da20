package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/contactbook/internal/model"
)

// PostgresNoteRepo はPostgreSQLを使用したメモリポジトリ。
// 所有確認はcontactsテーブルのuser_idとの結合で行う。
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo はPostgresNoteRepoを生成する。
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

// ListByContact は連絡先のメモ一覧を作成日時の降順で返す。
func (r *PostgresNoteRepo) ListByContact(ctx context.Context, userID, contactID string) ([]model.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT n.id, n.contact_id, n.title, n.body, n.created_at, n.updated_at
		 FROM notes n
		 JOIN contacts c ON c.id = n.contact_id
		 WHERE n.contact_id = $1 AND c.user_id = $2
		 ORDER BY n.created_at DESC`,
		contactID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.ContactID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

// FindByID は指定IDのメモを取得する。見つからない場合はnilを返す。
func (r *PostgresNoteRepo) FindByID(ctx context.Context, userID, contactID, id string) (*model.Note, error) {
	n := &model.Note{}
	err := r.db.QueryRowContext(ctx,
		`SELECT n.id, n.contact_id, n.title, n.body, n.created_at, n.updated_at
		 FROM notes n
		 JOIN contacts c ON c.id = n.contact_id
		 WHERE n.id = $1 AND n.contact_id = $2 AND c.user_id = $3`,
		id, contactID, userID,
	).Scan(&n.ID, &n.ContactID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note by ID: %w", err)
	}

	return n, nil
}

// Create はメモを作成する。連絡先がユーザーの所有でない場合は挿入せずfalseを返す。
func (r *PostgresNoteRepo) Create(ctx context.Context, userID string, n *model.Note) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, contact_id, title, body, created_at, updated_at)
		 SELECT $1::text, c.id, $3::text, $4::text, $5::timestamptz, $6::timestamptz
		 FROM contacts c
		 WHERE c.id = $2 AND c.user_id = $7`,
		n.ID, n.ContactID, n.Title, n.Body, n.CreatedAt, n.UpdatedAt, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create note: %w", err)
	}
	return affectedOne(result)
}

// Update はメモのタイトルと本文を更新する。
func (r *PostgresNoteRepo) Update(ctx context.Context, userID string, n *model.Note) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes
		 SET title = $1, body = $2, updated_at = $3
		 FROM contacts c
		 WHERE notes.id = $4 AND notes.contact_id = $5
		   AND c.id = notes.contact_id AND c.user_id = $6`,
		n.Title, n.Body, n.UpdatedAt, n.ID, n.ContactID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update note: %w", err)
	}
	return affectedOne(result)
}

// Delete はメモを削除する。
func (r *PostgresNoteRepo) Delete(ctx context.Context, userID, contactID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes
		 USING contacts c
		 WHERE notes.id = $1 AND notes.contact_id = $2
		   AND c.id = notes.contact_id AND c.user_id = $3`,
		id, contactID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	return affectedOne(result)
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)
