package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/contactbook/internal/model"
)

// PostgresContactRepo はPostgreSQLを使用した連絡先リポジトリ。
type PostgresContactRepo struct {
	db *sql.DB
}

// NewPostgresContactRepo はPostgresContactRepoを生成する。
func NewPostgresContactRepo(db *sql.DB) *PostgresContactRepo {
	return &PostgresContactRepo{db: db}
}

const contactColumns = `id, user_id, first_name, last_name, avatar_url, favorite,
	title, company, email, phone, location, twitter_handle, website_url, linkedin_url, about,
	created_at, updated_at`

// CountByUserID はユーザーの連絡先総数を返す。
func (r *PostgresContactRepo) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM contacts WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// ListByUserID はユーザーの連絡先一覧を返す。
// queryが空でない場合は姓名のILIKE部分一致で絞り込む。
func (r *PostgresContactRepo) ListByUserID(ctx context.Context, userID, query string) ([]model.ContactSummary, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, first_name, last_name, avatar_url, favorite
			 FROM contacts
			 WHERE user_id = $1
			 ORDER BY last_name ASC, created_at ASC`,
			userID,
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT id, first_name, last_name, avatar_url, favorite
			 FROM contacts
			 WHERE user_id = $1
			   AND (first_name ILIKE $2 ESCAPE '\' OR last_name ILIKE $2 ESCAPE '\')
			 ORDER BY last_name ASC, created_at ASC`,
			userID, "%"+escapeLike(query)+"%",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.ContactSummary{}
	for rows.Next() {
		var c model.ContactSummary
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.AvatarURL, &c.Favorite); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, nil
}

// Create は連絡先を作成する。
func (r *PostgresContactRepo) Create(ctx context.Context, c *model.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		c.ID, c.UserID, c.FirstName, c.LastName, c.AvatarURL, c.Favorite,
		c.Title, c.Company, c.Email, c.Phone, c.Location, c.TwitterHandle, c.WebsiteURL, c.LinkedinURL, c.About,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// FindByID は指定IDの連絡先を取得する。
// 存在しない場合および他ユーザーの連絡先の場合はnilを返す。
func (r *PostgresContactRepo) FindByID(ctx context.Context, userID, id string) (*model.Contact, error) {
	c := &model.Contact{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(
		&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.AvatarURL, &c.Favorite,
		&c.Title, &c.Company, &c.Email, &c.Phone, &c.Location, &c.TwitterHandle, &c.WebsiteURL, &c.LinkedinURL, &c.About,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find contact by ID: %w", err)
	}

	return c, nil
}

// UpdateName は連絡先の氏名とアバターURLを更新する。
func (r *PostgresContactRepo) UpdateName(ctx context.Context, userID, id string, input model.ContactNameInput) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE contacts
		 SET first_name = $1, last_name = $2, avatar_url = $3, updated_at = now()
		 WHERE id = $4 AND user_id = $5`,
		input.FirstName, input.LastName, input.AvatarURL, id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update contact: %w", err)
	}
	return affectedOne(result)
}

// ToggleFavorite はお気に入りフラグを単一のUPDATE文で反転する。
func (r *PostgresContactRepo) ToggleFavorite(ctx context.Context, userID, id string) (bool, bool, error) {
	var favorite bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE contacts
		 SET favorite = NOT favorite, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING favorite`,
		id, userID,
	).Scan(&favorite)

	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return favorite, true, nil
}

// Delete は連絡先を削除する。
func (r *PostgresContactRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete contact: %w", err)
	}
	return affectedOne(result)
}

// escapeLike はLIKEパターンのワイルドカード文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// affectedOne は更新系SQLが1行以上に作用したかを返す。
func affectedOne(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ ContactRepository = (*PostgresContactRepo)(nil)
