// Package contact は連絡先管理のドメインロジックを提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
	"github.com/hitoshi/contactbook/internal/security"
)

// ContactList は連絡先一覧と、検索条件に関係なく数えた総数。
type ContactList struct {
	Contacts []model.ContactSummary
	Total    int
}

// Service は連絡先管理のサービス層。
// すべての操作は呼び出し元ユーザーの所有する連絡先に限定される。
type Service struct {
	repo      repository.ContactRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.ContactRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List はユーザーの連絡先一覧を返す。queryは姓名の部分一致検索に使う。
func (s *Service) List(ctx context.Context, userID, query string) (*ContactList, error) {
	contacts, err := s.repo.ListByUserID(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	total, err := s.repo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	return &ContactList{Contacts: contacts, Total: total}, nil
}

// Create は空の連絡先を作成する。作成後は編集画面で内容を入力する。
func (s *Service) Create(ctx context.Context, userID string) (*model.Contact, error) {
	now := time.Now()
	c := &model.Contact{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	slog.Info("contact created",
		slog.String("user_id", userID),
		slog.String("contact_id", c.ID),
	)
	return c, nil
}

// Get は連絡先を取得する。他ユーザーの連絡先は見つからないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Contact, error) {
	c, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	if c == nil {
		return nil, model.NewContactNotFoundError()
	}
	return c, nil
}

// UpdateName は連絡先の氏名とアバターURLを更新する。
// 氏名はマークアップを除去し、空になった項目はnilとして保存する。
func (s *Service) UpdateName(ctx context.Context, userID, id string, input model.ContactNameInput) error {
	sanitized := model.ContactNameInput{
		FirstName: s.cleanText(input.FirstName),
		LastName:  s.cleanText(input.LastName),
	}

	if input.AvatarURL != nil {
		u, ok := s.sanitizer.SanitizeURL(*input.AvatarURL)
		if !ok {
			return model.NewValidationError("avatarUrl", "Invalid url")
		}
		sanitized.AvatarURL = &u
	}

	found, err := s.repo.UpdateName(ctx, userID, id, sanitized)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if !found {
		return model.NewContactNotFoundError()
	}
	return nil
}

// ToggleFavorite はお気に入りを反転し、反転後の値を返す。
func (s *Service) ToggleFavorite(ctx context.Context, userID, id string) (bool, error) {
	favorite, found, err := s.repo.ToggleFavorite(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if !found {
		return false, model.NewContactNotFoundError()
	}
	return favorite, nil
}

// Delete は連絡先を削除する。メモも合わせて削除される。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if !found {
		return model.NewContactNotFoundError()
	}

	slog.Info("contact deleted",
		slog.String("user_id", userID),
		slog.String("contact_id", id),
	)
	return nil
}

func (s *Service) cleanText(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := s.sanitizer.SanitizeText(*v)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
