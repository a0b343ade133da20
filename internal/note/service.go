// Package note は連絡先に紐づくメモのドメインロジックを提供する。
package note

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
	"github.com/hitoshi/contactbook/internal/security"
)

// Input はメモ作成・編集フォームの入力値。
type Input struct {
	Title string
	Body  string
}

// Service はメモ管理のサービス層。
// 連絡先の所有ユーザー以外からの操作は見つからないものとして扱う。
type Service struct {
	contactRepo repository.ContactRepository
	noteRepo    repository.NoteRepository
	sanitizer   security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	contactRepo repository.ContactRepository,
	noteRepo repository.NoteRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		contactRepo: contactRepo,
		noteRepo:    noteRepo,
		sanitizer:   sanitizer,
	}
}

// List は連絡先のメモ一覧を新しい順に返す。
// 連絡先が存在しない場合はCONTACT_NOT_FOUNDを返す。
func (s *Service) List(ctx context.Context, userID, contactID string) ([]model.Note, error) {
	if err := s.ensureContact(ctx, userID, contactID); err != nil {
		return nil, err
	}

	notes, err := s.noteRepo.ListByContact(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Get はメモを取得する。
func (s *Service) Get(ctx context.Context, userID, contactID, noteID string) (*model.Note, error) {
	n, err := s.noteRepo.FindByID(ctx, userID, contactID, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to find note: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError()
	}
	return n, nil
}

// Create はメモを作成する。
func (s *Service) Create(ctx context.Context, userID, contactID string, input Input) (*model.Note, error) {
	title, body, err := s.clean(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	n := &model.Note{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.noteRepo.Create(ctx, userID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if !created {
		return nil, model.NewContactNotFoundError()
	}
	return n, nil
}

// Update はメモのタイトルと本文を更新する。
func (s *Service) Update(ctx context.Context, userID, contactID, noteID string, input Input) error {
	title, body, err := s.clean(input)
	if err != nil {
		return err
	}

	updated, err := s.noteRepo.Update(ctx, userID, &model.Note{
		ID:        noteID,
		ContactID: contactID,
		Title:     title,
		Body:      body,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if !updated {
		return model.NewNoteNotFoundError()
	}
	return nil
}

// Delete はメモを削除する。
func (s *Service) Delete(ctx context.Context, userID, contactID, noteID string) error {
	deleted, err := s.noteRepo.Delete(ctx, userID, contactID, noteID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if !deleted {
		return model.NewNoteNotFoundError()
	}
	return nil
}

func (s *Service) ensureContact(ctx context.Context, userID, contactID string) error {
	c, err := s.contactRepo.FindByID(ctx, userID, contactID)
	if err != nil {
		return fmt.Errorf("failed to find contact: %w", err)
	}
	if c == nil {
		return model.NewContactNotFoundError()
	}
	return nil
}

// clean はマークアップを除去し、空になった項目を検証エラーにする。
func (s *Service) clean(input Input) (string, string, error) {
	title := s.sanitizer.SanitizeText(input.Title)
	body := s.sanitizer.SanitizeText(input.Body)

	var vErr *model.ValidationError
	if title == "" {
		vErr = model.NewValidationError("title", "Title is required")
	}
	if body == "" {
		if vErr == nil {
			vErr = &model.ValidationError{Fields: map[string][]string{}}
		}
		vErr.Fields["body"] = []string{"Description is required"}
	}
	if vErr != nil {
		return "", "", vErr
	}
	return title, body, nil
}
