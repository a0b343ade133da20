// Package auth はパスワード認証、署名付きCookieセッション、認証ガードを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/contactbook/internal/metrics"
	"github.com/hitoshi/contactbook/internal/model"
	"github.com/hitoshi/contactbook/internal/repository"
)

// Hasher はパスワードのハッシュ化と検証のインターフェース。
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, stored string) (bool, error)
}

// EventRecorder は認証イベントの記録先。
type EventRecorder interface {
	RecordLogin(result string)
	RecordSignup(result string)
}

// Service はユーザー登録とログインのビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   Hasher
	recorder EventRecorder

	// dummyHash はユーザー不在時の検証に使い、応答時間からの存在推測を防ぐ
	dummyOnce sync.Once
	dummyHash string
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(userRepo repository.UserRepository, hasher Hasher, recorder EventRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		recorder: recorder,
	}
}

// Join は新規ユーザーを登録する。
// 同じメールアドレスのユーザーが存在する場合はmodel.ErrEmailTakenを返す。
func (s *Service) Join(ctx context.Context, email, password string) (*model.User, error) {
	// 1. 既存ユーザーの確認
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.recordSignup(metrics.ResultError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		s.recordSignup(metrics.ResultEmailTaken)
		return nil, model.ErrEmailTaken
	}

	// 2. パスワードのハッシュ化
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.recordSignup(metrics.ResultError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. ユーザーと資格情報を同一トランザクションで作成
	now := time.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	credential := &model.Credential{UserID: user.ID, Hash: hash}

	if err := s.userRepo.CreateWithCredential(ctx, user, credential); err != nil {
		// 確認後に同時登録された場合
		if errors.Is(err, model.ErrEmailTaken) {
			s.recordSignup(metrics.ResultEmailTaken)
			return nil, model.ErrEmailTaken
		}
		s.recordSignup(metrics.ResultError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recordSignup(metrics.ResultSuccess)
	slog.Info("user signed up", slog.String("user_id", user.ID))
	return user, nil
}

// Login はメールアドレスとパスワードを検証してユーザーを返す。
// メールアドレスとパスワードのどちらが誤っていてもmodel.ErrInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	uc, err := s.userRepo.FindByEmailWithCredential(ctx, email)
	if err != nil {
		s.recordLogin(metrics.ResultError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if uc == nil || uc.Credential == nil {
		if err := s.burnVerify(ctx, password); err != nil {
			s.recordLogin(metrics.ResultError)
			return nil, err
		}
		s.recordLogin(metrics.ResultInvalidCredentials)
		slog.Warn("login failed", slog.String("reason", "unknown user"))
		return nil, model.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, password, uc.Credential.Hash)
	if err != nil {
		s.recordLogin(metrics.ResultError)
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.recordLogin(metrics.ResultInvalidCredentials)
		slog.Warn("login failed",
			slog.String("reason", "password mismatch"),
			slog.String("user_id", uc.ID),
		)
		return nil, model.ErrInvalidCredentials
	}

	s.recordLogin(metrics.ResultSuccess)
	slog.Info("user logged in", slog.String("user_id", uc.ID))
	user := uc.User
	return &user, nil
}

// burnVerify は存在しないユーザーに対してもハッシュ検証1回分の処理を行う。
func (s *Service) burnVerify(ctx context.Context, password string) error {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(ctx, "contactbook-dummy-password")
		if err != nil {
			slog.Error("failed to prepare dummy hash", slog.String("error", err.Error()))
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash == "" {
		return nil
	}
	if _, err := s.hasher.Verify(ctx, password, s.dummyHash); err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	return nil
}

func (s *Service) recordLogin(result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(result)
	}
}

func (s *Service) recordSignup(result string) {
	if s.recorder != nil {
		s.recorder.RecordSignup(result)
	}
}
