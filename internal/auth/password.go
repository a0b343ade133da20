package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/semaphore"

	"github.com/hitoshi/contactbook/internal/model"
)

// scrypt(16384, 8, 1) で64バイトの鍵を導出する。保存済みハッシュとの互換のため変更不可。
const (
	saltSize  = 16
	scryptN   = 16384
	scryptR   = 8
	scryptP   = 1
	keyLength = 64
)

// defaultMaxConcurrentHashes は同時に実行できる鍵導出数の既定値。
const defaultMaxConcurrentHashes = 4

// HasherConfig はパスワードハッシャーの設定。
type HasherConfig struct {
	// MaxConcurrent は同時に実行できる鍵導出の上限。0以下の場合は既定値を使う。
	MaxConcurrent int
	// Observe は鍵導出ごとに呼ばれる。opは "hash" または "verify"。nilの場合は何もしない。
	Observe func(op string, duration time.Duration)
}

// PasswordHasher はscryptによるパスワードのハッシュ化と検証を提供する。
// 保存形式は "saltHex:derivedKeyHex"。
type PasswordHasher struct {
	sem     *semaphore.Weighted
	observe func(op string, duration time.Duration)
	derive  func(password, salt []byte) ([]byte, error)
	random  func(b []byte) (int, error)
}

// NewPasswordHasher はPasswordHasherを生成する。
func NewPasswordHasher(cfg HasherConfig) *PasswordHasher {
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = defaultMaxConcurrentHashes
	}
	return &PasswordHasher{
		sem:     semaphore.NewWeighted(int64(limit)),
		observe: cfg.Observe,
		derive:  deriveKey,
		random:  rand.Read,
	}
}

// Hash は新しいソルトを生成してパスワードを導出し、"saltHex:keyHex" を返す。
// ソルトは16進文字列のままscryptへ渡す。
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	raw := make([]byte, saltSize)
	if _, err := h.random(raw); err != nil {
		return "", fmt.Errorf("%w: failed to generate salt: %v", model.ErrHashingFailure, err)
	}
	salt := hex.EncodeToString(raw)

	key, err := h.run(ctx, "hash", password, salt)
	if err != nil {
		return "", err
	}

	return salt + ":" + hex.EncodeToString(key), nil
}

// Verify はパスワードが保存済みハッシュと一致するかを検証する。
// 形式が不正な場合と不一致の場合はfalseを返し、エラーにはしない。
func (h *PasswordHasher) Verify(ctx context.Context, password, stored string) (bool, error) {
	salt, expected, ok := strings.Cut(stored, ":")
	if !ok {
		return false, nil
	}

	key, err := h.run(ctx, "verify", password, salt)
	if err != nil {
		return false, err
	}

	actual := hex.EncodeToString(key)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1, nil
}

// run はセマフォで同時実行数を制限して鍵導出を行う。
// 待機中にctxがキャンセルされた場合はctxのエラーを返す。
func (h *PasswordHasher) run(ctx context.Context, op, password, salt string) ([]byte, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	start := time.Now()
	key, err := h.derive([]byte(password), []byte(salt))
	if h.observe != nil {
		h.observe(op, time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrHashingFailure, err)
	}
	return key, nil
}

func deriveKey(password, salt []byte) ([]byte, error) {
	return scrypt.Key(password, salt, scryptN, scryptR, scryptP, keyLength)
}
