package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spendshare/internal/config"
	"spendshare/internal/model"
)

// memRefreshTokenRepository keeps refresh tokens in memory, keyed by hash.
type memRefreshTokenRepository struct {
	byHash map[string]*model.RefreshToken
	nextID int
}

func newMemRefreshTokenRepository() *memRefreshTokenRepository {
	return &memRefreshTokenRepository{byHash: make(map[string]*model.RefreshToken)}
}

func (m *memRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	m.nextID++
	token.ID = fmt.Sprintf("token-%d", m.nextID)
	token.CreatedAt = time.Now()
	stored := *token
	m.byHash[token.TokenHash] = &stored
	return nil
}

func (m *memRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token, ok := m.byHash[tokenHash]
	if !ok {
		return nil, model.ErrRefreshTokenNotFound
	}
	copied := *token
	return &copied, nil
}

func (m *memRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	for _, token := range m.byHash {
		if token.ID == id {
			now := time.Now()
			token.RevokedAt = &now
			token.ReplacedBy = replacedBy
			return nil
		}
	}
	return model.ErrRefreshTokenNotFound
}

func (m *memRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	now := time.Now()
	for _, token := range m.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			token.RevokedAt = &now
		}
	}
	return nil
}

func (m *memRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (m *memRefreshTokenRepository) activeTokensForUser(userID int64) int {
	n := 0
	for _, token := range m.byHash {
		if token.UserID == userID && token.RevokedAt == nil {
			n++
		}
	}
	return n
}

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 2592000,
	}
}

func TestAuthService_GenerateTokenPair(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())

	pair, err := svc.GenerateTokenPair(context.Background(), 42, "test-device", "127.0.0.1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be set")
	}
	if pair.ExpiresIn != 900 {
		t.Errorf("expires_in = %d, want 900", pair.ExpiresIn)
	}

	// Access token carries the user id and verifies with the secret
	token, err := jwt.Parse(pair.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse access token: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if int64(claims["user_id"].(float64)) != 42 {
		t.Errorf("user_id claim = %v, want 42", claims["user_id"])
	}

	// Only the hash is persisted, never the raw token
	if _, ok := repo.byHash[pair.RefreshToken]; ok {
		t.Error("raw refresh token must not be used as the storage key")
	}
	if repo.activeTokensForUser(42) != 1 {
		t.Errorf("active tokens = %d, want 1", repo.activeTokensForUser(42))
	}
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	newPair, userID, err := svc.RefreshTokens(ctx, pair.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
	if newPair.RefreshToken == pair.RefreshToken {
		t.Error("rotation must issue a different refresh token")
	}

	// The old token is now revoked and linked to its replacement
	old, err := repo.FindByTokenHash(ctx, svc.hashToken(pair.RefreshToken))
	if err != nil {
		t.Fatalf("find old token: %v", err)
	}
	if !old.IsRevoked() {
		t.Error("rotated token should be revoked")
	}
	if old.ReplacedBy == nil {
		t.Error("rotated token should record its replacement")
	}
}

// Replaying an already-rotated token revokes the entire family.
func TestAuthService_RefreshTokens_ReuseDetection(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := svc.RefreshTokens(ctx, pair.RefreshToken, "", ""); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	// Second use of the same token is a replay
	_, _, err = svc.RefreshTokens(ctx, pair.RefreshToken, "", "")
	if !errors.Is(err, model.ErrRefreshTokenReused) {
		t.Fatalf("error = %v, want ErrRefreshTokenReused", err)
	}

	if n := repo.activeTokensForUser(42); n != 0 {
		t.Errorf("active tokens after reuse = %d, want 0", n)
	}
}

func TestAuthService_RefreshTokens_Expired(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	cfg := testAuthConfig()
	cfg.RefreshTokenMaxAge = -1 // Issued already expired
	svc := NewAuthService(repo, cfg)
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, _, err = svc.RefreshTokens(ctx, pair.RefreshToken, "", "")
	if !errors.Is(err, model.ErrRefreshTokenExpired) {
		t.Errorf("error = %v, want ErrRefreshTokenExpired", err)
	}
}

func TestAuthService_RefreshTokens_Unknown(t *testing.T) {
	svc := NewAuthService(newMemRefreshTokenRepository(), testAuthConfig())

	_, _, err := svc.RefreshTokens(context.Background(), "never-issued", "", "")
	if !errors.Is(err, model.ErrRefreshTokenNotFound) {
		t.Errorf("error = %v, want ErrRefreshTokenNotFound", err)
	}
}

func TestAuthService_RevokeRefreshToken(t *testing.T) {
	repo := newMemRefreshTokenRepository()
	svc := NewAuthService(repo, testAuthConfig())
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := svc.RevokeRefreshToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if n := repo.activeTokensForUser(42); n != 0 {
		t.Errorf("active tokens = %d, want 0", n)
	}
}
