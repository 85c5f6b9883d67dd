package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"plantserv/src/repository"
)

// IdentityProvider owns credentials. Verify resolves a bearer token
// to a stable user id and is always the first step of an
// authenticated call.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, name string) (userID string, err error)
	SignIn(ctx context.Context, email, password string) (token string, err error)
	Verify(ctx context.Context, token string) (userID string, err error)
}

type (
	// LocalIdentityProvider keeps bcrypt credential records in the
	// key-value store and issues HS256 bearer tokens.
	LocalIdentityProvider struct {
		store    repository.KVStore
		secret   []byte
		tokenTTL time.Duration
		logger   *zap.Logger
	}

	credentialRecord struct {
		UserID       string `json:"userId"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		PasswordHash string `json:"passwordHash"`
	}

	tokenClaims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		jwt.RegisteredClaims
	}
)

func credentialKey(email string) string {
	return "auth:cred:" + email
}

func NewLocalIdentityProvider(store repository.KVStore, secret string, tokenTTL time.Duration, logger *zap.Logger) *LocalIdentityProvider {
	return &LocalIdentityProvider{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (p *LocalIdentityProvider) SignUp(ctx context.Context, email, password, name string) (string, error) {
	_, ok, err := p.store.Get(ctx, credentialKey(email))
	if err != nil {
		return "", err
	}
	if ok {
		return "", fmt.Errorf("%w: user with this email already exists", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	record := credentialRecord{
		UserID:       userID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := p.store.Set(ctx, credentialKey(email), record); err != nil {
		return "", err
	}
	p.logger.Info("created user", zap.String("userId", userID))
	return userID, nil
}

func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	raw, ok, err := p.store.Get(ctx, credentialKey(email))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: unknown email", ErrUnauthorized)
	}
	var record credentialRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return "", fmt.Errorf("%w: decode credential record: %v", repository.ErrStorage, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	now := time.Now()
	claims := &tokenClaims{
		Email: record.Email,
		Name:  record.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   record.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	p.logger.Info("user signed in", zap.String("userId", record.UserID))
	return token, nil
}

func (p *LocalIdentityProvider) Verify(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", ErrUnauthorized)
	}
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	return claims.Subject, nil
}
