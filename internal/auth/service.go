package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/councilbooks/councilbooks/internal/shared"
)

// Service wraps authentication business rules: password verification and
// bearer-token issue/verify for the API surface.
type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
}

// NewService constructs a Service.
func NewService(repo Repository, tokenSecret string, tokenTTL time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(tokenSecret), tokenTTL: tokenTTL}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken returns a signed bearer token for the user.
func (s *Service) IssueToken(user *User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses a bearer token and returns the user ID it names.
func (s *Service) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("auth: invalid token")
	}
	return strconv.ParseInt(claims.Subject, 10, 64)
}

// LookupUser fetches a user by ID for identity resolution.
func (s *Service) LookupUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
