package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sobanshoaib/schedular-app-challenge/config"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the token payload. It replaces the browser-held role and
// username keys of the old client.
type Claims struct {
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	StudentID string      `json:"studentId,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) Actor() models.Actor {
	return models.Actor{Username: c.Username, Role: c.Role, StudentID: c.StudentID}
}

type account struct {
	hash  []byte
	actor models.Actor
}

// Service checks credentials and issues signed tokens.
type Service struct {
	secret   []byte
	ttl      time.Duration
	accounts map[string]account
	now      func() time.Time
}

// NewService hashes the configured passwords once; plaintext is not kept.
func NewService(cfg *config.AuthConfig) (*Service, error) {
	s := &Service{
		secret:   []byte(cfg.Secret),
		ttl:      cfg.TokenTTL,
		accounts: make(map[string]account, 2),
		now:      time.Now,
	}
	users := []struct {
		password string
		actor    models.Actor
	}{
		{cfg.ParentPassword, models.Actor{Username: cfg.ParentUsername, Role: models.RoleParent, StudentID: cfg.ParentStudentID}},
		{cfg.AdminPassword, models.Actor{Username: cfg.AdminUsername, Role: models.RoleAdmin}},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.actor.Username, err)
		}
		s.accounts[u.actor.Username] = account{hash: hash, actor: u.actor}
	}
	return s, nil
}

// Login returns a signed token for a matching username and password.
func (s *Service) Login(username, password string) (string, models.Actor, time.Time, error) {
	acc, ok := s.accounts[username]
	if !ok {
		return "", models.Actor{}, time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return "", models.Actor{}, time.Time{}, ErrInvalidCredentials
	}

	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := Claims{
		Username:  acc.actor.Username,
		Role:      acc.actor.Role,
		StudentID: acc.actor.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acc.actor.Username,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", models.Actor{}, time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, acc.actor, expires, nil
}

// ParseToken verifies the signature and expiry and returns the caller.
func (s *Service) ParseToken(raw string) (models.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	switch claims.Role {
	case models.RoleParent, models.RoleAdmin:
	default:
		return models.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims.Actor(), nil
}
