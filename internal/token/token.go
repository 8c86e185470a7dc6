package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope restricts which verification operation accepts a signed token.
// Every token kind carries its own tag; a token issued for one operation
// is never accepted by another.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
	ScopeReset   = "password_reset"
)

// emailTTL is fixed, not configurable.
const emailTTL = time.Hour

var (
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrInvalidScope       = errors.New("invalid token scope")
	ErrUnprocessableToken = errors.New("unprocessable token")
	ErrScopeMismatch      = errors.New("token scope mismatch")
)

type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Service signs and verifies all token kinds with one shared secret and
// HS256. Construct it once in main and pass it by reference, there is no
// package-level state.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewService(secret []byte, accessTTL, refreshTTL, resetTTL time.Duration) *Service {
	return &Service{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

func (s *Service) sign(subject, scope string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) IssueAccess(subject string) (string, error) {
	return s.sign(subject, ScopeAccess, s.accessTTL)
}

func (s *Service) IssueRefresh(subject string) (string, error) {
	return s.sign(subject, ScopeRefresh, s.refreshTTL)
}

func (s *Service) IssueEmail(subject string) (string, error) {
	return s.sign(subject, ScopeEmail, emailTTL)
}

func (s *Service) IssueReset(subject string) (string, error) {
	return s.sign(subject, ScopeReset, s.resetTTL)
}

func (s *Service) parse(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// VerifyAccess authenticates a caller. Every failure mode collapses into
// ErrInvalidCredentials so the response never reveals which check failed.
func (s *Service) VerifyAccess(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if claims.Scope != ScopeAccess || claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// VerifyRefresh reports a wrong scope distinctly from an undecodable token.
func (s *Service) VerifyRefresh(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if claims.Scope != ScopeRefresh {
		return "", ErrInvalidScope
	}
	if claims.Subject == "" {
		return "", ErrInvalidCredentials
	}
	return claims.Subject, nil
}

// VerifyEmail returns ErrUnprocessableToken when the token cannot be
// decoded and ErrScopeMismatch when it decodes but was issued for another
// operation. The HTTP layer answers both with the same body.
func (s *Service) VerifyEmail(raw string) (string, error) {
	return s.verifyOneTime(raw, ScopeEmail)
}

// VerifyReset follows the same policy as VerifyEmail.
func (s *Service) VerifyReset(raw string) (string, error) {
	return s.verifyOneTime(raw, ScopeReset)
}

func (s *Service) verifyOneTime(raw, scope string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", ErrUnprocessableToken
	}
	if claims.Scope != scope {
		return "", ErrScopeMismatch
	}
	return claims.Subject, nil
}
