// Package auth verifies access tokens and resolves the caller of a request.
package auth

import (
	"context"
	"errors"
	"fmt"

	"bugboard/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the access-token claims the API reads.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Strategy verifies a token one way. A strategy that is not configured
// returns an error without doing any work.
type Strategy interface {
	Name() string
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Verifier tries each strategy in order and accepts the first success.
type Verifier struct {
	strategies []Strategy
}

func NewVerifier(strategies ...Strategy) *Verifier {
	return &Verifier{strategies: strategies}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	fields := make([]zap.Field, 0, len(v.strategies))
	for _, s := range v.strategies {
		claims, err := s.Verify(ctx, token)
		if err == nil {
			return claims, nil
		}
		fields = append(fields, zap.NamedError(s.Name(), err))
	}
	logger.SecurityLogger.Warn("token rejected", fields...)
	return nil, ErrInvalidToken
}

// checkClaims enforces what jwt's own Valid does not: issuer, audience and a
// subject. Empty issuer or audience disables that check.
func checkClaims(claims *Claims, issuer, audience string) error {
	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if audience != "" && !claims.VerifyAudience(audience, true) {
		return fmt.Errorf("%w: audience", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return nil
}

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// HMACStrategy verifies tokens signed with the shared project secret.
type HMACStrategy struct {
	secret   []byte
	issuer   string
	audience string
}

func NewHMACStrategy(secret, issuer, audience string) *HMACStrategy {
	return &HMACStrategy{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (s *HMACStrategy) Name() string { return "hmac" }

func (s *HMACStrategy) Verify(_ context.Context, token string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, errors.New("hmac secret not configured")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods(hmacMethods))
	if err != nil {
		return nil, err
	}
	if err := checkClaims(claims, s.issuer, s.audience); err != nil {
		return nil, err
	}
	return claims, nil
}
