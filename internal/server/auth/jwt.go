// Package auth implements the password digest and the HS512 bearer-token
// signing used by the gophauth server.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService signs arbitrary JSON payloads into HS512 tokens and verifies them.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Sign serialises payload into the token claims and adds "iat" and "exp"
// (now + expiry). payload must encode to a JSON object.
func (s *TokenService) Sign(payload any, expiry time.Duration) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(b, &claims); err != nil {
		return "", fmt.Errorf("token payload must be an object: %w", err)
	}

	now := s.now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(expiry).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns its claims.
// A token whose algorithm is not in allowedAlgorithms fails with
// common.ErrAlgorithmMismatch, including algorithms golang-jwt does not
// know; every other failure is common.ErrTokenInvalid.
func (s *TokenService) Verify(tokenString string, allowedAlgorithms []string) (map[string]any, error) {
	claims := jwt.MapClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if !slices.Contains(allowedAlgorithms, t.Method.Alg()) {
			return nil, common.ErrAlgorithmMismatch
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, common.ErrAlgorithmMismatch) || algorithmRejected(token, allowedAlgorithms) {
			return nil, common.ErrAlgorithmMismatch
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}

	return claims, nil
}

// algorithmRejected reports whether the decoded header names an algorithm
// outside allowed. The parser fails on unregistered algorithms before the
// keyfunc runs, so the header is checked here as well.
func algorithmRejected(token *jwt.Token, allowed []string) bool {
	if token == nil {
		return false
	}
	alg, ok := token.Header["alg"].(string)
	return ok && !slices.Contains(allowed, alg)
}
