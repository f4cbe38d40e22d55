package gateway

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

const tokenLifetime = 24 * time.Hour

// TokenValidator issues and validates the HMAC-signed bearer tokens whose
// subject claim carries the caller's subject identifier.
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator creates a token validator.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

// subjectClaims are the claims carried by a BlockHealth token.
type subjectClaims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a token for the given subject.
func (tv *TokenValidator) IssueToken(subject types.SubjectID) (string, error) {
	now := time.Now()
	claims := &subjectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    tv.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tv.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token string and returns the subject it was issued
// for.
func (tv *TokenValidator) ValidateToken(tokenString string) (types.SubjectID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &subjectClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tv.secret, nil
	}, jwt.WithIssuer(tv.issuer))
	if err != nil {
		return types.ZeroSubject, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return types.ZeroSubject, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*subjectClaims)
	if !ok {
		return types.ZeroSubject, fmt.Errorf("invalid token claims")
	}

	subject, err := types.ParseSubjectID(claims.Subject)
	if err != nil {
		return types.ZeroSubject, fmt.Errorf("token subject is not a valid identifier: %w", err)
	}
	return subject, nil
}
