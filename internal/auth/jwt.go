package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload inside every token. Identity federation lives
// upstream: this service receives already-authenticated org and member
// ids and only binds them into a token for subsequent requests.
type Claims struct {
	MemberID string `json:"member_id"`
	OrgID    string `json:"org_id"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for a member of an org.
func GenerateToken(memberID, orgID, email, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		MemberID: memberID,
		OrgID:    orgID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "msgcore",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token string: signature, expiry, and that the
// signing method is HMAC (rejects algorithm-switching).
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
