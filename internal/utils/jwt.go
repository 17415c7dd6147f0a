package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/example/tandoor/internal/models"
)

type jwtCustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT carrying the staff member's ID and
// role.
func GenerateToken(secret string, userID uuid.UUID, role models.Role, ttl time.Duration) (string, error) {
	claims := &jwtCustomClaims{
		UserID: userID.String(),
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded user ID and
// role.
func ParseToken(secret, tokenString string) (uuid.UUID, models.Role, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	if claims, ok := token.Claims.(*jwtCustomClaims); ok && token.Valid {
		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			return uuid.Nil, "", err
		}
		return id, models.Role(claims.Role), nil
	}

	return uuid.Nil, "", jwt.ErrTokenInvalidClaims
}
