package auth

import (
	"errors"
	"time"

	"reviewhub/proj/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type TokenProvider interface {
	NewConfirmationCode(user *models.User) (code string, hash []byte, err error)
	VerifyConfirmationCode(user *models.User, code string) bool
	NewAccessToken(user *models.User) (string, error)
	ParseAccessToken(token string) (userID int64, err error)
}

// JWTTokens issues opaque confirmation codes (stored only as bcrypt
// hashes) and signed access tokens.
type JWTTokens struct {
	secret   []byte
	tokenTTL time.Duration
}

func NewJWTTokens(secret string, tokenTTL time.Duration) *JWTTokens {
	return &JWTTokens{secret: []byte(secret), tokenTTL: tokenTTL}
}

func (t *JWTTokens) NewConfirmationCode(user *models.User) (string, []byte, error) {
	code := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	return code, hash, nil
}

func (t *JWTTokens) VerifyConfirmationCode(user *models.User, code string) bool {
	if len(user.ConfirmationCodeHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(user.ConfirmationCodeHash, []byte(code)) == nil
}

func (t *JWTTokens) NewAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"uid": user.ID,
		"exp": time.Now().Add(t.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

var ErrInvalidToken = errors.New("invalid or expired token")

func (t *JWTTokens) ParseAccessToken(token string) (int64, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	uid, ok := claims["uid"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return int64(uid), nil
}
