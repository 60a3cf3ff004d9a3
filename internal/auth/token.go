package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sa-auth/internal/users"
)

const (
	// AccessTTL and RefreshTTL are the two token lifetimes the codec mints.
	AccessTTL  = 12 * time.Hour
	RefreshTTL = 30 * 24 * time.Hour
)

// Claims carries the public user projection. The credential hash never
// enters a token payload.
type Claims struct {
	User users.DTO `json:"user"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies both token classes with one HMAC key.
type TokenService struct {
	key []byte
	now func() time.Time
}

func NewTokenService(key []byte) *TokenService {
	return &TokenService{key: key, now: time.Now}
}

// Generate mints an access/refresh pair for the given projection.
func (s *TokenService) Generate(dto users.DTO) (users.TokenPair, error) {
	access, err := s.sign(dto, AccessTTL)
	if err != nil {
		return users.TokenPair{}, err
	}
	refresh, err := s.sign(dto, RefreshTTL)
	if err != nil {
		return users.TokenPair{}, err
	}
	return users.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(dto users.DTO, ttl time.Duration) (string, error) {
	claims := &Claims{
		User: dto,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate fails closed: signature mismatch, malformed input and expiry all
// come back as a plain error for the caller to map to an auth failure.
func (s *TokenService) Validate(tokenString string) (*users.DTO, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims.User, nil
}
