package jwt

import (
	"errors"
	"time"

	"github.com/NeuralTrust/AltGuard/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrMissingKey   = errors.New("jwt secret key is not configured")
)

const issuer = "altguard"

//go:generate mockery --name=Manager --dir=. --output=mocks/ --filename=jwt_manager_mock.go --case=underscore --with-expecter
type (
	Manager interface {
		CreateToken(subject string) (string, error)
		DecodeToken(tokenString string) (*Claims, error)
	}
	manager struct {
		config *config.ServerConfig
		now    func() time.Time
	}
)

func NewJwtManager(config *config.ServerConfig) Manager {
	return &manager{
		config: config,
		now:    time.Now,
	}
}

// Claims identify an admin caller. Subject ends up in the added_by field of
// list entries created through the API.
type Claims struct {
	jwt.RegisteredClaims
}

func (m *manager) CreateToken(subject string) (string, error) {
	if m.config.SecretKey == "" {
		return "", ErrMissingKey
	}
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.config.TokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TokenTTL))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// DecodeToken verifies the HS256 signature and the expiry.
func (m *manager) DecodeToken(tokenString string) (*Claims, error) {
	if m.config.SecretKey == "" {
		return nil, ErrMissingKey
	}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			return []byte(m.config.SecretKey), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
