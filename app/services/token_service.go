package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/linkforge/linkforge/utils"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenService handles JWT token generation and validation
type TokenService interface {
	GenerateTokens(customerID uint) (accessToken, refreshToken string, err error)
	ValidateToken(token string) (*TokenClaims, error)
	RefreshToken(refreshToken string) (newAccessToken, newRefreshToken string, err error)
	RevokeToken(token string) error
	GenerateAdminTokens(customerID uint) (accessToken, refreshToken string, err error)
	ValidateAdminToken(token string) (*TokenClaims, error)
}

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	CustomerID uint      `json:"customer_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	TokenType  string    `json:"token_type"` // "access" or "refresh"
	TokenID    string    `json:"jti"`
}

// TokenServiceImpl implements TokenService with HMAC signing
type TokenServiceImpl struct {
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	secretKey       []byte
	issuer          string
	audience        string
	adminAudience   string
	mu              sync.RWMutex
	revokedTokens   map[string]time.Time // jti -> expiry
}

// NewTokenService creates a new token service
func NewTokenService(accessTokenTTL, refreshTokenTTL time.Duration, issuer, audience, adminAudience, secretKey string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}
	if accessTokenTTL <= 0 {
		accessTokenTTL = utils.AccessTokenTTL
	}
	if refreshTokenTTL <= 0 {
		refreshTokenTTL = utils.RefreshTokenTTL
	}

	return &TokenServiceImpl{
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		secretKey:       []byte(secretKey),
		issuer:          issuer,
		audience:        audience,
		adminAudience:   adminAudience,
		revokedTokens:   make(map[string]time.Time),
	}, nil
}

// GenerateTokens issues an access/refresh token pair for a customer
func (s *TokenServiceImpl) GenerateTokens(customerID uint) (string, string, error) {
	return s.generate(customerID, s.audience)
}

// GenerateAdminTokens issues an access/refresh token pair with the admin audience
func (s *TokenServiceImpl) GenerateAdminTokens(customerID uint) (string, string, error) {
	return s.generate(customerID, s.adminAudience)
}

func (s *TokenServiceImpl) generate(customerID uint, audience string) (string, string, error) {
	accessToken, err := s.sign(customerID, audience, "access", s.accessTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.sign(customerID, audience, "refresh", s.refreshTokenTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *TokenServiceImpl) sign(customerID uint, audience, tokenType string, ttl time.Duration) (string, error) {
	now := utils.UTCNow()
	claims := jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", customerID),
		"iss":        s.issuer,
		"aud":        audience,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.New().String(),
		"token_type": tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken validates a customer access token
func (s *TokenServiceImpl) ValidateToken(token string) (*TokenClaims, error) {
	return s.validate(token, s.audience)
}

// ValidateAdminToken validates a token against the admin audience
func (s *TokenServiceImpl) ValidateAdminToken(token string) (*TokenClaims, error) {
	return s.validate(token, s.adminAudience)
}

func (s *TokenServiceImpl) validate(tokenString, audience string) (*TokenClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	jti, _ := claims["jti"].(string)
	if s.isRevoked(jti) {
		return nil, ErrTokenRevoked
	}

	tokenClaims, err := mapClaimsToTokenClaims(claims)
	if err != nil {
		return nil, err
	}

	return tokenClaims, nil
}

func mapClaimsToTokenClaims(claims jwt.MapClaims) (*TokenClaims, error) {
	sub, _ := claims["sub"].(string)
	var customerID uint
	if _, err := fmt.Sscanf(sub, "%d", &customerID); err != nil {
		return nil, ErrTokenInvalid
	}

	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	tokenType, _ := claims["token_type"].(string)
	jti, _ := claims["jti"].(string)

	return &TokenClaims{
		CustomerID: customerID,
		IssuedAt:   time.Unix(int64(iat), 0).UTC(),
		ExpiresAt:  time.Unix(int64(exp), 0).UTC(),
		TokenType:  tokenType,
		TokenID:    jti,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new pair
func (s *TokenServiceImpl) RefreshToken(refreshToken string) (string, string, error) {
	claims, err := s.validate(refreshToken, s.audience)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != "refresh" {
		return "", "", ErrTokenInvalid
	}

	// The old refresh token is single-use
	if err := s.revoke(claims.TokenID, claims.ExpiresAt); err != nil {
		return "", "", err
	}

	return s.GenerateTokens(claims.CustomerID)
}

// RevokeToken revokes a token by its jti
func (s *TokenServiceImpl) RevokeToken(token string) error {
	claims, err := s.validate(token, s.audience)
	if err != nil && !errors.Is(err, ErrTokenRevoked) {
		return err
	}
	if claims == nil {
		return nil
	}
	return s.revoke(claims.TokenID, claims.ExpiresAt)
}

func (s *TokenServiceImpl) revoke(jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revokedTokens[jti] = expiresAt

	// Drop entries that expired anyway
	now := utils.UTCNow()
	for id, exp := range s.revokedTokens {
		if now.After(exp) {
			delete(s.revokedTokens, id)
		}
	}

	return nil
}

func (s *TokenServiceImpl) isRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, revoked := s.revokedTokens[jti]
	return revoked
}
