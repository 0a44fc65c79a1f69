package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload backing the session cookie.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"preferred_username,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
}

// TokenService signs and validates the session tokens that represent an
// established sign-in.
type TokenService interface {
	Generate(user *User, scheme string) (*Session, error)
	Validate(tokenString string) (*Session, error)
}

// TokenServiceImpl implements TokenService with an HS256 signing key and an
// expiry derived from the configured cookie lifetime.
type TokenServiceImpl struct {
	signingKey     []byte
	cookieLifetime time.Duration
	issuer         string
	logger         Logger
}

// NewTokenService creates a new TokenService instance. cookieLifetime is in
// minutes; zero falls back to 30.
func NewTokenService(signingKey []byte, cookieLifetime int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if cookieLifetime <= 0 {
		cookieLifetime = 30
	}
	return &TokenServiceImpl{
		signingKey:     signingKey,
		cookieLifetime: time.Duration(cookieLifetime) * time.Minute,
		issuer:         issuer,
		logger:         logger,
	}
}

// Generate creates a signed session for the user under the given scheme.
func (ts *TokenServiceImpl) Generate(user *User, scheme string) (*Session, error) {
	if user == nil {
		return nil, errors.New("user must not be nil", errors.CategoryInternal)
	}

	now := time.Now()
	expiresAt := now.Add(ts.cookieLifetime)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Scheme:   scheme,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return &Session{
		Subject:   claims.Subject,
		Username:  user.Username,
		Scheme:    scheme,
		CreatedAt: now,
		ExpiresAt: timePtr(expiresAt),
		Token:     signed,
	}, nil
}

// Validate parses and verifies a session token string.
func (ts *TokenServiceImpl) Validate(tokenString string) (*Session, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("session token has unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		ts.logger.Error("session token claims could not be decoded")
		return nil, ErrTokenMalformed
	}

	session := &Session{
		Subject:  claims.Subject,
		Username: claims.Username,
		Scheme:   claims.Scheme,
	}
	if claims.IssuedAt != nil {
		session.CreatedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = timePtr(claims.ExpiresAt.Time)
	}

	return session, nil
}
