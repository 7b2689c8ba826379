package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

const DefaultAudience = "authenticated"

// AuthService verifies bearer tokens issued by the identity provider. Tokens
// are HS256 JWTs whose subject is the user id.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type JWTClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type authService struct {
	log      *logger.Logger
	secret   []byte
	audience string
}

func NewAuthService(baseLog *logger.Logger, jwtSecretKey string, audience string) AuthService {
	if strings.TrimSpace(audience) == "" {
		audience = DefaultAudience
	}
	return &authService{
		log:      baseLog.With("service", "AuthService"),
		secret:   []byte(jwtSecretKey),
		audience: audience,
	}
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, fmt.Errorf("%w: missing token", pkgerrors.ErrUnauthorized)
	}
	if len(as.secret) == 0 {
		return ctx, fmt.Errorf("%w: token verification not configured", pkgerrors.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(as.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("%w: invalid or expired token", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("%w: subject is not a user id", pkgerrors.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tokenString, UserID: userID}), nil
}

// IssueToken signs a token the way the identity provider does. It backs local
// development and tests.
func (as *authService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if len(as.secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}
	now := time.Now()
	claims := JWTClaims{
		Role: as.audience,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{as.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
}
