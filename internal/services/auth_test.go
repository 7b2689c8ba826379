package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/campaign-canvas-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/yungbote/campaign-canvas-backend/internal/pkg/errors"
	"github.com/yungbote/campaign-canvas-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestAuthServiceAcceptsIssuedToken(t *testing.T) {
	auth := NewAuthService(testLogger(t), "secret", "")
	userID := uuid.New()
	tok, err := auth.IssueToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := auth.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.UserID(ctx); got != userID {
		t.Fatalf("user id: want %s got %s", userID, got)
	}
}

func TestAuthServiceRejects(t *testing.T) {
	auth := NewAuthService(testLogger(t), "secret", "authenticated")
	other := NewAuthService(testLogger(t), "other-secret", "authenticated")
	wrongAud := NewAuthService(testLogger(t), "secret", "service_role")

	valid := func(a AuthService) string {
		tok, err := a.IssueToken(uuid.New(), time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		return tok
	}
	expired, _ := auth.IssueToken(uuid.New(), -time.Minute)
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	cases := map[string]string{
		"empty":          "",
		"garbage":        "abc.def.ghi",
		"wrong secret":   valid(other),
		"wrong audience": valid(wrongAud),
		"expired":        expired,
		"bad subject":    badSubject,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := auth.SetContextFromToken(context.Background(), tok)
			if !errors.Is(err, pkgerrors.ErrUnauthorized) {
				t.Fatalf("want ErrUnauthorized, got %v", err)
			}
		})
	}
}
