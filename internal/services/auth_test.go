package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/platform/ctxutil"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as, err := NewAuthService(logger.Nop(), "secret", time.Minute)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	userID := uuid.New()
	tok, err := as.IssueAccessToken(userID)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID {
		t.Fatalf("request data: want=%s got=%+v", userID, rd)
	}
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	as, _ := NewAuthService(logger.Nop(), "secret", time.Minute)
	other, _ := NewAuthService(logger.Nop(), "other-secret", time.Minute)
	foreign, _ := other.IssueAccessToken(uuid.New())

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}})
	expiredTok, _ := expired.SignedString([]byte("secret"))

	noneTok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: uuid.NewString(),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"empty":   "",
		"garbage": "not.a.jwt",
		"foreign": foreign,
		"expired": expiredTok,
		"none":    noneTok,
	} {
		if _, err := as.SetContextFromToken(context.Background(), tok); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	if _, err := NewAuthService(logger.Nop(), " ", time.Minute); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
