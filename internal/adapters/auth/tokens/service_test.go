package tokens

import (
	"context"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc := New("test-secret", time.Hour)

	token, exp, err := svc.Issue("user-1", "ana")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}

	c, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if c.UserID != "user-1" || c.Username != "ana" {
		t.Fatalf("unexpected claims %+v", c)
	}
}

func TestVerify_Rejects(t *testing.T) {
	svc := New("test-secret", time.Hour)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, ""); err != ErrTokenEmpty {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
	if _, err := svc.Verify(ctx, "not-a-jwt"); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	// firmado con otro secreto
	other := New("other-secret", time.Hour)
	token, _, err := other.Issue("user-1", "ana")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := svc.Verify(ctx, token); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	svc := New("test-secret", time.Hour)
	svc.ttl = -time.Minute

	token, _, err := svc.Issue("user-1", "ana")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := svc.Verify(context.Background(), token); err != ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}
