package common

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Fatal("empty context must not carry a user id")
	}
	id, ok := GetUserID(ContextWithUserID(ctx, 7))
	if !ok || id != 7 {
		t.Fatalf("expected 7, got %d (%v)", id, ok)
	}
	if id, ok := GetUserID(context.WithValue(ctx, userIDKey, "12")); !ok || id != 12 {
		t.Fatalf("string ids must parse, got %d (%v)", id, ok)
	}
	if _, ok := GetUserID(context.WithValue(ctx, userIDKey, "abc")); ok {
		t.Fatal("non numeric id must be rejected")
	}
}

func TestClientVersion(t *testing.T) {
	if v := GetClientVersion(context.Background()); v != "" {
		t.Fatalf("expected empty version, got %q", v)
	}
	if v := GetClientVersion(ContextWithClientVersion(context.Background(), "1.2.0")); v != "1.2.0" {
		t.Fatalf("unexpected version %q", v)
	}
}
