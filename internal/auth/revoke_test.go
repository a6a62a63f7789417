package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	r := NewMemoryRevoker(clock)

	if revoked, _ := r.IsRevoked(ctx, "abc"); revoked {
		t.Fatal("Expected unknown token not to be revoked")
	}

	if err := r.RevokeToken(ctx, "abc", time.Minute); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := r.IsRevoked(ctx, "abc"); !revoked {
		t.Error("Expected token to be revoked")
	}

	clock.Advance(2 * time.Minute)
	if revoked, _ := r.IsRevoked(ctx, "abc"); revoked {
		t.Error("Expected revocation to expire with the token")
	}
}
