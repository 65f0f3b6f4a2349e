package services_test

import (
	"context"
	"testing"

	"gymtrack/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id on empty context")
	}
	ctx = services.WithRequestID(ctx, "req-1")
	ctx = services.WithJob(ctx, "sync")
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("unexpected request id %q ok=%v", id, ok)
	}
	if job, ok := services.JobFromContext(ctx); !ok || job != "sync" {
		t.Fatalf("unexpected job %q ok=%v", job, ok)
	}
	if got := services.WithJob(ctx, ""); got != ctx {
		t.Fatal("expected empty job to leave context untouched")
	}
}
