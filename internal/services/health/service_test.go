package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyWithoutCheckers(t *testing.T) {
	svc := NewService()
	if err := svc.Ready(context.Background()); err != nil {
		t.Fatalf("expected ready, got %v", err)
	}
	if !svc.Status()["ok"] {
		t.Fatalf("expected ok status")
	}
}

func TestReadyReportsFailingChecker(t *testing.T) {
	down := errors.New("connection refused")
	svc := NewService(NewDatabaseChecker(pingFunc(func(context.Context) error { return down })))

	err := svc.Ready(context.Background())
	if !errors.Is(err, down) {
		t.Fatalf("expected wrapped ping error, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "postgres: ") {
		t.Fatalf("expected checker name prefix, got %q", err.Error())
	}
}

func TestDatabaseCheckerAppliesTimeout(t *testing.T) {
	checker := &DatabaseChecker{
		DB: pingFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		Timeout: 10 * time.Millisecond,
	}
	if err := checker.Check(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
