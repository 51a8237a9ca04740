package health

import (
	"context"
	"fmt"
	"time"
)

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Service encapsulates liveness and readiness checks.
type Service struct {
	checkers []Checker
}

// NewService constructs a health service over the given dependency checkers.
func NewService(checkers ...Checker) *Service {
	return &Service{checkers: checkers}
}

// Status returns a simple liveness payload.
func (s *Service) Status() map[string]bool {
	return map[string]bool{"ok": true}
}

// Ready runs every checker and returns the first failure, prefixed with the
// checker name.
func (s *Service) Ready(ctx context.Context) error {
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			return fmt.Errorf("%s: %w", ch.Name(), err)
		}
	}
	return nil
}

// Pinger is satisfied by db.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker verifies the store answers a ping within Timeout.
type DatabaseChecker struct {
	DB      Pinger
	Timeout time.Duration
}

// NewDatabaseChecker constructs a DatabaseChecker with a one second timeout.
func NewDatabaseChecker(db Pinger) *DatabaseChecker {
	return &DatabaseChecker{DB: db, Timeout: time.Second}
}

func (c *DatabaseChecker) Name() string { return "postgres" }

func (c *DatabaseChecker) Check(ctx context.Context) error {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.DB.Ping(ctx)
}
