package cvs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"cv-backend/internal/shared/metrics"
	"cv-backend/internal/shared/storage/db"
	"cv-backend/internal/shared/telemetry"
)

var tracer = otel.Tracer("cv-backend/internal/cvs")

// PGRepo implements Repo on Postgres across the cvs, skills, experiences,
// education and reference_list tables.
//
// Writes run in one transaction on one pooled connection and are rolled back
// on any failure. Reads issue one statement per table on a single connection;
// without SnapshotReads a concurrent replace may be observed half applied.
type PGRepo struct {
	Pool *db.Pool

	// SnapshotReads wraps Fetch and ListSummaries in a read-only
	// repeatable-read transaction.
	SnapshotReads bool
}

// NewPGRepo constructs a PGRepo on pool.
func NewPGRepo(pool *db.Pool, snapshotReads bool) *PGRepo {
	return &PGRepo{Pool: pool, SnapshotReads: snapshotReads}
}

// Create inserts the filtered aggregate and returns the id assigned by the store.
func (r *PGRepo) Create(ctx context.Context, cv CVAggregate) (int64, error) {
	cv = FilterAggregate(cv)
	var id int64
	err := r.run(ctx, "create", 0, func(ctx context.Context) error {
		return r.inTx(ctx, "create", func(tx *sql.Tx) error {
			newID, err := insertParent(ctx, tx, cv.Personal, cv.Profile)
			if err != nil {
				return err
			}
			if err := insertChildren(ctx, tx, newID, cv); err != nil {
				return err
			}
			id = newID
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Replace overwrites the root fields and the full child set of id. The id and
// created_at are preserved. It returns ErrNotFound if id has no row.
func (r *PGRepo) Replace(ctx context.Context, id int64, cv CVAggregate) error {
	cv = FilterAggregate(cv)
	return r.run(ctx, "replace", id, func(ctx context.Context) error {
		return r.inTx(ctx, "replace", func(tx *sql.Tx) error {
			n, err := updateParent(ctx, tx, id, cv.Personal, cv.Profile)
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return replaceChildren(ctx, tx, id, cv)
		})
	})
}

// Fetch returns the full aggregate with children in insertion order.
func (r *PGRepo) Fetch(ctx context.Context, id int64) (CVAggregate, error) {
	var out CVAggregate
	err := r.run(ctx, "fetch", id, func(ctx context.Context) error {
		return r.read(ctx, func(q querier) error {
			cv, ok, err := fetchAggregate(ctx, q, id)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound
			}
			out = cv
			return nil
		})
	})
	if err != nil {
		return CVAggregate{}, err
	}
	return out, nil
}

// ListSummaries returns every CV, most recently updated first.
func (r *PGRepo) ListSummaries(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := r.run(ctx, "list", 0, func(ctx context.Context) error {
		return r.read(ctx, func(q querier) error {
			summaries, err := fetchSummaries(ctx, q)
			if err != nil {
				return err
			}
			out = summaries
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the CV; children go with it through ON DELETE CASCADE.
// Deleting a missing id is not an error.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	return r.run(ctx, "delete", id, func(ctx context.Context) error {
		return r.inTx(ctx, "delete", func(tx *sql.Tx) error {
			return deleteParent(ctx, tx, id)
		})
	})
}

// run traces and measures one operation and maps failures to the package error kinds.
func (r *PGRepo) run(ctx context.Context, op string, id int64, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "cvs."+op)
	defer span.End()
	if id > 0 {
		span.SetAttributes(attribute.Int64("cv.id", id))
	}

	start := time.Now()
	var err error
	if r == nil || r.Pool == nil {
		err = errors.New("cv repository has nil pool")
	} else {
		err = fn(ctx)
	}
	err = storageError(op, err)

	status := operationStatus(err)
	metrics.ObserveCVOperation(op, status, time.Since(start))
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
	case errors.Is(err, context.Canceled):
		span.SetStatus(codes.Error, status)
		telemetry.Info("cv.operation_canceled", map[string]any{"op": op, "cv_id": id})
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		telemetry.Error("cv.operation_failed", map[string]any{
			"op":     op,
			"cv_id":  id,
			"status": status,
			"error":  err.Error(),
		})
	}
	return err
}

// inTx runs fn inside a transaction on a dedicated connection. The connection
// is released on every path and the transaction is rolled back unless fn and
// the commit both succeed.
func (r *PGRepo) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	conn, err := r.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.Pool.Release(conn)

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(tx, op)
			panic(p)
		}
		if err != nil {
			rollback(tx, op)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// read runs fn on one pooled connection, inside a read-only snapshot when
// SnapshotReads is set.
func (r *PGRepo) read(ctx context.Context, fn func(q querier) error) (err error) {
	conn, err := r.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer r.Pool.Release(conn)

	if !r.SnapshotReads {
		return fn(conn)
	}

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func rollback(tx *sql.Tx, op string) {
	metrics.IncRollback(op)
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		telemetry.Error("cv.rollback_failed", map[string]any{"op": op, "error": err.Error()})
	}
}

func operationStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case IsRetryable(err):
		return "retryable"
	default:
		return "storage_error"
	}
}

var _ Repo = (*PGRepo)(nil)
