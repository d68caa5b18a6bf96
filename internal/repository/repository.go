package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carconnect/internal/domain"
	"carconnect/internal/tenant"

	"github.com/lib/pq"
)

// Postgres error codes mapped onto domain error kinds
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidText         = "22P02"
)

// Transactor runs fn inside one database transaction
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx tenant.DBTX) error) error
}

// SQLTransactor is the *sql.DB backed Transactor
type SQLTransactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

var _ Transactor = (*SQLTransactor)(nil)

// WithTx commits when fn returns nil and rolls back otherwise
func (t *SQLTransactor) WithTx(ctx context.Context, fn func(tx tenant.DBTX) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapWriteError classifies an INSERT or UPDATE failure
func mapWriteError(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s already exists", domain.ErrConflict, what)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s references a record that does not exist", domain.ErrValidation, what)
		case codeCheckViolation, codeNotNullViolation, codeInvalidText:
			return fmt.Errorf("%w: %s: %s", domain.ErrValidation, what, pqErr.Message)
		}
	}
	return fmt.Errorf("failed to write %s: %w", what, err)
}

// mapDeleteError classifies a DELETE failure
func mapDeleteError(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation {
		return fmt.Errorf("%w: %s is still referenced", domain.ErrConflict, what)
	}
	return fmt.Errorf("failed to delete %s: %w", what, err)
}

// mapReadError turns sql.ErrNoRows into ErrNotFound
func mapReadError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// execPartialUpdate runs a statement built by Handle.PartialUpdate. Zero affected rows is ErrNotFound.
func execPartialUpdate(ctx context.Context, q tenant.DBTX, h tenant.Handle, spec tenant.TableSpec,
	fields map[string]any, key any, what string) error {
	query, args, err := h.PartialUpdate(spec, fields, key)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, what)
	}
	return requireAffected(res, what)
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, what)
	}
	return nil
}

func requireTenant(h tenant.Handle) error {
	if h.IsZero() || h.IsPlatform() {
		return fmt.Errorf("%w: tenant schema required, got %q", domain.ErrIdentifierRejected, h.Schema())
	}
	return nil
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func int64PtrArg(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
