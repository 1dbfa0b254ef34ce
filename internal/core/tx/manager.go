// Package tx declares the transaction contract domain services depend on.
package tx

import (
	"context"
)

// Manager runs fn in a database transaction.
//
// Inside a tenancy scope the transaction is opened on the scope's connection,
// so it sees the stamped session variables. A nested call joins the outer
// transaction and never acquires a second connection.
// fn's error, or a panic, rolls back.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for report-style reads.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
