package bank

import (
	"context"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// Table is the per-entity persistence collaborator. Save inserts when the id
// is zero and assigns one; otherwise it overwrites the stored row and fails
// with ErrNotFound if there is none. Find and Delete fail with ErrNotFound.
type Table[T any] interface {
	Save(ctx context.Context, v T) (T, error)
	Find(ctx context.Context, id int64) (T, error)
	// FindMany returns the rows that exist among ids; missing ids are skipped.
	FindMany(ctx context.Context, ids []int64) (map[int64]T, error)
	List(ctx context.Context) ([]T, error)
	// ListBy returns rows whose foreign key column fk equals id.
	ListBy(ctx context.Context, fk string, id int64) ([]T, error)
	Delete(ctx context.Context, id int64) error
}

// EventLog records committed mutations.
type EventLog interface {
	Append(ctx context.Context, e syncx.Event) error
	List(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// Tx is the view of the store inside one unit of work.
type Tx interface {
	Agencies() Table[Agency]
	Licenses() Table[License]
	Exams() Table[Exam]
	Quizzes() Table[Quiz]
	Explains() Table[Explain]
	Events() EventLog
}

// Store runs fn atomically: every write made through tx is kept when fn
// returns nil and discarded otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
