package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// kind carries everything the generic service needs to know about one entity.
type kind[T, P any] struct {
	name    string // agency
	title   string // Agency, used in event types
	table   func(Tx) Table[T]
	id      func(*T) *int64
	patchID func(*P) *int64
	merge   func(T, P) T
	replace func(stored, in T) T
	prepare func(*T)
	// refs fails when a foreign key names a missing row.
	refs func(context.Context, Tx, *T) error
	// resolve materializes to-one targets for eager reads.
	resolve func(context.Context, Tx, []T) error
	// detach clears the foreign keys of children before the row is deleted.
	detach func(context.Context, Tx, *T) error
}

// Service is the CRUD surface of one entity type. Every call is one
// transaction against the store.
type Service[T, P any] struct {
	store Store
	kind  *kind[T, P]
	log   *slog.Logger
}

func newService[T, P any](store Store, k *kind[T, P], log *slog.Logger) *Service[T, P] {
	return &Service[T, P]{store: store, kind: k, log: log.With("entity", k.name)}
}

// Create stores a new entity; the store assigns its id.
func (s *Service[T, P]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	s.log.DebugContext(ctx, "request to create")
	if *s.kind.id(&v) != 0 {
		return zero, &EntityError{Entity: s.kind.name, Key: "idexists", ID: *s.kind.id(&v), Err: ErrIDPresentOnCreate}
	}
	if s.kind.prepare != nil {
		s.kind.prepare(&v)
	}
	if err := validateEntity(s.kind.name, &v); err != nil {
		return zero, err
	}

	var out T
	err := s.store.WithTx(ctx, func(tx Tx) error {
		if err := s.checkRefs(ctx, tx, &v); err != nil {
			return err
		}
		saved, err := s.kind.table(tx).Save(ctx, v)
		if err != nil {
			return err
		}
		out = saved
		return s.emit(ctx, tx, uuid.NewString(), "Created", *s.kind.id(&saved), saved)
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// Update replaces every field of the stored entity with v.
func (s *Service[T, P]) Update(ctx context.Context, id int64, v T) (T, error) {
	var zero T
	s.log.DebugContext(ctx, "request to update", "id", id)
	if err := checkPathID(s.kind.name, id, s.kind.id(&v)); err != nil {
		return zero, err
	}
	if s.kind.prepare != nil {
		s.kind.prepare(&v)
	}
	if err := validateEntity(s.kind.name, &v); err != nil {
		return zero, err
	}

	var out T
	err := s.store.WithTx(ctx, func(tx Tx) error {
		t := s.kind.table(tx)
		stored, err := t.Find(ctx, id)
		if err != nil {
			return err
		}
		next := s.kind.replace(stored, v)
		if err := s.checkRefs(ctx, tx, &next); err != nil {
			return err
		}
		saved, err := t.Save(ctx, next)
		if err != nil {
			return err
		}
		out = saved
		return s.emit(ctx, tx, uuid.NewString(), "Updated", id, saved)
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// PartialUpdate merges the fields present in p into the stored entity.
func (s *Service[T, P]) PartialUpdate(ctx context.Context, id int64, p P) (T, error) {
	var zero T
	s.log.DebugContext(ctx, "request to partially update", "id", id)
	if err := checkPathID(s.kind.name, id, s.kind.patchID(&p)); err != nil {
		return zero, err
	}

	var out T
	err := s.store.WithTx(ctx, func(tx Tx) error {
		t := s.kind.table(tx)
		stored, err := t.Find(ctx, id)
		if err != nil {
			return err
		}
		merged := s.kind.merge(stored, p)
		if err := validateEntity(s.kind.name, &merged); err != nil {
			return err
		}
		if err := s.checkRefs(ctx, tx, &merged); err != nil {
			return err
		}
		saved, err := t.Save(ctx, merged)
		if err != nil {
			return err
		}
		out = saved
		return s.emit(ctx, tx, uuid.NewString(), "Patched", id, p)
	})
	if err != nil {
		return zero, err
	}
	return out, nil
}

// Get reads one entity. With eager set its to-one relationships are
// materialized in the same transaction.
func (s *Service[T, P]) Get(ctx context.Context, id int64, eager bool) (T, error) {
	var out T
	err := s.store.WithTx(ctx, func(tx Tx) error {
		v, err := s.kind.table(tx).Find(ctx, id)
		if err != nil {
			return err
		}
		if eager && s.kind.resolve != nil {
			list := []T{v}
			if err := s.kind.resolve(ctx, tx, list); err != nil {
				return err
			}
			v = list[0]
		}
		out = v
		return nil
	})
	return out, err
}

func (s *Service[T, P]) List(ctx context.Context, eager bool) ([]T, error) {
	var out []T
	err := s.store.WithTx(ctx, func(tx Tx) error {
		list, err := s.kind.table(tx).List(ctx)
		if err != nil {
			return err
		}
		if eager && s.kind.resolve != nil {
			if err := s.kind.resolve(ctx, tx, list); err != nil {
				return err
			}
		}
		out = list
		return nil
	})
	return out, err
}

// Delete removes the entity. Children that referenced it are kept with an
// empty foreign key.
func (s *Service[T, P]) Delete(ctx context.Context, id int64) error {
	s.log.DebugContext(ctx, "request to delete", "id", id)
	return s.store.WithTx(ctx, func(tx Tx) error {
		t := s.kind.table(tx)
		v, err := t.Find(ctx, id)
		if err != nil {
			return err
		}
		if s.kind.detach != nil {
			if err := s.kind.detach(ctx, tx, &v); err != nil {
				return err
			}
		}
		if err := t.Delete(ctx, id); err != nil {
			return err
		}
		return s.emit(ctx, tx, uuid.NewString(), "Deleted", id, struct {
			ID int64 `json:"id"`
		}{id})
	})
}

func (s *Service[T, P]) checkRefs(ctx context.Context, tx Tx, v *T) error {
	if s.kind.refs == nil {
		return nil
	}
	return s.kind.refs(ctx, tx, v)
}

func (s *Service[T, P]) emit(ctx context.Context, tx Tx, changeID, action string, id int64, data any) error {
	return appendEvent(ctx, tx, changeID, s.kind.title+action, fmt.Sprintf("%s/%d", s.kind.name, id), data)
}

func appendEvent(ctx context.Context, tx Tx, changeID, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.Events().Append(ctx, syncx.Event{Type: typ, Key: key, ChangeID: changeID, DataJSON: string(buf)})
}
