package bank

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Association edits one owner's collection. The child's foreign key is the
// only thing persisted; the returned owner carries the collection as it stands
// after the call.
type Association[O, C any] struct {
	store    Store
	rel      Relation[O, C]
	owners   func(Tx) Table[O]
	children func(Tx) Table[C]
	log      *slog.Logger
}

func newAssociation[O, C any](store Store, rel Relation[O, C], owners func(Tx) Table[O], children func(Tx) Table[C], log *slog.Logger) *Association[O, C] {
	return &Association[O, C]{
		store: store, rel: rel, owners: owners, children: children,
		log: log.With("owner", rel.Owner, "relation", rel.Name),
	}
}

// Members lists the children whose foreign key names the owner.
func (a *Association[O, C]) Members(ctx context.Context, ownerID int64) ([]C, error) {
	var out []C
	err := a.store.WithTx(ctx, func(tx Tx) error {
		owner, err := a.load(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		out = a.rel.Members(&owner)
		return nil
	})
	return out, err
}

// Replace makes childIDs the owner's complete collection. Former members not
// listed lose their foreign key; they are not deleted.
func (a *Association[O, C]) Replace(ctx context.Context, ownerID int64, childIDs []int64) (O, error) {
	a.log.DebugContext(ctx, "request to replace collection", "id", ownerID, "members", childIDs)
	var out O
	err := a.store.WithTx(ctx, func(tx Tx) error {
		owner, err := a.load(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		ids := dedupe(childIDs)
		found, err := a.children(tx).FindMany(ctx, ids)
		if err != nil {
			return err
		}
		next := make([]C, 0, len(ids))
		for _, id := range ids {
			c, ok := found[id]
			if !ok {
				return notFound(a.rel.Child, id)
			}
			next = append(next, c)
		}
		detached := a.rel.Set(&owner, next)
		if err := a.saveAll(ctx, tx, detached); err != nil {
			return err
		}
		if err := a.saveAll(ctx, tx, a.rel.Members(&owner)); err != nil {
			return err
		}
		out = owner
		return a.emit(ctx, tx, "Replaced", ownerID, ids)
	})
	return out, err
}

// Add links one child to the owner. A child linked to another owner moves.
func (a *Association[O, C]) Add(ctx context.Context, ownerID, childID int64) (O, error) {
	a.log.DebugContext(ctx, "request to add member", "id", ownerID, "member", childID)
	var out O
	err := a.store.WithTx(ctx, func(tx Tx) error {
		owner, err := a.load(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		child, err := a.children(tx).Find(ctx, childID)
		if err != nil {
			return err
		}
		if _, err := a.children(tx).Save(ctx, a.rel.Add(&owner, child)); err != nil {
			return err
		}
		out = owner
		return a.emit(ctx, tx, "Added", ownerID, []int64{childID})
	})
	return out, err
}

// Remove unlinks one child. Removing a child that is not a member changes
// nothing.
func (a *Association[O, C]) Remove(ctx context.Context, ownerID, childID int64) (O, error) {
	a.log.DebugContext(ctx, "request to remove member", "id", ownerID, "member", childID)
	var out O
	err := a.store.WithTx(ctx, func(tx Tx) error {
		owner, err := a.load(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		child, err := a.children(tx).Find(ctx, childID)
		if err != nil {
			return err
		}
		detached, ok := a.rel.Remove(&owner, child)
		if !ok {
			out = owner
			return nil
		}
		if _, err := a.children(tx).Save(ctx, detached); err != nil {
			return err
		}
		out = owner
		return a.emit(ctx, tx, "Removed", ownerID, []int64{childID})
	})
	return out, err
}

// detachAll empties the owner's collection, clearing every child's foreign
// key. Used before the owner row is deleted.
func (a *Association[O, C]) detachAll(ctx context.Context, tx Tx, owner *O) error {
	members, err := a.children(tx).ListBy(ctx, a.rel.FK, a.rel.ownerID(owner))
	if err != nil {
		return err
	}
	*a.rel.collection(owner) = members
	return a.saveAll(ctx, tx, a.rel.Set(owner, nil))
}

// load reads the owner with its collection filled from the child table.
func (a *Association[O, C]) load(ctx context.Context, tx Tx, ownerID int64) (O, error) {
	owner, err := a.owners(tx).Find(ctx, ownerID)
	if err != nil {
		return owner, err
	}
	members, err := a.children(tx).ListBy(ctx, a.rel.FK, ownerID)
	if err != nil {
		return owner, err
	}
	*a.rel.collection(&owner) = members
	return owner, nil
}

func (a *Association[O, C]) saveAll(ctx context.Context, tx Tx, list []C) error {
	t := a.children(tx)
	for _, c := range list {
		if _, err := t.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Association[O, C]) emit(ctx context.Context, tx Tx, action string, ownerID int64, members []int64) error {
	typ := capitalize(a.rel.Owner) + capitalize(a.rel.Name) + action
	data := struct {
		Owner   int64   `json:"owner"`
		Members []int64 `json:"members"`
	}{ownerID, members}
	return appendEvent(ctx, tx, uuid.NewString(), typ, fmt.Sprintf("%s/%d/%s", a.rel.Owner, ownerID, a.rel.Name), data)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
