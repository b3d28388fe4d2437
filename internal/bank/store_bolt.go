package bank

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

var (
	bucketAgencies = []byte("agencies")
	bucketLicenses = []byte("licenses")
	bucketExams    = []byte("exams")
	bucketQuizzes  = []byte("quizzes")
	bucketExplains = []byte("explains")
	bucketEvents   = []byte("event_log")
)

// BoltStore keeps the bank in a single bbolt file: one bucket per entity,
// rows JSON-encoded under their big-endian id so cursors walk in id order.
type BoltStore struct {
	db     *bbolt.DB
	siteID string
}

// OpenBoltStore opens (or creates) the file at path.
func OpenBoltStore(path, siteID string) (*BoltStore, error) {
	if path == "" {
		path = "qbank.bolt"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketAgencies, bucketLicenses, bucketExams, bucketQuizzes, bucketExplains, bucketEvents} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if siteID == "" {
		siteID = "local"
	}
	return &BoltStore{db: db, siteID: siteID}, nil
}

// WithTx runs fn in a bbolt read-write transaction; bbolt rolls it back when
// fn fails.
func (s *BoltStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx, siteID: s.siteID})
	})
}

func (s *BoltStore) Close() error { return s.db.Close() }

type boltTx struct {
	tx     *bbolt.Tx
	siteID string
}

func (t *boltTx) Agencies() Table[Agency] {
	return boltTable[Agency]{t.tx.Bucket(bucketAgencies), agencySpec}
}
func (t *boltTx) Licenses() Table[License] {
	return boltTable[License]{t.tx.Bucket(bucketLicenses), licenseSpec}
}
func (t *boltTx) Exams() Table[Exam]       { return boltTable[Exam]{t.tx.Bucket(bucketExams), examSpec} }
func (t *boltTx) Quizzes() Table[Quiz]     { return boltTable[Quiz]{t.tx.Bucket(bucketQuizzes), quizSpec} }
func (t *boltTx) Explains() Table[Explain] { return boltTable[Explain]{t.tx.Bucket(bucketExplains), explainSpec} }
func (t *boltTx) Events() EventLog         { return boltEvents{t.tx.Bucket(bucketEvents), t.siteID} }

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

type boltTable[T any] struct {
	b    *bbolt.Bucket
	spec *memSpec[T]
}

func (t boltTable[T]) Save(_ context.Context, v T) (T, error) {
	var zero T
	v = t.spec.strip(v)
	id := t.spec.id(&v)
	if *id == 0 {
		seq, err := t.b.NextSequence()
		if err != nil {
			return zero, err
		}
		*id = int64(seq)
	} else if t.b.Get(itob(*id)) == nil {
		return zero, notFound(t.spec.name, *id)
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}
	if err := t.b.Put(itob(*id), buf); err != nil {
		return zero, fmt.Errorf("%s: put: %w", t.spec.name, err)
	}
	return v, nil
}

func (t boltTable[T]) Find(_ context.Context, id int64) (T, error) {
	var v T
	raw := t.b.Get(itob(id))
	if raw == nil {
		return v, notFound(t.spec.name, id)
	}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func (t boltTable[T]) FindMany(ctx context.Context, ids []int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	for _, id := range ids {
		if t.b.Get(itob(id)) == nil {
			continue
		}
		v, err := t.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = v
	}
	return out, nil
}

func (t boltTable[T]) List(_ context.Context) ([]T, error) {
	return t.scan(func(*T) bool { return true })
}

func (t boltTable[T]) ListBy(_ context.Context, fk string, id int64) ([]T, error) {
	get, ok := t.spec.fks[fk]
	if !ok {
		return nil, fmt.Errorf("%s: unknown foreign key %q", t.spec.name, fk)
	}
	return t.scan(func(v *T) bool {
		p := get(v)
		return p != nil && *p == id
	})
}

func (t boltTable[T]) Delete(_ context.Context, id int64) error {
	if t.b.Get(itob(id)) == nil {
		return notFound(t.spec.name, id)
	}
	return t.b.Delete(itob(id))
}

func (t boltTable[T]) scan(keep func(*T) bool) ([]T, error) {
	out := []T{}
	err := t.b.ForEach(func(_, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		if keep(&v) {
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

type boltEvents struct {
	b      *bbolt.Bucket
	siteID string
}

func (e boltEvents) Append(_ context.Context, ev syncx.Event) error {
	seq, err := e.b.NextSequence()
	if err != nil {
		return err
	}
	ev.Offset = int64(seq)
	if ev.SiteID == "" {
		ev.SiteID = e.siteID
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	buf, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.b.Put(itob(ev.Offset), buf)
}

func (e boltEvents) List(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	out := []syncx.Event{}
	if after < 0 {
		after = 0
	}
	c := e.b.Cursor()
	for k, raw := c.Seek(itob(after + 1)); k != nil && len(out) < limit; k, raw = c.Next() {
		var ev syncx.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
