package bank

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// memSpec tells the generic in-memory table how to read a row. strip drops
// derived collections and eager targets and copies every pointer field, so a
// stripped row shares no memory with the value it came from.
type memSpec[T any] struct {
	name  string
	id    func(*T) *int64
	fks   map[string]func(*T) *int64
	strip func(T) T
}

func dup[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type memTable[T any] struct {
	spec *memSpec[T]
	rows map[int64]T
	seq  int64
}

func (t *memTable[T]) clone() *memTable[T] {
	rows := make(map[int64]T, len(t.rows))
	for k, v := range t.rows {
		rows[k] = v
	}
	return &memTable[T]{spec: t.spec, rows: rows, seq: t.seq}
}

var (
	agencySpec = &memSpec[Agency]{
		name:  "agency",
		id:    func(a *Agency) *int64 { return &a.ID },
		strip: func(a Agency) Agency { a.Exams = nil; return a },
	}
	licenseSpec = &memSpec[License]{
		name:  "license",
		id:    func(l *License) *int64 { return &l.ID },
		strip: func(l License) License { l.Exams = nil; return l },
	}
	examSpec = &memSpec[Exam]{
		name: "exam",
		id:   func(e *Exam) *int64 { return &e.ID },
		fks: map[string]func(*Exam) *int64{
			"agency_id":  func(e *Exam) *int64 { return e.AgencyID },
			"license_id": func(e *Exam) *int64 { return e.LicenseID },
		},
		strip: func(e Exam) Exam {
			e.Agency, e.License, e.Quizzes = nil, nil, nil
			e.ExamType, e.AgencyID, e.LicenseID = dup(e.ExamType), dup(e.AgencyID), dup(e.LicenseID)
			return e
		},
	}
	quizSpec = &memSpec[Quiz]{
		name: "quiz",
		id:   func(q *Quiz) *int64 { return &q.ID },
		fks: map[string]func(*Quiz) *int64{
			"exam_id": func(q *Quiz) *int64 { return q.ExamID },
		},
		strip: func(q Quiz) Quiz {
			q.Exam, q.Explains = nil, nil
			q.Example, q.Selections, q.ExamID = dup(q.Example), dup(q.Selections), dup(q.ExamID)
			return q
		},
	}
	explainSpec = &memSpec[Explain]{
		name: "explain",
		id:   func(x *Explain) *int64 { return &x.ID },
		fks: map[string]func(*Explain) *int64{
			"quiz_id": func(x *Explain) *int64 { return x.QuizID },
		},
		strip: func(x Explain) Explain {
			x.Quiz = nil
			x.Description, x.QuizID = dup(x.Description), dup(x.QuizID)
			return x
		},
	}
)

type memState struct {
	agencies *memTable[Agency]
	licenses *memTable[License]
	exams    *memTable[Exam]
	quizzes  *memTable[Quiz]
	explains *memTable[Explain]
	events   []syncx.Event
}

// MemoryStore keeps the bank in process memory. Transactions are serialized
// and work on copies of the tables they write; the copies replace the live
// tables on commit.
type MemoryStore struct {
	mu     sync.Mutex
	state  memState
	siteID string
}

func NewMemoryStore(siteID string) *MemoryStore {
	if siteID == "" {
		siteID = "local"
	}
	return &MemoryStore{siteID: siteID, state: memState{
		agencies: &memTable[Agency]{spec: agencySpec, rows: map[int64]Agency{}},
		licenses: &memTable[License]{spec: licenseSpec, rows: map[int64]License{}},
		exams:    &memTable[Exam]{spec: examSpec, rows: map[int64]Exam{}},
		quizzes:  &memTable[Quiz]{spec: quizSpec, rows: map[int64]Quiz{}},
		explains: &memTable[Explain]{spec: explainSpec, rows: map[int64]Explain{}},
	}}
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		agencies: &memTxTable[Agency]{base: m.state.agencies},
		licenses: &memTxTable[License]{base: m.state.licenses},
		exams:    &memTxTable[Exam]{base: m.state.exams},
		quizzes:  &memTxTable[Quiz]{base: m.state.quizzes},
		explains: &memTxTable[Explain]{base: m.state.explains},
		events:   &memEvents{base: m.state.events, siteID: m.siteID},
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = memState{
		agencies: tx.agencies.cur(),
		licenses: tx.licenses.cur(),
		exams:    tx.exams.cur(),
		quizzes:  tx.quizzes.cur(),
		explains: tx.explains.cur(),
		events:   tx.events.cur(),
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

type memTx struct {
	agencies *memTxTable[Agency]
	licenses *memTxTable[License]
	exams    *memTxTable[Exam]
	quizzes  *memTxTable[Quiz]
	explains *memTxTable[Explain]
	events   *memEvents
}

func (t *memTx) Agencies() Table[Agency]  { return t.agencies }
func (t *memTx) Licenses() Table[License] { return t.licenses }
func (t *memTx) Exams() Table[Exam]       { return t.exams }
func (t *memTx) Quizzes() Table[Quiz]     { return t.quizzes }
func (t *memTx) Explains() Table[Explain] { return t.explains }
func (t *memTx) Events() EventLog         { return t.events }

// memTxTable reads from base until the first write, then from its own copy.
type memTxTable[T any] struct {
	base *memTable[T]
	work *memTable[T]
}

func (t *memTxTable[T]) cur() *memTable[T] {
	if t.work != nil {
		return t.work
	}
	return t.base
}

func (t *memTxTable[T]) writable() *memTable[T] {
	if t.work == nil {
		t.work = t.base.clone()
	}
	return t.work
}

func (t *memTxTable[T]) Save(_ context.Context, v T) (T, error) {
	w := t.writable()
	v = w.spec.strip(v)
	id := w.spec.id(&v)
	if *id == 0 {
		w.seq++
		*id = w.seq
	} else if _, ok := w.rows[*id]; !ok {
		var zero T
		return zero, notFound(w.spec.name, *id)
	}
	w.rows[*id] = v
	return w.spec.strip(v), nil
}

func (t *memTxTable[T]) Find(_ context.Context, id int64) (T, error) {
	c := t.cur()
	v, ok := c.rows[id]
	if !ok {
		var zero T
		return zero, notFound(c.spec.name, id)
	}
	return c.spec.strip(v), nil
}

func (t *memTxTable[T]) FindMany(_ context.Context, ids []int64) (map[int64]T, error) {
	c := t.cur()
	out := make(map[int64]T, len(ids))
	for _, id := range ids {
		if v, ok := c.rows[id]; ok {
			out[id] = c.spec.strip(v)
		}
	}
	return out, nil
}

func (t *memTxTable[T]) List(_ context.Context) ([]T, error) {
	return t.collect(func(*T) bool { return true }), nil
}

func (t *memTxTable[T]) ListBy(_ context.Context, fk string, id int64) ([]T, error) {
	c := t.cur()
	get, ok := c.spec.fks[fk]
	if !ok {
		return nil, fmt.Errorf("%s: unknown foreign key %q", c.spec.name, fk)
	}
	return t.collect(func(v *T) bool {
		p := get(v)
		return p != nil && *p == id
	}), nil
}

func (t *memTxTable[T]) Delete(_ context.Context, id int64) error {
	c := t.cur()
	if _, ok := c.rows[id]; !ok {
		return notFound(c.spec.name, id)
	}
	delete(t.writable().rows, id)
	return nil
}

func (t *memTxTable[T]) collect(keep func(*T) bool) []T {
	c := t.cur()
	out := make([]T, 0, len(c.rows))
	for _, v := range c.rows {
		if keep(&v) {
			out = append(out, c.spec.strip(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return *c.spec.id(&out[i]) < *c.spec.id(&out[j]) })
	return out
}

type memEvents struct {
	siteID string
	base   []syncx.Event
	work   []syncx.Event
	own    bool
}

func (e *memEvents) cur() []syncx.Event {
	if e.own {
		return e.work
	}
	return e.base
}

func (e *memEvents) Append(_ context.Context, ev syncx.Event) error {
	if !e.own {
		e.work = append(make([]syncx.Event, 0, len(e.base)+1), e.base...)
		e.own = true
	}
	ev.Offset = int64(len(e.work)) + 1
	if ev.SiteID == "" {
		ev.SiteID = e.siteID
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = time.Now().Unix()
	}
	e.work = append(e.work, ev)
	return nil
}

func (e *memEvents) List(_ context.Context, after int64, limit int) ([]syncx.Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	out := []syncx.Event{}
	for _, ev := range e.cur() {
		if ev.Offset <= after {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
