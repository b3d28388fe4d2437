package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-qbank/internal/db"
	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// SQLStore persists the bank through database/sql. Queries use $n
// placeholders, which both the sqlite and the pgx drivers accept.
type SQLStore struct {
	db     *sql.DB
	siteID string
}

func NewSQLStore(dbh *sql.DB, siteID string) *SQLStore {
	return &SQLStore{db: dbh, siteID: siteID}
}

func (s *SQLStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&sqlTx{tx: tx, siteID: s.siteID})
	})
}

func (s *SQLStore) Close() error { return s.db.Close() }

type sqlTx struct {
	tx     *sql.Tx
	siteID string
}

func (t *sqlTx) Agencies() Table[Agency]  { return sqlTable[Agency]{t.tx, agencyCols} }
func (t *sqlTx) Licenses() Table[License] { return sqlTable[License]{t.tx, licenseCols} }
func (t *sqlTx) Exams() Table[Exam]       { return sqlTable[Exam]{t.tx, examCols} }
func (t *sqlTx) Quizzes() Table[Quiz]     { return sqlTable[Quiz]{t.tx, quizCols} }
func (t *sqlTx) Explains() Table[Explain] { return sqlTable[Explain]{t.tx, explainCols} }
func (t *sqlTx) Events() EventLog         { return syncx.NewEventRepo(t.tx, t.siteID) }

// sqlSpec maps one entity onto its table. cols excludes id; args and dest
// follow the order of cols, dest starts with the id.
type sqlSpec[T any] struct {
	name  string
	table string
	cols  []string
	fks   map[string]bool
	args  func(*T) []any
	dest  func(*T) []any
	id    func(*T) *int64
	strip func(T) T
}

var (
	agencyCols = &sqlSpec[Agency]{
		name: "agency", table: "agencies",
		cols:  []string{"name"},
		args:  func(a *Agency) []any { return []any{a.Name} },
		dest:  func(a *Agency) []any { return []any{&a.ID, &a.Name} },
		id:    agencySpec.id,
		strip: agencySpec.strip,
	}
	licenseCols = &sqlSpec[License]{
		name: "license", table: "licenses",
		cols:  []string{"title"},
		args:  func(l *License) []any { return []any{l.Title} },
		dest:  func(l *License) []any { return []any{&l.ID, &l.Title} },
		id:    licenseSpec.id,
		strip: licenseSpec.strip,
	}
	examCols = &sqlSpec[Exam]{
		name: "exam", table: "exams",
		cols: []string{"title", "exam_type", "effective_date", "agency_id", "license_id"},
		fks:  map[string]bool{"agency_id": true, "license_id": true},
		args: func(e *Exam) []any {
			return []any{e.Title, e.ExamType, e.EffectiveDate, e.AgencyID, e.LicenseID}
		},
		dest: func(e *Exam) []any {
			return []any{&e.ID, &e.Title, &e.ExamType, &e.EffectiveDate, &e.AgencyID, &e.LicenseID}
		},
		id:    examSpec.id,
		strip: examSpec.strip,
	}
	quizCols = &sqlSpec[Quiz]{
		name: "quiz", table: "quizzes",
		cols: []string{"code", "question", "example", "selections", "exam_id"},
		fks:  map[string]bool{"exam_id": true},
		args: func(q *Quiz) []any {
			return []any{q.Code, q.Question, q.Example, q.Selections, q.ExamID}
		},
		dest: func(q *Quiz) []any {
			return []any{&q.ID, &q.Code, &q.Question, &q.Example, &q.Selections, &q.ExamID}
		},
		id:    quizSpec.id,
		strip: quizSpec.strip,
	}
	explainCols = &sqlSpec[Explain]{
		name: "explain", table: "explains",
		cols:  []string{"answer", "description", "quiz_id"},
		fks:   map[string]bool{"quiz_id": true},
		args:  func(x *Explain) []any { return []any{x.Answer, x.Description, x.QuizID} },
		dest:  func(x *Explain) []any { return []any{&x.ID, &x.Answer, &x.Description, &x.QuizID} },
		id:    explainSpec.id,
		strip: explainSpec.strip,
	}
)

type sqlTable[T any] struct {
	tx   *sql.Tx
	spec *sqlSpec[T]
}

func (t sqlTable[T]) selectCols() string {
	return "id, " + strings.Join(t.spec.cols, ", ")
}

func (t sqlTable[T]) Save(ctx context.Context, v T) (T, error) {
	v = t.spec.strip(v)
	id := t.spec.id(&v)
	args := t.spec.args(&v)
	if *id == 0 {
		q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING id`,
			t.spec.table, strings.Join(t.spec.cols, ", "), placeholders(1, len(args)))
		if err := t.tx.QueryRowContext(ctx, q, args...).Scan(id); err != nil {
			var zero T
			return zero, fmt.Errorf("%s: insert: %w", t.spec.name, err)
		}
		return v, nil
	}

	sets := make([]string, len(t.spec.cols))
	for i, c := range t.spec.cols {
		sets[i] = fmt.Sprintf("%s=$%d", c, i+1)
	}
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id=$%d`, t.spec.table, strings.Join(sets, ", "), len(args)+1)
	res, err := t.tx.ExecContext(ctx, q, append(args, *id)...)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: update: %w", t.spec.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var zero T
		return zero, notFound(t.spec.name, *id)
	}
	return v, nil
}

func (t sqlTable[T]) Find(ctx context.Context, id int64) (T, error) {
	var v T
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id=$1`, t.selectCols(), t.spec.table)
	if err := t.tx.QueryRowContext(ctx, q, id).Scan(t.spec.dest(&v)...); err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, notFound(t.spec.name, id)
		}
		return zero, err
	}
	return v, nil
}

func (t sqlTable[T]) FindMany(ctx context.Context, ids []int64) (map[int64]T, error) {
	out := make(map[int64]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id IN (%s)`, t.selectCols(), t.spec.table, placeholders(1, len(ids)))
	list, err := t.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		out[*t.spec.id(&v)] = v
	}
	return out, nil
}

func (t sqlTable[T]) List(ctx context.Context) ([]T, error) {
	return t.query(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, t.selectCols(), t.spec.table))
}

func (t sqlTable[T]) ListBy(ctx context.Context, fk string, id int64) ([]T, error) {
	if !t.spec.fks[fk] {
		return nil, fmt.Errorf("%s: unknown foreign key %q", t.spec.name, fk)
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s=$1 ORDER BY id`, t.selectCols(), t.spec.table, fk)
	return t.query(ctx, q, id)
}

func (t sqlTable[T]) Delete(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id=$1`, t.spec.table), id)
	if err != nil {
		return fmt.Errorf("%s: delete: %w", t.spec.name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(t.spec.name, id)
	}
	return nil
}

func (t sqlTable[T]) query(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var v T
		if err := rows.Scan(t.spec.dest(&v)...); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ",")
}
