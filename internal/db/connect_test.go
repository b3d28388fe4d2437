package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestParseDriver(t *testing.T) {
	for in, want := range map[string]Driver{
		"sqlite3":    DriverSQLite,
		" SQLite ":   DriverSQLite,
		"pgx":        DriverPostgres,
		"postgresql": DriverPostgres,
	} {
		got, err := ParseDriver(in)
		if err != nil || got != want {
			t.Errorf("ParseDriver(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseDriver("mysql"); err == nil {
		t.Error("mysql accepted")
	}
}

func TestSplitSQL(t *testing.T) {
	got := splitSQL("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a(x);  ;")
	if len(got) != 2 || got[1] != "CREATE INDEX i ON a(x);" {
		t.Fatalf("got %q", got)
	}
	if firstLine("\n SELECT 1\nFROM t") != "SELECT 1" {
		t.Fatal("firstLine")
	}
}

func TestOpenSQLiteAndWithTx(t *testing.T) {
	ctx := context.Background()
	dbh, err := Open(ctx, DriverSQLite, "file:connect_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()

	// schema is idempotent
	if err := ensureSchema(ctx, dbh, DriverSQLite); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err = WithTx(ctx, dbh, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO agencies (name) VALUES ($1)`, "gone"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	err = WithTx(ctx, dbh, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO agencies (name) VALUES ($1)`, "kept")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	rows, err := dbh.QueryContext(ctx, `SELECT name FROM agencies ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			t.Fatal(err)
		}
		names = append(names, n)
	}
	if len(names) != 1 || names[0] != "kept" {
		t.Fatalf("rows: %v", names)
	}
}

func TestForeignKeysSetNull(t *testing.T) {
	ctx := context.Background()
	dbh, err := Open(ctx, DriverSQLite, "file:connect_fk_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	defer dbh.Close()

	if _, err := dbh.ExecContext(ctx, `INSERT INTO licenses (id, title) VALUES (1, 'L')`); err != nil {
		t.Fatal(err)
	}
	if _, err := dbh.ExecContext(ctx,
		`INSERT INTO exams (title, effective_date, license_id) VALUES ('E', '2024-01-01', 1)`); err != nil {
		t.Fatal(err)
	}
	if _, err := dbh.ExecContext(ctx, `DELETE FROM licenses WHERE id = 1`); err != nil {
		t.Fatal(err)
	}
	var lic sql.NullInt64
	if err := dbh.QueryRowContext(ctx, `SELECT license_id FROM exams`).Scan(&lic); err != nil {
		t.Fatal(err)
	}
	if lic.Valid {
		t.Fatalf("license_id should be NULL, got %d", lic.Int64)
	}
}
