package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
)

func openTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := New(context.Background(), sink.Config{
		Kind: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "planilhas.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	return s.(*Sink)
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func TestInsertCreatesTable(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	b := sink.Batch{
		Columns: []string{"orgao_entidade", "vagas"},
		Rows:    [][]any{{"Ibama", 10.0}, {"Funai", nil}},
	}
	if err := s.Insert(ctx, "autorizacoes_uniao", b); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if n := count(t, s.db, `SELECT COUNT(*) FROM autorizacoes_uniao`); n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}
	if n := count(t, s.db, `SELECT COUNT(*) FROM autorizacoes_uniao WHERE vagas IS NULL`); n != 1 {
		t.Errorf("null vagas = %d, want 1", n)
	}
	var vagas float64
	if err := s.db.QueryRow(`SELECT vagas FROM autorizacoes_uniao WHERE orgao_entidade = 'Ibama'`).Scan(&vagas); err != nil || vagas != 10 {
		t.Errorf("vagas = %v, %v; want 10", vagas, err)
	}

	// A later batch with a new column extends the table.
	more := sink.Batch{
		Columns: []string{"orgao_entidade", "cargos"},
		Rows:    [][]any{{"Inss", "Analista"}},
	}
	if err := s.Insert(ctx, "autorizacoes_uniao", more); err != nil {
		t.Fatalf("Insert() with new column error = %v", err)
	}
	if n := count(t, s.db, `SELECT COUNT(*) FROM autorizacoes_uniao WHERE cargos = 'Analista'`); n != 1 {
		t.Errorf("rows with cargos = %d, want 1", n)
	}
}

func TestInsertConflictColumnsSkipDuplicates(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	b := sink.Batch{
		Columns:         []string{"cargos", "row_hash"},
		Rows:            [][]any{{"Analista", "h1"}, {"Técnico", "h2"}},
		ConflictColumns: []string{"row_hash"},
	}
	for i := 0; i < 2; i++ {
		if err := s.Insert(ctx, "autorizacoes_uniao", b); err != nil {
			t.Fatalf("Insert() run %d error = %v", i+1, err)
		}
	}
	if n := count(t, s.db, `SELECT COUNT(*) FROM autorizacoes_uniao`); n != 2 {
		t.Errorf("rows after re-run = %d, want 2", n)
	}
}

func TestInsertChunksLargeBatches(t *testing.T) {
	s := openTestSink(t)

	cols := make([]string, 40)
	for i := range cols {
		cols[i] = "c" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	rows := make([][]any, 1000)
	for i := range rows {
		rows[i] = make([]any, len(cols))
		for j := range cols {
			rows[i][j] = float64(i)
		}
	}

	if err := s.Insert(context.Background(), "wide", sink.Batch{Columns: cols, Rows: rows}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n := count(t, s.db, `SELECT COUNT(*) FROM wide`); n != 1000 {
		t.Errorf("rows = %d, want 1000", n)
	}
}

func TestBuildInsertSQL(t *testing.T) {
	got, args := buildInsertSQL("t", []string{"a", "b"}, [][]any{{1, 2}, {3}}, []string{"a"})
	want := `INSERT INTO "t" ("a", "b") VALUES (?, ?), (?, ?) ON CONFLICT ("a") DO NOTHING`
	if got != want {
		t.Errorf("SQL =\n%s\nwant\n%s", got, want)
	}
	if len(args) != 4 || args[3] != nil {
		t.Errorf("args = %v", args)
	}
}
