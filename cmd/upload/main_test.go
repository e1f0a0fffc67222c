package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prof-ramos/planilhas-gov-br/internal/application"
	"github.com/prof-ramos/planilhas-gov-br/internal/config"
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
	"github.com/prof-ramos/planilhas-gov-br/internal/sink"
	"github.com/prof-ramos/planilhas-gov-br/internal/upload"
)

func testApp(t *testing.T, s config.SinkConfig) *application.App {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "data", "processed"), 0o755); err != nil {
		t.Fatal(err)
	}
	csv := "Orgao_Entidade,Cargos,Vagas,Unnamed: 3\n" +
		"Ibama,Analista Ambiental,10,\n" +
		"Funai,Indigenista,5,\n"
	if err := os.WriteFile(filepath.Join(dir, "data", "processed", "consolidated_data.csv"), []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if s.Timeout == 0 {
		s.Timeout = 5 * time.Second
	}
	return &application.App{
		Name: "upload",
		Config: &config.Config{
			Paths:  config.PathsConfig{Root: dir},
			Sink:   s,
			Upload: config.UploadConfig{BatchSize: 1, HashColumn: "row_hash"},
		},
		Ctx: core.NewRunContext(context.Background()),
	}
}

func TestRunUploadsToSQLiteAndSkipsDuplicates(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "planilhas.db")
	app := testApp(t, config.SinkConfig{Kind: "sqlite", DSN: dsn, Table: "autorizacoes_uniao"})

	for i := 0; i < 2; i++ {
		if err := run(app, nil); err != nil {
			t.Fatalf("run #%d: %v", i+1, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "autorizacoes_uniao"`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2 after uploading the same file twice", n)
	}

	var orgao string
	var vagas int64
	if err := db.QueryRow(`SELECT orgao_entidade, vagas FROM "autorizacoes_uniao" WHERE cargos = 'Indigenista'`).Scan(&orgao, &vagas); err != nil {
		t.Fatal(err)
	}
	if orgao != "Funai" || vagas != 5 {
		t.Errorf("row = (%q, %d), want (Funai, 5)", orgao, vagas)
	}
}

func TestRunExplicitFile(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "planilhas.db")
	app := testApp(t, config.SinkConfig{Kind: "sqlite", DSN: dsn, Table: "government_data"})

	if err := run(app, []string{filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Error("run() with a missing file: error = nil")
	}
}

func TestRunFatalSinkErrors(t *testing.T) {
	app := testApp(t, config.SinkConfig{Kind: "rest", URL: "http://127.0.0.1:1", Key: "k", Table: "government_data"})

	err := run(app, nil)
	if !sink.IsFatal(err) {
		t.Errorf("run() error = %v, want a fatal sink error", err)
	}
	if !errors.Is(err, sink.ErrUnavailable) {
		t.Errorf("run() error = %v, want ErrUnavailable", err)
	}
}

func TestRunValidatesSinkSettings(t *testing.T) {
	app := testApp(t, config.SinkConfig{Kind: "rest", Table: "government_data"})

	if err := run(app, nil); err == nil {
		t.Error("run() without rest credentials: error = nil")
	}
}

func TestPrintReport(t *testing.T) {
	rep := upload.Report{
		Collection: "autorizacoes_uniao",
		Attempted:  3000,
		Succeeded:  1000,
		Failed:     2000,
		Batches:    3,
		Errors: []upload.BatchError{
			{Batch: 2, FirstRow: 1000, Rows: 1000, Code: "DB001", Error: "duplicate key value",
				Hint: "A row with this key already exists (Code: DB001). Set UPLOAD_HASH_COLUMN to skip rows that were already loaded"},
			{Batch: 3, FirstRow: 2000, Rows: 1000, Code: "ERR000", Error: "something odd"},
		},
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	want := "autorizacoes_uniao: 3000 attempted, 1000 uploaded, 2000 failed in 3 batches\n" +
		"  batch 2 (rows 1001-2000): [DB001] duplicate key value\n" +
		"    A row with this key already exists (Code: DB001). Set UPLOAD_HASH_COLUMN to skip rows that were already loaded\n" +
		"  batch 3 (rows 2001-3000): [ERR000] something odd\n"
	if got := buf.String(); got != want {
		t.Errorf("printReport() =\n%s\nwant\n%s", got, want)
	}
	if strings.Count(buf.String(), "(Code:") != 1 {
		t.Error("hint printed for a batch with an unknown cause")
	}
}
