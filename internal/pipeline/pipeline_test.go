package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/prof-ramos/planilhas-gov-br/internal/artifact"
	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

func writeWorkbook(t *testing.T, dir, name string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := f.SaveAs(filepath.Join(dir, name)); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func rawFixtures(t *testing.T) string {
	t.Helper()
	raw := t.TempDir()

	writeWorkbook(t, raw, "portaria_2024.xlsx", [][]any{
		{"Portaria MGI nº 1/2024"},
		{},
		{"Órgão/Entidade", "Cargos", "Vagas"},
		{"ibama", "Analista Ambiental", 10},
		{"funai", "Indigenista", 5},
	})
	writeWorkbook(t, raw, "portaria_2025.xlsx", [][]any{
		{"Órgão", "Setor", "Vagas"},
		{"inss", "Perícia Médica", 3},
	})
	writeWorkbook(t, raw, "vazia.xlsx", nil)
	if err := os.WriteFile(filepath.Join(raw, "corrompida.xls"), []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(raw, "leia-me.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestRun(t *testing.T) {
	raw := rawFixtures(t)
	out := filepath.Join(t.TempDir(), "processed")

	p := New(out)
	sum, err := p.Run(core.NewRunContext(context.Background()), raw)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if sum.Files != 4 || sum.Processed != 2 || sum.Skipped != 1 || sum.Failed != 1 {
		t.Errorf("summary = %s", sum)
	}
	if !sum.Consolidated || sum.Rows != 3 || sum.Columns != 4 {
		t.Errorf("consolidated %v: %d rows x %d columns, want 3 x 4", sum.Consolidated, sum.Rows, sum.Columns)
	}

	for _, stem := range []string{"portaria_2024", "portaria_2025"} {
		if _, err := os.Stat(p.Layout.ConvertedCSV(stem)); err != nil {
			t.Errorf("per-file CSV for %s: %v", stem, err)
		}
	}
	if _, err := os.Stat(p.Layout.ConvertedCSV("vazia")); !os.IsNotExist(err) {
		t.Errorf("skipped file produced a CSV (stat error %v)", err)
	}

	for _, path := range []string{p.Layout.ConsolidatedCSV(), p.Layout.ConsolidatedJSON()} {
		tbl, err := artifact.ReadTable(path)
		if err != nil {
			t.Fatalf("ReadTable(%s): %v", filepath.Base(path), err)
		}
		want := []string{core.FieldOrgaoEntidade, core.FieldCargos, core.FieldVagas, core.FieldSetor}
		if !reflect.DeepEqual(tbl.Names(), want) {
			t.Errorf("%s columns = %v, want %v", filepath.Base(path), tbl.Names(), want)
		}
		if tbl.RowCount() != 3 {
			t.Errorf("%s rows = %d, want 3", filepath.Base(path), tbl.RowCount())
		}
	}

	log, err := os.ReadFile(p.Layout.ErrorLog())
	if err != nil {
		t.Fatalf("error log: %v", err)
	}
	if !strings.Contains(string(log), "File: corrompida.xls") {
		t.Errorf("error log does not name the corrupted file:\n%s", log)
	}
	if len(sum.Errors) != 1 || sum.Errors[0].File != "corrompida.xls" {
		t.Errorf("Errors = %+v", sum.Errors)
	}
}

func TestRunWithoutFailuresWritesNoErrorLog(t *testing.T) {
	raw := t.TempDir()
	writeWorkbook(t, raw, "a.xlsx", [][]any{
		{"Cargos", "Vagas"},
		{"Analista", 2},
	})
	out := filepath.Join(t.TempDir(), "processed")

	p := New(out)
	if _, err := p.Run(context.Background(), raw); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p.Layout.ErrorLog()); !os.IsNotExist(err) {
		t.Errorf("error log written for a clean run (stat error %v)", err)
	}
}

func TestRunIngestsCSVExports(t *testing.T) {
	raw := t.TempDir()
	writeWorkbook(t, raw, "portaria.xlsx", [][]any{
		{"Órgão", "Vagas"},
		{"inss", 3},
	})
	csv := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Órgão;Vagas\nibama;10\n")...)
	if err := os.WriteFile(filepath.Join(raw, "exportacao.csv"), csv, 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "processed")

	p := New(out)
	sum, err := p.Run(context.Background(), raw)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Files != 2 || sum.Processed != 2 || sum.Failed != 0 {
		t.Errorf("summary = %s", sum)
	}
	if sum.Rows != 2 || sum.Columns != 2 {
		t.Errorf("consolidated %d rows x %d columns, want 2 x 2", sum.Rows, sum.Columns)
	}
	if _, err := os.Stat(p.Layout.ConvertedCSV("exportacao")); err != nil {
		t.Errorf("per-file CSV for the export: %v", err)
	}
}

func TestRunEmptyRawDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "processed")
	p := New(out)

	sum, err := p.Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if sum.Files != 0 || sum.Consolidated {
		t.Errorf("summary = %+v", sum)
	}
	if _, err := os.Stat(p.Layout.ConsolidatedCSV()); !os.IsNotExist(err) {
		t.Error("consolidated CSV written with no input")
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "processed")
	if err := os.WriteFile(blocker, []byte("a file, not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(blocker).Run(context.Background(), t.TempDir()); err == nil {
		t.Error("Run() error = nil with an unwritable output directory")
	}
}
