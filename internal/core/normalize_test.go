package core

import (
	"testing"
)

func TestNormalizeEscolaridade(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NS", EscolaridadeSuperior},
		{"ns", EscolaridadeSuperior},
		{"nível superior", EscolaridadeSuperior},
		{"NIVEL SUPERIOR", EscolaridadeSuperior},
		{"NÍVEL SUPERIOR", EscolaridadeSuperior},
		{"NI", EscolaridadeIntermediario},
		{"Nivel Intermediário", EscolaridadeIntermediario},
		{"NÍVEL INTERMEDIÁRIO", EscolaridadeIntermediario},
		{"nível médio", "Nível Médio"},
		{"SUPERIOR COMPLETO", "Superior Completo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeEscolaridade(tt.in); got != tt.want {
				t.Errorf("NormalizeEscolaridade(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEscolaridadeAbbreviationEqualsSpelledOut(t *testing.T) {
	if NormalizeEscolaridade("NS") != NormalizeEscolaridade("nível superior") {
		t.Errorf("NS and nível superior normalize differently")
	}
}

func TestNormalizeTipoAutorizacao(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CONCURSO PÚBLICO", TipoConcursoPublico},
		{"concurso publico", TipoConcursoPublico},
		{"Autorização de concurso público", TipoConcursoPublico},
		{"provimento originário", TipoProvimentoOriginario},
		{"PROVIMENTO", TipoProvimentoOriginario},
		// PROVIMENTO already matches the originário rule, so only the bare
		// keyword reaches the later rules.
		{"Provimento adicional", TipoProvimentoOriginario},
		{"ADICIONAL", TipoProvimentoAdicional},
		{"excepcional", TipoProvimentoExcepcional},
		{"Contratação temporária", TipoContratacaoTemporaria},
		{"TEMPORARIA", TipoContratacaoTemporaria},
		{"concurso interno", "Concurso Interno"},
		{"REDISTRIBUIÇÃO", "Redistribuição"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTipoAutorizacao(tt.in); got != tt.want {
				t.Errorf("NormalizeTipoAutorizacao(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTipoAutorizacaoFirstMatchWins(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{TipoConcursoPublico, TipoConcursoPublico},
		{TipoProvimentoOriginario, TipoProvimentoOriginario},
		{"Provimento Adicional", TipoProvimentoOriginario},
		{"PROVIMENTO ADICIONAL", TipoProvimentoOriginario},
		{"provimento excepcional", TipoProvimentoOriginario},
		{TipoContratacaoTemporaria, TipoContratacaoTemporaria},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeTipoAutorizacao(tt.in); got != tt.want {
				t.Errorf("NormalizeTipoAutorizacao(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Value
	}{
		{"number", Number(12), Number(12)},
		{"numeric text", String(" 7 "), Number(7)},
		{"decimal text", String("2.5"), Number(2.5)},
		{"words", String("dez"), Null()},
		{"empty", String(""), Null()},
		{"null", Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceNumeric(tt.in); !got.Equal(tt.want) {
				t.Errorf("CoerceNumeric(%v) = %v, want %v", tt.in.Text(), got.Text(), tt.want.Text())
			}
		})
	}
}

func sampleTable() *Table {
	tbl := NewTable(FieldOrgaoEntidade, FieldCargos, FieldEscolaridade, FieldTipoAutorizacao, FieldVagas, "Observacao")
	tbl.AppendRow(String("  MINISTÉRIO DA SAÚDE "), String("analista técnico"), String("NS"), String("concurso público"), String("10"), String("  livre  "))
	tbl.AppendRow(String("ministério da fazenda"), String("AUDITOR"), String("NI"), String("provimento"), Number(3), Null())
	tbl.AppendRow(Null(), String("Técnico"), Null(), String("redistribuição"), String("n/a"), String("x"))
	return tbl
}

func TestNormalizeValues(t *testing.T) {
	in := sampleTable()
	out, err := NormalizeValues(in)
	if err != nil {
		t.Fatalf("NormalizeValues() error = %v", err)
	}

	checks := []struct {
		col  string
		row  int
		want Value
	}{
		{FieldOrgaoEntidade, 0, String("Ministério Da Saúde")},
		{FieldOrgaoEntidade, 2, Null()},
		{FieldCargos, 0, String("Analista Técnico")},
		{FieldCargos, 1, String("Auditor")},
		{FieldEscolaridade, 0, String(EscolaridadeSuperior)},
		{FieldEscolaridade, 1, String(EscolaridadeIntermediario)},
		{FieldEscolaridade, 2, Null()},
		{FieldTipoAutorizacao, 0, String(TipoConcursoPublico)},
		{FieldTipoAutorizacao, 1, String(TipoProvimentoOriginario)},
		{FieldTipoAutorizacao, 2, String("Redistribuição")},
		{FieldVagas, 0, Number(10)},
		{FieldVagas, 1, Number(3)},
		{FieldVagas, 2, Null()},
		{"Observacao", 0, String("livre")},
	}

	for _, c := range checks {
		col, ok := out.Column(c.col)
		if !ok {
			t.Fatalf("column %q missing", c.col)
		}
		if got := col.Values[c.row]; !got.Equal(c.want) {
			t.Errorf("%s[%d] = %q (%s), want %q (%s)", c.col, c.row, got.Text(), got.Kind(), c.want.Text(), c.want.Kind())
		}
	}

	// The input must be left alone.
	orig, _ := in.Column(FieldOrgaoEntidade)
	if orig.Values[0].Str() != "  MINISTÉRIO DA SAÚDE " {
		t.Errorf("input table was modified: %q", orig.Values[0].Str())
	}
}

func TestNormalizeValuesIsIdempotent(t *testing.T) {
	once, err := NormalizeValues(sampleTable())
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := NormalizeValues(once)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	for i, col := range once.Columns {
		for j, v := range col.Values {
			if w := twice.Columns[i].Values[j]; !w.Equal(v) {
				t.Errorf("%s[%d]: %q then %q", col.Name, j, v.Text(), w.Text())
			}
		}
	}
}

func TestNormalizeValuesReportsRaggedTable(t *testing.T) {
	tbl := &Table{Columns: []Column{
		{Name: FieldCargos, Values: []Value{String("a"), String("b")}},
		{Name: FieldVagas, Values: []Value{Number(1)}},
	}}
	if _, err := NormalizeValues(tbl); err == nil {
		t.Fatal("NormalizeValues() error = nil, want column length error")
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MINISTÉRIO DA ECONOMIA", "Ministério Da Economia"},
		{"agência nacional", "Agência Nacional"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
