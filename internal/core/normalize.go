package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical values written by the value normalizer.
const (
	EscolaridadeIntermediario = "Nível Intermediário"
	EscolaridadeSuperior      = "Nível Superior"

	TipoConcursoPublico       = "Concurso Público"
	TipoProvimentoOriginario  = "Provimento Originário"
	TipoProvimentoAdicional   = "Provimento Adicional"
	TipoProvimentoExcepcional = "Provimento Excepcional"
	TipoContratacaoTemporaria = "Contratação Temporária"
)

var (
	escolaridadeIntermediario = []string{"NI", "NIVEL INTERMEDIARIO"}
	escolaridadeSuperior      = []string{"NS", "NIVEL SUPERIOR"}
)

// tipoRule matches when the folded text contains any of anyOf and, if set, any of
// alsoAny.
type tipoRule struct {
	anyOf   []string
	alsoAny []string
	label   string
}

// Order matters: the first matching rule wins. Terms are in folded form.
var tipoRules = []tipoRule{
	{anyOf: []string{"CONCURSO", "PUBLICO"}, alsoAny: []string{"PUBLICO"}, label: TipoConcursoPublico},
	{anyOf: []string{"PROVIMENTO", "ORIGINARIO"}, label: TipoProvimentoOriginario},
	{anyOf: []string{"PROVIMENTO", "ADICIONAL"}, label: TipoProvimentoAdicional},
	{anyOf: []string{"PROVIMENTO", "EXCEPCIONAL"}, label: TipoProvimentoExcepcional},
	{anyOf: []string{"CONTRATACAO", "TEMPORARIA"}, label: TipoContratacaoTemporaria},
}

// Fold uppercases s and strips combining marks, so "Público" and "PUBLICO" compare
// equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(out)
}

// TitleCase capitalizes the first letter of every word and lowercases the rest,
// using Portuguese casing rules.
func TitleCase(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func inList(s string, list []string) bool {
	for _, l := range list {
		if s == l {
			return true
		}
	}
	return false
}

// NormalizeEscolaridade maps abbreviations and spellings of the schooling level to
// the two canonical labels. Other text is title-cased.
func NormalizeEscolaridade(s string) string {
	f := Fold(strings.TrimSpace(s))
	switch {
	case inList(f, escolaridadeIntermediario):
		return EscolaridadeIntermediario
	case inList(f, escolaridadeSuperior):
		return EscolaridadeSuperior
	default:
		return TitleCase(s)
	}
}

// NormalizeTipoAutorizacao classifies a free-text authorization type by the
// first matching rule. Any text containing PROVIMENTO is Provimento Originário,
// including the other provimento labels themselves.
func NormalizeTipoAutorizacao(s string) string {
	f := Fold(strings.TrimSpace(s))
	for _, r := range tipoRules {
		if !containsAny(f, r.anyOf) {
			continue
		}
		if r.alsoAny != nil && !containsAny(f, r.alsoAny) {
			continue
		}
		return r.label
	}
	return TitleCase(s)
}

// CoerceNumeric returns v as a number: numbers pass, numeric text is parsed and
// everything else becomes null.
func CoerceNumeric(v Value) Value {
	switch v.Kind() {
	case KindNumber:
		return v
	case KindString:
		s := strings.TrimSpace(v.Str())
		if s == "" {
			return Null()
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null()
		}
		return Number(f)
	default:
		return Null()
	}
}

// mapStrings applies fn to every string cell and leaves other cells untouched.
func mapStrings(vals []Value, fn func(string) string) {
	for i, v := range vals {
		if v.IsString() {
			vals[i] = String(fn(v.Str()))
		}
	}
}

// NormalizeValues returns a copy of t with cell values standardized per column.
// The input table is never modified. A panic inside the pass is recovered and
// reported as an error so the caller can fall back to t.
func NormalizeValues(t *Table) (out *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("normalize values: %v", r)
		}
	}()

	out = t.Clone()
	for i := range out.Columns {
		col := &out.Columns[i]
		mapStrings(col.Values, strings.TrimSpace)

		switch col.Name {
		case FieldOrgaoEntidade, FieldCargos, FieldVinculo:
			mapStrings(col.Values, TitleCase)
		case FieldEscolaridade:
			mapStrings(col.Values, NormalizeEscolaridade)
		case FieldTipoAutorizacao:
			mapStrings(col.Values, NormalizeTipoAutorizacao)
		case FieldVagas:
			for j, v := range col.Values {
				col.Values[j] = CoerceNumeric(v)
			}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
