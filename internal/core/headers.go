package core

import "strings"

// HeaderMapVersion identifies the revision of DefaultHeaderMap. Bump it whenever a
// key or canonical name changes so consolidated artifacts can be traced back.
const HeaderMapVersion = 3

// Canonical field names produced by the header normalizer.
const (
	FieldOrgaoEntidade   = "Orgao_Entidade"
	FieldVinculo         = "Vinculo_Orgao_Entidade"
	FieldSetor           = "Setor"
	FieldCargos          = "Cargos"
	FieldEscolaridade    = "Escolaridade"
	FieldVagas           = "Vagas"
	FieldAtoOficial      = "Ato_Oficial"
	FieldTipoAutorizacao = "Tipo_Autorizacao"
	FieldDOU             = "DOU"
	FieldDataProvimento  = "Data_Provimento"
)

// HeaderMap maps a normalized header token to its canonical field name.
type HeaderMap map[string]string

// DefaultHeaderMap returns the lookup table for the authorization spreadsheets.
// Keys are written the way they appear in the sources (lowercase, spaces kept);
// NormalizeHeader normalizes them before comparing.
func DefaultHeaderMap() HeaderMap {
	return HeaderMap{
		"orgao/entidade": FieldOrgaoEntidade,
		"órgão/entidade": FieldOrgaoEntidade,
		"orgao":          FieldOrgaoEntidade,
		"órgão":          FieldOrgaoEntidade,
		"entidade":       FieldOrgaoEntidade,
		"entidade/orgao": FieldOrgaoEntidade,
		"entidade/orgão": FieldOrgaoEntidade,

		"vinculo_orgao_entidade": FieldVinculo,
		"vínculo órgão/entidade": FieldVinculo,
		"vínculo orgão/entidade": FieldVinculo,
		"vinculo":                FieldVinculo,
		"vínculo":                FieldVinculo,

		"setor": FieldSetor,

		"cargos":  FieldCargos,
		"cargo":   FieldCargos,
		"cargos.": FieldCargos,
		"cargo.":  FieldCargos,

		"escolaridade": FieldEscolaridade,
		"esc.":         FieldEscolaridade,

		"vagas": FieldVagas,

		"ato oficial":    FieldAtoOficial,
		"ato_oficial":    FieldAtoOficial,
		"publicacao":     FieldAtoOficial,
		"publicação":     FieldAtoOficial,
		"norma juridica": FieldAtoOficial,
		"norma jurídica": FieldAtoOficial,

		"tipo de autorizacao": FieldTipoAutorizacao,
		"tipo_de_autorizacao": FieldTipoAutorizacao,
		"tipo autorizacao":    FieldTipoAutorizacao,
		"tipo autorização":    FieldTipoAutorizacao,
		"tipo de autorização": FieldTipoAutorizacao,

		"d.o.u":                                        FieldDOU,
		"link dou":                                     FieldDOU,
		"link do dou":                                  FieldDOU,
		"publicação     diário oficial da união - dou": FieldDOU,
		"publicação diário oficial da união - dou":     FieldDOU,

		"data provimento": FieldDataProvimento,
	}
}

// headerToken lowercases and trims a header, turns spaces into underscores and
// removes periods and newlines.
func headerToken(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

var headerSanitizer = strings.NewReplacer(" ", "_", ".", "_", "-", "_", "\n", "_")

// SanitizeHeader turns an unknown header into an identifier-like name while keeping
// its casing. Distinct headers may collide; DedupeColumns resolves that later.
func SanitizeHeader(s string) string {
	return headerSanitizer.Replace(strings.TrimSpace(s))
}

// NormalizeHeader maps a raw header label to its canonical field name.
//
// The label is tokenized and looked up directly; when that misses, every key of m
// is tokenized the same way and compared. Labels that match nothing are sanitized.
func NormalizeHeader(raw string, m HeaderMap) string {
	tok := headerToken(raw)
	if name, ok := m[tok]; ok {
		return name
	}
	for key, name := range m {
		if headerToken(key) == tok {
			return name
		}
	}
	return SanitizeHeader(raw)
}

// NormalizeHeaders applies NormalizeHeader to every column of t in place.
func NormalizeHeaders(t *Table, m HeaderMap) {
	for i := range t.Columns {
		t.Columns[i].Name = NormalizeHeader(t.Columns[i].Name, m)
	}
}
