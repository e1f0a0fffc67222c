package core

import "strings"

// DefaultHeaderKeywords are the lowercase fragments that identify the header row of
// an authorization sheet.
var DefaultHeaderKeywords = []string{
	"orgao/entidade", "órgão/entidade", "orgao", "órgão", "entidade",
	"cargos", "cargo", "escolaridade", "esc.", "vagas",
	"ato oficial", "ato_oficial", "tipo de autorizacao", "tipo_de_autorizacao",
}

// FindDataStartRow returns the index of the first row whose text contains any of the
// keywords. Sheets often carry a title block above the real header; when no row
// matches, the first row is assumed to be the header and 0 is returned.
func FindDataStartRow(raw RawTable, keywords []string) int {
	for i, row := range raw {
		text := joinText(row)
		if text == "" {
			continue
		}
		for _, kw := range keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return i
			}
		}
	}
	return 0
}
