package artifact

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/prof-ramos/planilhas-gov-br/internal/core"
)

const errorLogTitle = "Error Log for Corrupted Files:"

// WriteErrorLog writes one block per failed file under a fixed title.
func WriteErrorLog(w io.Writer, records []core.ErrorRecord) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(errorLogTitle + "\n")
	bw.WriteString(strings.Repeat("=", 40) + "\n")
	for _, r := range records {
		bw.WriteString("File: " + r.File + "\n")
		bw.WriteString("Error: " + r.Message + "\n")
		bw.WriteString(strings.Repeat("-", 40) + "\n")
	}
	return bw.Flush()
}

// WriteErrorLogFile writes records to path.
func WriteErrorLogFile(path string, records []core.ErrorRecord) error {
	return writeFile(path, func(f *os.File) error { return WriteErrorLog(f, records) })
}
