package spreadsheet

// textenc.go decodes delimited text exports without loading them into memory.
//
// Government portals publish CSVs either as UTF-8 (often with a Windows BOM) or
// as Windows-1252. NewTextReader sniffs the first block and picks the decoder;
// invalid UTF-8 sequences that show up later are replaced with U+FFFD.

import (
	"bufio"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much of the input is inspected to choose the decoder.
const sniffSize = 64 * 1024

// NewTextReader wraps r with BOM removal and a UTF-8 or Windows-1252 decoder.
func NewTextReader(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffSize)
	head, _ := br.Peek(sniffSize)

	if looksUTF8(head) {
		return transform.NewReader(br, unicode.UTF8BOM.NewDecoder())
	}
	return transform.NewReader(br, charmap.Windows1252.NewDecoder())
}

// looksUTF8 validates head, ignoring a multi-byte sequence cut at the end.
func looksUTF8(head []byte) bool {
	return utf8.Valid(head[:len(head)-incompleteTrailingBytes(head)])
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Anything but a continuation byte ends the scan.
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
