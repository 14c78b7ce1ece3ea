package export

import (
	"bufio"
	"io"
	"strings"
)

// CSV записывает таблицу через запятую; каждое поле, включая заголовки, заключается
// в двойные кавычки, кавычки внутри значения удваиваются.
func CSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)

	writeRow(bw, t.Columns)
	for _, row := range t.Rows {
		bw.WriteByte('\n')
		writeRow(bw, row)
	}

	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}
