// Package export выгружает отфильтрованные и отсортированные строки списка в CSV, XLSX и PDF.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmeshcher/repairdesk/internal/listview"
)

// Format описывает формат выгрузки.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat разбирает формат выгрузки; пустая строка означает CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType возвращает MIME-тип формата.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Table описывает выгружаемую таблицу.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// FromView строит таблицу из записей экрана: колонки соответствуют полям экрана.
func FromView[T any](title string, v *listview.View[T], items []T) Table {
	fields := v.Fields()

	t := Table{
		Title:   title,
		Columns: make([]string, 0, len(fields)),
		Rows:    make([][]string, 0, len(items)),
	}
	for _, f := range fields {
		t.Columns = append(t.Columns, f.Label)
	}
	for _, item := range items {
		row := make([]string, 0, len(fields))
		for _, f := range fields {
			row = append(row, f.Text(item))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Write выгружает таблицу в указанном формате.
func Write(w io.Writer, f Format, t Table, generated time.Time) error {
	switch f {
	case FormatXLSX:
		return XLSX(w, t, generated)
	case FormatPDF:
		return PDF(w, t, generated)
	}
	return CSV(w, t)
}

// Filename возвращает имя файла выгрузки вида <name>_<YYYY-MM-DD>.<ext>.
func Filename(name string, date time.Time, f Format) string {
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(name), date.Format(time.DateOnly), f)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", " ", "_",
)

func sanitizeFilename(name string) string {
	name = filenameReplacer.Replace(strings.TrimSpace(name))
	if name == "" {
		return "export"
	}
	return name
}
