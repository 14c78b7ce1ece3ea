package listview

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Direction описывает направление сортировки колонки.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// ParseDirection разбирает направление сортировки; всё нераспознанное считается отсутствием сортировки.
func ParseDirection(s string) Direction {
	switch strings.ToLower(s) {
	case "asc":
		return DirectionAsc
	case "desc":
		return DirectionDesc
	}
	return DirectionNone
}

// Sort описывает активную сортировку экрана.
type Sort struct {
	Field     string
	Direction Direction
}

// Toggle возвращает состояние сортировки после щелчка по заголовку колонки field:
// несортированная колонка → asc → desc → без сортировки; другая колонка всегда начинает с asc.
func (s Sort) Toggle(field string) Sort {
	if s.Field != field || s.Direction == DirectionNone {
		return Sort{Field: field, Direction: DirectionAsc}
	}
	if s.Direction == DirectionAsc {
		return Sort{Field: field, Direction: DirectionDesc}
	}
	return Sort{}
}

// Active сообщает, задана ли сортировка.
func (s Sort) Active() bool {
	return s.Field != "" && s.Direction != DirectionNone
}

// compare сравнивает два значения поля. Время и строки с датами ISO 8601 сравниваются
// хронологически с учётом смещения зоны, числа численно, прочие строки лексикографически.
// Отсутствующее значение меньше любого другого.
func compare(a, b any) int {
	if isNil(a) || isNil(b) {
		switch {
		case isNil(a) && isNil(b):
			return 0
		case isNil(a):
			return -1
		default:
			return 1
		}
	}

	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}

	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			if ta, ok := asTime(sa); ok {
				if tb, ok := asTime(sb); ok {
					return ta.Compare(tb)
				}
			}
			return strings.Compare(sa, sb)
		}
	}

	if na, ok := number(a); ok {
		if nb, ok := number(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}

	return strings.Compare(text(a), text(b))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// text приводит значение поля к строке для поиска и сравнения с фильтром.
func text(v any) string {
	if isNil(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	}

	s := text(v)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
