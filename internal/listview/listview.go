// Package listview реализует общий механизм фильтрации, поиска и сортировки списков.
//
// Каждый экран описывает свои поля декларативно через View, а Apply строит
// производное представление: подмножество входных записей в нужном порядке.
// Пакет не выполняет ввода-вывода и не изменяет входные данные.
package listview

import (
	"slices"
	"strings"
	"time"
)

// All означает отсутствие ограничения по полю фильтра.
const All = "all"

// Field описывает поле записи, доступное экрану списка.
type Field[T any] struct {
	// Name используется в параметрах запроса и как ключ сортировки.
	Name string
	// Label выводится в заголовке колонки и при экспорте.
	Label string
	// Value извлекает значение поля из записи.
	Value func(T) any
	// Searchable включает поле в полнотекстовый поиск.
	Searchable bool
	// Filterable делает поле доступным в выпадающих фильтрах.
	Filterable bool
}

// Text возвращает значение поля записи в строковом виде, как его видит поиск и экспорт.
func (f Field[T]) Text(item T) string {
	return text(f.Value(item))
}

// View описывает экран списка: набор полей и, при необходимости, поле даты
// для фильтра по диапазону.
type View[T any] struct {
	name      string
	fields    []Field[T]
	index     map[string]int
	dateField string
}

// NewView создаёт описание экрана списка.
func NewView[T any](name, dateField string, fields ...Field[T]) *View[T] {
	v := &View[T]{
		name:      name,
		fields:    fields,
		index:     make(map[string]int, len(fields)),
		dateField: dateField,
	}
	for i, f := range fields {
		v.index[f.Name] = i
	}
	return v
}

// Name возвращает имя экрана.
func (v *View[T]) Name() string {
	return v.name
}

// Fields возвращает поля экрана в порядке объявления.
func (v *View[T]) Fields() []Field[T] {
	return slices.Clone(v.fields)
}

// Field возвращает поле по имени.
func (v *View[T]) Field(name string) (Field[T], bool) {
	i, ok := v.index[name]
	if !ok {
		return Field[T]{}, false
	}
	return v.fields[i], true
}

// Query описывает состояние фильтров экрана.
type Query struct {
	Search  string
	Filters map[string]string
	Sort    Sort
	// From и To ограничивают поле даты экрана включительно; нулевое значение снимает ограничение.
	From time.Time
	To   time.Time
}

// Apply возвращает новый срез с записями, удовлетворяющими запросу, в порядке сортировки.
// Без сортировки сохраняется исходный порядок. Неизвестные поля фильтра и сортировки игнорируются.
func (v *View[T]) Apply(items []T, q Query) []T {
	needle := strings.ToLower(q.Search)

	res := make([]T, 0, len(items))
	for _, item := range items {
		if v.matchesSearch(item, needle) && v.matchesFilters(item, q.Filters) && v.matchesRange(item, q.From, q.To) {
			res = append(res, item)
		}
	}

	if q.Sort.Direction == DirectionNone {
		return res
	}
	f, ok := v.Field(q.Sort.Field)
	if !ok {
		return res
	}

	slices.SortStableFunc(res, func(a, b T) int {
		c := compare(f.Value(a), f.Value(b))
		if q.Sort.Direction == DirectionDesc {
			return -c
		}
		return c
	})

	return res
}

func (v *View[T]) matchesSearch(item T, needle string) bool {
	if needle == "" {
		return true
	}
	for _, f := range v.fields {
		if !f.Searchable {
			continue
		}
		if strings.Contains(strings.ToLower(text(f.Value(item))), needle) {
			return true
		}
	}
	return false
}

func (v *View[T]) matchesFilters(item T, filters map[string]string) bool {
	for name, want := range filters {
		if want == "" || want == All {
			continue
		}
		f, ok := v.Field(name)
		if !ok {
			continue
		}
		if text(f.Value(item)) != want {
			return false
		}
	}
	return true
}

func (v *View[T]) matchesRange(item T, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	f, ok := v.Field(v.dateField)
	if !ok {
		return true
	}

	ts, ok := asTime(f.Value(item))
	if !ok {
		return false
	}
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

// Options возвращает различные непустые значения поля в порядке первого появления.
// Используется для заполнения выпадающих фильтров.
func (v *View[T]) Options(items []T, name string) []string {
	f, ok := v.Field(name)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	res := make([]string, 0)
	for _, item := range items {
		s := text(f.Value(item))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		res = append(res, s)
	}
	return res
}

// FilterOptions возвращает значения для всех полей, помеченных как Filterable.
func (v *View[T]) FilterOptions(items []T) map[string][]string {
	res := make(map[string][]string)
	for _, f := range v.fields {
		if f.Filterable {
			res[f.Name] = v.Options(items, f.Name)
		}
	}
	return res
}
