package listview

import (
	"fmt"
	"net/url"
	"time"
)

// Зарезервированные параметры запроса; все остальные известные экрану имена считаются фильтрами.
const (
	ParamSearch    = "q"
	ParamSort      = "sort"
	ParamDirection = "dir"
	ParamFrom      = "from"
	ParamTo        = "to"
)

// ParseQuery строит Query из параметров HTTP-запроса. Параметры, не совпадающие
// с полями экрана, пропускаются. Дата "to" без времени включает весь день.
func (v *View[T]) ParseQuery(values url.Values) (Query, error) {
	q := Query{
		Search:  values.Get(ParamSearch),
		Filters: make(map[string]string),
		Sort: Sort{
			Field:     values.Get(ParamSort),
			Direction: ParseDirection(values.Get(ParamDirection)),
		},
	}
	if !q.Sort.Active() {
		q.Sort = Sort{}
	}

	for name := range values {
		if _, ok := v.index[name]; !ok {
			continue
		}
		q.Filters[name] = values.Get(name)
	}

	if s := values.Get(ParamFrom); s != "" {
		from, _, err := parseBound(s)
		if err != nil {
			return Query{}, fmt.Errorf("parse %s: %w", ParamFrom, err)
		}
		q.From = from
	}
	if s := values.Get(ParamTo); s != "" {
		to, dateOnly, err := parseBound(s)
		if err != nil {
			return Query{}, fmt.Errorf("parse %s: %w", ParamTo, err)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		q.To = to
	}

	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return Query{}, fmt.Errorf("date range: %s is after %s", ParamFrom, ParamTo)
	}

	return q, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if ts, err := time.Parse(time.DateOnly, s); err == nil {
		return ts, true, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return ts, false, nil
}
