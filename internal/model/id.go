package model

import (
	"bytes"
	"encoding/json"
)

// ID хранит идентификатор сущности удалённого API. Django отдаёт числовые
// идентификаторы, часть старых экранов оперирует строками вида "T-1001".
type ID string

// UnmarshalJSON принимает как строку, так и число.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String возвращает идентификатор строкой.
func (id ID) String() string {
	return string(id)
}
