package postgres

import (
	"encoding/json"
	"time"

	"github.com/taskline/backend/domain"
)

func marshalJSON(v interface{}) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// dayArg normalizes an optional calendar day for a DATE column.
func dayArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return domain.DayOf(*t)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
