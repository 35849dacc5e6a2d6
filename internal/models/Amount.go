package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a non-negative monetary column.
// NULL reads as zero. Text that does not parse also reads as zero and the raw
// value is kept in Invalid so the reader can log it.
type Amount struct {
	Float64 float64
	Invalid string
}

func NewAmount(v float64) Amount {
	return Amount{Float64: v}
}

// Malformed reports whether the stored value could not be parsed.
func (a Amount) Malformed() bool {
	return a.Invalid != ""
}

func (a *Amount) Scan(src interface{}) error {
	*a = Amount{}
	switch v := src.(type) {
	case nil:
	case float64:
		a.set(v, "")
	case float32:
		a.set(float64(v), "")
	case int64:
		a.Float64 = float64(v)
	case []byte:
		a.parse(string(v))
	case string:
		a.parse(v)
	default:
		a.Invalid = fmt.Sprint(v)
	}
	return nil
}

func (a *Amount) parse(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		a.Invalid = s
		return
	}
	a.set(f, s)
}

func (a *Amount) set(f float64, raw string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		if raw == "" {
			raw = strconv.FormatFloat(f, 'f', -1, 64)
		}
		a.Invalid = raw
		return
	}
	a.Float64 = f
}

func (a Amount) Value() (driver.Value, error) {
	return a.Float64, nil
}

// GormDataType keeps every monetary column at the same precision.
func (Amount) GormDataType() string {
	return "numeric(12,2)"
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Float64)
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		a.Float64 = f
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid amount %s", string(data))
	}
	a.Float64 = f
	return nil
}
