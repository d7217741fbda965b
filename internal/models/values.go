package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Attribute values arrive as JSON numbers, CSV strings or SQL scalars. These helpers
// coerce them without ever failing hard: callers get a zero value plus an ok flag.

// textOf renders v as text. Numbers use their shortest form (14 -> "14", 14.5 -> "14.5").
func textOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// isBlank treats nil, blank strings, zero numbers and false as "no value".
func isBlank(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []byte:
		return strings.TrimSpace(string(t)) == ""
	case bool:
		return !t
	default:
		f, ok := floatOf(v)
		return ok && f == 0
	}
}

// floatOf parses v as a float. Blank values read as 0.
func floatOf(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		return t, finite(t)
	case float32:
		return float64(t), finite(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := t.Float64()
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	case string, []byte:
		s := strings.TrimSpace(textOf(t))
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// intOf parses v as an integer. Floats truncate toward zero, decimal strings do not parse.
func intOf(v interface{}) (int, bool) {
	switch t := v.(type) {
	case string, []byte:
		s := strings.TrimSpace(textOf(t))
		if s == "" {
			return 0, true
		}
		n, err := strconv.Atoi(s)
		return n, err == nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		f, ok := floatOf(v)
		if !ok {
			return 0, false
		}
		return int(f), true
	}
}
