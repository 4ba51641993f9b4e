package recordstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// timeLayouts are tried in order when a timestamp arrives as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

// encode converts a decoded JSON value into what the column stores.
func encode(c column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch c.Kind {
	case kindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("must be an integer")
			}
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case string:
			return strconv.ParseInt(n, 10, 64)
		}
	case kindText:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case kindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			return strconv.ParseBool(b)
		}
	case kindDate:
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, nil
			}
			t, err := parseTime(s)
			if err != nil {
				return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
			}
			return t.Format(dateLayout), nil
		}
	case kindTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			if strings.TrimSpace(t) == "" {
				return nil, nil
			}
			parsed, err := parseTime(t)
			if err != nil {
				return nil, fmt.Errorf("must be an RFC 3339 timestamp")
			}
			return parsed.UTC(), nil
		}
	}
	return nil, fmt.Errorf("has the wrong type %T", v)
}

// decode converts a scanned column value into its wire form.
func decode(c column, v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}

	switch c.Kind {
	case kindInt:
		switch n := v.(type) {
		case int64:
			return n
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i
			}
		}
	case kindBool:
		switch b := v.(type) {
		case bool:
			return b
		case int64:
			return b != 0
		case string:
			if parsed, err := strconv.ParseBool(b); err == nil {
				return parsed
			}
		}
	case kindDate:
		switch d := v.(type) {
		case time.Time:
			return d.Format(dateLayout)
		case string:
			return d
		}
	case kindTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC()
		case string:
			if parsed, err := parseTime(t); err == nil {
				return parsed.UTC()
			}
		}
	default:
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
