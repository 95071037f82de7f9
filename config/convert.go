package config

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Values arrive as strings from the environment and as float64, bool or
// string from JSON. The converters below accept all three.

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue stores value into field, converting by the field's type
func setFieldValue(field reflect.Value, value any) error {
	if field.Type() == durationType {
		d, ok := toDuration(value)
		if !ok {
			return fmt.Errorf("invalid duration %v", value)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, _ := toString(value)
		field.SetString(s)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Errorf("invalid integer %v", value)
		}
		if field.OverflowInt(n) {
			return fmt.Errorf("integer %d overflows %v", n, field.Type())
		}
		field.SetInt(n)

	case reflect.Bool:
		b, ok := toBool(value)
		if !ok {
			return fmt.Errorf("invalid boolean %v", value)
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("invalid float %v", value)
		}
		field.SetFloat(f)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %v", field.Type())
		}
		ss, ok := toStringSlice(value)
		if !ok {
			return fmt.Errorf("invalid list %v", value)
		}
		field.Set(reflect.ValueOf(ss).Convert(field.Type()))

	default:
		return fmt.Errorf("unsupported field type %v", field.Type())
	}

	return nil
}

// Bool converts a raw configuration value to a boolean. Unrecognised
// values are false.
func Bool(value any) bool {
	b, _ := toBool(value)
	return b
}

func toString(value any) (string, bool) {
	if s, ok := value.(string); ok {
		return s, true
	}
	return fmt.Sprint(value), true
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1", "on":
			return true, true
		case "false", "no", "0", "off", "":
			return false, true
		}
	case int:
		return v != 0, true
	case float64:
		return v != 0, true
	}
	return false, false
}

// toDuration accepts Go duration strings; bare numbers are seconds
func toDuration(value any) (time.Duration, bool) {
	switch v := value.(type) {
	case time.Duration:
		return v, true
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d, true
		}
		if secs, ok := toFloat(v); ok {
			return time.Duration(secs * float64(time.Second)), true
		}
	case int, int64, float64:
		secs, _ := toFloat(v)
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			out[i], _ = toString(item)
		}
		return out, true
	case string:
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, true
	}
	return nil, false
}
