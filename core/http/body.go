package http

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"
)

// Kind tags the variant held by a BodyValue
type Kind uint8

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindObject:
		return "object"
	default:
		return "absent"
	}
}

// BodyValue is a decoded body value: a string, a number, or an object of
// nested values. The zero value is an absent body.
type BodyValue struct {
	kind Kind
	str  string
	num  float64
	obj  map[string]BodyValue
}

// StringValue returns a string BodyValue
func StringValue(s string) BodyValue {
	return BodyValue{kind: KindString, str: s}
}

// NumberValue returns a number BodyValue
func NumberValue(n float64) BodyValue {
	return BodyValue{kind: KindNumber, num: n}
}

// ObjectValue returns an object BodyValue; a nil map becomes an empty object
func ObjectValue(m map[string]BodyValue) BodyValue {
	if m == nil {
		m = make(map[string]BodyValue)
	}
	return BodyValue{kind: KindObject, obj: m}
}

// Kind returns the variant held by v
func (v BodyValue) Kind() Kind { return v.kind }

// IsAbsent reports whether no body was decoded
func (v BodyValue) IsAbsent() bool { return v.kind == KindAbsent }

// AsString returns the string held by v
func (v BodyValue) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

// AsNumber returns the number held by v
func (v BodyValue) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsObject returns the members of an object value. The map is shared with v.
func (v BodyValue) AsObject() (map[string]BodyValue, bool) {
	return v.obj, v.kind == KindObject
}

// Get returns the member key of an object value, or an absent value
func (v BodyValue) Get(key string) BodyValue {
	if v.kind != KindObject {
		return BodyValue{}
	}
	return v.obj[key]
}

// Keys returns the sorted member names of an object value
func (v BodyValue) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the member count of an object value
func (v BodyValue) Len() int {
	return len(v.obj)
}

// Interface converts v to plain Go values: string, float64,
// map[string]any, or nil when absent.
func (v BodyValue) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for k, member := range v.obj {
			m[k] = member.Interface()
		}
		return m
	default:
		return nil
	}
}

// MarshalJSON encodes v as JSON; an absent value is null
func (v BodyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// AsStruct converts an object value to a protobuf Struct
func (v BodyValue) AsStruct() (*structpb.Struct, error) {
	if v.kind != KindObject {
		return nil, fmt.Errorf("body is %s, not an object", v.kind)
	}
	return structpb.NewStruct(v.Interface().(map[string]any))
}

func (v BodyValue) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindObject:
		data, err := v.MarshalJSON()
		if err != nil {
			return "{}"
		}
		return string(data)
	default:
		return "<absent>"
	}
}
