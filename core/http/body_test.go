package http

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestBodyValueInterface(t *testing.T) {
	v := ObjectValue(map[string]BodyValue{
		"name": StringValue("ada"),
		"age":  NumberValue(36),
		"meta": ObjectValue(map[string]BodyValue{"x": StringValue("y")}),
	})

	want := map[string]any{
		"name": "ada",
		"age":  36.0,
		"meta": map[string]any{"x": "y"},
	}
	if got := v.Interface(); !reflect.DeepEqual(got, want) {
		t.Errorf("Interface = %#v, want %#v", got, want)
	}

	if (BodyValue{}).Interface() != nil {
		t.Error("absent value should convert to nil")
	}
}

func TestBodyValueMarshalJSON(t *testing.T) {
	v := ObjectValue(map[string]BodyValue{"b": NumberValue(2), "a": StringValue("x")})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":"x","b":2}` {
		t.Errorf("MarshalJSON = %s", data)
	}

	data, err = json.Marshal(BodyValue{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "null" {
		t.Errorf("absent MarshalJSON = %s", data)
	}
}

func TestBodyValueAccessorsOnWrongKind(t *testing.T) {
	s := StringValue("x")
	if _, ok := s.AsNumber(); ok {
		t.Error("string reported as number")
	}
	if _, ok := s.AsObject(); ok {
		t.Error("string reported as object")
	}
	if !s.Get("k").IsAbsent() {
		t.Error("Get on a string should be absent")
	}
	if s.Keys() != nil || s.Len() != 0 {
		t.Error("string should have no members")
	}
}

func TestBodyValueAsStruct(t *testing.T) {
	v, err := ParseBody([]byte(`{"id": 7, "user": {"name": "ada"}}`))
	if err != nil {
		t.Fatal(err)
	}

	st, err := v.AsStruct()
	if err != nil {
		t.Fatalf("AsStruct: %v", err)
	}
	if st.Fields["id"].GetNumberValue() != 7 {
		t.Errorf("id = %v", st.Fields["id"])
	}
	if st.Fields["user"].GetStructValue().Fields["name"].GetStringValue() != "ada" {
		t.Errorf("user = %v", st.Fields["user"])
	}

	if _, err := NumberValue(1).AsStruct(); err == nil {
		t.Error("AsStruct on a number should fail")
	}
}

func TestBodyValueString(t *testing.T) {
	tests := []struct {
		v    BodyValue
		want string
	}{
		{BodyValue{}, "<absent>"},
		{StringValue("a"), `"a"`},
		{NumberValue(1.5), "1.5"},
		{ObjectValue(nil), "{}"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
