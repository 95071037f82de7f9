package http

import (
	"errors"
	"strings"
	"testing"
)

func TestParseBodyFlat(t *testing.T) {
	v, err := ParseBody([]byte(`{"name": "ada", "age": 36, "ratio": -1.5e2, "flag": true}`))
	if err != nil {
		t.Fatalf("ParseBody: %v", err)
	}

	if s, ok := v.Get("name").AsString(); !ok || s != "ada" {
		t.Errorf("name = %v", v.Get("name"))
	}
	if n, ok := v.Get("age").AsNumber(); !ok || n != 36 {
		t.Errorf("age = %v", v.Get("age"))
	}
	if n, ok := v.Get("ratio").AsNumber(); !ok || n != -150 {
		t.Errorf("ratio = %v", v.Get("ratio"))
	}
	if s, ok := v.Get("flag").AsString(); !ok || s != "true" {
		t.Errorf("flag = %v, want string true", v.Get("flag"))
	}
	if got := strings.Join(v.Keys(), ","); got != "age,flag,name,ratio" {
		t.Errorf("Keys = %s", got)
	}
}

func TestParseBodyNested(t *testing.T) {
	v, err := ParseBody([]byte(`{"user": {"name": "ada", "address": {"city": "london"}}, "id": 1}`))
	if err != nil {
		t.Fatalf("ParseBody: %v", err)
	}

	city, ok := v.Get("user").Get("address").Get("city").AsString()
	if !ok || city != "london" {
		t.Errorf("user.address.city = %v", v.Get("user").Get("address").Get("city"))
	}
	if n, _ := v.Get("id").AsNumber(); n != 1 {
		t.Errorf("id = %v", v.Get("id"))
	}
}

func TestParseBodyQuotes(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
	}{
		{"comma inside string", `{"msg": "a, b"}`, "msg", "a, b"},
		{"brace inside string", `{"msg": "{x}"}`, "msg", "{x}"},
		{"colon inside string", `{"url": "http://x:1"}`, "url", "http://x:1"},
		{"single quotes", `{'k': 'v'}`, "k", "v"},
		{"other quote inside", `{"q": "it's"}`, "q", "it's"},
		{"quoted digits stay strings", `{"zip": "01234"}`, "zip", "01234"},
		{"trimmed", `{"pad": "  x  "}`, "pad", "x"},
		{"bare key", `{k: v}`, "k", "v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseBody([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseBody(%s): %v", tt.body, err)
			}
			got, ok := v.Get(tt.key).AsString()
			if !ok || got != tt.want {
				t.Errorf("%s = %v, want %q", tt.key, v.Get(tt.key), tt.want)
			}
		})
	}
}

func TestParseBodyLenient(t *testing.T) {
	tests := []struct {
		name string
		body string
		keys string
	}{
		{"empty", ``, ""},
		{"empty object", `{}`, ""},
		{"no braces", `a: 1, b: 2`, "a,b"},
		{"missing close", `{"a": 1, "b": {"c": 2}`, "a,b"},
		{"trailing comma", `{"a": 1,}`, "a"},
		{"extra close", `{"a": 1}}`, "a"},
		{"key at end", `{"a":`, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseBody([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseBody(%s): %v", tt.body, err)
			}
			if v.Kind() != KindObject {
				t.Fatalf("Kind = %v, want object", v.Kind())
			}
			if got := strings.Join(v.Keys(), ","); got != tt.keys {
				t.Errorf("Keys = %q, want %q", got, tt.keys)
			}
		})
	}
}

func TestParseBodyErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unterminated value", `{"a": "open}`},
		{"unterminated key", `{"open: 1}`},
		{"missing colon", `{"a" 1}`},
		{"bare word", `{hello}`},
		{"bare word before comma", `{hello, "a": 1}`},
		{"too deep", strings.Repeat(`{"a":`, MaxBodyDepth+2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBody([]byte(tt.body))
			if !errors.Is(err, ErrBodyParse) {
				t.Fatalf("ParseBody(%s) error = %v, want ErrBodyParse", tt.body, err)
			}
			var bpe *BodyParseError
			if !errors.As(err, &bpe) {
				t.Fatalf("expected *BodyParseError, got %T", err)
			}
			if bpe.Offset < 0 || bpe.Offset > len(tt.body) {
				t.Errorf("Offset %d out of range", bpe.Offset)
			}
		})
	}
}

func TestParseBodyNumbers(t *testing.T) {
	tests := []struct {
		raw    string
		number bool
	}{
		{"0", true},
		{"42", true},
		{"-7", true},
		{"3.25", true},
		{"1e3", true},
		{"NaN", false},
		{"Inf", false},
		{"0x10", false},
		{"1.2.3", false},
		{"-", false},
		{"12abc", false},
	}

	for _, tt := range tests {
		v, err := ParseBody([]byte("{n: " + tt.raw + "}"))
		if err != nil {
			t.Fatalf("ParseBody(%s): %v", tt.raw, err)
		}
		got := v.Get("n").Kind()
		if tt.number && got != KindNumber {
			t.Errorf("%s: Kind = %v, want number", tt.raw, got)
		}
		if !tt.number && got != KindString {
			t.Errorf("%s: Kind = %v, want string", tt.raw, got)
		}
	}
}

func BenchmarkParseBody(b *testing.B) {
	body := []byte(`{"name": "ada", "age": 36, "address": {"city": "london", "zip": "N1"}, "tags": "a, b"}`)
	b.ReportAllocs()
	for b.Loop() {
		if _, err := ParseBody(body); err != nil {
			b.Fatal(err)
		}
	}
}
