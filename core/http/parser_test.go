package http

import (
	"errors"
	"testing"
)

func TestParseRequestLine(t *testing.T) {
	req, err := ParseRequest([]byte("GET /users/42?x=1 HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	if req.Method != MethodGet {
		t.Errorf("Method = %v, want GET", req.Method)
	}
	if req.Target != "/users/42?x=1" {
		t.Errorf("Target = %q", req.Target)
	}
	if req.Path != "/users/42" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Version != "HTTP/1.1" {
		t.Errorf("Version = %q", req.Version)
	}
	if req.QueryValue("x") != "1" {
		t.Errorf("query x = %q", req.QueryValue("x"))
	}
	if req.Header("Host") != "localhost" {
		t.Errorf("Host = %q", req.Header("Host"))
	}
	if !req.Body.IsAbsent() {
		t.Errorf("GET body should be absent, got %v", req.Body)
	}
}

func TestParseRequestHeaders(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" +
		"Content-Type:  text/plain  \r\n" +
		"X-Empty:\r\n" +
		"no colon here\r\n" +
		"X-Url: http://example.com:8080/\r\n" +
		"X-Dup: a\r\n" +
		"X-Dup: b\r\n\r\n"

	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}

	tests := map[string]string{
		"Content-Type": "text/plain",
		"X-Empty":      "",
		"X-Url":        "http://example.com:8080/",
		"X-Dup":        "b",
	}
	for k, want := range tests {
		if got, ok := req.Headers[k]; !ok || got != want {
			t.Errorf("header %s = %q (present %v), want %q", k, got, ok, want)
		}
	}
	if len(req.Headers) != len(tests) {
		t.Errorf("got %d headers, want %d: %v", len(req.Headers), len(tests), req.Headers)
	}
}

func TestParseRequestLFOnly(t *testing.T) {
	req, err := ParseRequest([]byte("POST /echo HTTP/1.1\nContent-Type: application/json\n\n{\"a\": 1}"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Header("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", req.Header("Content-Type"))
	}
	if n, ok := req.Body.Get("a").AsNumber(); !ok || n != 1 {
		t.Errorf("body a = %v", req.Body.Get("a"))
	}
}

func TestParseRequestBody(t *testing.T) {
	raw := "POST /users HTTP/1.1\r\nContent-Length: 26\r\n\r\n{\"name\": \"ada\", \"age\": 36}"

	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if s, _ := req.Body.Get("name").AsString(); s != "ada" {
		t.Errorf("name = %v", req.Body.Get("name"))
	}
	if n, _ := req.Body.Get("age").AsNumber(); n != 36 {
		t.Errorf("age = %v", req.Body.Get("age"))
	}
}

func TestParseRequestContentLengthClamp(t *testing.T) {
	raw := "PUT /x HTTP/1.1\r\nContent-Length: 6\r\n\r\n{a: 1}garbage"

	req, err := ParseRequest([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Body.Len() != 1 {
		t.Errorf("body = %v, want only a", req.Body)
	}
}

func TestParseRequestBodyIgnoredForGet(t *testing.T) {
	req, err := ParseRequest([]byte("GET / HTTP/1.1\r\n\r\n{broken"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if !req.Body.IsAbsent() {
		t.Errorf("body = %v, want absent", req.Body)
	}
}

func TestParseRequestBlankBody(t *testing.T) {
	req, err := ParseRequest([]byte("POST / HTTP/1.1\r\n\r\n  \r\n"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if !req.Body.IsAbsent() {
		t.Errorf("body = %v, want absent", req.Body)
	}
}

func TestParseRequestMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"blank", "\r\n\r\n"},
		{"one token", "GET\r\n\r\n"},
		{"two tokens", "GET /\r\n\r\n"},
		{"four tokens", "GET / HTTP/1.1 extra\r\n\r\n"},
		{"empty token", "GET  HTTP/1.1\r\n\r\n"},
		{"unknown method", "BREW /pot HTTP/1.1\r\n\r\n"},
		{"lowercase method", "get / HTTP/1.1\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.raw))
			if err == nil {
				t.Fatalf("expected error, got %+v", req)
			}
			if !errors.Is(err, ErrMalformedRequest) {
				t.Errorf("error %v is not ErrMalformedRequest", err)
			}
			var mre *MalformedRequestError
			if !errors.As(err, &mre) || mre.Reason == "" {
				t.Errorf("expected *MalformedRequestError with a reason, got %#v", err)
			}
		})
	}
}

func TestParseRequestBadBody(t *testing.T) {
	_, err := ParseRequest([]byte("POST / HTTP/1.1\r\n\r\n{\"a\": \"unterminated}"))
	if !errors.Is(err, ErrBodyParse) {
		t.Fatalf("expected ErrBodyParse, got %v", err)
	}
}

func TestParseRequestNoSeparator(t *testing.T) {
	req, err := ParseRequest([]byte("DELETE /items/1 HTTP/1.1\r\nHost: a"))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Method != MethodDelete || req.Header("Host") != "a" {
		t.Errorf("got %v %q", req.Method, req.Header("Host"))
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []Method{MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions} {
		got, ok := ParseMethod(m.String())
		if !ok || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMethod("CONNECT"); ok {
		t.Error("CONNECT should not be accepted")
	}
}

func BenchmarkParseRequest(b *testing.B) {
	raw := []byte("POST /api/users HTTP/1.1\r\nHost: localhost\r\nContent-Type: application/json\r\n\r\n{\"name\": \"ada\", \"tags\": {\"a\": 1}}")
	b.ReportAllocs()
	for b.Loop() {
		if _, err := ParseRequest(raw); err != nil {
			b.Fatal(err)
		}
	}
}
