package http

import (
	"bytes"
	"strconv"
)

// MaxBodyDepth bounds object nesting accepted by ParseBody
const MaxBodyDepth = 64

// ParseBody decodes a JSON-like object body.
//
// Supported: objects, nested objects, quoted strings and bare scalars. The
// outer braces are optional and unbalanced braces yield a best-effort
// partial object. Arrays and escape sequences are not supported. A bare
// scalar that parses as a base-10 number becomes a number; everything else
// is a trimmed string. Empty input decodes to an empty object.
func ParseBody(data []byte) (BodyValue, error) {
	t := &tokenizer{data: data}
	obj := make(map[string]BodyValue)

	// Braces at the top level are skipped, not counted
	for {
		t.skipSpace()
		if t.eof() {
			break
		}
		switch t.peek() {
		case '{', '}', ',':
			t.pos++
			continue
		}
		if err := t.parseMember(obj, 1); err != nil {
			return BodyValue{}, err
		}
	}

	return ObjectValue(obj), nil
}

// tokenizer is a read-only cursor over the body bytes
type tokenizer struct {
	data []byte
	pos  int
}

func (t *tokenizer) eof() bool {
	return t.pos >= len(t.data)
}

func (t *tokenizer) peek() byte {
	return t.data[t.pos]
}

func (t *tokenizer) skipSpace() {
	for t.pos < len(t.data) && isSpace(t.data[t.pos]) {
		t.pos++
	}
}

func (t *tokenizer) fail(reason string) error {
	return &BodyParseError{Offset: t.pos, Reason: reason}
}

// parseObject reads members until the closing '}' of the current object
// or end of input. The opening '{' is already consumed.
func (t *tokenizer) parseObject(obj map[string]BodyValue, depth int) error {
	for {
		t.skipSpace()
		if t.eof() {
			return nil
		}
		switch t.peek() {
		case '}':
			t.pos++
			return nil
		case ',':
			t.pos++
			continue
		}
		if err := t.parseMember(obj, depth); err != nil {
			return err
		}
	}
}

// parseMember reads one key:value pair and a trailing ','
func (t *tokenizer) parseMember(obj map[string]BodyValue, depth int) error {
	key, err := t.parseKey()
	if err != nil {
		return err
	}

	t.skipSpace()
	if t.eof() {
		obj[key] = StringValue("")
		return nil
	}

	switch c := t.peek(); {
	case c == '{':
		if depth >= MaxBodyDepth {
			return t.fail("objects nested too deeply")
		}
		t.pos++
		nested := make(map[string]BodyValue)
		if err := t.parseObject(nested, depth+1); err != nil {
			return err
		}
		obj[key] = ObjectValue(nested)
	case isQuote(c):
		s, err := t.parseQuoted()
		if err != nil {
			return err
		}
		obj[key] = StringValue(string(bytes.TrimSpace(s)))
		t.skipToBoundary()
	default:
		obj[key] = scalarValue(t.parseBare())
	}

	t.skipSpace()
	if !t.eof() && t.peek() == ',' {
		t.pos++
	}
	return nil
}

// parseKey reads a key and consumes the ':' after it
func (t *tokenizer) parseKey() (string, error) {
	var key []byte

	if isQuote(t.peek()) {
		s, err := t.parseQuoted()
		if err != nil {
			return "", err
		}
		key = s
		t.skipSpace()
		if t.eof() || t.peek() != ':' {
			return "", t.fail("expected ':' after key")
		}
	} else {
		start := t.pos
		for !t.eof() && t.peek() != ':' {
			switch t.peek() {
			case ',', '{', '}':
				return "", t.fail("expected ':' after key")
			}
			t.pos++
		}
		if t.eof() {
			return "", t.fail("expected ':' after key")
		}
		key = bytes.Trim(t.data[start:t.pos], " \t\r\n\"'")
	}

	t.pos++ // ':'
	return string(bytes.TrimSpace(key)), nil
}

// parseQuoted reads a quoted run and returns its contents without quotes
func (t *tokenizer) parseQuoted() ([]byte, error) {
	quote := t.peek()
	start := t.pos
	t.pos++

	end := bytes.IndexByte(t.data[t.pos:], quote)
	if end == -1 {
		t.pos = start
		return nil, t.fail("unterminated string")
	}

	s := t.data[t.pos : t.pos+end]
	t.pos += end + 1
	return s, nil
}

// parseBare reads a bare scalar up to ',', '}' or end of input
func (t *tokenizer) parseBare() []byte {
	start := t.pos
	for !t.eof() {
		c := t.peek()
		if c == ',' || c == '}' {
			break
		}
		t.pos++
	}
	return bytes.TrimSpace(t.data[start:t.pos])
}

// skipToBoundary discards anything between a closing quote and the next ',' or '}'
func (t *tokenizer) skipToBoundary() {
	for !t.eof() {
		c := t.peek()
		if c == ',' || c == '}' {
			return
		}
		t.pos++
	}
}

// scalarValue classifies a bare scalar as a number or a string
func scalarValue(s []byte) BodyValue {
	if isNumeric(s) {
		if n, err := strconv.ParseFloat(string(s), 64); err == nil {
			return NumberValue(n)
		}
	}
	return StringValue(string(s))
}

// isNumeric restricts ParseFloat to plain base-10 spellings, rejecting
// NaN, Inf and hex forms
func isNumeric(s []byte) bool {
	if len(s) == 0 {
		return false
	}
	digits := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '+', c == '-', c == '.', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return digits
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}
