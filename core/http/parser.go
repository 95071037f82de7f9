package http

import (
	"bytes"
	"strconv"
)

var (
	crlfcrlf = []byte("\r\n\r\n")
	lflf     = []byte("\n\n")
)

// ParseRequest parses one complete HTTP message.
//
// The message is split on the first blank line (CRLF CRLF or LF LF) into a
// header block and a body block. The request line must hold exactly three
// space-separated tokens with a known method. Bodies of POST, PUT and PATCH
// requests are decoded with ParseBody.
func ParseRequest(data []byte) (*Request, error) {
	head, body := splitMessage(data)

	if len(bytes.TrimSpace(head)) == 0 {
		return nil, &MalformedRequestError{Reason: "empty header block"}
	}

	// Request line
	line := head
	rest := []byte(nil)
	if lineEnd := bytes.IndexByte(head, '\n'); lineEnd != -1 {
		line = head[:lineEnd]
		rest = head[lineEnd+1:]
	}
	line = bytes.TrimSuffix(line, []byte("\r"))

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return nil, &MalformedRequestError{Reason: "request line has fewer than three tokens"}
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 == -1 {
		return nil, &MalformedRequestError{Reason: "request line has fewer than three tokens"}
	}
	sp2 += sp1 + 1
	if bytes.IndexByte(line[sp2+1:], ' ') != -1 {
		return nil, &MalformedRequestError{Reason: "request line has more than three tokens"}
	}

	methodTok, target, version := line[:sp1], line[sp1+1:sp2], line[sp2+1:]
	if len(methodTok) == 0 || len(target) == 0 || len(version) == 0 {
		return nil, &MalformedRequestError{Reason: "request line has an empty token"}
	}

	method, ok := ParseMethod(string(methodTok))
	if !ok {
		return nil, &MalformedRequestError{Reason: "unknown method " + strconv.Quote(string(methodTok))}
	}

	req := &Request{
		Method:  method,
		Target:  string(target),
		Version: string(version),
		Headers: make(map[string]string),
	}

	req.Path = req.Target
	if idx := bytes.IndexByte(target, '?'); idx != -1 {
		req.Path = string(target[:idx])
	}
	req.Query = ParseQuery(req.Target)

	parseHeaders(req, rest)

	if method.HasBody() {
		body = clampBody(body, req.Headers[HeaderContentLength])
		if len(bytes.TrimSpace(body)) > 0 {
			v, err := ParseBody(body)
			if err != nil {
				return nil, err
			}
			req.Body = v
		}
	}

	return req, nil
}

// splitMessage splits at whichever blank-line separator comes first.
// Without a separator the whole input is the header block.
func splitMessage(data []byte) (head, body []byte) {
	crlf := bytes.Index(data, crlfcrlf)
	lf := bytes.Index(data, lflf)

	switch {
	case crlf == -1 && lf == -1:
		return data, nil
	case lf == -1 || (crlf != -1 && crlf < lf):
		return data[:crlf], data[crlf+len(crlfcrlf):]
	default:
		return data[:lf], data[lf+len(lflf):]
	}
}

// parseHeaders parses HTTP header lines; lines without a colon are ignored
func parseHeaders(req *Request, data []byte) {
	for len(data) > 0 {
		lineEnd := bytes.IndexByte(data, '\n')
		if lineEnd == -1 {
			lineEnd = len(data)
		}

		line := bytes.TrimSuffix(data[:lineEnd], []byte("\r"))

		if colon := bytes.IndexByte(line, ':'); colon > 0 {
			key := string(bytes.TrimSpace(line[:colon]))
			value := string(bytes.TrimSpace(line[colon+1:]))
			if key != "" {
				req.Headers[key] = value
			}
		}

		if lineEnd == len(data) {
			break
		}
		data = data[lineEnd+1:]
	}
}

// clampBody drops bytes past a valid Content-Length
func clampBody(body []byte, contentLength string) []byte {
	if contentLength == "" {
		return body
	}
	n, err := strconv.Atoi(contentLength)
	if err != nil || n < 0 || n >= len(body) {
		return body
	}
	return body[:n]
}
