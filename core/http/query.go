package http

import "strings"

// ParseQuery decodes the key=value&key=value part of target after the first
// '?'. Segments without a key are skipped, a missing '=' yields an empty
// value, and later duplicates overwrite earlier ones. Percent-escapes are
// kept as sent.
func ParseQuery(target string) map[string]string {
	query := make(map[string]string)

	idx := strings.IndexByte(target, '?')
	if idx == -1 {
		return query
	}

	rest := target[idx+1:]
	for rest != "" {
		var pair string
		if amp := strings.IndexByte(rest, '&'); amp != -1 {
			pair, rest = rest[:amp], rest[amp+1:]
		} else {
			pair, rest = rest, ""
		}

		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		query[key] = value
	}

	return query
}
