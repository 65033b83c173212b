// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package query

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s like a URI component: only ASCII letters,
// digits and -_.!~*'() are left as is.
func EscapeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

// StrictEscape is EscapeComponent with parentheses escaped as well.
func StrictEscape(s string) string {
	s = EscapeComponent(s)
	s = strings.ReplaceAll(s, "(", "%28")
	return strings.ReplaceAll(s, ")", "%29")
}

// UnescapeComponent reverses EscapeComponent. Malformed input is returned
// unchanged.
func UnescapeComponent(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// FormEscape encodes s as an application/x-www-form-urlencoded value: only
// ASCII letters, digits and *-._ are kept and spaces become '+'.
func FormEscape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}
