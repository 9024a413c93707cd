package mbean

import (
	"fmt"
	"sort"
	"strings"
)

// ObjectName is a parsed JMX object name: a domain plus key properties.
// Key order is preserved as written so String() round-trips.
type ObjectName struct {
	Domain string
	// Pattern is set when the property list ends with the "*" wildcard.
	Pattern bool
	keys    []string
	props   map[string]string
}

// ParseObjectName parses "domain:key=value,...[,*]". Values may be quoted
// using the JMX rules (\" \\ \n \* \? escapes inside double quotes).
func ParseObjectName(s string) (ObjectName, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return ObjectName{}, fmt.Errorf("%w: %q: missing domain separator", ErrMalformedName, s)
	}
	on := ObjectName{Domain: s[:idx], props: map[string]string{}}
	if strings.ContainsAny(on.Domain, "\n") {
		return ObjectName{}, fmt.Errorf("%w: %q: invalid domain", ErrMalformedName, s)
	}
	rest := s[idx+1:]
	for len(rest) > 0 {
		if rest == "*" || strings.HasPrefix(rest, "*,") {
			if on.Pattern {
				return ObjectName{}, fmt.Errorf("%w: %q: repeated wildcard", ErrMalformedName, s)
			}
			on.Pattern = true
			rest = strings.TrimPrefix(strings.TrimPrefix(rest, "*"), ",")
			continue
		}
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return ObjectName{}, fmt.Errorf("%w: %q: expected key=value", ErrMalformedName, s)
		}
		key := rest[:eq]
		if strings.ContainsAny(key, ":,*?\"\n") {
			return ObjectName{}, fmt.Errorf("%w: %q: invalid key %q", ErrMalformedName, s, key)
		}
		if _, dup := on.props[key]; dup {
			return ObjectName{}, fmt.Errorf("%w: %q: duplicate key %q", ErrMalformedName, s, key)
		}
		var (
			value string
			n     int
			err   error
		)
		if strings.HasPrefix(rest[eq+1:], `"`) {
			value, n, err = unquote(rest[eq+1:])
		} else {
			value, n, err = unquoted(rest[eq+1:])
		}
		if err != nil {
			return ObjectName{}, fmt.Errorf("%w: %q: key %q: %v", ErrMalformedName, s, key, err)
		}
		on.keys = append(on.keys, key)
		on.props[key] = value
		rest = rest[eq+1+n:]
		if rest == "" {
			break
		}
		if rest[0] != ',' || len(rest) == 1 {
			return ObjectName{}, fmt.Errorf("%w: %q: unexpected %q after value", ErrMalformedName, s, rest)
		}
		rest = rest[1:]
	}
	if len(on.keys) == 0 && !on.Pattern {
		return ObjectName{}, fmt.Errorf("%w: %q: key properties cannot be empty", ErrMalformedName, s)
	}
	return on, nil
}

func unquoted(s string) (string, int, error) {
	end := strings.IndexByte(s, ',')
	if end < 0 {
		end = len(s)
	}
	v := s[:end]
	if strings.ContainsAny(v, ":=\"\n") {
		return "", 0, fmt.Errorf("invalid character in unquoted value %q", v)
	}
	return v, end, nil
}

func unquote(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, fmt.Errorf("dangling escape")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case '"', '\\', '*', '?':
				b.WriteByte(s[i])
			default:
				return "", 0, fmt.Errorf("invalid escape \\%c", s[i])
			}
		case '\n':
			return "", 0, fmt.Errorf("newline in quoted value")
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted value")
}

// Quote returns v as a JMX quoted value, safe to embed in an object name.
func Quote(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '"', '\\', '*', '?':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// KeyProperty returns the unquoted value for key, or "" when absent.
func (n ObjectName) KeyProperty(key string) string {
	return n.props[key]
}

// HasKey reports whether key is one of the name's key properties.
func (n ObjectName) HasKey(key string) bool {
	_, ok := n.props[key]
	return ok
}

// Keys returns key property names in declaration order.
func (n ObjectName) Keys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// IsZero reports whether n was never parsed.
func (n ObjectName) IsZero() bool {
	return n.Domain == "" && len(n.keys) == 0 && !n.Pattern
}

func (n ObjectName) String() string {
	return n.format(n.keys)
}

// Canonical returns the name with key properties sorted lexically, as JMX does.
func (n ObjectName) Canonical() string {
	keys := n.Keys()
	sort.Strings(keys)
	return n.format(keys)
}

func (n ObjectName) format(keys []string) string {
	var b strings.Builder
	b.WriteString(n.Domain)
	b.WriteByte(':')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		v := n.props[k]
		if needsQuote(v) {
			b.WriteString(Quote(v))
		} else {
			b.WriteString(v)
		}
	}
	if n.Pattern {
		if len(keys) > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('*')
	}
	return b.String()
}

func needsQuote(v string) bool {
	return strings.ContainsAny(v, ",=:\"\n")
}

// Equal compares two names ignoring key order.
func (n ObjectName) Equal(o ObjectName) bool {
	return n.Canonical() == o.Canonical()
}
