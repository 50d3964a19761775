// Package session carries the caller's upstream session cookie through the
// chained requests of one aggregation.
package session

import (
	"net/http"
	"strings"
)

// Jar is an ordered cookie name → value mapping.
// A later write to an existing name replaces the value but keeps its position.
// A Jar belongs to one aggregation request and is never shared.
type Jar struct {
	names  []string
	values map[string]string
}

// New returns an empty jar
func New() *Jar {
	return &Jar{values: make(map[string]string)}
}

// Set writes name=value. The zero Jar is ready to use.
func (j *Jar) Set(name, value string) {
	if j.values == nil {
		j.values = make(map[string]string)
	}
	if _, ok := j.values[name]; !ok {
		j.names = append(j.names, name)
	}
	j.values[name] = value
}

// Get returns the value for name
func (j *Jar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

// Len returns the number of cookies
func (j *Jar) Len() int {
	return len(j.names)
}

// Names returns cookie names in insertion order
func (j *Jar) Names() []string {
	out := make([]string, len(j.names))
	copy(out, j.names)
	return out
}

// Header serializes the jar as a Cookie request header value: "k=v; k2=v2"
func (j *Jar) Header() string {
	if j == nil || len(j.names) == 0 {
		return ""
	}
	var b strings.Builder
	for i, name := range j.names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(j.values[name])
	}
	return b.String()
}

// Parse reads a Cookie header string ("a=1; b=2").
// Pairs without '=' or with an empty name are skipped.
func Parse(header string) *Jar {
	jar := New()
	for _, part := range strings.Split(header, ";") {
		jar.setPair(strings.TrimSpace(part))
	}
	return jar
}

// Merge folds jars left to right; the later jar wins on a name collision
func Merge(jars ...*Jar) *Jar {
	out := New()
	for _, j := range jars {
		if j == nil {
			continue
		}
		for _, name := range j.names {
			out.Set(name, j.values[name])
		}
	}
	return out
}

// FromSetCookie builds a jar from Set-Cookie values, keeping only each
// value's leading name=value segment (attributes such as Path or Expires are dropped).
func FromSetCookie(values []string) *Jar {
	jar := New()
	for _, v := range values {
		pair, _, _ := strings.Cut(v, ";")
		jar.setPair(strings.TrimSpace(pair))
	}
	return jar
}

// FromResponse collects every Set-Cookie of a response header.
// Values folded into one line by an intermediary are split first.
func FromResponse(h http.Header) *Jar {
	var values []string
	for _, raw := range h.Values("Set-Cookie") {
		values = append(values, SplitSetCookie(raw)...)
	}
	return FromSetCookie(values)
}

// SplitSetCookie splits a comma-folded Set-Cookie line into individual cookies.
// A comma only separates cookies when followed by a token and '=', so the
// comma inside "Expires=Wed, 21 Oct 2026 07:28:00 GMT" is kept.
func SplitSetCookie(raw string) []string {
	var out []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != ',' || !startsCookie(raw[i+1:]) {
			continue
		}
		if piece := strings.TrimSpace(raw[start:i]); piece != "" {
			out = append(out, piece)
		}
		start = i + 1
	}
	if piece := strings.TrimSpace(raw[start:]); piece != "" {
		out = append(out, piece)
	}
	return out
}

// startsCookie reports whether s (text after a comma) opens a new name=value pair
func startsCookie(s string) bool {
	s = strings.TrimLeft(s, " \t")
	n := 0
	for n < len(s) {
		switch s[n] {
		case '=':
			return n > 0
		case ' ', '\t', ',', ';':
			return false
		}
		n++
	}
	return false
}

func (j *Jar) setPair(pair string) {
	if pair == "" {
		return
	}
	idx := strings.IndexByte(pair, '=')
	if idx <= 0 {
		return
	}
	name := strings.TrimSpace(pair[:idx])
	if name == "" {
		return
	}
	j.Set(name, pair[idx+1:])
}
