package session

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"two pairs", "a=1; b=2", "a=1; b=2"},
		{"extra whitespace", "  a=1 ;b=2;  ", "a=1; b=2"},
		{"value with equals", "token=abc==; x=1", "token=abc==; x=1"},
		{"no equals skipped", "a=1; garbage; b=2", "a=1; b=2"},
		{"leading equals skipped", "=oops; a=1", "a=1"},
		{"duplicate keeps first position", "a=1; b=2; a=3", "a=3; b=2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.header).Header())
		})
	}
}

func TestMerge_LaterWins(t *testing.T) {
	base := Parse("kbzw__Session=old; user=me")
	primed := FromSetCookie([]string{"kbzw__Session=new; Path=/; HttpOnly", "acw_tc=xyz"})

	merged := Merge(base, primed)

	assert.Equal(t, "kbzw__Session=new; user=me; acw_tc=xyz", merged.Header())
	// inputs untouched
	assert.Equal(t, "kbzw__Session=old; user=me", base.Header())
}

func TestMerge_NilAndEmpty(t *testing.T) {
	assert.Equal(t, "", Merge().Header())
	assert.Equal(t, "a=1", Merge(nil, Parse("a=1"), New()).Header())
}

func TestSplitSetCookie(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "single",
			raw:  "a=1; Path=/",
			want: []string{"a=1; Path=/"},
		},
		{
			name: "expires comma is not a separator",
			raw:  "a=1; Expires=Wed, 21 Oct 2026 07:28:00 GMT; Path=/, b=2; HttpOnly",
			want: []string{"a=1; Expires=Wed, 21 Oct 2026 07:28:00 GMT; Path=/", "b=2; HttpOnly"},
		},
		{
			name: "no space after comma",
			raw:  "a=1,b=2",
			want: []string{"a=1", "b=2"},
		},
		{
			name: "empty",
			raw:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSetCookie(tt.raw))
		})
	}
}

func TestFromResponse(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "kbzw__Session=s1; Expires=Thu, 01 Jan 2027 00:00:00 GMT, acw_tc=t1; Path=/")
	h.Add("Set-Cookie", "=bad; Path=/")
	h.Add("Set-Cookie", "kbzw__user_login=u1")

	jar := FromResponse(h)

	assert.Equal(t, 3, jar.Len())
	assert.Equal(t, []string{"kbzw__Session", "acw_tc", "kbzw__user_login"}, jar.Names())
	v, ok := jar.Get("acw_tc")
	assert.True(t, ok)
	assert.Equal(t, "t1", v)
}

func TestFromResponse_NoCookies(t *testing.T) {
	jar := FromResponse(http.Header{})
	assert.Equal(t, 0, jar.Len())
	assert.Equal(t, "", jar.Header())
}

func TestZeroJar(t *testing.T) {
	var j Jar
	assert.Equal(t, "", j.Header())

	j.Set("a", "1")
	j.Set("b", "2")
	j.Set("a", "3")

	v, ok := j.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, 2, j.Len())
	assert.Equal(t, "a=3; b=2", j.Header())
}
