package urlparser

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain https", "https://github.com/foo/bar", "https://github.com/foo/bar"},
		{"git+https", "git+https://github.com/foo/bar.git", "https://github.com/foo/bar"},
		{"git scheme", "git://github.com/foo/bar.git", "https://github.com/foo/bar"},
		{"scp-like", "git@github.com:foo/bar.git", "https://github.com/foo/bar"},
		{"bare host shorthand", "github.com/foo/bar", "https://github.com/foo/bar"},
		{"unrecognizable", "not a url", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Parse(c.in); got != c.want {
				t.Errorf("Parse(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
