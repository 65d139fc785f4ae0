// Package urlparser normalizes the free-text repository URLs registries
// report (cabal "location:" fields, CRAN DESCRIPTION "URL:" fields, npm
// "repository" fields) into a single clickable https form.
package urlparser

import "strings"

// Parse normalizes a raw VCS or homepage URL into an https URL. It strips
// "git+" and scheme prefixes, rewrites scp-like git@host:path forms, and
// drops a trailing ".git". An empty or unparseable input returns "".
func Parse(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	u = strings.TrimPrefix(u, "git+")

	switch {
	case strings.HasPrefix(u, "git://"):
		u = "https://" + strings.TrimPrefix(u, "git://")
	case strings.HasPrefix(u, "ssh://"):
		u = "https://" + strings.TrimPrefix(u, "ssh://")
	case strings.HasPrefix(u, "git@"):
		// scp-like "git@host:owner/repo" -> "https://host/owner/repo"
		rest := strings.TrimPrefix(u, "git@")
		if host, path, ok := strings.Cut(rest, ":"); ok {
			u = "https://" + host + "/" + path
		}
	case strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "https://"):
		// already a plain URL
	case strings.HasPrefix(u, "github.com/"), strings.HasPrefix(u, "gitlab.com/"), strings.HasPrefix(u, "bitbucket.org/"):
		u = "https://" + u
	default:
		// no recognizable scheme or shorthand host; not a URL we can
		// normalize with confidence
		if !strings.Contains(u, "://") {
			return ""
		}
	}

	u = strings.TrimSuffix(u, ".git")
	return u
}
