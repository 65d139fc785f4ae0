// Package keys builds and parses the six key families the index stores
// its state under. All routing is prefix-based: every key begins with a
// family tag delimited by '!', which must not appear unescaped inside a
// name fragment.
package keys

import (
	"strings"

	"github.com/git-pkgs/depindex/internal/manifest"
)

const (
	sep = "!"

	famPkg         = "!pkg!"
	famPkgLatest   = "!pkg-latest!"
	famLatestVer   = "!latest-version!"
	famIndex       = "!index!"
	famIndexLatest = "!index-latest!"
	escapeByte     = "\x01"
	escapedBangTag = "\x02"
	escapedEscTag  = "\x01"
)

// Escape replaces every '!' and escape byte in name with a two-byte
// sequence so that the delimiter can never appear unescaped inside a key
// field. The marker bytes that follow the escape byte (0x01, 0x02) never
// equal '!' (0x21) themselves, so an escaped name never re-introduces a
// raw delimiter byte. The scheme is prefix-free: no escaped name is a
// prefix of another escaped name's encoding of the delimiter.
func Escape(name string) string {
	if !strings.ContainsAny(name, "!\x01") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '\x01':
			b.WriteString(escapeByte + escapedEscTag)
		case '!':
			b.WriteString(escapeByte + escapedBangTag)
		default:
			b.WriteByte(name[i])
		}
	}
	return b.String()
}

// PkgVersion builds the "!pkg!<name>@<version>" key for a specific
// manifest version.
func PkgVersion(name, version string) string {
	return famPkg + Escape(name) + "@" + version
}

// PkgLatest builds the "!pkg-latest!<name>" key for a package's latest
// stored manifest.
func PkgLatest(name string) string {
	return famPkgLatest + Escape(name)
}

// LatestVersion builds the "!latest-version!<name>" pointer key.
func LatestVersion(name string) string {
	return famLatestVer + Escape(name)
}

// Index builds the per-version forward index key:
// "!index!<kind>!<dep>!<dependent>@<version>".
func Index(kind manifest.Kind, dep, dependent, version string) string {
	return famIndex + string(kind) + sep + Escape(dep) + sep + Escape(dependent) + "@" + version
}

// IndexScanPrefix builds the scan prefix for all per-version index entries
// for a given (kind, dep): "!index!<kind>!<dep>!".
func IndexScanPrefix(kind manifest.Kind, dep string) string {
	return famIndex + string(kind) + sep + Escape(dep) + sep
}

// IndexLatest builds the latest forward index key:
// "!index-latest!<kind>!<dep>!<dependent>".
func IndexLatest(kind manifest.Kind, dep, dependent string) string {
	return famIndexLatest + string(kind) + sep + Escape(dep) + sep + Escape(dependent)
}

// IndexLatestScanPrefix builds the scan prefix for all latest index
// entries for a given (kind, dep): "!index-latest!<kind>!<dep>!".
func IndexLatestScanPrefix(kind manifest.Kind, dep string) string {
	return famIndexLatest + string(kind) + sep + Escape(dep) + sep
}

// Dependent extracts the dependent name token from an index or
// index-latest key: the substring after the final '!' and before any
// "@<version>" suffix.
func Dependent(key string) string {
	i := strings.LastIndex(key, sep)
	if i < 0 {
		return ""
	}
	tail := key[i+1:]
	if at := strings.LastIndex(tail, "@"); at > 0 {
		tail = tail[:at]
	}
	return unescape(tail)
}

// DependentVersion extracts the dependent name and version from a
// per-version index key's trailing "<dependent>@<version>" token.
func DependentVersion(key string) (dependent, version string) {
	i := strings.LastIndex(key, sep)
	if i < 0 {
		return "", ""
	}
	tail := key[i+1:]
	at := strings.LastIndex(tail, "@")
	if at < 0 {
		return unescape(tail), ""
	}
	return unescape(tail[:at]), tail[at+1:]
}

func unescape(s string) string {
	if !strings.Contains(s, "\x01") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\x01' && i+1 < len(s) {
			i++
			switch s[i] {
			case '\x02':
				b.WriteByte('!')
			case '\x01':
				b.WriteByte('\x01')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ScanUpperBound returns the exclusive upper bound for a prefix scan: the
// prefix followed by the maximal byte, so that "< prefix ++ 0xFF" bounds
// every key that starts with prefix.
func ScanUpperBound(prefix string) string {
	return prefix + "\xff"
}

// ScanLowerBound returns the strict (exclusive) lower bound for resuming a
// scan after a given dependent name's resume cursor, "gt".
func ScanLowerBound(prefix, gt string) string {
	if gt == "" {
		return prefix
	}
	return prefix + Escape(gt)
}
