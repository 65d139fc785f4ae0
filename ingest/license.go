package ingest

import (
	"github.com/git-pkgs/spdx"
)

// normalizeLicense best-effort normalizes a free-text license field (as
// registries report it — anything from "MIT" to "(MIT OR Apache-2.0)") to
// a canonical SPDX expression. On parse failure it returns raw unchanged:
// a license that doesn't parse still gets stored, just unnormalized.
func normalizeLicense(raw string) string {
	expr, err := spdx.Normalize(raw)
	if err != nil {
		return raw
	}
	return expr
}
