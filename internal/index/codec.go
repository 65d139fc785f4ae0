package index

import (
	"encoding/json"

	"github.com/git-pkgs/depindex/internal/manifest"
	"github.com/git-pkgs/depindex/internal/semver"
)

// storedManifest is the JSON shape written under "!pkg!" and "!pkg-latest!"
// keys: the manifest document, stored verbatim.
type storedManifest = manifest.Manifest

func encodeManifest(m *manifest.Manifest) ([]byte, error) {
	return json.Marshal(m)
}

func decodeManifest(raw []byte) (*manifest.Manifest, error) {
	var m manifest.Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// encodedGroup is the wire shape of a single semver.Group: the packed
// bounds as plain strings, since Packed is itself a string type.
type encodedGroup struct {
	Lowers []semver.Packed `json:"lowers,omitempty"`
	Uppers []semver.Packed `json:"uppers,omitempty"`
}

func encodeGroups(r semver.EncodedRange) []encodedGroup {
	out := make([]encodedGroup, len(r))
	for i, g := range r {
		out[i] = encodedGroup{Lowers: g.Lowers, Uppers: g.Uppers}
	}
	return out
}

func decodeGroups(groups []encodedGroup) semver.EncodedRange {
	out := make(semver.EncodedRange, len(groups))
	for i, g := range groups {
		out[i] = semver.Group{Lowers: g.Lowers, Uppers: g.Uppers}
	}
	return out
}

// perVersionValue is the value stored under "!index!<kind>!<dep>!<dependent>@<version>".
type perVersionValue struct {
	Groups []encodedGroup `json:"groups"`
}

func encodePerVersion(r semver.EncodedRange) ([]byte, error) {
	return json.Marshal(perVersionValue{Groups: encodeGroups(r)})
}

func decodePerVersion(raw []byte) (semver.EncodedRange, error) {
	var v perVersionValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return decodeGroups(v.Groups), nil
}

// latestValue is the value stored under "!index-latest!<kind>!<dep>!<dependent>":
// the dependent's version at the time this entry was written, plus the
// encoded range, so a stale entry can be recognized by comparing Version
// against the current "!latest-version!<dependent>" pointer.
type latestValue struct {
	Version string         `json:"version"`
	Sets    []encodedGroup `json:"sets"`
}

func encodeLatest(version string, r semver.EncodedRange) ([]byte, error) {
	return json.Marshal(latestValue{Version: version, Sets: encodeGroups(r)})
}

func decodeLatest(raw []byte) (string, semver.EncodedRange, error) {
	var v latestValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", nil, err
	}
	return v.Version, decodeGroups(v.Sets), nil
}
