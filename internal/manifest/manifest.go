// Package manifest defines the document the index stores and queries:
// a package name, version, and its declared dependency/devDependency
// range expressions.
package manifest

// Kind distinguishes a dependency declared in "dependencies" from one
// declared in "devDependencies".
type Kind string

const (
	Dep Kind = "dep"
	Dev Kind = "dev"
)

// Manifest is a package descriptor as declared by its own package file.
// Unlike core.Package (which carries registry-fetched metadata such as
// homepage and maintainers), Manifest only carries what the range-overlap
// index needs: identity and declared ranges.
type Manifest struct {
	Name            string
	Version         string
	Dependencies    map[string]string // name -> range expression
	DevDependencies map[string]string // name -> range expression

	// Metadata carries anything else worth keeping alongside the manifest
	// (license, integrity, description) without widening the index's
	// write path. Not interpreted by the index itself.
	Metadata map[string]any
}

// Ranges returns the dependency-name → range-expression map declared
// under kind: DevDependencies for Dev, Dependencies otherwise.
func (m *Manifest) Ranges(kind Kind) map[string]string {
	if kind == Dev {
		return m.DevDependencies
	}
	return m.Dependencies
}

// Declares reports whether m declares a dependency on name under kind,
// regardless of whether its range expression parses.
func (m *Manifest) Declares(kind Kind, name string) bool {
	_, ok := m.Ranges(kind)[name]
	return ok
}
