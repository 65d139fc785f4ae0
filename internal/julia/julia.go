// Package julia provides a registry client for the General Julia package
// registry, served as a tree of TOML files on GitHub (or a raw-content
// mirror).
package julia

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://raw.githubusercontent.com/JuliaRegistries/General/master"
	ecosystem  = "julia"
)

func init() {
	core.Register(ecosystem, DefaultURL, func(baseURL string, client *core.Client) core.Registry {
		return New(baseURL, client)
	})
}

type Registry struct {
	baseURL string
	client  *core.Client
	urls    *URLs
}

func New(baseURL string, client *core.Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	r := &Registry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
	r.urls = &URLs{}
	return r
}

func (r *Registry) Ecosystem() string {
	return ecosystem
}

func (r *Registry) URLs() core.URLBuilder {
	return r.urls
}

// getPackagePath returns the General registry's bucket path for a
// package, keyed by its first letter (e.g. "JSON" -> "J/JSON").
func getPackagePath(name string) string {
	if name == "" {
		return name
	}
	return string(name[0]) + "/" + name
}

type packageToml struct {
	name string
	uuid string
	repo string
}

// parsePackageToml parses a flat "key = \"value\"" TOML document with no
// section headers, the shape of a registry Package.toml.
func parsePackageToml(content string) packageToml {
	var pkg packageToml
	for key, value := range parseFlatTOML(content) {
		switch key {
		case "name":
			pkg.name = value
		case "uuid":
			pkg.uuid = value
		case "repo":
			pkg.repo = value
		}
	}
	return pkg
}

type versionEntry struct {
	gitTreeSha1 string
}

// parseVersionsToml parses a registry Versions.toml: a sequence of
// ["<version>"] sections each carrying flat key/value pairs.
func parseVersionsToml(content string) map[string]versionEntry {
	versions := make(map[string]versionEntry)
	for section, kv := range parseSectionedTOML(content) {
		versions[section] = versionEntry{gitTreeSha1: kv["git-tree-sha1"]}
	}
	return versions
}

// parseDepsToml parses a registry Deps.toml: a sequence of ["<range>"]
// sections each mapping dependency name to UUID.
func parseDepsToml(content string) map[string]map[string]string {
	deps := make(map[string]map[string]string)
	for section, kv := range parseSectionedTOML(content) {
		deps[section] = kv
	}
	return deps
}

func parseFlatTOML(content string) map[string]string {
	kv := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		k, v, ok := splitKV(line)
		if ok {
			kv[k] = v
		}
	}
	return kv
}

func parseSectionedTOML(content string) map[string]map[string]string {
	sections := make(map[string]map[string]string)
	var current string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			current = strings.Trim(line, `["]`)
			if _, ok := sections[current]; !ok {
				sections[current] = make(map[string]string)
			}
			continue
		}
		if current == "" {
			continue
		}
		k, v, ok := splitKV(line)
		if ok {
			sections[current][k] = v
		}
	}

	return sections
}

func splitKV(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	value = strings.Trim(value, `"`)
	return key, value, true
}

func (r *Registry) fetchText(ctx context.Context, path string) (string, error) {
	url := fmt.Sprintf("%s/%s", r.baseURL, path)
	return r.client.GetText(ctx, url)
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	content, err := r.fetchText(ctx, getPackagePath(name)+"/Package.toml")
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	pkg := parsePackageToml(content)

	return &core.Package{
		Name:       pkg.name,
		Repository: strings.TrimSuffix(pkg.repo, ".git"),
		Metadata: map[string]any{
			"uuid": pkg.uuid,
		},
	}, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	content, err := r.fetchText(ctx, getPackagePath(name)+"/Versions.toml")
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	parsed := parseVersionsToml(content)

	numbers := make([]string, 0, len(parsed))
	for v := range parsed {
		numbers = append(numbers, v)
	}
	sort.Slice(numbers, func(i, j int) bool {
		return compareVersions(numbers[i], numbers[j]) > 0
	})

	versions := make([]core.Version, len(numbers))
	for i, num := range numbers {
		versions[i] = core.Version{
			Number: num,
			Metadata: map[string]any{
				"git-tree-sha1": parsed[num].gitTreeSha1,
			},
		}
	}

	return versions, nil
}

func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var an, bn int
		if i < len(as) {
			an, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bn, _ = strconv.Atoi(bs[i])
		}
		if an != bn {
			return an - bn
		}
	}
	return 0
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	content, err := r.fetchText(ctx, getPackagePath(name)+"/Deps.toml")
	if err != nil {
		if core.IsNotFound(err) {
			// Packages with no external dependencies carry no Deps.toml.
			return nil, nil
		}
		return nil, err
	}

	buckets := parseDepsToml(content)

	for rangeKey, names := range buckets {
		if !versionInRange(version, rangeKey) {
			continue
		}
		deps := make([]core.Dependency, 0, len(names))
		for depName := range names {
			deps = append(deps, core.Dependency{
				Name:  depName,
				Scope: core.Runtime,
			})
		}
		return deps, nil
	}

	return nil, nil
}

// versionInRange reports whether version falls in a Deps.toml bucket key,
// which is either a single major.minor prefix ("0.21") or a hyphenated
// range of two such prefixes ("0-0.20").
func versionInRange(version, rangeKey string) bool {
	if strings.HasPrefix(version, rangeKey) {
		return true
	}
	lo, hi, ok := strings.Cut(rangeKey, "-")
	if !ok {
		return false
	}
	return compareVersions(version, lo) >= 0 && compareVersions(version, hi) <= 0
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	// The General registry does not store per-package maintainer info.
	return nil, nil
}

type URLs struct{}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://juliahub.com/ui/Packages/General/%s/%s", name, version)
	}
	return fmt.Sprintf("https://juliahub.com/ui/Packages/General/%s", name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("https://juliahub.com/docs/General/%s", name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:julia/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:julia/%s", name)
}
