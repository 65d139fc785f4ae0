// Package elm provides a registry client for package.elm-lang.org.
package elm

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://package.elm-lang.org"
	ecosystem  = "elm"
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
	r.urls = &URLs{baseURL: r.baseURL}
	return r
}

func (r *Registry) Ecosystem() string {
	return ecosystem
}

func (r *Registry) URLs() core.URLBuilder {
	return r.urls
}

// parsePackageName splits a "author/package" name. A name with no slash
// (never valid on the real registry) is returned as the package with an
// empty author.
func parsePackageName(name string) (author, pkg string) {
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return "", name
}

type elmJSON struct {
	Name             string            `json:"name"`
	Summary          string            `json:"summary"`
	License          string            `json:"license"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	TestDependencies map[string]string `json:"test-dependencies"`
}

func (r *Registry) fetchReleases(ctx context.Context, name string) (map[string]int64, error) {
	url := fmt.Sprintf("%s/packages/%s/releases.json", r.baseURL, name)

	releases := make(map[string]int64)
	if err := r.client.GetJSON(ctx, url, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

func (r *Registry) fetchElmJSON(ctx context.Context, name, version string) (*elmJSON, error) {
	url := fmt.Sprintf("%s/packages/%s/%s/elm.json", r.baseURL, name, version)

	var ej elmJSON
	if err := r.client.GetJSON(ctx, url, &ej); err != nil {
		return nil, err
	}
	return &ej, nil
}

func sortedVersions(releases map[string]int64) []string {
	versions := make([]string, 0, len(releases))
	for v := range releases {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})
	return versions
}

func compareVersions(a, b string) int {
	as := strings.SplitN(a, ".", 3)
	bs := strings.SplitN(b, ".", 3)
	for i := 0; i < 3; i++ {
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

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	releases, err := r.fetchReleases(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	versions := sortedVersions(releases)
	author, _ := parsePackageName(name)

	pkg := &core.Package{
		Name:       name,
		Namespace:  author,
		Repository: fmt.Sprintf("https://github.com/%s", name),
	}

	if len(versions) > 0 {
		pkg.LatestVersion = versions[0]
		ej, err := r.fetchElmJSON(ctx, name, versions[0])
		if err == nil {
			pkg.Description = ej.Summary
			pkg.Licenses = ej.License
		}
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	releases, err := r.fetchReleases(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	ordered := sortedVersions(releases)
	versions := make([]core.Version, len(ordered))
	for i, v := range ordered {
		versions[i] = core.Version{
			Number:      v,
			PublishedAt: time.UnixMilli(releases[v]),
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	ej, err := r.fetchElmJSON(ctx, name, version)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	deps := make([]core.Dependency, 0, len(ej.Dependencies)+len(ej.TestDependencies))
	for depName, req := range ej.Dependencies {
		deps = append(deps, core.Dependency{
			Name:         depName,
			Requirements: req,
			Scope:        core.Runtime,
		})
	}
	for depName, req := range ej.TestDependencies {
		deps = append(deps, core.Dependency{
			Name:         depName,
			Requirements: req,
			Scope:        core.Test,
		})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	author, _ := parsePackageName(name)
	if author == "" {
		return nil, nil
	}
	return []core.Maintainer{{Login: author}}, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/packages/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/packages/%s/latest", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/archive/%s.tar.gz", name, version)
}

func (u *URLs) Documentation(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/packages/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/packages/%s/latest", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:elm/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:elm/%s", name)
}
