// Package packagist provides a registry client for packagist.org, the
// PHP Composer package registry.
package packagist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://packagist.org"
	ecosystem  = "composer"
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

type packageResponse struct {
	Package packageInfo `json:"package"`
}

type packageInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Repository  string                 `json:"repository"`
	Versions    map[string]versionInfo `json:"versions"`
	Maintainers []maintainerInfo       `json:"maintainers"`
}

type versionInfo struct {
	Version    string            `json:"version"`
	Homepage   string            `json:"homepage"`
	License    []string          `json:"license"`
	Source     sourceInfo        `json:"source"`
	Dist       distInfo          `json:"dist"`
	Time       string            `json:"time"`
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

type sourceInfo struct {
	URL string `json:"url"`
}

type distInfo struct {
	Shasum string `json:"shasum"`
}

type maintainerInfo struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

func (r *Registry) fetchPackage(ctx context.Context, name string) (*packageInfo, error) {
	url := fmt.Sprintf("%s/packages/%s.json", r.baseURL, name)

	var resp packageResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp.Package, nil
}

func sortedVersionKeys(versions map[string]versionInfo) []string {
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	pkgInfo, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	namespace, _, _ := strings.Cut(name, "/")

	pkg := &core.Package{
		Name:       pkgInfo.Name,
		Namespace:  namespace,
		Repository: strings.TrimSuffix(pkgInfo.Repository, ".git"),
	}

	if keys := sortedVersionKeys(pkgInfo.Versions); len(keys) > 0 {
		latest := pkgInfo.Versions[keys[0]]
		pkg.LatestVersion = latest.Version
		pkg.Homepage = latest.Homepage
		pkg.Licenses = strings.Join(latest.License, ", ")
		if pkg.Repository == "" {
			pkg.Repository = strings.TrimSuffix(latest.Source.URL, ".git")
		}
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	pkgInfo, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	keys := sortedVersionKeys(pkgInfo.Versions)
	versions := make([]core.Version, len(keys))
	for i, k := range keys {
		v := pkgInfo.Versions[k]

		var publishedAt time.Time
		if v.Time != "" {
			publishedAt, _ = time.Parse(time.RFC3339, v.Time)
		}

		var integrity string
		if v.Dist.Shasum != "" {
			integrity = "sha1-" + v.Dist.Shasum
		}

		versions[i] = core.Version{
			Number:      v.Version,
			PublishedAt: publishedAt,
			Licenses:    strings.Join(v.License, ", "),
			Integrity:   integrity,
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	pkgInfo, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	for key, v := range pkgInfo.Versions {
		if key != version && v.Version != version {
			continue
		}

		deps := make([]core.Dependency, 0, len(v.Require)+len(v.RequireDev))
		for depName, req := range v.Require {
			if depName == "php" || strings.HasPrefix(depName, "ext-") {
				continue
			}
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: req,
				Scope:        core.Runtime,
			})
		}
		for depName, req := range v.RequireDev {
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: req,
				Scope:        core.Development,
			})
		}
		return deps, nil
	}

	return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	pkgInfo, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	maintainers := make([]core.Maintainer, len(pkgInfo.Maintainers))
	for i, m := range pkgInfo.Maintainers {
		maintainers[i] = core.Maintainer{Login: m.Name, URL: m.AvatarURL}
	}

	return maintainers, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/packages/%s#%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/packages/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/packages/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:composer/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:composer/%s", name)
}
