// Package homebrew provides a registry client for formulae.brew.sh.
package homebrew

import (
	"context"
	"fmt"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://formulae.brew.sh"
	ecosystem  = "brew"
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

type formulaResponse struct {
	Name                 string       `json:"name"`
	FullName             string       `json:"full_name"`
	Tap                  string       `json:"tap"`
	Desc                 string       `json:"desc"`
	License              string       `json:"license"`
	Homepage             string       `json:"homepage"`
	Versions             versionsInfo `json:"versions"`
	URLs                 urlsInfo     `json:"urls"`
	Dependencies         []string     `json:"dependencies"`
	BuildDependencies    []string     `json:"build_dependencies"`
	TestDependencies     []string     `json:"test_dependencies"`
	OptionalDependencies []string     `json:"optional_dependencies"`
	VersionedFormulae    []string     `json:"versioned_formulae"`
}

type versionsInfo struct {
	Stable string `json:"stable"`
	Bottle bool   `json:"bottle"`
}

type urlsInfo struct {
	Stable urlInfo `json:"stable"`
}

type urlInfo struct {
	Checksum string `json:"checksum"`
}

func (r *Registry) fetchFormula(ctx context.Context, name string) (*formulaResponse, error) {
	url := fmt.Sprintf("%s/api/formula/%s.json", r.baseURL, name)

	var resp formulaResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchFormula(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	var repository string
	if strings.Contains(resp.Homepage, "github.com") {
		repository = resp.Homepage
	}

	return &core.Package{
		Name:          resp.Name,
		Description:   resp.Desc,
		Homepage:      resp.Homepage,
		Repository:    repository,
		Licenses:      resp.License,
		LatestVersion: resp.Versions.Stable,
		Metadata: map[string]any{
			"tap": resp.Tap,
		},
	}, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	resp, err := r.fetchFormula(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	var versions []core.Version
	if resp.Versions.Stable != "" {
		var integrity string
		if resp.URLs.Stable.Checksum != "" {
			integrity = "sha256-" + resp.URLs.Stable.Checksum
		}
		versions = append(versions, core.Version{
			Number:    resp.Versions.Stable,
			Licenses:  resp.License,
			Integrity: integrity,
		})
	}

	for _, vf := range resp.VersionedFormulae {
		_, num := splitVersionedFormula(vf)
		versions = append(versions, core.Version{
			Number:   num,
			Licenses: resp.License,
		})
	}

	return versions, nil
}

func splitVersionedFormula(vf string) (name, version string) {
	if idx := strings.IndexByte(vf, '@'); idx >= 0 {
		return vf[:idx], vf[idx+1:]
	}
	return vf, ""
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	resp, err := r.fetchFormula(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	var deps []core.Dependency
	for _, d := range resp.Dependencies {
		deps = append(deps, core.Dependency{Name: d, Scope: core.Runtime})
	}
	for _, d := range resp.BuildDependencies {
		deps = append(deps, core.Dependency{Name: d, Scope: core.Build})
	}
	for _, d := range resp.TestDependencies {
		deps = append(deps, core.Dependency{Name: d, Scope: core.Test})
	}
	for _, d := range resp.OptionalDependencies {
		deps = append(deps, core.Dependency{Name: d, Scope: core.Optional, Optional: true})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	// Homebrew's API doesn't expose per-formula maintainers.
	return nil, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	return fmt.Sprintf("%s/formula/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/formula/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:brew/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:brew/%s", name)
}
