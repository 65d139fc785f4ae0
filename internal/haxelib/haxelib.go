// Package haxelib provides a registry client for lib.haxe.org.
package haxelib

import (
	"context"
	"fmt"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://lib.haxe.org"
	ecosystem  = "haxelib"
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
	Name         string        `json:"name"`
	Description  string        `json:"desc"`
	Website      string        `json:"website"`
	License      string        `json:"license"`
	Tags         []string      `json:"tags"`
	Owner        string        `json:"owner"`
	Contributors []string      `json:"contributors"`
	Downloads    int           `json:"downloads"`
	Versions     []versionInfo `json:"versions"`
}

type versionInfo struct {
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

func (r *Registry) fetchPackage(ctx context.Context, name string) (*packageResponse, error) {
	url := fmt.Sprintf("%s/api/3.0/package-info/%s", r.baseURL, name)

	var resp packageResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	pkg := &core.Package{
		Name:        resp.Name,
		Description: resp.Description,
		Homepage:    resp.Website,
		Repository:  resp.Website,
		Licenses:    resp.License,
		Keywords:    resp.Tags,
		Metadata: map[string]any{
			"owner":     resp.Owner,
			"downloads": resp.Downloads,
		},
	}

	if len(resp.Versions) > 0 {
		pkg.LatestVersion = resp.Versions[len(resp.Versions)-1].Version
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	resp, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	versions := make([]core.Version, len(resp.Versions))
	for i, v := range resp.Versions {
		versions[len(resp.Versions)-1-i] = core.Version{
			Number:   v.Version,
			Licenses: resp.License,
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	resp, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	for _, v := range resp.Versions {
		if v.Version != version {
			continue
		}

		deps := make([]core.Dependency, 0, len(v.Dependencies))
		for depName, req := range v.Dependencies {
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: req,
				Scope:        core.Runtime,
			})
		}
		return deps, nil
	}

	return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	resp, err := r.fetchPackage(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	var maintainers []core.Maintainer
	seen := make(map[string]bool)

	if resp.Owner != "" {
		maintainers = append(maintainers, core.Maintainer{Login: resp.Owner, Role: "owner"})
		seen[resp.Owner] = true
	}

	for _, c := range resp.Contributors {
		if seen[c] {
			continue
		}
		seen[c] = true
		maintainers = append(maintainers, core.Maintainer{Login: c, Role: "contributor"})
	}

	return maintainers, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/p/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/p/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s/files/%s-%s.zip", u.baseURL, name, version)
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/p/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:haxelib/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:haxelib/%s", name)
}
