// Package luarocks provides a registry client for luarocks.org.
package luarocks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://luarocks.org"
	ecosystem  = "luarocks"
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

type moduleResponse struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Homepage    string                   `json:"homepage"`
	License     string                   `json:"license"`
	Labels      []string                 `json:"labels"`
	Versions    map[string][]rockVersion `json:"versions"`
	Maintainers []maintainerInfo         `json:"maintainers"`
}

type rockVersion struct{}

type maintainerInfo struct {
	Name string `json:"name"`
}

type rockspec struct {
	Package      string   `json:"package"`
	Version      string   `json:"version"`
	Dependencies []string `json:"dependencies"`
}

func (r *Registry) fetchModule(ctx context.Context, name string) (*moduleResponse, error) {
	url := fmt.Sprintf("%s/api/1/%s", r.baseURL, name)

	var resp moduleResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func sortedRockVersions(versions map[string][]rockVersion) []string {
	out := make([]string, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchModule(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	pkg := &core.Package{
		Name:        resp.Name,
		Description: resp.Description,
		Homepage:    resp.Homepage,
		Licenses:    resp.License,
		Keywords:    resp.Labels,
	}

	if versions := sortedRockVersions(resp.Versions); len(versions) > 0 {
		pkg.LatestVersion = versions[0]
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	resp, err := r.fetchModule(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	ordered := sortedRockVersions(resp.Versions)
	versions := make([]core.Version, len(ordered))
	for i, v := range ordered {
		versions[i] = core.Version{
			Number:   v,
			Licenses: resp.License,
		}
	}

	return versions, nil
}

// parseDependency splits a LuaRocks dependency string such as
// "lua >= 5.1" or "luafilesystem >= 1.5, < 2" into a module name and its
// version requirement.
func parseDependency(spec string) (name, requirement string) {
	idx := strings.IndexAny(spec, "><=~")
	if idx < 0 {
		return strings.TrimSpace(spec), ""
	}
	return strings.TrimSpace(spec[:idx]), strings.TrimSpace(spec[idx:])
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	url := fmt.Sprintf("%s/api/1/%s/%s", r.baseURL, name, version)

	var spec rockspec
	if err := r.client.GetJSON(ctx, url, &spec); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	deps := make([]core.Dependency, 0, len(spec.Dependencies))
	for _, d := range spec.Dependencies {
		depName, req := parseDependency(d)
		if depName == "lua" {
			continue
		}
		deps = append(deps, core.Dependency{
			Name:         depName,
			Requirements: req,
			Scope:        core.Runtime,
		})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	resp, err := r.fetchModule(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	maintainers := make([]core.Maintainer, len(resp.Maintainers))
	for i, m := range resp.Maintainers {
		maintainers[i] = core.Maintainer{Login: m.Name}
	}

	return maintainers, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/modules/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/modules/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s-%s.rockspec", u.baseURL, name, version)
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/modules/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:luarocks/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:luarocks/%s", name)
}
