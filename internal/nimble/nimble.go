// Package nimble provides a registry client for the Nim package
// directory at nimble.directory.
package nimble

import (
	"context"
	"fmt"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://nimble.directory"
	ecosystem  = "nimble"
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

type packageDetailResponse struct {
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Method      string          `json:"method"`
	Tags        []string        `json:"tags"`
	Description string          `json:"description"`
	License     string          `json:"license"`
	Web         string          `json:"web"`
	Versions    []versionDetail `json:"versions"`
}

type versionDetail struct {
	Version  string   `json:"version"`
	Requires []string `json:"requires"`
}

func (r *Registry) fetchPackage(ctx context.Context, name string) (*packageDetailResponse, error) {
	url := fmt.Sprintf("%s/api/packages/%s", r.baseURL, name)

	var resp packageDetailResponse
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
		Homepage:    resp.Web,
		Repository:  resp.URL,
		Licenses:    resp.License,
		Keywords:    resp.Tags,
		Metadata: map[string]any{
			"method": resp.Method,
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

	// The directory lists versions oldest-first.
	versions := make([]core.Version, len(resp.Versions))
	for i, v := range resp.Versions {
		versions[len(resp.Versions)-1-i] = core.Version{
			Number:   v.Version,
			Licenses: resp.License,
		}
	}

	return versions, nil
}

// parseDependency splits a Nimble requirement string such as
// "nim >= 1.2.0" into a package name and its version requirement.
func parseDependency(spec string) (name, requirement string) {
	idx := strings.IndexAny(spec, "><=~")
	if idx < 0 {
		return strings.TrimSpace(spec), ""
	}
	return strings.TrimSpace(spec[:idx]), strings.TrimSpace(spec[idx:])
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

		deps := make([]core.Dependency, 0, len(v.Requires))
		for _, req := range v.Requires {
			depName, requirement := parseDependency(req)
			if depName == "nim" {
				continue
			}
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: requirement,
				Scope:        core.Runtime,
			})
		}
		return deps, nil
	}

	return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	// The Nimble directory doesn't expose per-package maintainer info.
	return nil, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/pkg/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/pkg/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/pkg/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:nimble/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:nimble/%s", name)
}
