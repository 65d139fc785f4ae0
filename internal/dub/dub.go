// Package dub provides a registry client for code.dlang.org.
package dub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://code.dlang.org"
	ecosystem  = "dub"
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
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Homepage    string        `json:"homepage"`
	Repository  string        `json:"repository"`
	Categories  []string      `json:"categories"`
	Owner       string        `json:"owner"`
	Versions    []versionInfo `json:"versions"`
}

type versionInfo struct {
	Version      string      `json:"version"`
	Date         string      `json:"date"`
	License      string      `json:"license"`
	Dependencies interface{} `json:"dependencies"`
}

func (r *Registry) fetchPackage(ctx context.Context, name string) (*packageResponse, error) {
	url := fmt.Sprintf("%s/api/packages/%s", r.baseURL, name)

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
		Homepage:    resp.Homepage,
		Repository:  resp.Repository,
		Keywords:    resp.Categories,
		Metadata: map[string]any{
			"owner": resp.Owner,
		},
	}

	if v := latestVersion(resp.Versions); v != nil {
		pkg.Licenses = v.License
		pkg.LatestVersion = v.Version
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
		var publishedAt time.Time
		if v.Date != "" {
			publishedAt, _ = time.Parse(time.RFC3339, v.Date)
		}

		versions[i] = core.Version{
			Number:      v.Version,
			PublishedAt: publishedAt,
			Licenses:    v.License,
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

		depMap, ok := v.Dependencies.(map[string]interface{})
		if !ok {
			return nil, nil
		}

		deps := make([]core.Dependency, 0, len(depMap))
		for depName, spec := range depMap {
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: extractRequirement(spec),
				Scope:        core.Runtime,
				Optional:     extractOptional(spec),
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

	if resp.Owner == "" {
		return nil, nil
	}

	return []core.Maintainer{{Login: resp.Owner}}, nil
}

func latestVersion(versions []versionInfo) *versionInfo {
	if len(versions) == 0 {
		return nil
	}
	return &versions[0]
}

func extractRequirement(v interface{}) string {
	switch spec := v.(type) {
	case string:
		return spec
	case map[string]interface{}:
		if s, ok := spec["version"].(string); ok {
			return s
		}
	}
	return ""
}

func extractOptional(v interface{}) bool {
	spec, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	opt, _ := spec["optional"].(bool)
	return opt
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/packages/%s/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/packages/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s/packages/%s/%s.zip", u.baseURL, name, version)
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/packages/%s/docs", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:dub/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:dub/%s", name)
}
