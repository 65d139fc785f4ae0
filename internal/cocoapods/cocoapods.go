// Package cocoapods provides a registry client for the CocoaPods trunk API.
package cocoapods

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://trunk.cocoapods.org"
	ecosystem  = "cocoapods"
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

type podResponse struct {
	Name     string        `json:"name"`
	Versions []versionInfo `json:"versions"`
	Owners   []ownerInfo   `json:"owners"`
}

type versionInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Spec      podSpec   `json:"spec"`
}

type podSpec struct {
	Name         string      `json:"name"`
	Version      string      `json:"version"`
	Summary      string      `json:"summary"`
	Homepage     string      `json:"homepage"`
	License      interface{} `json:"license"`
	Source       interface{} `json:"source"`
	Dependencies interface{} `json:"dependencies"`
}

type ownerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r *Registry) fetchPod(ctx context.Context, name string) (*podResponse, error) {
	url := fmt.Sprintf("%s/api/v1/pods/%s", r.baseURL, name)

	var resp podResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchPod(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	pkg := &core.Package{
		Name:     resp.Name,
		Metadata: map[string]any{},
	}

	if latest := latestVersion(resp.Versions); latest != nil {
		pkg.Description = latest.Spec.Summary
		pkg.Homepage = latest.Spec.Homepage
		pkg.Repository = extractSourceURL(latest.Spec.Source)
		pkg.Licenses = extractLicense(latest.Spec.License)
		pkg.LatestVersion = latest.Name
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	resp, err := r.fetchPod(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	versions := make([]core.Version, len(resp.Versions))
	for i, v := range resp.Versions {
		versions[i] = core.Version{
			Number:      v.Name,
			PublishedAt: v.CreatedAt,
			Licenses:    extractLicense(v.Spec.License),
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	resp, err := r.fetchPod(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	for _, v := range resp.Versions {
		if v.Name != version {
			continue
		}

		depMap, ok := v.Spec.Dependencies.(map[string]interface{})
		if !ok {
			return nil, nil
		}

		deps := make([]core.Dependency, 0, len(depMap))
		for depName, req := range depMap {
			deps = append(deps, core.Dependency{
				Name:         depName,
				Requirements: extractRequirement(req),
				Scope:        core.Runtime,
			})
		}
		return deps, nil
	}

	return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	resp, err := r.fetchPod(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	maintainers := make([]core.Maintainer, len(resp.Owners))
	for i, o := range resp.Owners {
		maintainers[i] = core.Maintainer{
			Name:  o.Name,
			Email: o.Email,
		}
	}

	return maintainers, nil
}

func latestVersion(versions []versionInfo) *versionInfo {
	var latest *versionInfo
	for i := range versions {
		if latest == nil || versions[i].CreatedAt.After(latest.CreatedAt) {
			latest = &versions[i]
		}
	}
	return latest
}

func extractLicense(v interface{}) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]interface{}:
		if t, ok := l["type"].(string); ok {
			return t
		}
	}
	return ""
}

func extractSourceURL(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	if git, ok := m["git"].(string); ok {
		return strings.TrimSuffix(git, ".git")
	}
	if http, ok := m["http"].(string); ok {
		return http
	}
	return ""
}

func extractRequirement(v interface{}) string {
	switch r := v.(type) {
	case string:
		return r
	case []interface{}:
		parts := make([]string, 0, len(r))
		for _, item := range r {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

type URLs struct{}

func (u *URLs) Registry(name, version string) string {
	return fmt.Sprintf("https://cocoapods.org/pods/%s", name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://cocoadocs.org/docsets/%s/%s/", name, version)
	}
	return fmt.Sprintf("https://cocoadocs.org/docsets/%s/", name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:cocoapods/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:cocoapods/%s", name)
}
