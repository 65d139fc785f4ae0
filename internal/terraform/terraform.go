// Package terraform provides a registry client for the Terraform module
// registry.
package terraform

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://registry.terraform.io"
	ecosystem  = "terraform"
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

// parseModuleName splits a "namespace/name/provider" module address.
func parseModuleName(address string) (namespace, name, provider string, ok bool) {
	parts := strings.Split(address, "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

type moduleResponse struct {
	ID          string `json:"id"`
	Namespace   string `json:"namespace"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Version     string `json:"version"`
	Downloads   int    `json:"downloads"`
	Verified    bool   `json:"verified"`
}

type moduleVersionsResponse struct {
	Modules []moduleVersionsEntry `json:"modules"`
}

type moduleVersionsEntry struct {
	Versions []versionEntry `json:"versions"`
}

type versionEntry struct {
	Version string     `json:"version"`
	Root    rootModule `json:"root"`
}

type rootModule struct {
	Dependencies []dependencyEntry `json:"dependencies"`
	Providers    []providerEntry   `json:"providers"`
}

type dependencyEntry struct {
	Name    string `json:"name"`
	Source  string `json:"source"`
	Version string `json:"version"`
}

type providerEntry struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Version   string `json:"version"`
}

func repositoryURL(source string) string {
	if source == "" {
		return ""
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source
	}
	return "https://" + source
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	namespace, moduleName, provider, ok := parseModuleName(name)
	if !ok {
		return nil, fmt.Errorf("terraform: invalid module address %q, want namespace/name/provider", name)
	}

	url := fmt.Sprintf("%s/v1/modules/%s/%s/%s", r.baseURL, namespace, moduleName, provider)

	var resp moduleResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	return &core.Package{
		Name:          name,
		Namespace:     resp.Namespace,
		Description:   resp.Description,
		Repository:    repositoryURL(resp.Source),
		LatestVersion: resp.Version,
		Metadata: map[string]any{
			"provider":  resp.Provider,
			"downloads": resp.Downloads,
			"verified":  resp.Verified,
		},
	}, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	namespace, moduleName, provider, ok := parseModuleName(name)
	if !ok {
		return nil, fmt.Errorf("terraform: invalid module address %q, want namespace/name/provider", name)
	}

	url := fmt.Sprintf("%s/v1/modules/%s/%s/%s/versions", r.baseURL, namespace, moduleName, provider)

	var resp moduleVersionsResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	var numbers []string
	for _, module := range resp.Modules {
		for _, v := range module.Versions {
			numbers = append(numbers, v.Version)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(numbers)))

	versions := make([]core.Version, len(numbers))
	for i, v := range numbers {
		versions[i] = core.Version{Number: v}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	namespace, moduleName, provider, ok := parseModuleName(name)
	if !ok {
		return nil, fmt.Errorf("terraform: invalid module address %q, want namespace/name/provider", name)
	}

	url := fmt.Sprintf("%s/v1/modules/%s/%s/%s/%s", r.baseURL, namespace, moduleName, provider, version)

	var entry versionEntry
	if err := r.client.GetJSON(ctx, url, &entry); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	deps := make([]core.Dependency, 0, len(entry.Root.Dependencies)+len(entry.Root.Providers))
	for _, d := range entry.Root.Dependencies {
		deps = append(deps, core.Dependency{
			Name:         d.Name,
			Requirements: d.Version,
			Scope:        core.Runtime,
		})
	}
	for _, p := range entry.Root.Providers {
		deps = append(deps, core.Dependency{
			Name:         p.Namespace + "/" + p.Name,
			Requirements: p.Version,
			Scope:        core.Runtime,
		})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	namespace, _, _, ok := parseModuleName(name)
	if !ok {
		return nil, fmt.Errorf("terraform: invalid module address %q, want namespace/name/provider", name)
	}
	return []core.Maintainer{{Login: namespace}}, nil
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
	return fmt.Sprintf("%s/v1/modules/%s/%s/download", u.baseURL, name, version)
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("%s/modules/%s", u.baseURL, name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:terraform/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:terraform/%s", name)
}
