// Package nuget provides a registry client for the NuGet v3 API.
package nuget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://api.nuget.org/v3"
	ecosystem  = "nuget"
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

type registrationResponse struct {
	Items []registrationPage `json:"items"`
}

type registrationPage struct {
	Items []registrationLeaf `json:"items"`
}

type registrationLeaf struct {
	CatalogEntry catalogEntry `json:"catalogEntry"`
}

type catalogEntry struct {
	ID                string            `json:"id"`
	Version           string            `json:"version"`
	Description       string            `json:"description"`
	ProjectURL        string            `json:"projectUrl"`
	LicenseExpression string            `json:"licenseExpression"`
	Authors           string            `json:"authors"`
	Listed            bool              `json:"listed"`
	Published         string            `json:"published"`
	Tags              []string          `json:"tags"`
	Dependencies      []dependencyGroup `json:"dependencyGroups"`
	Deprecation       *deprecationInfo  `json:"deprecation"`
}

type dependencyGroup struct {
	TargetFramework string       `json:"targetFramework"`
	Dependencies    []dependency `json:"dependencies"`
}

type dependency struct {
	ID    string `json:"id"`
	Range string `json:"range"`
}

type deprecationInfo struct {
	Message string   `json:"message"`
	Reasons []string `json:"reasons"`
}

func (r *Registry) fetchRegistration(ctx context.Context, name string) (*registrationResponse, error) {
	url := fmt.Sprintf("%s/registration5-semver1/%s/index.json", r.baseURL, strings.ToLower(name))

	var resp registrationResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func leaves(resp *registrationResponse) []registrationLeaf {
	var out []registrationLeaf
	for _, page := range resp.Items {
		out = append(out, page.Items...)
	}
	return out
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchRegistration(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	all := leaves(resp)
	if len(all) == 0 {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	entry := all[0].CatalogEntry

	pkg := &core.Package{
		Name:          entry.ID,
		Description:   entry.Description,
		Homepage:      entry.ProjectURL,
		Licenses:      entry.LicenseExpression,
		Keywords:      entry.Tags,
		LatestVersion: entry.Version,
	}

	if strings.Contains(entry.ProjectURL, "github.com") {
		pkg.Repository = entry.ProjectURL
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	resp, err := r.fetchRegistration(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	all := leaves(resp)
	versions := make([]core.Version, len(all))
	for i, leaf := range all {
		entry := leaf.CatalogEntry

		var publishedAt time.Time
		if entry.Published != "" {
			publishedAt, _ = time.Parse(time.RFC3339, entry.Published)
		}

		status := core.StatusNone
		switch {
		case entry.Deprecation != nil:
			status = core.StatusDeprecated
		case !entry.Listed:
			status = core.StatusYanked
		}

		versions[i] = core.Version{
			Number:      entry.Version,
			PublishedAt: publishedAt,
			Licenses:    entry.LicenseExpression,
			Status:      status,
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	resp, err := r.fetchRegistration(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	for _, leaf := range leaves(resp) {
		entry := leaf.CatalogEntry
		if entry.Version != version {
			continue
		}

		seen := make(map[string]bool)
		var deps []core.Dependency
		for _, group := range entry.Dependencies {
			for _, d := range group.Dependencies {
				if seen[d.ID] {
					continue
				}
				seen[d.ID] = true
				deps = append(deps, core.Dependency{
					Name:         d.ID,
					Requirements: d.Range,
					Scope:        core.Runtime,
				})
			}
		}
		return deps, nil
	}

	return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	resp, err := r.fetchRegistration(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	all := leaves(resp)
	if len(all) == 0 {
		return nil, nil
	}

	authors := all[0].CatalogEntry.Authors
	if authors == "" {
		return nil, nil
	}

	parts := strings.Split(authors, ",")
	maintainers := make([]core.Maintainer, len(parts))
	for i, p := range parts {
		maintainers[i] = core.Maintainer{Name: strings.TrimSpace(p)}
	}

	return maintainers, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://www.nuget.org/packages/%s/%s", name, version)
	}
	return fmt.Sprintf("https://www.nuget.org/packages/%s", name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	lower := strings.ToLower(name)
	return fmt.Sprintf("%s-flatcontainer/%s/%s/%s.%s.nupkg", u.baseURL, lower, version, lower, version)
}

func (u *URLs) Documentation(name, version string) string {
	return fmt.Sprintf("https://www.nuget.org/packages/%s", name)
}

func (u *URLs) PURL(name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:nuget/%s@%s", name, version)
	}
	return fmt.Sprintf("pkg:nuget/%s", name)
}
