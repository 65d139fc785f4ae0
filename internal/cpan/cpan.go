// Package cpan provides a registry client for the MetaCPAN API.
package cpan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://fastapi.metacpan.org"
	ecosystem  = "cpan"
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

type distributionResponse struct {
	Name      string   `json:"name"`
	Abstract  string   `json:"abstract"`
	Version   string   `json:"version"`
	License   []string `json:"license"`
	Author    string   `json:"author"`
	Resources struct {
		Homepage   string `json:"homepage"`
		Repository struct {
			URL  string `json:"url"`
			Web  string `json:"web"`
			Type string `json:"type"`
		} `json:"repository"`
		Bugtracker struct {
			Web string `json:"web"`
		} `json:"bugtracker"`
	} `json:"resources"`
	Dependency []dependencyInfo `json:"dependency"`
}

type dependencyInfo struct {
	Module       string `json:"module"`
	Version      string `json:"version"`
	Phase        string `json:"phase"`
	Relationship string `json:"relationship"`
}

type releaseSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source releaseInfo `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type releaseInfo struct {
	Version  string   `json:"version"`
	Date     string   `json:"date"`
	License  []string `json:"license"`
	Checksum string   `json:"checksum_sha256"`
	Status   string   `json:"status"`
}

type authorResponse struct {
	PAUSEID string   `json:"pauseid"`
	Name    string   `json:"name"`
	Email   []string `json:"email"`
	Website []string `json:"website"`
}

func (r *Registry) fetchDistribution(ctx context.Context, name string) (*distributionResponse, error) {
	url := fmt.Sprintf("%s/v1/module/%s", r.baseURL, name)

	var resp distributionResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	resp, err := r.fetchDistribution(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	repo := resp.Resources.Repository.URL
	if repo == "" {
		repo = resp.Resources.Repository.Web
	}

	return &core.Package{
		Name:          resp.Name,
		Description:   resp.Abstract,
		Homepage:      resp.Resources.Homepage,
		Repository:    repo,
		Licenses:      strings.Join(resp.License, ","),
		LatestVersion: resp.Version,
		Metadata: map[string]any{
			"author":     resp.Author,
			"bugtracker": resp.Resources.Bugtracker.Web,
		},
	}, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	url := fmt.Sprintf("%s/v1/release/_search?q=distribution:%s&size=999", r.baseURL, name)

	var resp releaseSearchResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	versions := make([]core.Version, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		src := hit.Source

		var publishedAt time.Time
		if src.Date != "" {
			publishedAt, _ = time.Parse(time.RFC3339, src.Date)
		}

		var integrity string
		if src.Checksum != "" {
			integrity = "sha256-" + src.Checksum
		}

		var status core.VersionStatus
		if src.Status == "backpan" {
			status = core.StatusYanked
		}

		versions[i] = core.Version{
			Number:      src.Version,
			PublishedAt: publishedAt,
			Licenses:    strings.Join(src.License, ","),
			Integrity:   integrity,
			Status:      status,
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	url := fmt.Sprintf("%s/v1/release/%s-%s", r.baseURL, name, version)

	var resp distributionResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	var deps []core.Dependency
	for _, d := range resp.Dependency {
		if d.Module == "perl" {
			continue
		}

		optional := d.Relationship == "recommends"
		scope := core.Runtime
		switch {
		case optional:
			scope = core.Optional
		case d.Phase == "test":
			scope = core.Test
		}

		deps = append(deps, core.Dependency{
			Name:         d.Module,
			Requirements: d.Version,
			Scope:        scope,
			Optional:     optional,
		})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	dist, err := r.fetchDistribution(ctx, name)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	if dist.Author == "" {
		return nil, nil
	}

	url := fmt.Sprintf("%s/v1/author/%s", r.baseURL, dist.Author)

	var author authorResponse
	if err := r.client.GetJSON(ctx, url, &author); err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	m := core.Maintainer{
		Login: author.PAUSEID,
		Name:  author.Name,
	}
	if len(author.Email) > 0 {
		m.Email = author.Email[0]
	}
	if len(author.Website) > 0 {
		m.URL = author.Website[0]
	}

	return []core.Maintainer{m}, nil
}

type URLs struct{}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://metacpan.org/dist/%s/%s", name, version)
	}
	return fmt.Sprintf("https://metacpan.org/dist/%s", name)
}

func (u *URLs) Download(name, version string) string {
	return ""
}

func (u *URLs) Documentation(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://metacpan.org/pod/release/%s-%s/%s", name, version, name)
	}
	return fmt.Sprintf("https://metacpan.org/pod/%s", name)
}

func (u *URLs) PURL(name, version string) string {
	normalized := strings.ReplaceAll(name, "::", "-")
	if version != "" {
		return fmt.Sprintf("pkg:cpan/%s@%s", normalized, version)
	}
	return fmt.Sprintf("pkg:cpan/%s", normalized)
}
