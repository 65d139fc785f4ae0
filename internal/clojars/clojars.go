// Package clojars provides a registry client for clojars.org.
package clojars

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL = "https://clojars.org"
	ecosystem  = "clojars"
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

// ParseCoordinates splits a "group/artifact" name into its Maven-style
// coordinates. When the name carries no group (a legacy Clojars artifact),
// the group is the artifact itself.
func ParseCoordinates(name string) (group, artifact string) {
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, name
}

type artifactResponse struct {
	GroupName      string        `json:"group_name"`
	JarName        string        `json:"jar_name"`
	Description    string        `json:"description"`
	Homepage       string        `json:"homepage"`
	RecentVersions []versionInfo `json:"recent_versions"`
}

type versionInfo struct {
	Version   string `json:"version"`
	Downloads int    `json:"downloads"`
}

type versionDetailResponse struct {
	Version      string    `json:"version"`
	Description  string    `json:"description"`
	Homepage     string    `json:"homepage"`
	Licenses     []string  `json:"licenses"`
	SCM          scmInfo   `json:"scm"`
	CreatedEpoch int64     `json:"created"`
	Dependencies []depInfo `json:"dependencies"`
}

type scmInfo struct {
	URL string `json:"url"`
}

type depInfo struct {
	GroupName string `json:"group_name"`
	JarName   string `json:"jar_name"`
	Version   string `json:"version"`
	Scope     string `json:"scope"`
}

func normalizeGitURL(u string) string {
	return strings.TrimSuffix(u, ".git")
}

func coordinateName(group, artifact string) string {
	if group == artifact {
		return artifact
	}
	return group + "/" + artifact
}

func (r *Registry) fetchArtifact(ctx context.Context, group, artifact string) (*artifactResponse, error) {
	url := fmt.Sprintf("%s/api/artifacts/%s/%s", r.baseURL, group, artifact)

	var resp artifactResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) fetchVersionDetail(ctx context.Context, group, artifact, version string) (*versionDetailResponse, error) {
	url := fmt.Sprintf("%s/api/artifacts/%s/%s/versions/%s", r.baseURL, group, artifact, version)

	var resp versionDetailResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	group, artifact := ParseCoordinates(name)

	art, err := r.fetchArtifact(ctx, group, artifact)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	pkg := &core.Package{
		Name:        coordinateName(art.GroupName, art.JarName),
		Description: art.Description,
		Homepage:    art.Homepage,
		Namespace:   art.GroupName,
		Metadata:    map[string]any{},
	}

	if len(art.RecentVersions) > 0 {
		latest := art.RecentVersions[0].Version
		pkg.LatestVersion = latest

		detail, err := r.fetchVersionDetail(ctx, group, artifact, latest)
		if err == nil {
			pkg.Repository = normalizeGitURL(detail.SCM.URL)
			pkg.Licenses = strings.Join(detail.Licenses, ",")
		}
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	group, artifact := ParseCoordinates(name)

	art, err := r.fetchArtifact(ctx, group, artifact)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
		}
		return nil, err
	}

	versions := make([]core.Version, 0, len(art.RecentVersions))
	for _, v := range art.RecentVersions {
		detail, err := r.fetchVersionDetail(ctx, group, artifact, v.Version)
		if err != nil {
			continue
		}

		var publishedAt time.Time
		if detail.CreatedEpoch > 0 {
			publishedAt = time.UnixMilli(detail.CreatedEpoch)
		}

		versions = append(versions, core.Version{
			Number:      v.Version,
			PublishedAt: publishedAt,
			Licenses:    strings.Join(detail.Licenses, ","),
			Metadata: map[string]any{
				"downloads": v.Downloads,
			},
		})
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	group, artifact := ParseCoordinates(name)

	detail, err := r.fetchVersionDetail(ctx, group, artifact, version)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
		}
		return nil, err
	}

	deps := make([]core.Dependency, len(detail.Dependencies))
	for i, d := range detail.Dependencies {
		deps[i] = core.Dependency{
			Name:         coordinateName(d.GroupName, d.JarName),
			Requirements: d.Version,
			Scope:        mapScope(d.Scope),
		}
	}

	return deps, nil
}

func mapScope(scope string) core.Scope {
	switch scope {
	case "test":
		return core.Test
	case "provided":
		return core.Build
	default:
		return core.Runtime
	}
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	// Clojars does not expose a maintainers API endpoint.
	return nil, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("%s/%s/versions/%s", u.baseURL, name, version)
	}
	return fmt.Sprintf("%s/%s", u.baseURL, name)
}

func (u *URLs) Download(name, version string) string {
	if version == "" {
		return ""
	}
	group, artifact := ParseCoordinates(name)
	groupPath := strings.ReplaceAll(group, ".", "/")
	return fmt.Sprintf("https://repo.clojars.org/%s/%s/%s/%s-%s.jar", groupPath, artifact, version, artifact, version)
}

func (u *URLs) Documentation(name, version string) string {
	v := version
	if v == "" {
		v = "CURRENT"
	}
	return fmt.Sprintf("https://cljdoc.org/d/%s/%s", name, v)
}

func (u *URLs) PURL(name, version string) string {
	group, artifact := ParseCoordinates(name)
	base := fmt.Sprintf("pkg:clojars/%s/%s", group, artifact)
	if version != "" {
		return base + "@" + version
	}
	return base
}
