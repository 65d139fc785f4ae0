// Package maven provides a registry client for Maven Central, querying
// the search.maven.org Solr API for version listings and fetching POM
// files directly from a Maven repository for package metadata.
package maven

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/git-pkgs/depindex/internal/core"
)

const (
	DefaultURL       = "https://repo1.maven.org/maven2"
	defaultSearchURL = "https://search.maven.org"
	ecosystem        = "maven"
	maxParentDepth   = 5
)

func init() {
	core.Register(ecosystem, DefaultURL, func(baseURL string, client *core.Client) core.Registry {
		return New(baseURL, client)
	})
}

type Registry struct {
	baseURL   string
	searchURL string
	client    *core.Client
	urls      *URLs
}

func New(baseURL string, client *core.Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	r := &Registry{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		searchURL: defaultSearchURL,
		client:    client,
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

// ParseCoordinates splits a "groupId:artifactId[:version]" Maven
// coordinate. An input with no colon returns all empty strings.
func ParseCoordinates(coordinate string) (groupID, artifactID, version string) {
	parts := strings.Split(coordinate, ":")
	switch len(parts) {
	case 2:
		return parts[0], parts[1], ""
	case 3:
		return parts[0], parts[1], parts[2]
	default:
		return "", "", ""
	}
}

type searchResponse struct {
	Response searchResponseBody `json:"response"`
}

type searchResponseBody struct {
	NumFound int         `json:"numFound"`
	Docs     []searchDoc `json:"docs"`
}

type searchDoc struct {
	ID           string `json:"id"`
	GroupID      string `json:"g"`
	ArtifactID   string `json:"a"`
	Version      string `json:"v"`
	VersionCount int    `json:"versionCount"`
	Timestamp    int64  `json:"timestamp"`
}

func (r *Registry) search(ctx context.Context, groupID, artifactID string, rows int) (*searchResponse, error) {
	url := fmt.Sprintf(`%s/solrsearch/select?q=g:"%s"+AND+a:"%s"&rows=%d&wt=json`,
		r.searchURL, groupID, artifactID, rows)

	var resp searchResponse
	if err := r.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type pomProject struct {
	XMLName      xml.Name        `xml:"project"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	URL          string          `xml:"url"`
	Licenses     []pomLicense    `xml:"licenses>license"`
	SCM          *pomSCM         `xml:"scm"`
	Parent       *pomParent      `xml:"parent"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Developers   []pomDeveloper  `xml:"developers>developer"`
}

type pomLicense struct {
	Name string `xml:"name"`
}

type pomSCM struct {
	URL string `xml:"url"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

type pomDeveloper struct {
	ID    string `xml:"id"`
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

func pomPath(groupID, artifactID, version string) string {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s-%s.pom", groupPath, artifactID, version, artifactID, version)
}

// fetchPOM retrieves a POM and, when it declares a parent, recursively
// fetches the parent chain to inherit fields the child leaves blank.
func (r *Registry) fetchPOM(ctx context.Context, groupID, artifactID, version string, depth int) (*pomProject, error) {
	if depth > maxParentDepth {
		return nil, fmt.Errorf("maven: parent POM chain exceeds %d levels", maxParentDepth)
	}

	url := fmt.Sprintf("%s/%s", r.baseURL, pomPath(groupID, artifactID, version))
	body, err := r.client.GetBody(ctx, url)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: groupID + ":" + artifactID, Version: version}
		}
		return nil, err
	}

	var pom pomProject
	if err := xml.Unmarshal(body, &pom); err != nil {
		return nil, fmt.Errorf("maven: parsing POM for %s:%s:%s: %w", groupID, artifactID, version, err)
	}

	if pom.Parent == nil {
		return &pom, nil
	}

	if pom.GroupID == "" {
		pom.GroupID = pom.Parent.GroupID
	}

	parent, err := r.fetchPOM(ctx, pom.Parent.GroupID, pom.Parent.ArtifactID, pom.Parent.Version, depth+1)
	if err != nil {
		return &pom, nil
	}

	if pom.Description == "" {
		pom.Description = parent.Description
	}
	if pom.URL == "" {
		pom.URL = parent.URL
	}
	if len(pom.Licenses) == 0 {
		pom.Licenses = parent.Licenses
	}
	if pom.SCM == nil {
		pom.SCM = parent.SCM
	}

	return &pom, nil
}

func licenseNames(licenses []pomLicense) string {
	names := make([]string, len(licenses))
	for i, l := range licenses {
		names[i] = l.Name
	}
	return strings.Join(names, "; ")
}

type mavenMetadata struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Versioning struct {
		Latest   string   `xml:"latest"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func (r *Registry) fetchMetadataVersions(ctx context.Context, groupID, artifactID string) ([]string, error) {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	url := fmt.Sprintf("%s/%s/%s/maven-metadata.xml", r.baseURL, groupPath, artifactID)

	body, err := r.client.GetBody(ctx, url)
	if err != nil {
		return nil, err
	}

	var metadata mavenMetadata
	if err := xml.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("maven: parsing maven-metadata.xml for %s:%s: %w", groupID, artifactID, err)
	}

	versions := make([]string, len(metadata.Versioning.Versions))
	for i, v := range metadata.Versioning.Versions {
		versions[len(versions)-1-i] = v
	}
	return versions, nil
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*core.Package, error) {
	groupID, artifactID, _ := ParseCoordinates(name)
	if groupID == "" || artifactID == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	resp, err := r.search(ctx, groupID, artifactID, 1)
	if err != nil {
		return nil, err
	}
	if resp.Response.NumFound == 0 || len(resp.Response.Docs) == 0 {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	latest := resp.Response.Docs[0].Version

	pkg := &core.Package{
		Name:          name,
		Namespace:     groupID,
		LatestVersion: latest,
	}

	pom, err := r.fetchPOM(ctx, groupID, artifactID, latest, 0)
	if err == nil {
		pkg.Description = pom.Description
		pkg.Homepage = pom.URL
		pkg.Licenses = licenseNames(pom.Licenses)
		if pom.SCM != nil {
			pkg.Repository = pom.SCM.URL
		}
	}

	return pkg, nil
}

func (r *Registry) FetchVersions(ctx context.Context, name string) ([]core.Version, error) {
	groupID, artifactID, _ := ParseCoordinates(name)
	if groupID == "" || artifactID == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	resp, err := r.search(ctx, groupID, artifactID, 200)
	if err != nil {
		return nil, err
	}

	if resp.Response.NumFound == 0 {
		numbers, err := r.fetchMetadataVersions(ctx, groupID, artifactID)
		if err != nil {
			return nil, err
		}
		versions := make([]core.Version, len(numbers))
		for i, v := range numbers {
			versions[i] = core.Version{Number: v}
		}
		return versions, nil
	}

	versions := make([]core.Version, len(resp.Response.Docs))
	for i, doc := range resp.Response.Docs {
		var publishedAt time.Time
		if doc.Timestamp > 0 {
			publishedAt = time.UnixMilli(doc.Timestamp)
		}
		versions[i] = core.Version{
			Number:      doc.Version,
			PublishedAt: publishedAt,
		}
	}

	return versions, nil
}

func (r *Registry) FetchDependencies(ctx context.Context, name, version string) ([]core.Dependency, error) {
	groupID, artifactID, _ := ParseCoordinates(name)
	if groupID == "" || artifactID == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name, Version: version}
	}

	pom, err := r.fetchPOM(ctx, groupID, artifactID, version, 0)
	if err != nil {
		return nil, err
	}

	deps := make([]core.Dependency, 0, len(pom.Dependencies))
	for _, d := range pom.Dependencies {
		optional := d.Optional == "true"

		var scope core.Scope
		switch {
		case optional:
			scope = core.Optional
		case d.Scope == "test":
			scope = core.Test
		case d.Scope == "provided":
			scope = core.Build
		default:
			scope = core.Runtime
		}

		deps = append(deps, core.Dependency{
			Name:         d.GroupID + ":" + d.ArtifactID,
			Requirements: d.Version,
			Scope:        scope,
			Optional:     optional,
		})
	}

	return deps, nil
}

func (r *Registry) FetchMaintainers(ctx context.Context, name string) ([]core.Maintainer, error) {
	groupID, artifactID, _ := ParseCoordinates(name)
	if groupID == "" || artifactID == "" {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	resp, err := r.search(ctx, groupID, artifactID, 1)
	if err != nil {
		return nil, err
	}
	if resp.Response.NumFound == 0 || len(resp.Response.Docs) == 0 {
		return nil, &core.NotFoundError{Ecosystem: ecosystem, Name: name}
	}

	pom, err := r.fetchPOM(ctx, groupID, artifactID, resp.Response.Docs[0].Version, 0)
	if err != nil {
		return nil, err
	}

	maintainers := make([]core.Maintainer, len(pom.Developers))
	for i, d := range pom.Developers {
		maintainers[i] = core.Maintainer{
			Login: d.ID,
			Name:  d.Name,
			Email: d.Email,
		}
	}

	return maintainers, nil
}

type URLs struct {
	baseURL string
}

func (u *URLs) Registry(name, version string) string {
	groupID, artifactID, _ := ParseCoordinates(name)
	return fmt.Sprintf("https://search.maven.org/artifact/%s/%s/%s/jar", groupID, artifactID, version)
}

func (u *URLs) Download(name, version string) string {
	groupID, artifactID, _ := ParseCoordinates(name)
	if groupID == "" || artifactID == "" || version == "" {
		return ""
	}
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s.jar", u.baseURL, groupPath, artifactID, version, artifactID, version)
}

func (u *URLs) Documentation(name, version string) string {
	groupID, artifactID, _ := ParseCoordinates(name)
	return fmt.Sprintf("https://javadoc.io/doc/%s/%s/%s", groupID, artifactID, version)
}

func (u *URLs) PURL(name, version string) string {
	groupID, artifactID, _ := ParseCoordinates(name)
	if version != "" {
		return fmt.Sprintf("pkg:maven/%s/%s@%s", groupID, artifactID, version)
	}
	return fmt.Sprintf("pkg:maven/%s/%s", groupID, artifactID)
}
