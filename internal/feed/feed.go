// Package feed provides a client for the remote package feed's JSON
// resources: the flat-container version index, flat-container content, and
// the registration (metadata) hierarchy.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/pkgmirror/pkgmirror/client"
	"github.com/pkgmirror/pkgmirror/internal/core"
)

// Client fetches and translates upstream feed resources.
type Client struct {
	baseURL string
	http    *client.Client
}

// NewClient creates a feed client for the given upstream base URL.
// A nil http client uses the default.
func NewClient(baseURL string, http *client.Client) *Client {
	if http == nil {
		http = client.DefaultClient()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http,
	}
}

// BaseURL returns the upstream feed base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// VersionIndexURL returns the flat-container version index URL for id.
func (c *Client) VersionIndexURL(id string) string {
	return fmt.Sprintf("%s/v3-flatcontainer/%s/index.json", c.baseURL, strings.ToLower(id))
}

// ContentURL returns the flat-container package content URL.
func (c *Client) ContentURL(id, version string) string {
	lower := strings.ToLower(id)
	lowerVersion := strings.ToLower(version)
	return fmt.Sprintf("%s/v3-flatcontainer/%s/%s/%s.%s.nupkg", c.baseURL, lower, lowerVersion, lower, lowerVersion)
}

// ManifestURL returns the flat-container package manifest URL.
func (c *Client) ManifestURL(id, version string) string {
	lower := strings.ToLower(id)
	return fmt.Sprintf("%s/v3-flatcontainer/%s/%s/%s.nuspec", c.baseURL, lower, strings.ToLower(version), lower)
}

// RegistrationIndexURL returns the registration index URL for id.
func (c *Client) RegistrationIndexURL(id string) string {
	return fmt.Sprintf("%s/registration5-semver1/%s/index.json", c.baseURL, strings.ToLower(id))
}

// Versions lists every version of id known upstream, including unlisted
// ones. A missing package maps to *client.NotFoundError.
func (c *Client) Versions(ctx context.Context, id string) ([]*semver.Version, error) {
	var index versionIndex
	if err := c.http.GetJSON(ctx, c.VersionIndexURL(id), &index); err != nil {
		return nil, notFoundOr(err, id, "")
	}

	versions := make([]*semver.Version, 0, len(index.Versions))
	for _, raw := range index.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			// Versions the feed reports but we cannot parse are skipped
			// rather than failing the whole listing.
			continue
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Metadata lists every metadata record for id, following registration pages
// whose leaves are not inlined. A missing package maps to
// *client.NotFoundError.
func (c *Client) Metadata(ctx context.Context, id string) ([]core.PackageMetadataRecord, error) {
	var index registrationIndex
	if err := c.http.GetJSON(ctx, c.RegistrationIndexURL(id), &index); err != nil {
		return nil, notFoundOr(err, id, "")
	}

	var records []core.PackageMetadataRecord
	for _, page := range index.Items {
		leaves := page.Items
		if len(leaves) == 0 && page.URL != "" {
			var full registrationPage
			if err := c.http.GetJSON(ctx, page.URL, &full); err != nil {
				return nil, fmt.Errorf("fetching registration page %s: %w", page.URL, err)
			}
			leaves = full.Items
		}

		for _, leaf := range leaves {
			record, err := translateLeaf(leaf)
			if err != nil {
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// translateLeaf normalizes one registration leaf into the shared metadata
// model.
func translateLeaf(leaf registrationLeaf) (core.PackageMetadataRecord, error) {
	entry := leaf.CatalogEntry

	version, err := semver.NewVersion(entry.Version)
	if err != nil {
		return core.PackageMetadataRecord{}, fmt.Errorf("parsing version %q: %w", entry.Version, err)
	}

	var published time.Time
	if entry.Published != "" {
		published, _ = time.Parse(time.RFC3339, entry.Published)
	}

	// Absent means listed; only an explicit false unlists.
	listed := entry.Listed == nil || *entry.Listed

	return core.PackageMetadataRecord{
		ID:                       entry.ID,
		Version:                  version,
		Authors:                  core.SplitAuthors(entry.Authors),
		Description:              entry.Description,
		Language:                 entry.Language,
		Listed:                   listed,
		MinClientVersion:         entry.MinClientVersion,
		Published:                published,
		RequireLicenseAcceptance: entry.RequireLicenseAcceptance,
		Summary:                  entry.Summary,
		Title:                    entry.Title,
		LicenseURL:               entry.LicenseURL,
		IconURL:                  entry.IconURL,
		ProjectURL:               entry.ProjectURL,
		Tags:                     extractTags(entry.Tags),
		DependencyGroups:         translateDependencyGroups(entry.DependencyGroups),
		CatalogLeafURL:           entry.CatalogLeafURL,
		ContentURL:               leaf.PackageContent,
	}, nil
}

// translateDependencyGroups maps upstream dependency groups into the shared
// model. A group without dependencies becomes a single placeholder entry so
// consumers can tell "no dependencies" from "unknown".
func translateDependencyGroups(groups []dependencyGroup) []core.DependencyGroup {
	if len(groups) == 0 {
		return nil
	}

	out := make([]core.DependencyGroup, 0, len(groups))
	for _, g := range groups {
		deps := make([]core.Dependency, 0, len(g.Dependencies))
		for _, d := range g.Dependencies {
			deps = append(deps, core.Dependency{ID: d.ID, Range: d.Range})
		}
		if len(deps) == 0 {
			deps = append(deps, core.Dependency{})
		}
		out = append(out, core.DependencyGroup{
			TargetFramework: g.TargetFramework,
			Dependencies:    deps,
		})
	}
	return out
}

// extractTags accepts both tag shapes feeds produce: a delimited string or
// an array of strings.
func extractTags(v interface{}) []string {
	switch tags := v.(type) {
	case string:
		return core.SplitTags(tags)
	case []interface{}:
		out := make([]string, 0, len(tags))
		for _, item := range tags {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func notFoundOr(err error, id, version string) error {
	if httpErr, ok := err.(*client.HTTPError); ok && httpErr.IsNotFound() {
		return &client.NotFoundError{ID: id, Version: version}
	}
	return err
}
