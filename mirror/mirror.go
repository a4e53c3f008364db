// Package mirror provides a read-through client for a remote package feed.
//
// Every operation is fail-soft: the mirror is a best-effort accelerator over
// an external system, so upstream failures degrade to empty or absent
// results instead of propagating. Callers must treat empty/absent as a
// valid, non-exceptional outcome.
package mirror

import (
	"context"
	"errors"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-hclog"

	"github.com/pkgmirror/pkgmirror/client"
	"github.com/pkgmirror/pkgmirror/fetch"
	"github.com/pkgmirror/pkgmirror/internal/catalog"
	"github.com/pkgmirror/pkgmirror/internal/core"
	"github.com/pkgmirror/pkgmirror/internal/feed"
)

// Fetcher is the subset of the artifact fetcher the mirror uses.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Artifact, error)
}

// Mirror resolves versions, metadata, license provenance, and content from
// the upstream feed.
type Mirror struct {
	feed    *feed.Client
	catalog *catalog.Client
	fetcher Fetcher
	logger  hclog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger. The default logger discards nothing and writes
// to stderr.
func WithLogger(l hclog.Logger) Option {
	return func(m *Mirror) {
		m.logger = l
	}
}

// WithHTTPClient sets the JSON client used for feed and catalog resources.
func WithHTTPClient(c *client.Client) Option {
	return func(m *Mirror) {
		m.feed = feed.NewClient(m.upstreamURL(), c)
		m.catalog = catalog.NewClient(c)
	}
}

// WithFetcher sets the artifact fetcher used for content and manifests.
func WithFetcher(f Fetcher) Option {
	return func(m *Mirror) {
		m.fetcher = f
	}
}

// New creates a mirror for the given upstream feed base URL.
func New(upstreamURL string, opts ...Option) *Mirror {
	m := &Mirror{
		feed:    feed.NewClient(upstreamURL, nil),
		catalog: catalog.NewClient(nil),
		fetcher: fetch.NewCircuitBreakerFetcher(fetch.NewFetcher()),
		logger:  hclog.Default().Named("mirror"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mirror) upstreamURL() string {
	return m.feed.BaseURL()
}

// ListVersions lists every version of id known upstream, including unlisted
// ones. On any upstream failure it returns an empty list; mirroring must not
// break local availability.
func (m *Mirror) ListVersions(ctx context.Context, id string) []*semver.Version {
	versions, err := m.feed.Versions(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			m.logger.Debug("package not found upstream", "package", id)
		} else {
			m.logger.Error("listing upstream versions failed", "package", id, "error", err)
		}
		return nil
	}
	return versions
}

// ListMetadata fetches and translates all metadata records for id. On any
// upstream failure it returns an empty list.
func (m *Mirror) ListMetadata(ctx context.Context, id string) []core.PackageMetadataRecord {
	records, err := m.feed.Metadata(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			m.logger.Debug("package metadata not found upstream", "package", id)
		} else {
			m.logger.Error("listing upstream metadata failed", "package", id, "error", err)
		}
		return nil
	}
	return records
}

// GetLicenseInfo returns the license provenance for one release, or ok=false
// when the release does not exist upstream or the lookup failed. The license
// URL comes from the metadata record; the license expression is resolved
// through the release's catalog leaf when the record carries one. A failed
// catalog enrichment never invalidates the license URL already in hand.
func (m *Mirror) GetLicenseInfo(ctx context.Context, pkg core.PackageIdentity) (core.PackageLicenseInfo, bool) {
	records, err := m.feed.Metadata(ctx, pkg.ID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			m.logger.Debug("package not found upstream", "package", pkg.ID, "version", versionString(pkg))
		} else {
			m.logger.Error("license info lookup failed", "package", pkg.ID, "version", versionString(pkg), "error", err)
		}
		return core.PackageLicenseInfo{}, false
	}

	record, ok := findRecord(records, pkg)
	if !ok {
		m.logger.Debug("version not found upstream", "package", pkg.ID, "version", versionString(pkg))
		return core.PackageLicenseInfo{}, false
	}

	info := core.PackageLicenseInfo{LicenseURL: record.LicenseURL}

	if record.CatalogLeafURL != "" {
		expression, err := m.catalog.LeafLicenseExpression(ctx, record.CatalogLeafURL)
		if err != nil {
			// Enrichment is best-effort; keep the license URL we have.
			m.logger.Debug("catalog leaf lookup failed",
				"package", pkg.ID, "version", versionString(pkg), "error", err)
		} else {
			info.LicenseExpression = expression
		}
	}

	return info, true
}

// Exists reports whether the release is known upstream. An upstream failure
// reads as "does not exist".
func (m *Mirror) Exists(ctx context.Context, pkg core.PackageIdentity) bool {
	for _, v := range m.ListVersions(ctx, pkg.ID) {
		if pkg.Version != nil && v.Equal(pkg.Version) {
			return true
		}
	}
	return false
}

// DownloadContent streams the release's package content to a temporary file
// and returns a handle over it. It returns ok=false when the release does
// not exist upstream or the download failed.
func (m *Mirror) DownloadContent(ctx context.Context, pkg core.PackageIdentity) (*Download, bool) {
	return m.download(ctx, pkg, m.feed.ContentURL(pkg.ID, versionString(pkg)))
}

// DownloadManifest streams the release's manifest to a temporary file and
// returns a handle over it, with the same semantics as DownloadContent.
func (m *Mirror) DownloadManifest(ctx context.Context, pkg core.PackageIdentity) (*Download, bool) {
	return m.download(ctx, pkg, m.feed.ManifestURL(pkg.ID, versionString(pkg)))
}

func (m *Mirror) download(ctx context.Context, pkg core.PackageIdentity, url string) (*Download, bool) {
	artifact, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			m.logger.Debug("artifact not found upstream", "purl", pkg.PURL(), "url", url)
		} else {
			m.logger.Error("artifact download failed", "purl", pkg.PURL(), "url", url, "error", err)
		}
		return nil, false
	}
	defer func() { _ = artifact.Body.Close() }()

	download, err := spool(artifact)
	if err != nil {
		m.logger.Error("spooling artifact failed", "purl", pkg.PURL(), "url", url, "error", err)
		return nil, false
	}
	return download, true
}

func findRecord(records []core.PackageMetadataRecord, pkg core.PackageIdentity) (core.PackageMetadataRecord, bool) {
	for _, r := range records {
		candidate := core.PackageIdentity{ID: r.ID, Version: r.Version}
		if candidate.Equal(pkg) {
			return r, true
		}
	}
	return core.PackageMetadataRecord{}, false
}

func versionString(pkg core.PackageIdentity) string {
	if pkg.Version == nil {
		return ""
	}
	return pkg.Version.String()
}
