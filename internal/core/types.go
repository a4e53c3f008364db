// Package core provides the identity and metadata model shared by the
// mirror client and the license policy engine.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// PackageIdentity uniquely identifies one package release. IDs are
// case-insensitive; two identities with IDs differing only in case are equal.
type PackageIdentity struct {
	ID      string
	Version *semver.Version
}

// NewPackageIdentity constructs an identity from an id and a version string.
func NewPackageIdentity(id, version string) (PackageIdentity, error) {
	if strings.TrimSpace(id) == "" {
		return PackageIdentity{}, fmt.Errorf("package id must not be empty")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return PackageIdentity{}, fmt.Errorf("parsing version %q: %w", version, err)
	}
	return PackageIdentity{ID: id, Version: v}, nil
}

// LowerID returns the id in the lowercase form used in feed URLs.
func (p PackageIdentity) LowerID() string {
	return strings.ToLower(p.ID)
}

// Equal reports whether two identities refer to the same release.
func (p PackageIdentity) Equal(other PackageIdentity) bool {
	if !strings.EqualFold(p.ID, other.ID) {
		return false
	}
	if p.Version == nil || other.Version == nil {
		return p.Version == other.Version
	}
	return p.Version.Equal(other.Version)
}

func (p PackageIdentity) String() string {
	if p.Version == nil {
		return p.ID
	}
	return p.ID + " " + p.Version.String()
}

// PackageLicenseInfo carries the license provenance known for one release.
// Either field may be empty; both empty means nothing is known.
type PackageLicenseInfo struct {
	LicenseURL        string
	LicenseExpression string
}

// PackageMetadataRecord is the normalized view of one upstream metadata record.
type PackageMetadataRecord struct {
	ID                       string
	Version                  *semver.Version
	Authors                  []string
	Description              string
	Language                 string
	Listed                   bool
	MinClientVersion         string
	Published                time.Time
	RequireLicenseAcceptance bool
	Summary                  string
	Title                    string
	LicenseURL               string
	IconURL                  string
	ProjectURL               string
	Tags                     []string
	DependencyGroups         []DependencyGroup

	// CatalogLeafURL points at the immutable catalog document for this
	// release, when the feed exposes one.
	CatalogLeafURL string
	// ContentURL is the upstream download location for the package content.
	ContentURL string

	// Downloads and HasReadme are not knowable from upstream metadata and
	// stay at their zero values.
	Downloads int64
	HasReadme bool
}

// IsSemVer2 reports whether the record's version needs SemVer 2.0.0 to
// express: it carries build metadata or a dotted prerelease label. The flag
// is derived from the parsed version, never trusted from the feed.
func (r *PackageMetadataRecord) IsSemVer2() bool {
	if r.Version == nil {
		return false
	}
	return r.Version.Metadata() != "" || strings.Contains(r.Version.Prerelease(), ".")
}

// DependencyGroup is the set of dependencies for one target framework.
type DependencyGroup struct {
	TargetFramework string
	Dependencies    []Dependency
}

// Dependency is one entry in a dependency group. A group with no
// dependencies is represented as exactly one Dependency with empty ID and
// Range; consumers must read that as "no dependencies", not "unknown".
type Dependency struct {
	ID    string
	Range string
}

// IsPlaceholder reports whether the entry is the synthetic marker for a
// dependency group without dependencies.
func (d Dependency) IsPlaceholder() bool {
	return d.ID == "" && d.Range == ""
}
