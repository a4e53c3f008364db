// Package pkgmirror mirrors a remote package feed and enforces a license
// blocklist before package content, manifests, or registration metadata are
// served.
//
// The mirror client is fail-soft: upstream failures degrade to empty or
// absent results so that mirroring never breaks local availability. The
// policy engine fails open: an unknown license never causes a block. The
// only failure surfaced to callers is the deliberate policy denial.
//
// Basic usage:
//
//	m := mirror.New("https://api.nuget.org/v3")
//	engine := policy.NewEngine(policy.Static(policy.Config{
//		BlockedLicenseExpressions: []string{"AGPL-3.0"},
//	}), m, nil)
//
//	pkg, err := pkgmirror.NewPackageIdentity("Sample.Pkg", "2.0.0")
//	if err != nil {
//		log.Fatal(err)
//	}
//	decision := engine.Evaluate(context.Background(), pkg)
//	if decision.Blocked {
//		fmt.Println(decision.Reason)
//	}
package pkgmirror

import (
	"github.com/pkgmirror/pkgmirror/client"
	"github.com/pkgmirror/pkgmirror/internal/core"
	"github.com/pkgmirror/pkgmirror/policy"
)

// Re-export types from internal/core
type (
	// PackageIdentity uniquely identifies one package release.
	PackageIdentity = core.PackageIdentity

	// PackageLicenseInfo carries the license provenance for one release.
	PackageLicenseInfo = core.PackageLicenseInfo

	// PackageMetadataRecord is the normalized view of an upstream metadata record.
	PackageMetadataRecord = core.PackageMetadataRecord

	// DependencyGroup is the set of dependencies for one target framework.
	DependencyGroup = core.DependencyGroup

	// Dependency is one entry in a dependency group.
	Dependency = core.Dependency
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for feed APIs.
	Client = client.Client

	// HTTPError represents an HTTP error response from the upstream feed.
	HTTPError = client.HTTPError

	// NotFoundError wraps ErrNotFound with package context.
	NotFoundError = client.NotFoundError
)

// BlockDecision is the outcome of a license policy evaluation.
type BlockDecision = policy.BlockDecision

// Re-export errors
var (
	ErrNotFound = client.ErrNotFound
)

// NewPackageIdentity constructs an identity from an id and a version string.
var NewPackageIdentity = core.NewPackageIdentity

// SplitAuthors splits a delimited author string into individual names.
var SplitAuthors = core.SplitAuthors

// SplitTags splits a space-delimited tag string into individual tags.
var SplitTags = core.SplitTags

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return client.DefaultClient()
}
