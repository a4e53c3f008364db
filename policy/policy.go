// Package policy decides, per package release, whether serving must be
// blocked because of its license.
//
// The engine fails open: an inability to determine a license never causes a
// block, because a false-positive block is worse than under-blocking on
// unknown data. The only outcome that crosses the serving boundary is a
// deliberate, deterministic BlockDecision.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/pkgmirror/pkgmirror/internal/core"
)

// Config holds the license blocklists. Both lists empty means the policy is
// disabled and everything is allowed.
type Config struct {
	BlockedLicenseExpressions []string
	BlockedLicenseURLPatterns []string
}

// Enabled reports whether any rule is configured.
func (c Config) Enabled() bool {
	return len(c.BlockedLicenseExpressions) > 0 || len(c.BlockedLicenseURLPatterns) > 0
}

// ConfigSource supplies the current policy configuration. It is consulted on
// every evaluation so configuration can be swapped between requests.
type ConfigSource interface {
	PolicyConfig() Config
}

// Static wraps a fixed Config as a ConfigSource.
type Static Config

func (s Static) PolicyConfig() Config { return Config(s) }

// LicenseSource resolves license provenance for a release. ok=false means
// the release is unknown upstream or the lookup failed; both fail open.
type LicenseSource interface {
	GetLicenseInfo(ctx context.Context, pkg core.PackageIdentity) (core.PackageLicenseInfo, bool)
}

// BlockDecision is the outcome of one evaluation. Reason is non-empty
// exactly when Blocked is true and is human-readable.
type BlockDecision struct {
	Blocked bool
	Reason  string
}

var allow = BlockDecision{}

// Engine evaluates releases against the configured license blocklists.
type Engine struct {
	config   ConfigSource
	licenses LicenseSource
	logger   hclog.Logger
}

// NewEngine creates a policy engine. A nil logger uses the default.
func NewEngine(config ConfigSource, licenses LicenseSource, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.Default().Named("policy")
	}
	return &Engine{
		config:   config,
		licenses: licenses,
		logger:   logger,
	}
}

// Evaluate decides whether the release may be served. Expression rules are
// checked before URL pattern rules and the first match wins; the ordering is
// fixed so decisions are reproducible. With no rules configured it returns
// immediately without an upstream call.
func (e *Engine) Evaluate(ctx context.Context, pkg core.PackageIdentity) BlockDecision {
	cfg := e.config.PolicyConfig()
	if !cfg.Enabled() {
		return allow
	}

	info, ok := e.licenses.GetLicenseInfo(ctx, pkg)
	if !ok {
		e.logger.Debug("license info unavailable, failing open",
			"package", pkg.ID, "version", versionString(pkg))
		return allow
	}

	if info.LicenseExpression != "" {
		for _, rule := range cfg.BlockedLicenseExpressions {
			if rule == "" {
				continue
			}
			// Substring containment so one entry covers a family of
			// license variants (AGPL-3.0 also blocks AGPL-3.0-only).
			if strings.Contains(strings.ToLower(info.LicenseExpression), strings.ToLower(rule)) {
				return BlockDecision{
					Blocked: true,
					Reason: fmt.Sprintf("package %s %s has license expression %q, which matches the blocked license %q",
						pkg.ID, versionString(pkg), info.LicenseExpression, rule),
				}
			}
		}
	}

	if info.LicenseURL != "" {
		for _, pattern := range cfg.BlockedLicenseURLPatterns {
			if matchesLicenseURL(info.LicenseURL, pattern) {
				return BlockDecision{
					Blocked: true,
					Reason: fmt.Sprintf("package %s %s has license URL %q, which matches the blocked pattern %q",
						pkg.ID, versionString(pkg), info.LicenseURL, pattern),
				}
			}
		}
	}

	return allow
}

func versionString(pkg core.PackageIdentity) string {
	if pkg.Version == nil {
		return ""
	}
	return pkg.Version.String()
}
