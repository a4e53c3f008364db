// Package serve exposes the mirror over HTTP and applies the license policy
// before any package content, manifest, or registration metadata leaves the
// process. Version listing is served without a policy check since no
// protected content is transmitted.
package serve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/pkgmirror/pkgmirror/internal/core"
	"github.com/pkgmirror/pkgmirror/mirror"
	"github.com/pkgmirror/pkgmirror/policy"
)

// PackageIndex answers whether a release is known before mirror and policy
// logic run. *mirror.Mirror satisfies it with an upstream-backed lookup;
// deployments with a local database can substitute their own.
type PackageIndex interface {
	Exists(ctx context.Context, pkg core.PackageIdentity) bool
}

// Server wires the mirror client and policy engine into HTTP handlers.
type Server struct {
	mirror *mirror.Mirror
	engine *policy.Engine
	index  PackageIndex
	logger hclog.Logger
}

// New creates a server. A nil index defaults to the mirror's upstream-backed
// existence lookup; a nil logger uses the default.
func New(m *mirror.Mirror, engine *policy.Engine, index PackageIndex, logger hclog.Logger) *Server {
	if index == nil {
		index = m
	}
	if logger == nil {
		logger = hclog.Default().Named("serve")
	}
	return &Server{
		mirror: m,
		engine: engine,
		index:  index,
		logger: logger,
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v3/package/{id}/index.json", s.handleVersions)
	mux.HandleFunc("GET /v3/package/{id}/{version}/content", s.handleContent)
	mux.HandleFunc("GET /v3/package/{id}/{version}/manifest", s.handleManifest)
	mux.HandleFunc("GET /v3/registration/{id}/{version}", s.handleRegistrationLeaf)
	return mux
}

// handleVersions lists all known versions for a package id. No block check:
// the version list carries no protected content.
func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	versions := s.mirror.ListVersions(r.Context(), id)
	if len(versions) == 0 {
		writeNotFound(w)
		return
	}

	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.String()
	}
	writeJSON(w, map[string][]string{"versions": out})
}

// handleContent serves the package content bytes.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	s.servePackageBytes(w, r, s.mirror.DownloadContent, "application/octet-stream")
}

// handleManifest serves the package manifest.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	s.servePackageBytes(w, r, s.mirror.DownloadManifest, "text/xml")
}

func (s *Server) servePackageBytes(
	w http.ResponseWriter,
	r *http.Request,
	download func(context.Context, core.PackageIdentity) (*mirror.Download, bool),
	contentType string,
) {
	pkg, ok := s.resolvePackage(w, r)
	if !ok {
		return
	}

	if blocked := s.checkBlocked(r.Context(), pkg); blocked != nil {
		writeBlocked(w, blocked)
		return
	}

	handle, ok := download(r.Context(), pkg)
	if !ok {
		writeNotFound(w)
		return
	}
	defer func() { _ = handle.Close() }()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(handle.Size(), 10))
	if _, err := io.Copy(w, handle); err != nil {
		s.logger.Debug("streaming response aborted", "package", pkg.ID, "error", err)
	}
}

// handleRegistrationLeaf serves the normalized metadata record for one
// release.
func (s *Server) handleRegistrationLeaf(w http.ResponseWriter, r *http.Request) {
	pkg, ok := s.resolvePackage(w, r)
	if !ok {
		return
	}

	if blocked := s.checkBlocked(r.Context(), pkg); blocked != nil {
		writeBlocked(w, blocked)
		return
	}

	for _, record := range s.mirror.ListMetadata(r.Context(), pkg.ID) {
		candidate := core.PackageIdentity{ID: record.ID, Version: record.Version}
		if candidate.Equal(pkg) {
			writeJSON(w, newRegistrationLeaf(record))
			return
		}
	}
	writeNotFound(w)
}

// resolvePackage parses the identity from the route and checks existence.
func (s *Server) resolvePackage(w http.ResponseWriter, r *http.Request) (core.PackageIdentity, bool) {
	pkg, err := core.NewPackageIdentity(r.PathValue("id"), r.PathValue("version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_package", err.Error())
		return core.PackageIdentity{}, false
	}
	if !s.index.Exists(r.Context(), pkg) {
		writeNotFound(w)
		return core.PackageIdentity{}, false
	}
	return pkg, true
}

// checkBlocked consults the policy engine and converts a block decision into
// the denial signal the entry points translate uniformly.
func (s *Server) checkBlocked(ctx context.Context, pkg core.PackageIdentity) *BlockedError {
	decision := s.engine.Evaluate(ctx, pkg)
	if !decision.Blocked {
		return nil
	}
	s.logger.Warn("blocked by license policy",
		"package", pkg.ID, "version", pkg.Version.String(), "reason", decision.Reason)
	return &BlockedError{
		PackageID:      pkg.ID,
		PackageVersion: pkg.Version.String(),
		Reason:         decision.Reason,
	}
}

// registrationLeaf is the JSON shape of a served metadata record.
type registrationLeaf struct {
	ID                       string                 `json:"id"`
	Version                  string                 `json:"version"`
	Authors                  []string               `json:"authors"`
	Description              string                 `json:"description,omitempty"`
	Language                 string                 `json:"language,omitempty"`
	Listed                   bool                   `json:"listed"`
	MinClientVersion         string                 `json:"minClientVersion,omitempty"`
	Published                time.Time              `json:"published"`
	RequireLicenseAcceptance bool                   `json:"requireLicenseAcceptance"`
	Summary                  string                 `json:"summary,omitempty"`
	Title                    string                 `json:"title,omitempty"`
	LicenseURL               string                 `json:"licenseUrl,omitempty"`
	IconURL                  string                 `json:"iconUrl,omitempty"`
	ProjectURL               string                 `json:"projectUrl,omitempty"`
	Tags                     []string               `json:"tags,omitempty"`
	IsSemVer2                bool                   `json:"isSemVer2"`
	Downloads                int64                  `json:"downloads"`
	HasReadme                bool                   `json:"hasReadme"`
	DependencyGroups         []registrationDepGroup `json:"dependencyGroups"`
}

type registrationDepGroup struct {
	TargetFramework string            `json:"targetFramework,omitempty"`
	Dependencies    []registrationDep `json:"dependencies"`
}

type registrationDep struct {
	ID    *string `json:"id"`
	Range *string `json:"range"`
}

func newRegistrationLeaf(record core.PackageMetadataRecord) registrationLeaf {
	groups := make([]registrationDepGroup, 0, len(record.DependencyGroups))
	for _, g := range record.DependencyGroups {
		deps := make([]registrationDep, 0, len(g.Dependencies))
		for _, d := range g.Dependencies {
			if d.IsPlaceholder() {
				// Serialized as nulls so consumers can tell "no
				// dependencies" from "unknown dependency".
				deps = append(deps, registrationDep{})
				continue
			}
			id, rng := d.ID, d.Range
			deps = append(deps, registrationDep{ID: &id, Range: &rng})
		}
		groups = append(groups, registrationDepGroup{
			TargetFramework: g.TargetFramework,
			Dependencies:    deps,
		})
	}

	return registrationLeaf{
		ID:                       record.ID,
		Version:                  record.Version.String(),
		Authors:                  record.Authors,
		Description:              record.Description,
		Language:                 record.Language,
		Listed:                   record.Listed,
		MinClientVersion:         record.MinClientVersion,
		Published:                record.Published,
		RequireLicenseAcceptance: record.RequireLicenseAcceptance,
		Summary:                  record.Summary,
		Title:                    record.Title,
		LicenseURL:               record.LicenseURL,
		IconURL:                  record.IconURL,
		ProjectURL:               record.ProjectURL,
		Tags:                     record.Tags,
		IsSemVer2:                record.IsSemVer2(),
		Downloads:                record.Downloads,
		HasReadme:                record.HasReadme,
		DependencyGroups:         groups,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not_found", "package not found")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
