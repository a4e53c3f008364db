// Package catalog resolves catalog leaf documents from an upstream feed.
//
// A catalog leaf URL embeds the catalog root in its path, e.g.
// https://api.example.org/v3/catalog0/data/2020.10.01/pkg.2.0.0.json; the
// catalog index lives at .../catalog0/index.json. Leaf lookups are
// best-effort enrichment: the only payload taken from a leaf is its license
// expression.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkgmirror/pkgmirror/client"
)

// catalogSegmentPrefix marks the path segment that roots the catalog
// sub-resource, matched case-insensitively.
const catalogSegmentPrefix = "catalog"

// DeriveIndexURL derives the catalog index URL from a catalog leaf URL by
// locating the last path segment starting with "catalog" and rewriting the
// path to end at <segment>/index.json. It returns ok=false when the URL has
// no such segment; it never guesses a URL.
func DeriveIndexURL(leafURL string) (string, bool) {
	parsed, err := url.Parse(leafURL)
	if err != nil || parsed.Host == "" {
		return "", false
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	last := -1
	for i, seg := range segments {
		if strings.HasPrefix(strings.ToLower(seg), catalogSegmentPrefix) {
			last = i
		}
	}
	if last < 0 {
		return "", false
	}

	parsed.Path = "/" + strings.Join(segments[:last+1], "/") + "/index.json"
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), true
}

// leafDocument is the subset of a catalog leaf this package reads.
type leafDocument struct {
	LicenseExpression string `json:"licenseExpression"`
}

// Client fetches catalog leaf documents.
type Client struct {
	http *client.Client
}

// NewClient creates a catalog client. A nil http client uses the default.
func NewClient(http *client.Client) *Client {
	if http == nil {
		http = client.DefaultClient()
	}
	return &Client{http: http}
}

// LeafLicenseExpression fetches the catalog leaf at leafURL and returns its
// license expression, which may be empty. The leaf is only fetched when the
// URL resolves to a catalog index; an unresolvable URL is an error so the
// caller can log it, but callers treat every error here as "no expression".
func (c *Client) LeafLicenseExpression(ctx context.Context, leafURL string) (string, error) {
	if _, ok := DeriveIndexURL(leafURL); !ok {
		return "", fmt.Errorf("no catalog segment in leaf URL %s", leafURL)
	}

	var leaf leafDocument
	if err := c.http.GetJSON(ctx, leafURL, &leaf); err != nil {
		return "", fmt.Errorf("fetching catalog leaf: %w", err)
	}
	return leaf.LicenseExpression, nil
}
