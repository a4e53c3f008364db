package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDeriveIndexURL(t *testing.T) {
	tests := []struct {
		name string
		leaf string
		want string
		ok   bool
	}{
		{
			name: "standard leaf",
			leaf: "https://api.example.org/v3/catalog0/data/2020.10.01.00.00.00/sample.pkg.2.0.0.json",
			want: "https://api.example.org/v3/catalog0/index.json",
			ok:   true,
		},
		{
			name: "case-insensitive segment",
			leaf: "https://api.example.org/v3/Catalog0/data/x.json",
			want: "https://api.example.org/v3/Catalog0/index.json",
			ok:   true,
		},
		{
			name: "last catalog segment wins",
			leaf: "https://api.example.org/catalog-old/v3/catalog0/data/x.json",
			want: "https://api.example.org/catalog-old/v3/catalog0/index.json",
			ok:   true,
		},
		{
			name: "no catalog segment",
			leaf: "https://api.example.org/v3/registration/sample.pkg/2.0.0.json",
			ok:   false,
		},
		{
			name: "not a URL",
			leaf: "::not-a-url::",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DeriveIndexURL(tt.leaf)
			if ok != tt.ok {
				t.Fatalf("DeriveIndexURL(%q) ok = %v, want %v", tt.leaf, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("DeriveIndexURL(%q) = %q, want %q", tt.leaf, got, tt.want)
			}
		})
	}
}

func TestLeafLicenseExpression(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/catalog0/data/sample.pkg.2.0.0.json" {
			w.WriteHeader(404)
			return
		}
		_, _ = w.Write([]byte(`{"licenseExpression": "AGPL-3.0-only"}`))
	}))
	defer server.Close()

	c := NewClient(nil)
	expr, err := c.LeafLicenseExpression(context.Background(), server.URL+"/v3/catalog0/data/sample.pkg.2.0.0.json")
	if err != nil {
		t.Fatalf("LeafLicenseExpression failed: %v", err)
	}
	if expr != "AGPL-3.0-only" {
		t.Errorf("expression = %q", expr)
	}
}

func TestLeafLicenseExpression_UnresolvableURL(t *testing.T) {
	c := NewClient(nil)
	_, err := c.LeafLicenseExpression(context.Background(), "https://api.example.org/v3/data/x.json")
	if err == nil {
		t.Fatal("expected error for URL without catalog segment")
	}
}

func TestLeafLicenseExpression_FetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer server.Close()

	c := NewClient(nil)
	_, err := c.LeafLicenseExpression(context.Background(), server.URL+"/catalog0/data/x.json")
	if err == nil {
		t.Fatal("expected error for missing leaf")
	}
}
