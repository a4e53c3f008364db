package core

import (
	packageurl "github.com/package-url/packageurl-go"
)

// PURL returns the package-url identifier for the release, e.g.
// pkg:nuget/Newtonsoft.Json@13.0.3. Used for log and audit context.
func (p PackageIdentity) PURL() string {
	version := ""
	if p.Version != nil {
		version = p.Version.String()
	}
	purl := packageurl.NewPackageURL(packageurl.TypeNuget, "", p.ID, version, nil, "")
	return purl.ToString()
}
