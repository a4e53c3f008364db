package feed

// JSON shapes of the upstream feed resources. Only the fields this mirror
// reads are declared.

// versionIndex is the flat-container version list for one package id. It
// includes unlisted versions.
type versionIndex struct {
	Versions []string `json:"versions"`
}

// registrationIndex is the root metadata document for one package id.
type registrationIndex struct {
	Count int                `json:"count"`
	Items []registrationPage `json:"items"`
}

// registrationPage groups a version range of registration leaves. Pages may
// inline their leaves or only carry a URL to the page document.
type registrationPage struct {
	URL   string             `json:"@id"`
	Count int                `json:"count"`
	Lower string             `json:"lower"`
	Upper string             `json:"upper"`
	Items []registrationLeaf `json:"items"`
}

// registrationLeaf describes one package version.
type registrationLeaf struct {
	URL            string       `json:"@id"`
	CatalogEntry   catalogEntry `json:"catalogEntry"`
	PackageContent string       `json:"packageContent"`
}

// catalogEntry is the metadata record embedded in a registration leaf. Its
// @id is the catalog leaf URL when the feed exposes a catalog.
type catalogEntry struct {
	CatalogLeafURL           string            `json:"@id"`
	ID                       string            `json:"id"`
	Version                  string            `json:"version"`
	Authors                  string            `json:"authors"`
	Description              string            `json:"description"`
	IconURL                  string            `json:"iconUrl"`
	Language                 string            `json:"language"`
	LicenseURL               string            `json:"licenseUrl"`
	LicenseExpression        string            `json:"licenseExpression"`
	Listed                   *bool             `json:"listed"`
	MinClientVersion         string            `json:"minClientVersion"`
	ProjectURL               string            `json:"projectUrl"`
	Published                string            `json:"published"`
	RequireLicenseAcceptance bool              `json:"requireLicenseAcceptance"`
	Summary                  string            `json:"summary"`
	Title                    string            `json:"title"`
	Tags                     interface{}       `json:"tags"`
	DependencyGroups         []dependencyGroup `json:"dependencyGroups"`
}

type dependencyGroup struct {
	TargetFramework string       `json:"targetFramework"`
	Dependencies    []dependency `json:"dependencies"`
}

type dependency struct {
	ID    string `json:"id"`
	Range string `json:"range"`
}
