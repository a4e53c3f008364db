package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Block response headers and the label identifying license-policy denials.
const (
	HeaderBlockReason  = "X-Package-Block-Reason"
	HeaderBlockMessage = "X-Package-Block-Message"

	blockReasonLabel = "license-policy"
)

// BlockedError is the structured denial raised when the policy engine blocks
// a release. It is the only failure that crosses the serving boundary; every
// other upstream problem degrades to an ordinary not-found.
type BlockedError struct {
	PackageID      string
	PackageVersion string
	Reason         string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("package %s %s blocked: %s", e.PackageID, e.PackageVersion, e.Reason)
}

// blockedBody is the JSON body of the fixed 403 contract.
type blockedBody struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	PackageID      string `json:"packageId"`
	PackageVersion string `json:"packageVersion"`
	Reason         string `json:"reason"`
}

// writeBlocked translates a denial into the fixed HTTP contract shared by
// every entry point that serves package data: status 403, the two diagnostic
// headers, and the structured body.
func writeBlocked(w http.ResponseWriter, e *BlockedError) {
	w.Header().Set(HeaderBlockReason, blockReasonLabel)
	w.Header().Set(HeaderBlockMessage, e.Reason)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(blockedBody{
		Error:          "package_blocked",
		Message:        e.Reason,
		PackageID:      e.PackageID,
		PackageVersion: e.PackageVersion,
		Reason:         blockReasonLabel,
	})
}
