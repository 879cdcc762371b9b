package models

import "encoding/json"

type BundleScope string

const (
	BundleScopeShared  BundleScope = "shared"
	BundleScopePatient BundleScope = "patient"
)

// BundleEntry pairs a parsed resource record with the raw FHIR JSON that will
// be posted unmodified. Method, RequestURL and IfNoneExist preserve the seed
// object's transaction request line; the uploader falls back to a type-level
// POST when they are absent.
type BundleEntry struct {
	Record      ResourceRecord  `json:"record"`
	Raw         json.RawMessage `json:"raw"`
	Method      string          `json:"method,omitempty"`
	RequestURL  string          `json:"request_url,omitempty"`
	IfNoneExist string          `json:"if_none_exist,omitempty"`
}

// ResourceBundle is one seed object from the bundle source, already decoded
// and ordered the way it will be uploaded.
type ResourceBundle struct {
	Name    string        `json:"name"`
	Scope   BundleScope   `json:"scope"`
	Entries []BundleEntry `json:"entries"`
}

// Types lists the distinct resource types of the bundle in entry order.
func (b *ResourceBundle) Types() []string {
	seen := make(map[string]bool)
	var types []string
	for _, entry := range b.Entries {
		if !seen[entry.Record.Type] {
			seen[entry.Record.Type] = true
			types = append(types, entry.Record.Type)
		}
	}
	return types
}
