package models

// ResourceRecord describes one entry of a seed bundle through its lifetime.
// RemoteID stays empty until the uploader captures the server-assigned id.
type ResourceRecord struct {
	Type     string   `json:"type"`
	LocalRef string   `json:"local_ref"`
	RemoteID string   `json:"remote_id,omitempty"`
	Refs     []string `json:"refs,omitempty"`
}

// ResourceIdentity names one resource inside the clinical-resource store.
type ResourceIdentity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type IDSource string

const (
	IDSourceLocation IDSource = "location"
	IDSourceResource IDSource = "resource"
	IDSourceBundle   IDSource = "bundle"
)

// ExtractedID is a server-assigned id together with the response field it was
// recovered from.
type ExtractedID struct {
	Type   string   `json:"type"`
	ID     string   `json:"id"`
	Source IDSource `json:"source"`
}

// RemoteIDSet accumulates server-assigned ids per resource type over a single
// provisioning run. It is never persisted; the one durable mapping row is
// written from it in the mapping step.
type RemoteIDSet map[string][]string

func NewRemoteIDSet() RemoteIDSet {
	return make(RemoteIDSet)
}

func (s RemoteIDSet) Add(resourceType, id string) {
	s[resourceType] = append(s[resourceType], id)
}

// First returns the earliest captured id of the type, usually the only one
// for singleton types such as Patient.
func (s RemoteIDSet) First(resourceType string) (string, bool) {
	ids := s[resourceType]
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

func (s RemoteIDSet) Len() int {
	total := 0
	for _, ids := range s {
		total += len(ids)
	}
	return total
}
