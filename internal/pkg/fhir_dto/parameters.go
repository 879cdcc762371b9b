package fhir_dto

type Parameters struct {
	ResourceType string      `json:"resourceType"`
	Parameter    []Parameter `json:"parameter,omitempty"`
}

type Parameter struct {
	Name         string `json:"name"`
	ValueInteger *int   `json:"valueInteger,omitempty"`
	ValueBoolean *bool  `json:"valueBoolean,omitempty"`
	ValueString  string `json:"valueString,omitempty"`
}

// NewExpungeParameters builds the body for a hard-delete operation call.
func NewExpungeParameters(limit int) Parameters {
	deleted := true
	previous := true
	return Parameters{
		ResourceType: "Parameters",
		Parameter: []Parameter{
			{Name: "limit", ValueInteger: &limit},
			{Name: "expungeDeletedResources", ValueBoolean: &deleted},
			{Name: "expungePreviousVersions", ValueBoolean: &previous},
		},
	}
}
