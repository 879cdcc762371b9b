package fhir_dto

type OperationOutcome struct {
	ResourceType string                  `json:"resourceType"`
	Issue        []OperationOutcomeIssue `json:"issue"`
}

type OperationOutcomeIssue struct {
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// FirstDiagnostics flattens the outcome into the most useful single line for
// error wrapping.
func (o *OperationOutcome) FirstDiagnostics() string {
	for _, issue := range o.Issue {
		if issue.Diagnostics != "" {
			return issue.Diagnostics
		}
	}
	return ""
}
