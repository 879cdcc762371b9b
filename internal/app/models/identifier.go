package models

import (
	"chartseed-service/internal/pkg/constvars"
	"fmt"
)

// ExternalIDPrefixes holds the per-type segment of the composite external id
// `<practice>.<prefix>-<resource id>`. The values are the wire format the
// downstream tagging and indexing services expect.
var ExternalIDPrefixes = map[string]string{
	constvars.ResourcePatient:          "E",
	constvars.ResourceEncounter:        "encounter",
	constvars.ResourceCondition:        "Problem",
	constvars.ResourceObservation:      "resultamb",
	constvars.ResourceDiagnosticReport: "clinicalresult",
	constvars.ResourceMedicationReq:    "medicationrequest",
	constvars.ResourceProcedure:        "shb.7126",
	constvars.ResourceDocumentRef:      "document",
	constvars.ResourceImmunization:     "immunization",
	constvars.ResourceCarePlan:         "careplan",
	constvars.ResourceGoal:             "goal",
	constvars.ResourceAllergy:          "allergy",
	constvars.ResourceBinary:           "binary",
	constvars.ResourceMedia:            "media",
	constvars.ResourceImagingStudy:     "imagingstudy",
	constvars.ResourceClaim:            "claim",
	constvars.ResourceEOB:              "eob",
	constvars.ResourceProvenance:       "provenance",
	constvars.ResourceComposition:      "composition",
	constvars.ResourceCareTeam:         "careteam",
	constvars.ResourceMedication:       "medication",
	constvars.ResourceMedicationAdmin:  "medicationadministration",
	constvars.ResourceMedicationStmt:   "medicationstatement",
	constvars.ResourcePractitionerRole: "practitionerrole",
}

// UnknownExternalIDPrefix mirrors what the seed converter emits for types it
// has no assignment for, keeping lookups symmetric with the stored data.
const UnknownExternalIDPrefix = "unknown"

func ExternalIDPrefixOf(resourceType string) string {
	prefix, ok := ExternalIDPrefixes[resourceType]
	if !ok {
		return UnknownExternalIDPrefix
	}
	return prefix
}

// BuildEntityPrefix composes the per-resource half of the external id, e.g.
// "E-t1000000" for a Patient.
func BuildEntityPrefix(resourceType, resourceID string) string {
	return fmt.Sprintf("%s-%s", ExternalIDPrefixOf(resourceType), resourceID)
}

// BuildExternalID composes the full external id, e.g. "a-16349.E-t1000000".
func BuildExternalID(practiceID, resourceType, resourceID string) string {
	return practiceID + constvars.ExternalIDSeparator + BuildEntityPrefix(resourceType, resourceID)
}
