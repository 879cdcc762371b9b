package constvars

const (
	ResourcePatient          = "Patient"
	ResourceEncounter        = "Encounter"
	ResourceEpisodeOfCare    = "EpisodeOfCare"
	ResourceAppointment      = "Appointment"
	ResourceObservation      = "Observation"
	ResourceProcedure        = "Procedure"
	ResourceCondition        = "Condition"
	ResourceAllergy          = "AllergyIntolerance"
	ResourceMedication       = "Medication"
	ResourceMedicationReq    = "MedicationRequest"
	ResourceMedicationStmt   = "MedicationStatement"
	ResourceMedicationAdmin  = "MedicationAdministration"
	ResourceImmunization     = "Immunization"
	ResourceCarePlan         = "CarePlan"
	ResourceCareTeam         = "CareTeam"
	ResourceGoal             = "Goal"
	ResourceServiceRequest   = "ServiceRequest"
	ResourceRelatedPerson    = "RelatedPerson"
	ResourceDevice           = "Device"
	ResourceDiagnosticReport = "DiagnosticReport"
	ResourceDocumentRef      = "DocumentReference"
	ResourceMedia            = "Media"
	ResourceImagingStudy     = "ImagingStudy"
	ResourceBinary           = "Binary"
	ResourceSpecimen         = "Specimen"
	ResourceProvenance       = "Provenance"
	ResourceComposition      = "Composition"
	ResourceClaim            = "Claim"
	ResourceEOB              = "ExplanationOfBenefit"
	ResourceCoverage         = "Coverage"
	ResourcePractitioner     = "Practitioner"
	ResourcePractitionerRole = "PractitionerRole"
	ResourceOrganization     = "Organization"
	ResourceLocation         = "Location"
	ResourceBundle           = "Bundle"
	ResourceParameters       = "Parameters"
	ResourceOperationOutcome = "OperationOutcome"
)

const (
	BundleTypeTransaction         = "transaction"
	BundleTypeTransactionResponse = "transaction-response"
	BundleTypeSearchset           = "searchset"
)

const (
	FhirOperationEverything = "$everything"
	FhirOperationExpunge    = "$expunge"
)

const (
	FhirQueryParamIdentifier = "identifier"
	FhirQueryParamCount      = "_count"
	FhirQueryParamPatient    = "patient"
	FhirQueryParamSubject    = "subject"
)

const (
	FhirLinkRelationNext = "next"
)

// FhirLocalReferencePrefix marks in-bundle references that resolve against
// another entry's fullUrl rather than a stored resource.
const FhirLocalReferencePrefix = "urn:uuid:"

const (
	FhirExpungeParamLimit          = "limit"
	FhirExpungeParamExpungeDeleted = "expungeDeletedResources"
	FhirExpungeParamExpungeOld     = "expungePreviousVersions"
	FhirExpungeDefaultLimit        = 1000
)
