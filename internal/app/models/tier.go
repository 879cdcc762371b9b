package models

import "chartseed-service/internal/pkg/constvars"

type Tier int

const (
	TierArtifacts Tier = iota + 1
	TierClinical
	TierBilling
	TierEncounters
	TierPatient
	TierShared
)

// DefaultTier is assigned to resource types missing from TierTable so an
// unrecognized type never blocks a removal run.
const DefaultTier = TierClinical

// TierTable groups every resource type the remover understands by deletion
// tier. Tiers are processed in ascending order and, within a tier, types are
// removed in the listed order. Referencing resources always sit in a lower
// tier than their targets.
var TierTable = map[Tier][]string{
	TierArtifacts: {
		constvars.ResourceDiagnosticReport,
		constvars.ResourceDocumentRef,
		constvars.ResourceMedia,
		constvars.ResourceImagingStudy,
		constvars.ResourceBinary,
		constvars.ResourceSpecimen,
		constvars.ResourceProvenance,
		constvars.ResourceComposition,
	},
	TierClinical: {
		constvars.ResourceObservation,
		constvars.ResourceProcedure,
		constvars.ResourceCondition,
		constvars.ResourceAllergy,
		constvars.ResourceMedicationReq,
		constvars.ResourceMedicationStmt,
		constvars.ResourceMedicationAdmin,
		constvars.ResourceMedication,
		constvars.ResourceImmunization,
		constvars.ResourceCarePlan,
		constvars.ResourceCareTeam,
		constvars.ResourceGoal,
		constvars.ResourceServiceRequest,
		constvars.ResourceRelatedPerson,
		constvars.ResourceDevice,
	},
	TierBilling: {
		constvars.ResourceClaim,
		constvars.ResourceEOB,
		constvars.ResourceCoverage,
	},
	TierEncounters: {
		constvars.ResourceEncounter,
		constvars.ResourceEpisodeOfCare,
		constvars.ResourceAppointment,
	},
	TierPatient: {
		constvars.ResourcePatient,
	},
	TierShared: {
		constvars.ResourcePractitionerRole,
		constvars.ResourceLocation,
		constvars.ResourcePractitioner,
		constvars.ResourceOrganization,
	},
}

var tierByType = func() map[string]Tier {
	index := make(map[string]Tier)
	for tier, types := range TierTable {
		for _, resourceType := range types {
			index[resourceType] = tier
		}
	}
	return index
}()

// TierOf resolves the deletion tier of a resource type. The second return
// value is false when the type is absent from TierTable and the default tier
// was applied.
func TierOf(resourceType string) (Tier, bool) {
	tier, ok := tierByType[resourceType]
	if !ok {
		return DefaultTier, false
	}
	return tier, true
}

// DeletionOrder lists the tiers lowest-first, the order a removal run walks
// them.
func DeletionOrder() []Tier {
	return []Tier{TierArtifacts, TierClinical, TierBilling, TierEncounters, TierPatient, TierShared}
}

// TypesInTier returns a copy of the tier's type list in removal sub-order.
func TypesInTier(tier Tier) []string {
	types := TierTable[tier]
	out := make([]string, len(types))
	copy(out, types)
	return out
}
