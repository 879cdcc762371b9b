package models

import (
	"chartseed-service/internal/pkg/constvars"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierOf(t *testing.T) {
	t.Run("Known Types", func(t *testing.T) {
		tier, known := TierOf(constvars.ResourceDiagnosticReport)
		assert.True(t, known)
		assert.Equal(t, TierArtifacts, tier)

		tier, known = TierOf(constvars.ResourceObservation)
		assert.True(t, known)
		assert.Equal(t, TierClinical, tier)

		tier, known = TierOf(constvars.ResourcePatient)
		assert.True(t, known)
		assert.Equal(t, TierPatient, tier)

		tier, known = TierOf(constvars.ResourceOrganization)
		assert.True(t, known)
		assert.Equal(t, TierShared, tier)
	})

	t.Run("Unknown Type Defaults To Clinical", func(t *testing.T) {
		tier, known := TierOf("Basic")
		assert.False(t, known)
		assert.Equal(t, DefaultTier, tier)
	})
}

func TestReferencingTypesSitBelowTheirTargets(t *testing.T) {
	pairs := [][2]string{
		{constvars.ResourceDiagnosticReport, constvars.ResourceObservation},
		{constvars.ResourceObservation, constvars.ResourceEncounter},
		{constvars.ResourceClaim, constvars.ResourceEncounter},
		{constvars.ResourceEncounter, constvars.ResourcePatient},
		{constvars.ResourcePatient, constvars.ResourcePractitioner},
		{constvars.ResourcePatient, constvars.ResourceOrganization},
	}
	for _, pair := range pairs {
		referencing, _ := TierOf(pair[0])
		target, _ := TierOf(pair[1])
		assert.Less(t, int(referencing), int(target), "%s must be removed before %s", pair[0], pair[1])
	}
}

func TestDeletionOrder(t *testing.T) {
	order := DeletionOrder()
	assert.Equal(t, []Tier{TierArtifacts, TierClinical, TierBilling, TierEncounters, TierPatient, TierShared}, order)
}

func TestSharedTierSubOrder(t *testing.T) {
	expected := []string{
		constvars.ResourcePractitionerRole,
		constvars.ResourceLocation,
		constvars.ResourcePractitioner,
		constvars.ResourceOrganization,
	}
	assert.Equal(t, expected, TypesInTier(TierShared))
}

func TestPatientTierIsSingleton(t *testing.T) {
	assert.Equal(t, []string{constvars.ResourcePatient}, TypesInTier(TierPatient))
}

func TestTypesInTierReturnsCopy(t *testing.T) {
	types := TypesInTier(TierBilling)
	types[0] = "mutated"
	assert.Equal(t, constvars.ResourceClaim, TierTable[TierBilling][0])
}
