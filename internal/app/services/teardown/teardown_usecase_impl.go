package teardown

import (
	"chartseed-service/internal/app/config"
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/dto/requests"
	"chartseed-service/internal/pkg/dto/responses"
	"chartseed-service/internal/pkg/exceptions"
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type teardownUsecase struct {
	BundleSource       contracts.BundleSource
	PatientFhirClient  contracts.PatientFhirClient
	ResourceFhirClient contracts.ResourceFhirClient
	MappingRepository  contracts.IdentifierMappingRepository
	RecordRepository   contracts.PatientRecordRepository
	EventPublisher     contracts.EventPublisher
	InternalConfig     *config.InternalConfig
	Limiter            *rate.Limiter
	Log                *zap.Logger
}

var (
	teardownUsecaseInstance contracts.TeardownUsecase
	onceTeardownUsecase     sync.Once
)

func NewTeardownUsecase(
	bundleSource contracts.BundleSource,
	patientFhirClient contracts.PatientFhirClient,
	resourceFhirClient contracts.ResourceFhirClient,
	mappingRepository contracts.IdentifierMappingRepository,
	recordRepository contracts.PatientRecordRepository,
	eventPublisher contracts.EventPublisher,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.TeardownUsecase {
	onceTeardownUsecase.Do(func() {
		teardownUsecaseInstance = &teardownUsecase{
			BundleSource:       bundleSource,
			PatientFhirClient:  patientFhirClient,
			ResourceFhirClient: resourceFhirClient,
			MappingRepository:  mappingRepository,
			RecordRepository:   recordRepository,
			EventPublisher:     eventPublisher,
			InternalConfig:     internalConfig,
			Limiter: rate.NewLimiter(
				rate.Limit(internalConfig.Pipeline.DeleteRatePerSecond),
				internalConfig.Pipeline.DeleteBurst,
			),
			Log: logger,
		}
	})
	return teardownUsecaseInstance
}

// RemovePatient discovers every store resource belonging to the patient and
// removes them tier by tier, artifacts first and the patient itself last.
// Individual resource failures never abort the run; they are recorded in the
// summary so the operator can re-run after fixing the cause.
func (uc *teardownUsecase) RemovePatient(ctx context.Context, request *requests.RemovePatient) (*responses.TeardownResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("teardownUsecase.RemovePatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, request.PatientID),
		zap.Bool("include_shared", request.IncludeShared),
	)

	practiceID := request.PracticeID
	if practiceID == "" {
		practiceID = uc.InternalConfig.Pipeline.PracticeID
	}
	if practiceID == "" {
		return nil, exceptions.ErrMissingConfiguration(nil, "practice id")
	}

	externalID := models.BuildExternalID(practiceID, constvars.ResourcePatient, request.PatientID)
	summary := models.TeardownSummary{
		ExternalID:      externalID,
		SharedRequested: request.IncludeShared,
	}

	patients, err := uc.PatientFhirClient.FindPatientByIdentifier(ctx, uc.InternalConfig.FHIR.IdentifierSystem, externalID)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		uc.Log.Info("teardownUsecase.RemovePatient no resources found",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, externalID),
		)
		return &responses.TeardownResult{PatientID: request.PatientID, Summary: summary}, nil
	}
	if len(patients) > 1 {
		uc.Log.Warn("teardownUsecase.RemovePatient multiple patients share the identifier, removing all",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, externalID),
			zap.Int(constvars.LoggingCountKey, len(patients)),
		)
	}

	closure := &models.DeletionClosure{ExternalID: externalID}
	seen := make(map[string]bool)
	for _, patient := range patients {
		for _, identity := range uc.collectClosure(ctx, patient.ID) {
			key := identity.Type + "/" + identity.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			// Shared infrastructure referenced from the compartment is
			// never removed in the per-patient phase.
			if tier, _ := models.TierOf(identity.Type); tier == models.TierShared {
				continue
			}
			closure.Resources = append(closure.Resources, identity)
		}
	}
	summary.Found = len(closure.Resources)

	partition := closure.Partition()
	for _, tier := range models.DeletionOrder() {
		if tier == models.TierShared {
			continue
		}
		for _, resource := range orderWithinTier(tier, partition[tier]) {
			item, rerr := uc.removeResource(ctx, resource, tier)
			if rerr != nil {
				return nil, rerr
			}
			summary.Record(item)
		}
	}

	uc.cleanupRows(ctx, externalID, &summary)

	if request.IncludeShared {
		if serr := uc.removeSharedResources(ctx, &summary); serr != nil {
			return nil, serr
		}
	}

	if summary.Found > 0 {
		if perr := uc.EventPublisher.PatientDecommissioned(ctx, externalID, summary.Deleted, summary.Failed); perr != nil {
			uc.Log.Warn("teardownUsecase.RemovePatient event publish failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingExternalIDKey, externalID),
				zap.Error(perr),
			)
		}
	}

	uc.Log.Info("teardownUsecase.RemovePatient succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, externalID),
		zap.Int("found", summary.Found),
		zap.Int("deleted", summary.Deleted),
		zap.Int("already_gone", summary.AlreadyGone),
		zap.Int("blocked", summary.Blocked),
		zap.Int("failed", summary.Failed),
	)
	return &responses.TeardownResult{PatientID: request.PatientID, Summary: summary}, nil
}

// collectClosure expands one patient's compartment. When $everything is
// unavailable the closure is rebuilt from per-type searches; search failures
// shrink the closure rather than abort the run.
func (uc *teardownUsecase) collectClosure(ctx context.Context, patientID string) []models.ResourceIdentity {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	identities, err := uc.PatientFhirClient.Everything(ctx, patientID)
	if err == nil {
		return identities
	}
	uc.Log.Warn("teardownUsecase.collectClosure compartment expansion failed, falling back to per-type searches",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, patientID),
		zap.Error(err),
	)

	collected := []models.ResourceIdentity{{Type: constvars.ResourcePatient, ID: patientID}}
	for _, tier := range models.DeletionOrder() {
		if tier == models.TierShared {
			continue
		}
		for _, resourceType := range models.TypesInTier(tier) {
			if resourceType == constvars.ResourcePatient {
				continue
			}
			envelopes, serr := uc.ResourceFhirClient.SearchByPatient(ctx, resourceType, patientID)
			if serr != nil {
				uc.Log.Warn("teardownUsecase.collectClosure per-type search failed",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingResourceTypeKey, resourceType),
					zap.Error(serr),
				)
				continue
			}
			for _, envelope := range envelopes {
				collected = append(collected, models.ResourceIdentity{Type: resourceType, ID: envelope.ID})
			}
		}
	}
	return collected
}

// removeResource runs the two-phase removal of a single resource. The
// returned error is non-nil only when the run context is done; every
// per-resource failure is folded into the item outcome.
func (uc *teardownUsecase) removeResource(ctx context.Context, resource models.ResourceIdentity, tier models.Tier) (models.TeardownItem, error) {
	item := models.TeardownItem{Resource: resource, Tier: tier}

	if err := uc.Limiter.Wait(ctx); err != nil {
		return item, limiterError(err)
	}
	err := uc.ResourceFhirClient.DeleteResource(ctx, resource.Type, resource.ID)
	switch {
	case err == nil:
	case exceptions.IsNotFound(err), exceptions.IsGone(err):
		item.Outcome = models.OutcomeAlreadyGone
		return item, nil
	case exceptions.IsConflict(err):
		item.Outcome = models.OutcomeBlocked
		item.Reason = reasonOf(err)
		return item, nil
	default:
		item.Outcome = models.OutcomeFailed
		item.Reason = reasonOf(err)
		return item, nil
	}

	if err := uc.Limiter.Wait(ctx); err != nil {
		return item, limiterError(err)
	}
	err = uc.ResourceFhirClient.ExpungeResource(ctx, resource.Type, resource.ID)
	switch {
	case err == nil:
		item.Outcome = models.OutcomeDeleted
	case exceptions.IsNotFound(err), exceptions.IsGone(err):
		item.Outcome = models.OutcomeAlreadyGone
	case exceptions.IsConflict(err):
		item.Outcome = models.OutcomeBlocked
		item.Reason = reasonOf(err)
	default:
		item.Outcome = models.OutcomeFailed
		item.Reason = reasonOf(err)
	}
	return item, nil
}

// cleanupRows removes the relational leftovers once the patient tier is done.
// Zero affected rows is the expected second-run outcome, not an error.
func (uc *teardownUsecase) cleanupRows(ctx context.Context, externalID string, summary *models.TeardownSummary) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	mappingRows, err := uc.MappingRepository.DeleteMapping(ctx, constvars.ResourcePatient, externalID)
	if err != nil {
		uc.Log.Warn("teardownUsecase.cleanupRows mapping delete failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, externalID),
			zap.Error(err),
		)
	} else {
		summary.MappingRows += mappingRows
	}

	recordRows, err := uc.RecordRepository.DeleteRecordByExternalID(ctx, externalID)
	if err != nil {
		uc.Log.Warn("teardownUsecase.cleanupRows record delete failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, externalID),
			zap.Error(err),
		)
	} else {
		summary.RecordRows += recordRows
	}
}

type mappingKey struct {
	resourceType string
	externalID   string
}

type sharedTarget struct {
	identity models.ResourceIdentity
	key      mappingKey
}

// removeSharedResources tears down the fixed shared set. Targets are resolved
// from the shared seed bundles by identifier search, removed role links
// first, and their mapping rows cleaned afterwards. A shared resource still
// referenced by another patient's record is reported blocked.
func (uc *teardownUsecase) removeSharedResources(ctx context.Context, summary *models.TeardownSummary) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	bundles, err := uc.BundleSource.SharedBundles(ctx)
	if err != nil {
		uc.Log.Warn("teardownUsecase.removeSharedResources shared bundles unavailable, skipping shared phase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil
	}

	var targets []sharedTarget
	var keys []mappingKey
	seenKeys := make(map[mappingKey]bool)
	for i := range bundles {
		for _, entry := range bundles[i].Entries {
			value := identifierValueOf(entry.Raw, uc.InternalConfig.FHIR.IdentifierSystem)
			if value == "" {
				uc.Log.Warn("teardownUsecase.removeSharedResources seed entry carries no external identifier",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingBundleKey, bundles[i].Name),
					zap.String(constvars.LoggingResourceTypeKey, entry.Record.Type),
				)
				continue
			}
			key := mappingKey{resourceType: entry.Record.Type, externalID: value}
			if !seenKeys[key] {
				seenKeys[key] = true
				keys = append(keys, key)
			}

			envelopes, serr := uc.ResourceFhirClient.FindByIdentifier(ctx, entry.Record.Type, uc.InternalConfig.FHIR.IdentifierSystem, value)
			if serr != nil {
				uc.Log.Warn("teardownUsecase.removeSharedResources identifier search failed",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingResourceTypeKey, entry.Record.Type),
					zap.Error(serr),
				)
				continue
			}
			for _, envelope := range envelopes {
				targets = append(targets, sharedTarget{
					identity: models.ResourceIdentity{Type: entry.Record.Type, ID: envelope.ID},
					key:      key,
				})
			}
		}
	}

	rank := make(map[string]int)
	for i, resourceType := range models.TypesInTier(models.TierShared) {
		rank[resourceType] = i
	}
	sort.SliceStable(targets, func(i, j int) bool {
		ri, iKnown := rank[targets[i].identity.Type]
		rj, jKnown := rank[targets[j].identity.Type]
		if iKnown != jKnown {
			return iKnown
		}
		return ri < rj
	})

	summary.Found += len(targets)
	for _, target := range targets {
		item, rerr := uc.removeResource(ctx, target.identity, models.TierShared)
		if rerr != nil {
			return rerr
		}
		summary.Record(item)
	}

	for _, key := range keys {
		rows, derr := uc.MappingRepository.DeleteMapping(ctx, key.resourceType, key.externalID)
		if derr != nil {
			uc.Log.Warn("teardownUsecase.removeSharedResources mapping delete failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingResourceTypeKey, key.resourceType),
				zap.String(constvars.LoggingExternalIDKey, key.externalID),
				zap.Error(derr),
			)
			continue
		}
		summary.MappingRows += rows
	}
	return nil
}

// orderWithinTier applies the tier's fixed type sub-order; types outside the
// tier table keep discovery order after the known ones.
func orderWithinTier(tier models.Tier, resources []models.ResourceIdentity) []models.ResourceIdentity {
	rank := make(map[string]int)
	for i, resourceType := range models.TypesInTier(tier) {
		rank[resourceType] = i
	}
	ordered := make([]models.ResourceIdentity, len(resources))
	copy(ordered, resources)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iKnown := rank[ordered[i].Type]
		rj, jKnown := rank[ordered[j].Type]
		if iKnown != jKnown {
			return iKnown
		}
		return ri < rj
	})
	return ordered
}

func identifierValueOf(raw []byte, system string) string {
	var resource struct {
		Identifier []struct {
			System string `json:"system"`
			Value  string `json:"value"`
		} `json:"identifier"`
	}
	if err := json.Unmarshal(raw, &resource); err != nil {
		return ""
	}
	for _, identifier := range resource.Identifier {
		if identifier.System == system {
			return identifier.Value
		}
	}
	return ""
}

func reasonOf(err error) string {
	var customErr *exceptions.CustomError
	if errors.As(err, &customErr) {
		return customErr.DevMessage
	}
	return err.Error()
}

func limiterError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return exceptions.ErrServerDeadlineExceeded(err)
	}
	return exceptions.ErrServerProcess(err)
}
