package provisioning

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
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type provisioningUsecase struct {
	BundleSource      contracts.BundleSource
	Uploader          *resourceGraphUploader
	PatientFhirClient contracts.PatientFhirClient
	MappingRepository contracts.IdentifierMappingRepository
	RecordRepository  contracts.PatientRecordRepository
	AggregatorClient  contracts.AggregatorClient
	SearchClient      contracts.SearchClient
	EventPublisher    contracts.EventPublisher
	InternalConfig    *config.InternalConfig
	Log               *zap.Logger
}

var (
	provisioningUsecaseInstance contracts.ProvisioningUsecase
	onceProvisioningUsecase     sync.Once
)

func NewProvisioningUsecase(
	bundleSource contracts.BundleSource,
	bundleFhirClient contracts.BundleFhirClient,
	patientFhirClient contracts.PatientFhirClient,
	mappingRepository contracts.IdentifierMappingRepository,
	recordRepository contracts.PatientRecordRepository,
	aggregatorClient contracts.AggregatorClient,
	searchClient contracts.SearchClient,
	eventPublisher contracts.EventPublisher,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.ProvisioningUsecase {
	onceProvisioningUsecase.Do(func() {
		instance := &provisioningUsecase{
			BundleSource: bundleSource,
			Uploader: &resourceGraphUploader{
				BundleClient:            bundleFhirClient,
				IdentifierSystem:        internalConfig.FHIR.IdentifierSystem,
				PatientIdentifierSystem: internalConfig.FHIR.PatientIdentifierSystem,
				Log:                     logger,
			},
			PatientFhirClient: patientFhirClient,
			MappingRepository: mappingRepository,
			RecordRepository:  recordRepository,
			AggregatorClient:  aggregatorClient,
			SearchClient:      searchClient,
			EventPublisher:    eventPublisher,
			InternalConfig:    internalConfig,
			Log:               logger,
		}
		provisioningUsecaseInstance = instance
	})
	return provisioningUsecaseInstance
}

// ProvisionPatient runs pipeline steps startStep..6. Steps 1-3 define
// correctness and abort the run on failure; steps 4-6 are best-effort and
// degrade to warnings in the report.
func (uc *provisioningUsecase) ProvisionPatient(ctx context.Context, request *requests.ProvisionPatient) (*responses.ProvisionResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("provisioningUsecase.ProvisionPatient called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPatientIDKey, request.PatientID),
		zap.Int(constvars.LoggingStepKey, request.StartStep),
	)

	practiceID := request.PracticeID
	if practiceID == "" {
		practiceID = uc.InternalConfig.Pipeline.PracticeID
	}
	if practiceID == "" {
		return nil, exceptions.ErrMissingConfiguration(nil, "practice id")
	}

	startStep := request.StartStepOrDefault()
	if startStep < constvars.StepMin || startStep > constvars.StepMax {
		return nil, exceptions.ErrStartStepOutOfRange(fmt.Errorf("start step %d", startStep))
	}

	run := &models.PipelineRun{
		PracticeID: practiceID,
		PatientID:  request.PatientID,
		ExternalID: models.BuildExternalID(practiceID, constvars.ResourcePatient, request.PatientID),
		StartStep:  startStep,
		RemoteIDs:  models.NewRemoteIDSet(),
		StartedAt:  time.Now().UTC(),
	}

	// The resume point must have its prerequisites satisfied in the live
	// stores, never merely assumed from an earlier run's report.
	patientStoreID, err := uc.verifyPrerequisites(ctx, run)
	if err != nil {
		return nil, err
	}

	result := &responses.ProvisionResult{
		PatientID:  request.PatientID,
		ExternalID: run.ExternalID,
		StartStep:  startStep,
	}
	for step := constvars.StepMin; step < startStep; step++ {
		result.Steps = append(result.Steps, models.StepResult{
			Step:   step,
			Name:   models.StepName(step),
			Status: models.StepStatusSkipped,
			Detail: "verified complete before resume",
		})
	}

	if startStep <= constvars.StepUploadBundles {
		uploaded, caveat, err := uc.uploadBundles(ctx, run)
		if err != nil {
			return nil, stepFailure(constvars.StepUploadBundles, err)
		}
		result.Caveat = caveat
		result.Steps = append(result.Steps, models.StepResult{
			Step:     constvars.StepUploadBundles,
			Name:     models.StepName(constvars.StepUploadBundles),
			Status:   models.StepStatusDone,
			Detail:   fmt.Sprintf("uploaded %d resources", uploaded),
			Uploaded: uploaded,
		})
		if id, ok := run.RemoteIDs.First(constvars.ResourcePatient); ok {
			patientStoreID = id
		}
	}

	if startStep <= constvars.StepRegisterRecord {
		if err := uc.registerRecord(ctx, run); err != nil {
			return nil, stepFailure(constvars.StepRegisterRecord, err)
		}
		result.Steps = append(result.Steps, models.StepResult{
			Step:   constvars.StepRegisterRecord,
			Name:   models.StepName(constvars.StepRegisterRecord),
			Status: models.StepStatusDone,
		})
	}

	if startStep <= constvars.StepBuildMapping {
		if err := uc.buildMapping(ctx, run, patientStoreID); err != nil {
			return nil, stepFailure(constvars.StepBuildMapping, err)
		}
		result.Steps = append(result.Steps, models.StepResult{
			Step:   constvars.StepBuildMapping,
			Name:   models.StepName(constvars.StepBuildMapping),
			Status: models.StepStatusDone,
			Detail: fmt.Sprintf("%s -> %s", run.ExternalID, patientStoreID),
		})
	}

	if startStep <= constvars.StepReloadCache {
		result.Steps = append(result.Steps, uc.bestEffortStep(ctx, constvars.StepReloadCache, func() error {
			return uc.AggregatorClient.ReloadMappingCache(ctx)
		}))
	}

	if startStep <= constvars.StepTagResources {
		result.Steps = append(result.Steps, uc.bestEffortStep(ctx, constvars.StepTagResources, func() error {
			return uc.SearchClient.TagPatientResources(ctx, run.ExternalID)
		}))
	}

	result.Steps = append(result.Steps, uc.bestEffortStep(ctx, constvars.StepIndexRecord, func() error {
		return uc.SearchClient.IndexPatientRecord(ctx, run.ExternalID)
	}))

	if err := uc.EventPublisher.PatientProvisioned(ctx, run.ExternalID, run.PatientID); err != nil {
		uc.Log.Warn("provisioningUsecase.ProvisionPatient event publish failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, run.ExternalID),
			zap.Error(err),
		)
	}

	uc.Log.Info("provisioningUsecase.ProvisionPatient succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingExternalIDKey, run.ExternalID),
		zap.Int(constvars.LoggingCountKey, run.RemoteIDs.Len()),
	)
	return result, nil
}

// verifyPrerequisites checks, against the live stores, that every step before
// the requested start step actually completed. It returns the patient's store
// id when the start step implies the patient already exists.
func (uc *provisioningUsecase) verifyPrerequisites(ctx context.Context, run *models.PipelineRun) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	var patientStoreID string

	if run.StartStep >= constvars.StepRegisterRecord {
		patients, err := uc.PatientFhirClient.FindPatientByIdentifier(ctx, uc.InternalConfig.FHIR.IdentifierSystem, run.ExternalID)
		if err != nil {
			return "", err
		}
		if len(patients) == 0 {
			return "", exceptions.ErrPrereqPatientMissing(nil, run.PatientID)
		}
		if len(patients) > 1 {
			uc.Log.Warn("provisioningUsecase.verifyPrerequisites multiple patients share the identifier",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingExternalIDKey, run.ExternalID),
				zap.Int(constvars.LoggingCountKey, len(patients)),
			)
		}
		patientStoreID = patients[0].ID
	}

	if run.StartStep >= constvars.StepBuildMapping {
		exists, err := uc.RecordRepository.RecordExists(ctx, run.ExternalID)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", exceptions.ErrPrereqRecordMissing(nil, run.PatientID)
		}
	}

	if run.StartStep >= constvars.StepTagResources {
		exists, err := uc.MappingRepository.MappingExists(ctx, constvars.ResourcePatient, run.ExternalID)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", exceptions.ErrPrereqMappingMissing(nil, run.PatientID)
		}
	}

	return patientStoreID, nil
}

func (uc *provisioningUsecase) uploadBundles(ctx context.Context, run *models.PipelineRun) (int, string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	var caveat string
	existing, err := uc.PatientFhirClient.FindPatientByIdentifier(ctx, uc.InternalConfig.FHIR.IdentifierSystem, run.ExternalID)
	if err != nil {
		return 0, "", err
	}
	if len(existing) > 0 {
		caveat = "patient already present in clinical-resource store; re-uploading may duplicate resources depending on store deduplication"
		uc.Log.Warn("provisioningUsecase.uploadBundles re-uploading an already-provisioned patient",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingExternalIDKey, run.ExternalID),
		)
	}

	shared, err := uc.BundleSource.SharedBundles(ctx)
	if err != nil {
		return 0, "", err
	}
	patientBundles, err := uc.BundleSource.PatientBundles(ctx, run.PatientID)
	if err != nil {
		return 0, "", err
	}

	patientEntries := 0
	for _, bundle := range patientBundles {
		for _, entry := range bundle.Entries {
			if entry.Record.Type == constvars.ResourcePatient {
				patientEntries++
			}
		}
	}
	if patientEntries != 1 {
		return 0, "", exceptions.ErrBundleMalformed(
			fmt.Errorf("expected exactly one Patient resource in the seed set, found %d", patientEntries),
			run.PatientID)
	}

	idSet, err := uc.Uploader.UploadBundles(ctx, append(shared, patientBundles...), run.ExternalID, run.PatientID)
	if err != nil {
		return 0, "", err
	}
	run.RemoteIDs = idSet
	return idSet.Len(), caveat, nil
}

func (uc *provisioningUsecase) registerRecord(ctx context.Context, run *models.PipelineRun) error {
	record := &models.PatientRecord{
		PracticeID: run.PracticeID,
		PatientID:  run.PatientID,
		ExternalID: run.ExternalID,
		Status:     models.RecordStatusActive,
	}
	_, err := uc.RecordRepository.UpsertRecord(ctx, record)
	return err
}

func (uc *provisioningUsecase) buildMapping(ctx context.Context, run *models.PipelineRun, patientStoreID string) error {
	if patientStoreID == "" {
		return exceptions.ErrNoServerAssignedID(nil, constvars.ResourcePatient)
	}
	mapping := &models.IdentifierMapping{
		ResourceType: constvars.ResourcePatient,
		ExternalID:   run.ExternalID,
		StoreID:      patientStoreID,
	}
	_, err := uc.MappingRepository.CreateMapping(ctx, mapping)
	return err
}

// bestEffortStep runs one of the externally-owned steps and folds its failure
// into a warning; the cache refreshes lazily and tagging/indexing can be
// re-run, so neither may fail the pipeline.
func (uc *provisioningUsecase) bestEffortStep(ctx context.Context, step int, call func() error) models.StepResult {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	result := models.StepResult{
		Step:   step,
		Name:   models.StepName(step),
		Status: models.StepStatusDone,
	}
	if err := call(); err != nil {
		uc.Log.Warn("provisioningUsecase.ProvisionPatient best-effort step failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingStepKey, step),
			zap.Error(err),
		)
		result.Status = models.StepStatusWarning
		result.Detail = err.Error()
	}
	return result
}

// stepFailure stamps the failing step onto the error so the operator sees
// which stage to resume from.
func stepFailure(step int, err error) error {
	var customErr *exceptions.CustomError
	if errors.As(err, &customErr) {
		failed := *customErr
		failed.DevMessage = fmt.Sprintf("step %d (%s): %s", step, models.StepName(step), customErr.DevMessage)
		return &failed
	}
	return err
}
