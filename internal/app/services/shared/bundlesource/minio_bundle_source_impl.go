package bundlesource

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/fhir_dto"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type minioBundleSource struct {
	MinioClient         *minio.Client
	Bucket              string
	SharedPrefix        string
	PatientPrefixFormat string
	Log                 *zap.Logger
}

var (
	minioBundleSourceInstance contracts.BundleSource
	onceMinioBundleSource     sync.Once
)

func NewMinioBundleSource(minioClient *minio.Client, bucket, sharedPrefix, patientPrefixFormat string, logger *zap.Logger) contracts.BundleSource {
	onceMinioBundleSource.Do(func() {
		instance := &minioBundleSource{
			MinioClient:         minioClient,
			Bucket:              bucket,
			SharedPrefix:        sharedPrefix,
			PatientPrefixFormat: patientPrefixFormat,
			Log:                 logger,
		}
		minioBundleSourceInstance = instance
	})
	return minioBundleSourceInstance
}

// SharedBundles loads the environment-wide seed bundles. An empty result is
// not an error; environments may carry their shared resources already.
func (m *minioBundleSource) SharedBundles(ctx context.Context) ([]models.ResourceBundle, error) {
	return m.listBundles(ctx, m.SharedPrefix, models.BundleScopeShared)
}

// PatientBundles loads the seed bundles of one patient. A patient without any
// seed object cannot be provisioned, so an empty listing is reported as a
// missing bundle.
func (m *minioBundleSource) PatientBundles(ctx context.Context, patientID string) ([]models.ResourceBundle, error) {
	prefix := fmt.Sprintf(m.PatientPrefixFormat, patientID)
	bundles, err := m.listBundles(ctx, prefix, models.BundleScopePatient)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, exceptions.ErrMinioObjectNotFound(nil, prefix)
	}
	return bundles, nil
}

// listBundles walks the bucket under prefix in key order, which is how seed
// sets encode their upload order.
func (m *minioBundleSource) listBundles(ctx context.Context, prefix string, scope models.BundleScope) ([]models.ResourceBundle, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	m.Log.Info("minioBundleSource.listBundles called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBucketNameKey, m.Bucket),
		zap.String("prefix", prefix),
	)

	objectCh := m.MinioClient.ListObjects(ctx, m.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var bundles []models.ResourceBundle
	for object := range objectCh {
		if object.Err != nil {
			m.Log.Error("minioBundleSource.listBundles error listing objects",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String("prefix", prefix),
				zap.Error(object.Err),
			)
			return nil, exceptions.ErrMinioListObjects(object.Err, prefix)
		}
		if !strings.HasSuffix(object.Key, ".json") {
			continue
		}
		bundle, err := m.loadBundle(ctx, object.Key, prefix, scope)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, *bundle)
	}

	m.Log.Info("minioBundleSource.listBundles succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("prefix", prefix),
		zap.Int(constvars.LoggingCountKey, len(bundles)),
	)
	return bundles, nil
}

func (m *minioBundleSource) loadBundle(ctx context.Context, key, prefix string, scope models.BundleScope) (*models.ResourceBundle, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	object, err := m.MinioClient.GetObject(ctx, m.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, exceptions.ErrMinioGetObject(err, key)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, exceptions.ErrMinioObjectNotFound(err, key)
		}
		m.Log.Error("minioBundleSource.loadBundle error reading object",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingObjectNameKey, key),
			zap.Error(err),
		)
		return nil, exceptions.ErrMinioGetObject(err, key)
	}

	return decodeBundle(data, strings.TrimPrefix(key, prefix), key, scope)
}

// decodeBundle parses one seed object into a ResourceBundle and enforces the
// upload-order invariant: every in-bundle reference target must appear before
// the entry referencing it, because the store rejects forward references.
func decodeBundle(data []byte, name, key string, scope models.BundleScope) (*models.ResourceBundle, error) {
	var document fhir_dto.FHIRBundle
	if uerr := json.Unmarshal(data, &document); uerr != nil {
		return nil, exceptions.ErrBundleMalformed(uerr, key)
	}
	if document.ResourceType != constvars.ResourceBundle || document.Type != constvars.BundleTypeTransaction {
		return nil, exceptions.ErrBundleMalformed(fmt.Errorf("resourceType %q type %q", document.ResourceType, document.Type), key)
	}

	bundle := &models.ResourceBundle{
		Name:  name,
		Scope: scope,
	}
	seen := make(map[string]bool, len(document.Entry))
	for i, entry := range document.Entry {
		if len(entry.Resource) == 0 {
			return nil, exceptions.ErrBundleMalformed(fmt.Errorf("entry %d has no resource", i), key)
		}
		var envelope fhir_dto.ResourceEnvelope
		if uerr := json.Unmarshal(entry.Resource, &envelope); uerr != nil {
			return nil, exceptions.ErrBundleMalformed(uerr, key)
		}
		if envelope.ResourceType == "" {
			return nil, exceptions.ErrBundleMalformed(fmt.Errorf("entry %d has no resourceType", i), key)
		}

		refs, rerr := localRefsOf(entry.Resource)
		if rerr != nil {
			return nil, exceptions.ErrBundleMalformed(rerr, key)
		}
		for _, ref := range refs {
			if !seen[ref] {
				return nil, exceptions.ErrBundleMalformed(
					fmt.Errorf("entry %d (%s) references %s before it is defined", i, envelope.ResourceType, ref), key)
			}
		}
		if entry.FullURL != "" {
			seen[entry.FullURL] = true
		}

		record := models.ResourceRecord{
			Type:     envelope.ResourceType,
			LocalRef: entry.FullURL,
			Refs:     refs,
		}
		bundleEntry := models.BundleEntry{
			Record: record,
			Raw:    entry.Resource,
		}
		if entry.Request != nil {
			bundleEntry.Method = entry.Request.Method
			bundleEntry.RequestURL = entry.Request.URL
			bundleEntry.IfNoneExist = entry.Request.IfNoneExist
		}
		bundle.Entries = append(bundle.Entries, bundleEntry)
	}

	return bundle, nil
}

// localRefsOf walks the resource JSON and gathers every reference value that
// targets another entry's fullUrl. Literal Type/id references point outside
// the bundle and are left alone.
func localRefsOf(raw []byte) ([]string, error) {
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	found := make(map[string]bool)
	walkReferences(tree, found)
	if len(found) == 0 {
		return nil, nil
	}
	refs := make([]string, 0, len(found))
	for ref := range found {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs, nil
}

func walkReferences(node interface{}, found map[string]bool) {
	switch value := node.(type) {
	case map[string]interface{}:
		for key, child := range value {
			if key == "reference" {
				if ref, ok := child.(string); ok && strings.HasPrefix(ref, constvars.FhirLocalReferencePrefix) {
					found[ref] = true
				}
				continue
			}
			walkReferences(child, found)
		}
	case []interface{}:
		for _, child := range value {
			walkReferences(child, found)
		}
	}
}
