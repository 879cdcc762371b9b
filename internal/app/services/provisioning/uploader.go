package provisioning

import (
	"chartseed-service/internal/app/contracts"
	"chartseed-service/internal/app/models"
	"chartseed-service/internal/pkg/constvars"
	"chartseed-service/internal/pkg/exceptions"
	"chartseed-service/internal/pkg/fhir_dto"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// resourceGraphUploader posts seed bundles as FHIR transactions and captures
// the server-assigned id of every created resource.
type resourceGraphUploader struct {
	BundleClient            contracts.BundleFhirClient
	IdentifierSystem        string
	PatientIdentifierSystem string
	Log                     *zap.Logger
}

// UploadBundles posts the bundles in dependency order and returns the
// captured ids keyed by resource type. The first failing bundle aborts the
// remaining ones; the store's transaction semantics keep each single bundle
// all-or-nothing.
func (u *resourceGraphUploader) UploadBundles(ctx context.Context, bundles []models.ResourceBundle, externalID, patientID string) (models.RemoteIDSet, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	ordered := orderBundles(bundles)
	idSet := models.NewRemoteIDSet()

	for i := range ordered {
		bundle := &ordered[i]

		if bundle.Scope == models.BundleScopePatient {
			if err := u.ensurePatientIdentifiers(bundle, externalID, patientID); err != nil {
				return nil, err
			}
		}

		response, err := u.BundleClient.PostTransactionBundle(ctx, buildTransaction(bundle))
		if err != nil {
			u.Log.Error("resourceGraphUploader.UploadBundles bundle upload failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingBundleKey, bundle.Name),
				zap.Error(err),
			)
			return nil, err
		}

		extracted, err := extractServerIDs(response, bundle.Entries)
		if err != nil {
			return nil, err
		}
		for j, id := range extracted {
			bundle.Entries[j].Record.RemoteID = id.ID
			idSet.Add(id.Type, id.ID)
		}

		for resourceType, count := range typeCounts(bundle, extracted) {
			if count == 0 {
				u.Log.Warn("resourceGraphUploader.UploadBundles no ids captured for type",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingBundleKey, bundle.Name),
					zap.String(constvars.LoggingResourceTypeKey, resourceType),
				)
			}
		}

		u.Log.Info("resourceGraphUploader.UploadBundles bundle uploaded",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingBundleKey, bundle.Name),
			zap.Int(constvars.LoggingCountKey, len(extracted)),
		)
	}

	return idSet, nil
}

// orderBundles sorts shared bundles first, then entity bundles by descending
// tier of their most foundational type, so reference targets are always
// stored before their referrers. The sort is stable: seed sets already keyed
// in upload order come through unchanged.
func orderBundles(bundles []models.ResourceBundle) []models.ResourceBundle {
	ordered := make([]models.ResourceBundle, len(bundles))
	copy(ordered, bundles)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Scope != ordered[j].Scope {
			return ordered[i].Scope == models.BundleScopeShared
		}
		return dominantTier(&ordered[i]) > dominantTier(&ordered[j])
	})
	return ordered
}

func dominantTier(bundle *models.ResourceBundle) models.Tier {
	highest := models.Tier(0)
	for _, entry := range bundle.Entries {
		tier, ok := models.TierOf(entry.Record.Type)
		if !ok {
			tier = models.DefaultTier
		}
		if tier > highest {
			highest = tier
		}
	}
	return highest
}

// buildTransaction reassembles the wire-form transaction bundle from parsed
// entries, preserving any request line the seed author wrote.
func buildTransaction(bundle *models.ResourceBundle) *fhir_dto.FHIRBundle {
	transaction := &fhir_dto.FHIRBundle{
		ResourceType: constvars.ResourceBundle,
		Type:         constvars.BundleTypeTransaction,
		Entry:        make([]fhir_dto.Entry, len(bundle.Entries)),
	}
	for i, entry := range bundle.Entries {
		method := entry.Method
		if method == "" {
			method = constvars.MethodPost
		}
		requestURL := entry.RequestURL
		if requestURL == "" {
			requestURL = entry.Record.Type
		}
		transaction.Entry[i] = fhir_dto.Entry{
			FullURL:  entry.Record.LocalRef,
			Resource: entry.Raw,
			Request: &fhir_dto.BundleRequest{
				Method:      method,
				URL:         requestURL,
				IfNoneExist: entry.IfNoneExist,
			},
		}
	}
	return transaction
}

// extractServerIDs recovers one id per requested entry from a
// transaction-response. Stores populate response fields inconsistently, so
// three sources are tried in order: the location descriptor, the echoed
// resource, and the outer bundle id. An entry yielding none of the three
// fails the upload; an empty id is never accepted.
func extractServerIDs(response *fhir_dto.FHIRBundle, requested []models.BundleEntry) ([]models.ExtractedID, error) {
	extracted := make([]models.ExtractedID, 0, len(requested))
	for i, request := range requested {
		if i >= len(response.Entry) {
			return nil, exceptions.ErrNoServerAssignedID(
				fmt.Errorf("response carries %d entries for %d requests", len(response.Entry), len(requested)),
				request.Record.Type)
		}
		entry := response.Entry[i]

		if entry.Response != nil && entry.Response.Location != "" {
			resourceType, id, ok := parseLocation(entry.Response.Location)
			if ok {
				extracted = append(extracted, models.ExtractedID{Type: resourceType, ID: id, Source: models.IDSourceLocation})
				continue
			}
		}

		if len(entry.Resource) > 0 {
			var envelope fhir_dto.ResourceEnvelope
			if err := json.Unmarshal(entry.Resource, &envelope); err == nil &&
				envelope.ResourceType != "" && envelope.ID != "" {
				extracted = append(extracted, models.ExtractedID{Type: envelope.ResourceType, ID: envelope.ID, Source: models.IDSourceResource})
				continue
			}
		}

		if response.ID != "" {
			extracted = append(extracted, models.ExtractedID{Type: request.Record.Type, ID: response.ID, Source: models.IDSourceBundle})
			continue
		}

		return nil, exceptions.ErrNoServerAssignedID(
			fmt.Errorf("entry %d carries no location, resource id, or bundle id", i),
			request.Record.Type)
	}
	return extracted, nil
}

// parseLocation splits a location descriptor of the form
// <Type>/<id>/_history/<version>, tolerating the plain <Type>/<id> form and
// absolute URLs.
func parseLocation(location string) (string, string, bool) {
	trimmed := strings.Trim(location, "/")
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if part == "_history" && i >= 2 {
			return validatedPair(parts[i-2], parts[i-1])
		}
	}
	if len(parts) >= 2 {
		return validatedPair(parts[len(parts)-2], parts[len(parts)-1])
	}
	return "", "", false
}

func validatedPair(resourceType, id string) (string, string, bool) {
	if resourceType == "" || id == "" {
		return "", "", false
	}
	if resourceType[0] < 'A' || resourceType[0] > 'Z' {
		return "", "", false
	}
	return resourceType, id, true
}

// ensurePatientIdentifiers injects the composite external identifier and the
// bare patient identifier into Patient entries when the seed author left them
// out. Entries already carrying both systems are posted untouched.
func (u *resourceGraphUploader) ensurePatientIdentifiers(bundle *models.ResourceBundle, externalID, patientID string) error {
	for i := range bundle.Entries {
		entry := &bundle.Entries[i]
		if entry.Record.Type != constvars.ResourcePatient {
			continue
		}

		var resource map[string]interface{}
		if err := json.Unmarshal(entry.Raw, &resource); err != nil {
			return exceptions.ErrBundleMalformed(err, bundle.Name)
		}

		identifiers, _ := resource["identifier"].([]interface{})
		present := make(map[string]bool, len(identifiers))
		for _, item := range identifiers {
			identifier, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if system, ok := identifier["system"].(string); ok {
				present[system] = true
			}
		}

		changed := false
		if !present[u.IdentifierSystem] {
			identifiers = append(identifiers, map[string]interface{}{
				"system": u.IdentifierSystem,
				"value":  externalID,
			})
			changed = true
		}
		if !present[u.PatientIdentifierSystem] {
			identifiers = append(identifiers, map[string]interface{}{
				"system": u.PatientIdentifierSystem,
				"value":  patientID,
			})
			changed = true
		}
		if !changed {
			continue
		}

		resource["identifier"] = identifiers
		raw, err := json.Marshal(resource)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}
		entry.Raw = raw
	}
	return nil
}

// typeCounts tallies extracted ids against the types the bundle asked for.
func typeCounts(bundle *models.ResourceBundle, extracted []models.ExtractedID) map[string]int {
	counts := make(map[string]int)
	for _, resourceType := range bundle.Types() {
		counts[resourceType] = 0
	}
	for _, id := range extracted {
		counts[id.Type]++
	}
	return counts
}
