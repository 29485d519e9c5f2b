package ingest

import (
	"time"

	"github.com/joseph-ayodele/docintel/constants"
	"github.com/joseph-ayodele/docintel/internal/entity"
	"github.com/joseph-ayodele/docintel/internal/repository"
	"github.com/joseph-ayodele/docintel/internal/w9"
)

const unsupportedTypeMessage = "Unsupported file type. Please upload a PDF, JPG, or PNG."

func w9InfoPath(name string) string {
	return entity.FieldW9Info + "." + name
}

func statusPatch(status constants.OcrStatus, now time.Time) repository.Patch {
	return repository.Patch{
		entity.FieldOcrStatus:    string(status),
		entity.FieldOcrUpdatedAt: now,
	}
}

// processingPatch enters the processing state and clears any previous error.
func processingPatch(sourcePath string, now time.Time) repository.Patch {
	p := statusPatch(constants.OcrStatusProcessing, now)
	p[entity.FieldOcrError] = nil
	p[entity.FieldSourceFilePath] = sourcePath
	return p
}

func failedPatch(message string, now time.Time) repository.Patch {
	p := statusPatch(constants.OcrStatusFailed, now)
	p[entity.FieldOcrError] = message
	return p
}

// resultPatch turns a parse result into a record update and the terminal status it leads to.
// Low confidence only flags the record for review; everything already stored stays as it is.
func resultPatch(res w9.ParseResult, existing entity.Document, now time.Time) (repository.Patch, constants.OcrStatus) {
	if res.Confidence == w9.ConfidenceLow {
		p := statusPatch(constants.OcrStatusNeedsReview, now)
		p[w9InfoPath("needsReview")] = true
		p[w9InfoPath("updatedAt")] = now
		return p, constants.OcrStatusNeedsReview
	}

	p := statusPatch(constants.OcrStatusComplete, now)
	for _, f := range []w9.Field{
		w9.LegalName, w9.BusinessName, w9.AddressLine1, w9.AddressLine2,
		w9.City, w9.State, w9.Zip, w9.TaxClassification, w9.EIN,
	} {
		if v := res.Fields.Get(f); v != "" {
			p[w9InfoPath(string(f))] = v
		}
	}
	if tinType, last4 := w9.TIN(res.Fields); tinType != "" {
		p[w9InfoPath("tinType")] = tinType
		p[w9InfoPath("tinLast4")] = last4
	}
	p[w9InfoPath("ocrConfidence")] = string(res.Confidence)
	p[w9InfoPath("needsReview")] = false
	p[w9InfoPath("updatedAt")] = now

	if isEmpty(existing, entity.FieldDisplayName) {
		if name := w9.DisplayName(res.Fields); name != "" {
			p[entity.FieldDisplayName] = name
		}
	}
	if isEmpty(existing, entity.FieldAddress) {
		if addr := w9.FormatAddress(res.Fields); addr != "" {
			p[entity.FieldAddress] = addr
		}
	}
	return p, constants.OcrStatusComplete
}

func isEmpty(doc entity.Document, field string) bool {
	s, _ := doc[field].(string)
	return s == ""
}
