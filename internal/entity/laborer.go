package entity

import (
	"encoding/json"
	"time"
)

// Record document field paths written by the upload pipeline.
const (
	FieldOcrStatus      = "w9OcrStatus"
	FieldOcrUpdatedAt   = "w9OcrUpdatedAt"
	FieldOcrError       = "w9OcrError"
	FieldSourceFilePath = "w9SourceFilePath"
	FieldDisplayName    = "displayName"
	FieldAddress        = "address"
	FieldW9Info         = "w9Info"
)

// Document is the schemaless laborer record as held by the record store.
type Document map[string]any

// LaborerRecord is a typed view of a laborer document for data transfer between layers.
type LaborerRecord struct {
	UserID         string     `json:"-"`
	LaborerID      string     `json:"-"`
	DisplayName    string     `json:"displayName,omitempty"`
	Address        string     `json:"address,omitempty"`
	OcrStatus      string     `json:"w9OcrStatus,omitempty"`
	OcrUpdatedAt   *time.Time `json:"w9OcrUpdatedAt,omitempty"`
	OcrError       string     `json:"w9OcrError,omitempty"`
	SourceFilePath string     `json:"w9SourceFilePath,omitempty"`
	W9Info         *W9Info    `json:"w9Info,omitempty"`
	UpdatedAt      time.Time  `json:"-"`
}

// W9Info is the last-known W-9 snapshot of a laborer.
type W9Info struct {
	LegalName         string     `json:"legalName,omitempty"`
	BusinessName      string     `json:"businessName,omitempty"`
	AddressLine1      string     `json:"addressLine1,omitempty"`
	AddressLine2      string     `json:"addressLine2,omitempty"`
	City              string     `json:"city,omitempty"`
	State             string     `json:"state,omitempty"`
	Zip               string     `json:"zip,omitempty"`
	TaxClassification string     `json:"taxClassification,omitempty"`
	TinType           string     `json:"tinType,omitempty"`
	TinLast4          string     `json:"tinLast4,omitempty"`
	EIN               string     `json:"ein,omitempty"`
	OcrConfidence     string     `json:"ocrConfidence,omitempty"`
	NeedsReview       bool       `json:"needsReview,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// DecodeLaborer converts a stored document into its typed view.
func DecodeLaborer(userID, laborerID string, doc Document, updatedAt time.Time) (*LaborerRecord, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	rec := &LaborerRecord{}
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, err
	}
	rec.UserID = userID
	rec.LaborerID = laborerID
	rec.UpdatedAt = updatedAt
	return rec, nil
}
