package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/joseph-ayodele/docintel/internal/common"
	"github.com/joseph-ayodele/docintel/internal/entity"
)

// ErrNotFound is returned when a laborer record does not exist.
var ErrNotFound = common.ErrNotFound

// Laborers is the per-laborer record store, keyed by user id and laborer id.
type Laborers interface {
	// Get returns the raw document.
	Get(ctx context.Context, userID, laborerID string) (entity.Document, error)
	// Merge applies a field-level patch to an existing record; ErrNotFound if it does not exist.
	Merge(ctx context.Context, userID, laborerID string, patch Patch) error
	// Put creates or replaces a record.
	Put(ctx context.Context, userID, laborerID string, doc entity.Document) error
	// List returns a user's records, optionally filtered by w9OcrStatus.
	List(ctx context.Context, userID string, statuses ...string) ([]*entity.LaborerRecord, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

func encodeDoc(doc entity.Document) ([]byte, error) {
	if doc == nil {
		doc = entity.Document{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decodeDoc(raw []byte) (entity.Document, error) {
	doc := entity.Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// mergeRaw applies patch to a stored JSON document and re-encodes it.
func mergeRaw(raw []byte, patch Patch) ([]byte, error) {
	doc, err := decodeDoc(raw)
	if err != nil {
		return nil, err
	}
	return encodeDoc(ApplyPatch(doc, normalizePatch(patch)))
}

// normalizePatch round-trips values through JSON so typed structs and times merge as plain maps and strings.
func normalizePatch(patch Patch) Patch {
	out := make(Patch, len(patch))
	for k, v := range patch {
		if v == nil {
			out[k] = nil
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			out[k] = v
			continue
		}
		var plain any
		if err := json.Unmarshal(b, &plain); err != nil {
			out[k] = v
			continue
		}
		out[k] = plain
	}
	return out
}

type row struct {
	laborerID string
	raw       []byte
	updatedAt time.Time
}

func toRecords(userID string, rows []row, statuses []string) ([]*entity.LaborerRecord, error) {
	want := map[string]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var out []*entity.LaborerRecord
	for _, r := range rows {
		doc, err := decodeDoc(r.raw)
		if err != nil {
			return nil, err
		}
		rec, err := entity.DecodeLaborer(userID, r.laborerID, doc, r.updatedAt)
		if err != nil {
			return nil, err
		}
		if len(want) > 0 && !want[rec.OcrStatus] {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LaborerID < out[j].LaborerID })
	return out, nil
}
