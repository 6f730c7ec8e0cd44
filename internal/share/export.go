package share

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"thumbcast/internal/domain"
)

// ExportOutput narrows a round to one output for sharing: the round's
// fields survive, outputs shrink to the single entry keyed by its id, and
// the creator marker is rewritten so the receiving side never treats the
// document as locally authored.
func ExportOutput(r *domain.Round, outputID string) (*domain.Round, error) {
	out, ok := r.Outputs[outputID]
	if !ok {
		return nil, fmt.Errorf("output %s not in round %s", outputID, r.ID)
	}
	doc := r.Clone()
	oc := *out
	doc.Outputs = map[string]*domain.Output{oc.ID: &oc}
	doc.CreatedBy = domain.CreatedByExported
	doc.FavoritedOutputIDs = nil
	doc.HasFavorites = false
	return &doc, nil
}

// MarshalExport renders the export document deterministically: two-space
// indent, stable key order via encoding/json's struct ordering, trailing
// newline. This is the one file format the app produces.
func MarshalExport(doc *domain.Round) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile exports one output of a round to path.
func WriteFile(path string, r *domain.Round, outputID string) error {
	doc, err := ExportOutput(r, outputID)
	if err != nil {
		return err
	}
	data, err := MarshalExport(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
