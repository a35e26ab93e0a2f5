package storage

import (
	"encoding/json"
	"fmt"

	"github.com/yndnr/docmesh-go/internal/core/domain"
)

// record is the on-disk form used by the key-value backends.
type record struct {
	Content string `json:"content"`
	XSDRef  string `json:"xsd_ref,omitempty"`
}

func encodeDocument(doc *domain.Document) ([]byte, error) {
	data, err := json.Marshal(record{Content: doc.Content, XSDRef: doc.XSDRef})
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	return data, nil
}

func decodeDocument(kind domain.Kind, id string, data []byte) (*domain.Document, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &domain.Document{
		ID:      id,
		Kind:    kind,
		Content: rec.Content,
		XSDRef:  rec.XSDRef,
	}, nil
}
