package store

import (
	"context"

	"github.com/amishk599/atsexpert/internal/model"
)

// NopStore is used when history is disabled or in dry-run mode. Nothing is persisted.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Save(ctx context.Context, rec model.AnalysisRecord) error { return nil }
func (s *NopStore) Recent(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	return nil, nil
}
