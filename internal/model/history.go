package model

import (
	"context"
	"time"
)

// AnalysisRecord is one completed analysis kept by the optional history store.
type AnalysisRecord struct {
	ID         string
	CreatedAt  time.Time
	FileName   string
	FileSHA256 string
	Mode       Mode
	Provider   string
	Model      string
	Pages      int
	Response   string
}

// HistoryStore records completed analyses.
type HistoryStore interface {
	Save(ctx context.Context, rec AnalysisRecord) error
	Recent(ctx context.Context, limit int) ([]AnalysisRecord, error)
}
