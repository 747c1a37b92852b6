package recorder

import "VnPanel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.RunSummary) error { return nil }
func (n *NoopRecorder) RecordSnapshot(_ *model.Snapshot) error { return nil }
func (n *NoopRecorder) RecordDividends(_ string, _ []model.Dividend) error { return nil }
func (n *NoopRecorder) RecordFinancialRatios(_ string, _ []model.FinancialRatio) error { return nil }
func (n *NoopRecorder) RecordStatements(_ string, _ []model.FinancialStatement) error { return nil }
func (n *NoopRecorder) LatestSnapshot(_ string) (*model.Snapshot, error) { return nil, ErrNotFound }
func (n *NoopRecorder) LastRun() (*RunRecord, error) { return nil, ErrNotFound }
func (n *NoopRecorder) Close() error { return nil }
