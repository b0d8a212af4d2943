package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormIngestRunRepository implements IngestRunRepository using GORM.
type GormIngestRunRepository struct {
	db *gorm.DB
}

// NewGormIngestRunRepository creates a new GormIngestRunRepository.
func NewGormIngestRunRepository(db *gorm.DB) *GormIngestRunRepository {
	return &GormIngestRunRepository{db: db}
}

// CreateRun inserts a new ledger row.
func (r *GormIngestRunRepository) CreateRun(ctx context.Context, run *IngestRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create ingest run: %w", err)
	}
	return nil
}

// UpdateState updates a run's current state.
func (r *GormIngestRunRepository) UpdateState(ctx context.Context, runID string, state string) error {
	err := r.db.WithContext(ctx).Model(&IngestRun{}).
		Where("run_id = ?", runID).
		Update("state", state).Error
	if err != nil {
		return fmt.Errorf("failed to update ingest run state: %w", err)
	}
	return nil
}

// CompleteRun marks a run Done with its final counts.
func (r *GormIngestRunRepository) CompleteRun(ctx context.Context, runID string, vertexCount, edgeCount int64) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&IngestRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]any{
			"state":        "Done",
			"vertex_count": vertexCount,
			"edge_count":   edgeCount,
			"ended_at":     &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to complete ingest run: %w", err)
	}
	return nil
}

// FailRun marks a run Aborted with the error that caused it.
func (r *GormIngestRunRepository) FailRun(ctx context.Context, runID string, errMsg string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&IngestRun{}).
		Where("run_id = ?", runID).
		Updates(map[string]any{
			"state":         "Aborted",
			"error_message": errMsg,
			"ended_at":      &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to fail ingest run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its run ID.
func (r *GormIngestRunRepository) GetRun(ctx context.Context, runID string) (*IngestRun, error) {
	var run IngestRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("ingest run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get ingest run: %w", err)
	}
	return &run, nil
}

// ListRecentRuns retrieves the most recent runs, newest first.
func (r *GormIngestRunRepository) ListRecentRuns(ctx context.Context, limit int) ([]*IngestRun, error) {
	var runs []*IngestRun
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ingest runs: %w", err)
	}
	return runs, nil
}
