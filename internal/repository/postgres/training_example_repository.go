package postgres

import (
	"context"
	"fmt"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"

	"gorm.io/gorm"
)

// TrainingExampleRepository is both sides of the impression log: the intake
// adapter writes through SaveExample, the pipeline reads a trailing window.
type TrainingExampleRepository struct {
	DB *gorm.DB
}

var _ ranker.TrainingExampleRepository = (*TrainingExampleRepository)(nil)
var _ ranker.TrainingExampleWriter = (*TrainingExampleRepository)(nil)

func NewTrainingExampleRepository(db *gorm.DB) *TrainingExampleRepository {
	return &TrainingExampleRepository{DB: db}
}

func (r *TrainingExampleRepository) SaveExample(ctx context.Context, ex domain.TrainingExample) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&ex).Error; err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}
	return nil
}

func (r *TrainingExampleRepository) ListWindow(ctx context.Context, since time.Time) ([]domain.TrainingExample, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []domain.TrainingExample
	err := r.DB.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query training_examples: %w", err)
	}
	return rows, nil
}
