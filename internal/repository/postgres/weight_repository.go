package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tripmatch/business/ranker"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WeightRepository persists the append-only weight history and the single
// active-version pointer row.
type WeightRepository struct {
	DB *gorm.DB
}

var _ ranker.WeightHistoryRepository = (*WeightRepository)(nil)

func NewWeightRepository(db *gorm.DB) *WeightRepository {
	return &WeightRepository{DB: db}
}

type weightVectorRow struct {
	Version     uint64    `gorm:"column:version;primaryKey"`
	Schema      int       `gorm:"column:schema_version"`
	WeightsJSON []byte    `gorm:"column:weights"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	Note        string    `gorm:"column:note"`
}

func (weightVectorRow) TableName() string {
	return "weight_vectors"
}

type weightActiveRow struct {
	ID      int    `gorm:"column:id;primaryKey"`
	Version uint64 `gorm:"column:version"`
}

func (weightActiveRow) TableName() string {
	return "weight_active"
}

func (r *WeightRepository) Append(ctx context.Context, wv *ranker.WeightVector) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	raw, err := json.Marshal(wv.Values[:])
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}

	row := weightVectorRow{
		Version:     wv.Version,
		Schema:      wv.Schema,
		WeightsJSON: raw,
		CreatedAt:   wv.CreatedAt,
		Note:        wv.Note,
	}

	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert weight version %d: %w", wv.Version, err)
	}
	return nil
}

func (r *WeightRepository) SetActiveVersion(ctx context.Context, version uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	row := weightActiveRow{ID: 1, Version: version}
	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		},
	).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to set active weight version: %w", err)
	}
	return nil
}

func (r *WeightRepository) ActiveVersion(ctx context.Context) (uint64, bool, error) {
	var row weightActiveRow
	err := r.DB.WithContext(ctx).First(&row, "id = 1").Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query weight_active: %w", err)
	}
	return row.Version, true, nil
}

func (r *WeightRepository) Get(ctx context.Context, version uint64) (*ranker.WeightVector, bool, error) {
	var row weightVectorRow
	err := r.DB.WithContext(ctx).First(&row, "version = ?", version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query weight_vectors: %w", err)
	}

	wv, err := rowToWeightVector(row)
	if err != nil {
		return nil, false, err
	}
	return wv, true, nil
}

func (r *WeightRepository) List(ctx context.Context, limit int) ([]*ranker.WeightVector, error) {
	var rows []weightVectorRow
	err := r.DB.WithContext(ctx).
		Order("version DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list weight_vectors: %w", err)
	}

	out := make([]*ranker.WeightVector, 0, len(rows))
	for _, row := range rows {
		wv, err := rowToWeightVector(row)
		if err != nil {
			return nil, err
		}
		out = append(out, wv)
	}
	return out, nil
}

func (r *WeightRepository) MaxVersion(ctx context.Context) (uint64, error) {
	var max sql.NullInt64
	err := r.DB.WithContext(ctx).
		Model(&weightVectorRow{}).
		Select("MAX(version)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query max weight version: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return uint64(max.Int64), nil
}

func rowToWeightVector(row weightVectorRow) (*ranker.WeightVector, error) {
	var vals []float64
	if err := json.Unmarshal(row.WeightsJSON, &vals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights for version %d: %w", row.Version, err)
	}
	if len(vals) != int(ranker.FeatureDim) {
		return nil, fmt.Errorf("weight version %d has %d values, schema needs %d: %w",
			row.Version, len(vals), ranker.FeatureDim, ranker.ErrSchemaMismatch)
	}

	wv := &ranker.WeightVector{
		Version:   row.Version,
		Schema:    row.Schema,
		CreatedAt: row.CreatedAt,
		Note:      row.Note,
	}
	copy(wv.Values[:], vals)
	return wv, nil
}
