package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tripmatch/business/ranker"
	"tripmatch/domain"
	"tripmatch/pkg/logger"

	"gorm.io/gorm"
)

// TripRepository reads the inventory collaborator's trip occurrences.
// The engine never writes this table.
type TripRepository struct {
	DB *gorm.DB
}

var _ ranker.TripRepository = (*TripRepository)(nil)

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{DB: db}
}

func (r *TripRepository) ListAvailable(ctx context.Context) ([]domain.TripCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var trips []domain.TripCandidate
	err := r.DB.WithContext(ctx).
		Where("status IN ?", []string{
			domain.TripStatusAvailable,
			domain.TripStatusGuaranteed,
			domain.TripStatusLastPlaces,
		}).
		Where("departure_date > ?", time.Now()).
		Order("id ASC").
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query trip_occurrences: %w", err)
	}

	for i := range trips {
		trips[i].ThemeIDs = decodeThemeIDs(trips[i].ID, trips[i].ThemeIDsRaw)
	}
	return trips, nil
}

// decodeThemeIDs parses the jsonb theme_ids column. A corrupt payload is the
// inventory collaborator's bug, not ours: the trip still ranks, just without
// theme credit.
func decodeThemeIDs(tripID uint64, raw []byte) []uint {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		logger.Warn("unreadable theme_ids on trip occurrence", "trip_id", tripID, "error", err.Error())
		return nil
	}
	return ids
}
