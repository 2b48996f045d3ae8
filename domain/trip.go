package domain

import (
	"time"
)

// Availability status of a trip occurrence, as reported by inventory.
const (
	TripStatusAvailable  = "available"
	TripStatusLastPlaces = "last_places"
	TripStatusGuaranteed = "guaranteed"
)

// TripCandidate is a read-only snapshot of a trip occurrence owned by the
// inventory collaborator. The engine borrows it for one scoring call and
// never writes it back.
type TripCandidate struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	ThemeIDsRaw   []byte    `gorm:"column:theme_ids;type:jsonb" json:"-"`
	ThemeIDs      []uint    `gorm:"-" json:"theme_ids"`
	TripTypeID    uint      `gorm:"column:trip_type_id" json:"trip_type_id"`
	Difficulty    int       `gorm:"column:difficulty" json:"difficulty"`
	DurationDays  int       `gorm:"column:duration_days" json:"duration_days"`
	Price         float64   `gorm:"column:price" json:"price"`
	CountryID     uint      `gorm:"column:country_id" json:"country_id"`
	Continent     string    `gorm:"column:continent" json:"continent"`
	Status        string    `gorm:"column:status" json:"status"`
	DepartureDate time.Time `gorm:"column:departure_date" json:"departure_date"`
}

func (TripCandidate) TableName() string {
	return "trip_occurrences"
}

// ScoredTrip is the per-request scoring result: the candidate, its feature
// values, the scalar score and the weight version it was scored under.
// Ephemeral; never persisted by the engine.
type ScoredTrip struct {
	TripID        uint64             `json:"trip_id"`
	Score         float64            `json:"score"`
	WeightVersion uint64             `json:"weight_version"`
	Features      map[string]float64 `json:"features"`
}
