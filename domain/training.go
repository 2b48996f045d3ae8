package domain

import (
	"time"

	"gorm.io/datatypes"
)

// TrainingExample is one logged impression row. Written once by the intake
// adapter on behalf of the logging collaborator, read-only afterwards.
type TrainingExample struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	SessionID     string            `gorm:"column:session_id;not null" json:"session_id"`
	TripID        uint64            `gorm:"column:trip_id;not null" json:"trip_id"`
	Position      int               `gorm:"column:position;not null" json:"position"`
	Clicked       bool              `gorm:"column:clicked;not null" json:"clicked"`
	DwellMS       *int64            `gorm:"column:dwell_ms" json:"dwell_ms"`
	Converted     *bool             `gorm:"column:converted" json:"converted"`
	BotFlagged    bool              `gorm:"column:bot_flagged" json:"bot_flagged"`
	SchemaVersion int               `gorm:"column:schema_version;not null" json:"schema_version"`
	FeaturesRaw   []byte            `gorm:"column:features;type:jsonb" json:"-"`
	Context       datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (TrainingExample) TableName() string {
	return "training_examples"
}
