package domain

// RawPreferences is the unnormalized payload handed over by the
// preference-intake collaborator (front-end / API layer).
type RawPreferences struct {
	CountryIDs      []uint   `json:"country_ids"`
	Continents      []string `json:"continents"`
	TripTypeID      *uint    `json:"trip_type_id"`
	ThemeIDs        []uint   `json:"theme_ids"`
	BudgetCeiling   *float64 `json:"budget_ceiling"`
	MinDurationDays *int     `json:"min_duration_days"`
	MaxDurationDays *int     `json:"max_duration_days"`
	Difficulty      *int     `json:"difficulty"`
	TargetYear      *int     `json:"target_year"`
	TargetMonth     *int     `json:"target_month"`
}

// SearchPreferences is the normalized, immutable form of RawPreferences.
// ID sets are sorted and deduplicated so identical raw inputs always
// produce byte-identical normalized output.
type SearchPreferences struct {
	CountryIDs      []uint   `json:"country_ids"`
	Continents      []string `json:"continents"`
	TripTypeID      *uint    `json:"trip_type_id"`
	ThemeIDs        []uint   `json:"theme_ids"`
	BudgetCeiling   *float64 `json:"budget_ceiling"`
	MinDurationDays *int     `json:"min_duration_days"`
	MaxDurationDays *int     `json:"max_duration_days"`
	Difficulty      *int     `json:"difficulty"`
	TargetYear      *int     `json:"target_year"`
	TargetMonth     *int     `json:"target_month"`
}
