package models

// AttributionRequest is the query surface for the roster breakdown.
// Total defaults to the live counter value when omitted.
type AttributionRequest struct {
	Total int64 `query:"total" validate:"omitempty,gt=0"`
	Top   int   `query:"top" validate:"omitempty,gte=1,lte=500"`
}

// MethodologyCategory describes one sector in the methodology document.
type MethodologyCategory struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Weight    float64 `json:"weight"`
	Companies int     `json:"companies"`
}

// Methodology is the static human-readable description of how numbers are
// produced. Derived entirely from the loaded model, never hand-maintained.
type Methodology struct {
	Model           string                `json:"model"`
	Epoch           string                `json:"epoch"`
	Inflection      string                `json:"inflection"`
	DataSource      string                `json:"data_source"`
	Categories      []MethodologyCategory `json:"categories"`
	TypeMultipliers map[string]float64    `json:"type_multipliers"`
	TierMultipliers map[string]float64    `json:"tier_multipliers"`
	Exposure        map[string]RateTriple `json:"exposure"`
	OtherRate       RateTriple            `json:"other_rate"`
	Limits          []string              `json:"limits,omitempty"`
}

// Health is the liveness payload.
type Health struct {
	Status  string `json:"status"`
	Counter int64  `json:"counter"`
	Fresh   bool   `json:"fresh"`
	Viewers int    `json:"viewers"`
}
