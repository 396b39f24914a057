package models

import "time"

// NowcastState is the authoritative counter state. Owned exclusively by the
// nowcast engine; IntegerValue never decreases and FractionalRemainder stays
// in [0,1).
type NowcastState struct {
	IntegerValue        int64     `json:"integer_value"`
	FractionalRemainder float64   `json:"fractional_remainder"`
	PerSecondRate       float64   `json:"per_second_rate"`
	PerDayLow           float64   `json:"per_day_low"`
	PerDayMid           float64   `json:"per_day_mid"`
	PerDayHigh          float64   `json:"per_day_high"`
	LastTick            time.Time `json:"last_tick"`
}

// Aggregates are the monthly low/mid/high AI-attributed totals computed from
// the latest refresh.
type Aggregates struct {
	MonthlyLow  float64 `json:"monthly_low"`
	MonthlyMid  float64 `json:"monthly_mid"`
	MonthlyHigh float64 `json:"monthly_high"`
	Covered     float64 `json:"covered"`  // portion of overall total in tracked sectors
	Residual    float64 `json:"residual"` // portion attributed via the "other" rate
}

// CounterView is the public snapshot pushed to viewers and served on the
// query surface.
type CounterView struct {
	Counter        int64   `json:"counter"`
	Decimal        float64 `json:"decimal"` // counter + fractional remainder
	PerSecond      float64 `json:"per_second"`
	PerDay         float64 `json:"per_day"`
	PerDayLow      float64 `json:"per_day_low"`
	PerDayHigh     float64 `json:"per_day_high"`
	DataAsOf       string  `json:"data_as_of"`
	AttributedRate float64 `json:"attributed_rate"` // mid share of overall layoffs, percent
	Model          string  `json:"model"`
	Fresh          bool    `json:"fresh"`
}

// Diagnostics is the raw audit dump: latest readings, computed aggregates and
// the exposure table actually in effect.
type Diagnostics struct {
	Readings   []SeriesReading        `json:"readings"`
	Aggregates Aggregates             `json:"aggregates"`
	Exposure   map[string]RateTriple  `json:"exposure"`
	OtherRate  RateTriple             `json:"other_rate"`
	State      NowcastState           `json:"state"`
	Warnings   []string               `json:"warnings,omitempty"`
	RecentLogs interface{}            `json:"recent_logs,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// RateTriple is a low/mid/high exposure rate.
type RateTriple struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}
