package models

import "time"

// SeriesReading is the latest fetched state of one tracked statistical series.
// A refresh that fails for this series keeps the previous good LatestValue and
// records the error; stale-but-valid beats null.
type SeriesReading struct {
	Category       string    `json:"category"`
	SeriesID       string    `json:"series_id"`
	LatestValue    *float64  `json:"latest_value"`
	TrailingValues []float64 `json:"trailing_values,omitempty"`
	AsOf           string    `json:"as_of"` // provider period label, e.g. "2026-06"
	FetchedAt      time.Time `json:"fetched_at"`
	Error          string    `json:"error,omitempty"`
	Stale          bool      `json:"stale"`
}

// RefreshBatch is the assembled output of one fetch cycle across all series.
type RefreshBatch struct {
	Readings []SeriesReading `json:"readings"`
	Total    *float64        `json:"total"` // overall layoffs figure, nil if unavailable
	TotalErr string          `json:"total_error,omitempty"`
	AsOf     string          `json:"as_of"`
}

// Failed reports whether every series in the batch errored.
func (b *RefreshBatch) Failed() bool {
	for _, r := range b.Readings {
		if r.Error == "" {
			return false
		}
	}
	return len(b.Readings) > 0
}
