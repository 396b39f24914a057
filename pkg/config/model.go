package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelCategory is one attribution bucket with its fixed share of the total.
type ModelCategory struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// ModelCompany is one roster entry with its scoring attributes.
type ModelCompany struct {
	Name              string  `yaml:"name"`
	Category          string  `yaml:"category"`
	RelativeScale     float64 `yaml:"relative_scale"` // valuation proxy, billions
	LaunchDate        string  `yaml:"launch_date"`    // YYYY-MM-DD, empty = no deployed product
	DisplacementType  string  `yaml:"displacement_type"`
	OperationalFactor float64 `yaml:"operational_factor"`
	MarketTier        string  `yaml:"market_tier"`
	Notes             string  `yaml:"notes"`
}

// ExposureRate is the assumed AI-attributable fraction of layoffs in one sector.
type ExposureRate struct {
	Low  float64 `yaml:"low"`
	Mid  float64 `yaml:"mid"`
	High float64 `yaml:"high"`
}

// ModelConfig holds the static attribution and exposure tables. It is built once
// at process start and treated as immutable afterwards.
type ModelConfig struct {
	Name       string                  `yaml:"name"`
	Epoch      string                  `yaml:"epoch"`      // counter integration start, YYYY-MM-DD
	Inflection string                  `yaml:"inflection"` // adoption era start, YYYY-MM-DD
	Categories []ModelCategory         `yaml:"categories"`
	Companies  []ModelCompany          `yaml:"companies"`
	Exposure   map[string]ExposureRate `yaml:"exposure"` // sector id -> rates
	OtherRate  ExposureRate            `yaml:"other"`    // residual for untracked sectors
	DataSource string                  `yaml:"data_source"`
	Limits     []string                `yaml:"limitations"`
}

const (
	defaultEpoch      = "2025-01-01"
	defaultInflection = "2022-11-30"
)

// LoadModel reads the model tables from YAML. Invariant violations (weights not
// summing to 1, bad dates, inverted exposure ranges) are returned as warnings so
// the caller can log them; only an unreadable or unparseable file is an error.
func LoadModel(path string) (*ModelConfig, []string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read model: %w", err)
	}

	var m ModelConfig
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, nil, fmt.Errorf("parse model: %w", err)
	}

	if m.Epoch == "" {
		m.Epoch = defaultEpoch
	}
	if m.Inflection == "" {
		m.Inflection = defaultInflection
	}

	return &m, m.Warnings(), nil
}

// Warnings checks model invariants and reports violations without failing.
func (m *ModelConfig) Warnings() []string {
	var warns []string

	sum := 0.0
	known := make(map[string]bool, len(m.Categories))
	for _, c := range m.Categories {
		sum += c.Weight
		known[c.ID] = true
		if c.Weight <= 0 || c.Weight > 1 {
			warns = append(warns, fmt.Sprintf("category %s: weight %.3f outside (0,1]", c.ID, c.Weight))
		}
	}
	if math.Abs(sum-1.0) > 0.01 {
		warns = append(warns, fmt.Sprintf("category weights sum to %.4f, expected 1.0 +/- 0.01", sum))
	}

	for _, co := range m.Companies {
		if !known[co.Category] {
			warns = append(warns, fmt.Sprintf("company %s: unknown category %q", co.Name, co.Category))
		}
		if co.OperationalFactor < 0 || co.OperationalFactor > 1 {
			warns = append(warns, fmt.Sprintf("company %s: operational_factor %.2f outside [0,1]", co.Name, co.OperationalFactor))
		}
		if co.LaunchDate != "" {
			if _, err := time.Parse("2006-01-02", co.LaunchDate); err != nil {
				warns = append(warns, fmt.Sprintf("company %s: bad launch_date %q", co.Name, co.LaunchDate))
			}
		}
	}

	for id, r := range m.Exposure {
		if !(r.Low <= r.Mid && r.Mid <= r.High) {
			warns = append(warns, fmt.Sprintf("exposure %s: expected low <= mid <= high, got %.3f/%.3f/%.3f", id, r.Low, r.Mid, r.High))
		}
	}

	if _, err := time.Parse("2006-01-02", m.Epoch); err != nil {
		warns = append(warns, fmt.Sprintf("bad epoch date %q", m.Epoch))
	}
	if _, err := time.Parse("2006-01-02", m.Inflection); err != nil {
		warns = append(warns, fmt.Sprintf("bad inflection date %q", m.Inflection))
	}

	return warns
}

// EpochDate returns the parsed epoch, falling back to the default on bad input.
func (m *ModelConfig) EpochDate() time.Time {
	if t, err := time.Parse("2006-01-02", m.Epoch); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", defaultEpoch)
	return t
}

// InflectionDate returns the parsed inflection date, falling back to the default.
func (m *ModelConfig) InflectionDate() time.Time {
	if t, err := time.Parse("2006-01-02", m.Inflection); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02", defaultInflection)
	return t
}
