package models

import "time"

// DisplacementType classifies how a product displaces work.
type DisplacementType string

const (
	DisplacementDirect         DisplacementType = "direct"
	DisplacementAugmentation   DisplacementType = "augmentation"
	DisplacementInfrastructure DisplacementType = "infrastructure"
)

// MarketTier classifies who a product is sold to.
type MarketTier string

const (
	TierEnterprise MarketTier = "enterprise"
	TierProsumer   MarketTier = "prosumer"
	TierConsumer   MarketTier = "consumer"
)

// Category is a named attribution bucket with a fixed share of the total.
// Weights across all categories sum to 1.0.
type Category struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Company is one scored roster entry. A nil LaunchDate means no deployed product.
type Company struct {
	Name              string           `json:"name"`
	Category          string           `json:"category"`
	RelativeScale     float64          `json:"relative_scale"`
	LaunchDate        *time.Time       `json:"launch_date,omitempty"`
	DisplacementType  DisplacementType `json:"displacement_type"`
	OperationalFactor float64          `json:"operational_factor"`
	MarketTier        MarketTier       `json:"market_tier"`
	Notes             string           `json:"notes,omitempty"`
}

// ScoredCompany is a transient attribution result row. It is recomputed on
// every attribution request and never persisted.
type ScoredCompany struct {
	Company
	CategoryShare   float64 `json:"category_share"`
	Maturity        float64 `json:"maturity"`
	RawScore        float64 `json:"raw_score"`
	NormalizedShare float64 `json:"normalized_share"`
	Attributed      int64   `json:"attributed"`
	Rank            int     `json:"rank"`
}

// AttributionResult is the full ranked output of one attribution pass.
type AttributionResult struct {
	Total      int64           `json:"total"`
	AsOf       time.Time       `json:"as_of"`
	Companies  []ScoredCompany `json:"companies"`
	Warnings   []string        `json:"warnings,omitempty"`
	Attributed int64           `json:"attributed_sum"`
}
