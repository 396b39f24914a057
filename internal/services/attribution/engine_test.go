package attribution

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LaborPulse/pkg/config"
)

func testModel(companies ...config.ModelCompany) *config.ModelConfig {
	return &config.ModelConfig{
		Name:       "test-model",
		Epoch:      "2025-01-01",
		Inflection: "2022-11-30",
		Categories: []config.ModelCategory{
			{ID: "coding", Name: "Coding tools", Weight: 0.5},
			{ID: "support", Name: "Customer support", Weight: 0.5},
		},
		Companies: companies,
	}
}

var scoringNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestAttributeSumWithinRoundingBound(t *testing.T) {
	model := testModel(
		config.ModelCompany{Name: "a", Category: "coding", RelativeScale: 100, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "b", Category: "coding", RelativeScale: 40, LaunchDate: "2023-06-01", DisplacementType: "augmentation", OperationalFactor: 0.8, MarketTier: "prosumer"},
		config.ModelCompany{Name: "c", Category: "support", RelativeScale: 15, LaunchDate: "2024-01-01", DisplacementType: "direct", OperationalFactor: 0.9, MarketTier: "enterprise"},
		config.ModelCompany{Name: "d", Category: "support", RelativeScale: 7, LaunchDate: "2024-06-01", DisplacementType: "infrastructure", OperationalFactor: 0.5, MarketTier: "consumer"},
	)
	eng, warns := New(model)
	require.Empty(t, warns)

	const total = 123457
	res := eng.Attribute(total, scoringNow)
	require.Len(t, res.Companies, 4)

	// Rounding error is at most one unit per scored company.
	diff := res.Attributed - total
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, int64(len(res.Companies)))
}

func TestAttributeCompoundingMultipliers(t *testing.T) {
	// A: 10x the scale of B, direct+enterprise vs infrastructure+consumer.
	// Compounded multipliers must widen the gap beyond the scale ratio.
	model := testModel(
		config.ModelCompany{Name: "A", Category: "coding", RelativeScale: 100, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "B", Category: "coding", RelativeScale: 10, LaunchDate: "2023-01-01", DisplacementType: "infrastructure", OperationalFactor: 1.0, MarketTier: "consumer"},
	)
	eng, _ := New(model)
	res := eng.Attribute(1000, scoringNow)
	require.Len(t, res.Companies, 2)

	a, b := res.Companies[0], res.Companies[1]
	require.Equal(t, "A", a.Name)
	assert.Greater(t, a.Attributed, b.Attributed)
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 2, b.Rank)

	// Raw score ratio exceeds the log-compressed scale ratio alone.
	scaleRatio := a.CategoryShare / b.CategoryShare
	assert.Greater(t, a.RawScore/b.RawScore, scaleRatio)
}

func TestAttributeNilLaunchScoresZero(t *testing.T) {
	model := testModel(
		config.ModelCompany{Name: "launched", Category: "coding", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "vapor", Category: "coding", RelativeScale: 500, DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
	)
	eng, _ := New(model)
	res := eng.Attribute(1000, scoringNow)

	for _, c := range res.Companies {
		if c.Name == "vapor" {
			assert.Zero(t, c.Attributed)
			assert.Zero(t, c.Maturity)
		}
	}
}

func TestAttributeZeroOperationalFactor(t *testing.T) {
	model := testModel(
		config.ModelCompany{Name: "active", Category: "coding", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "shelved", Category: "coding", RelativeScale: 900, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 0, MarketTier: "enterprise"},
	)
	eng, _ := New(model)
	res := eng.Attribute(1000, scoringNow)

	for _, c := range res.Companies {
		if c.Name == "shelved" {
			assert.Zero(t, c.Attributed)
			assert.Zero(t, c.RawScore)
		}
	}
}

func TestAttributeUnknownCategoryExcludedWithWarning(t *testing.T) {
	model := testModel(
		config.ModelCompany{Name: "ok", Category: "coding", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "lost", Category: "robotics", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
	)
	eng, _ := New(model)
	res := eng.Attribute(1000, scoringNow)

	require.Len(t, res.Companies, 1)
	assert.Equal(t, "ok", res.Companies[0].Name)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "lost")
}

func TestAttributeDenseRankTies(t *testing.T) {
	// Identical companies tie on attributed amount and share a rank;
	// input order is preserved between them.
	model := testModel(
		config.ModelCompany{Name: "first", Category: "coding", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "second", Category: "coding", RelativeScale: 50, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
		config.ModelCompany{Name: "small", Category: "support", RelativeScale: 1, LaunchDate: "2023-01-01", DisplacementType: "infrastructure", OperationalFactor: 0.5, MarketTier: "consumer"},
	)
	eng, _ := New(model)
	res := eng.Attribute(10000, scoringNow)
	require.Len(t, res.Companies, 3)

	assert.Equal(t, "first", res.Companies[0].Name)
	assert.Equal(t, "second", res.Companies[1].Name)
	assert.Equal(t, res.Companies[0].Rank, res.Companies[1].Rank)
	assert.Equal(t, res.Companies[0].Rank+1, res.Companies[2].Rank)
}

func TestAttributeEmptyCategoryDenominator(t *testing.T) {
	// RelativeScale 0 for every company in a category zeroes the log-sum
	// denominator; shares collapse to 0 instead of dividing by zero.
	model := testModel(
		config.ModelCompany{Name: "z", Category: "coding", RelativeScale: 0, LaunchDate: "2023-01-01", DisplacementType: "direct", OperationalFactor: 1.0, MarketTier: "enterprise"},
	)
	eng, _ := New(model)
	res := eng.Attribute(1000, scoringNow)
	require.Len(t, res.Companies, 1)
	assert.Zero(t, res.Companies[0].CategoryShare)
	assert.Zero(t, res.Companies[0].Attributed)
}
