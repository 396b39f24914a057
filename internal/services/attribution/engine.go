package attribution

import (
	"fmt"
	"math"
	"sort"
	"time"

	"LaborPulse/internal/domain/models"
	"LaborPulse/pkg/config"
	"LaborPulse/pkg/util"
)

// Multiplier tables. Fixed model constants, not configuration.
var typeMultipliers = map[models.DisplacementType]float64{
	models.DisplacementDirect:         1.0,
	models.DisplacementAugmentation:   0.4,
	models.DisplacementInfrastructure: 0.25,
}

var tierMultipliers = map[models.MarketTier]float64{
	models.TierEnterprise: 1.0,
	models.TierProsumer:   0.6,
	models.TierConsumer:   0.15,
}

// Engine distributes an aggregate displaced-jobs figure across the roster.
// Attribute is pure given the constructed tables and the passed clock time;
// results are transient and never persisted.
type Engine struct {
	categories map[string]models.Category
	companies  []models.Company
	inflection time.Time
	loadWarns  []string
}

// New builds an engine from the static model tables. Invariant violations
// (unknown categories, bad dates) are returned as warnings; the offending
// company is kept in the roster and excluded at scoring time.
func New(model *config.ModelConfig) (*Engine, []string) {
	e := &Engine{
		categories: make(map[string]models.Category, len(model.Categories)),
		inflection: model.InflectionDate(),
	}

	for _, c := range model.Categories {
		e.categories[c.ID] = models.Category{ID: c.ID, Name: c.Name, Weight: c.Weight}
	}

	var warns []string
	for _, mc := range model.Companies {
		co := models.Company{
			Name:              mc.Name,
			Category:          mc.Category,
			RelativeScale:     mc.RelativeScale,
			DisplacementType:  models.DisplacementType(mc.DisplacementType),
			OperationalFactor: mc.OperationalFactor,
			MarketTier:        models.MarketTier(mc.MarketTier),
			Notes:             mc.Notes,
		}
		if mc.LaunchDate != "" {
			if t, ok := util.ParseTime(mc.LaunchDate); ok {
				co.LaunchDate = &t
			} else {
				warns = append(warns, fmt.Sprintf("company %s: unparseable launch date %q, treated as unlaunched", mc.Name, mc.LaunchDate))
			}
		}
		e.companies = append(e.companies, co)
	}

	e.loadWarns = warns
	return e, warns
}

// Companies returns the parsed roster.
func (e *Engine) Companies() []models.Company { return e.companies }

// TypeMultipliers returns the displacement-type multiplier table.
func TypeMultipliers() map[string]float64 {
	out := make(map[string]float64, len(typeMultipliers))
	for k, v := range typeMultipliers {
		out[string(k)] = v
	}
	return out
}

// TierMultipliers returns the market-tier multiplier table.
func TierMultipliers() map[string]float64 {
	out := make(map[string]float64, len(tierMultipliers))
	for k, v := range tierMultipliers {
		out[string(k)] = v
	}
	return out
}

// Attribute distributes total across the roster using the documented scoring
// formula and returns ranked, normalized shares. Companies referencing an
// unknown category are excluded and reported as warnings, never as a failure.
func (e *Engine) Attribute(total int64, now time.Time) models.AttributionResult {
	res := models.AttributionResult{
		Total: total,
		AsOf:  now,
	}
	res.Warnings = append(res.Warnings, e.loadWarns...)

	// Per-category log-scale denominators over valid companies only.
	catLogSum := make(map[string]float64, len(e.categories))
	valid := make([]models.Company, 0, len(e.companies))
	for _, co := range e.companies {
		if _, ok := e.categories[co.Category]; !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("company %s: unknown category %q, excluded from scoring", co.Name, co.Category))
			continue
		}
		valid = append(valid, co)
		catLogSum[co.Category] += math.Log10(co.RelativeScale + 1)
	}

	scored := make([]models.ScoredCompany, 0, len(valid))
	rawSum := 0.0
	for _, co := range valid {
		cat := e.categories[co.Category]

		// Log-scaling compresses scale disparities so one giant entity
		// cannot capture the whole category.
		share := 0.0
		if catLogSum[co.Category] > 0 {
			share = math.Log10(co.RelativeScale+1) / catLogSum[co.Category]
		}

		maturity := DeploymentMaturity(co.LaunchDate, e.inflection, now)
		raw := cat.Weight * share * maturity *
			typeMultipliers[co.DisplacementType] *
			co.OperationalFactor *
			tierMultipliers[co.MarketTier]

		scored = append(scored, models.ScoredCompany{
			Company:       co,
			CategoryShare: share,
			Maturity:      maturity,
			RawScore:      raw,
		})
		rawSum += raw
	}

	if rawSum > 0 {
		for i := range scored {
			scored[i].NormalizedShare = scored[i].RawScore / rawSum
			scored[i].Attributed = int64(math.Round(float64(total) * scored[i].NormalizedShare))
		}
	}

	// Stable sort keeps input order for equal amounts.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Attributed > scored[j].Attributed
	})

	rank := 0
	var prev int64 = -1
	for i := range scored {
		if i == 0 || scored[i].Attributed != prev {
			rank++
		}
		scored[i].Rank = rank
		prev = scored[i].Attributed
		res.Attributed += scored[i].Attributed
	}

	res.Companies = scored
	return res
}
