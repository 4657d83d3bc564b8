package maintenance

import (
	"fmt"

	"github.com/sentinelops/autopilot/metrics"
	"github.com/sentinelops/autopilot/model"
	"github.com/sentinelops/autopilot/util"
)

var categories = []string{"cpu", "memory", "disk", "network"}

// baselineScore is assigned to a category with no telemetry: absent
// signals widen uncertainty instead of reading as healthy or failing.
const baselineScore = 0.2

type RiskBands struct {
	High   float64
	Medium float64
}

func DefaultRiskBands() RiskBands {
	return RiskBands{High: 0.7, Medium: 0.4}
}

// Analyzer scores failure risk per resource category from telemetry
// snapshots. Scoring is deterministic and monotonic in utilization,
// growth trend and error rate; results are advisory only.
type Analyzer struct {
	bands   RiskBands
	clock   util.Clock
	metrics *metrics.Aggregator
}

func NewAnalyzer(bands RiskBands, clock util.Clock, agg *metrics.Aggregator) *Analyzer {
	return &Analyzer{
		bands:   bands,
		clock:   clock,
		metrics: agg,
	}
}

func (a *Analyzer) Assess(snapshot model.SystemSnapshot) *model.RiskAssessment {
	assessment := &model.RiskAssessment{
		Timestamp:       a.clock.Now(),
		Scores:          make(map[string]float64, len(categories)),
		Recommendations: []model.Recommendation{},
	}
	covered := 0
	for _, category := range categories {
		signal, ok := snapshot.Resources[category]
		if !ok {
			assessment.Scores[category] = baselineScore
			assessment.Recommendations = append(assessment.Recommendations, model.Recommendation{
				Type:      "telemetry_gap",
				Priority:  model.PRIORITY_LOW,
				Action:    fmt.Sprintf("restore %s telemetry collection", category),
				Timeframe: "7 days",
			})
			continue
		}
		covered++
		score := riskScore(signal)
		assessment.Scores[category] = score
		if rec, ok := a.recommend(category, score); ok {
			assessment.Recommendations = append(assessment.Recommendations, rec)
		}
	}
	// confidence tracks telemetry coverage: a score derived from
	// baselines instead of live signals is not a trustworthy prediction
	a.metrics.RecordPredictiveConfidence(100 * float64(covered) / float64(len(categories)))
	return assessment
}

// riskScore maps one resource signal to [0,1]. Utilization contributes
// through a piecewise linear curve that steepens past 60% and again
// past 85%; a positive growth trend and a nonzero error rate add
// bounded penalties on top.
func riskScore(signal model.ResourceSignal) float64 {
	util := clamp(signal.Utilization, 0, 100)
	var base float64
	switch {
	case util <= 60:
		base = util / 60 * 0.3
	case util <= 85:
		base = 0.3 + (util-60)/25*0.4
	default:
		base = 0.7 + (util-85)/15*0.3
	}

	trend := 0.0
	if signal.Trend > 0 {
		trend = clamp(signal.Trend/20, 0, 1) * 0.15
	}
	errors := clamp(signal.ErrorRate/10, 0, 1) * 0.2

	return clamp(base+trend+errors, 0, 1)
}

func (a *Analyzer) recommend(category string, score float64) (model.Recommendation, bool) {
	switch {
	case score >= a.bands.High:
		return model.Recommendation{
			Type:      "preventive_maintenance",
			Priority:  model.PRIORITY_CRITICAL,
			Action:    fmt.Sprintf("schedule immediate %s remediation", category),
			Timeframe: "24 hours",
		}, true
	case score >= a.bands.Medium:
		return model.Recommendation{
			Type:      "capacity_review",
			Priority:  model.PRIORITY_MEDIUM,
			Action:    fmt.Sprintf("review %s capacity and growth", category),
			Timeframe: "7 days",
		}, true
	}
	return model.Recommendation{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
