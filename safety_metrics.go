package main

import "math"

// SafetyInputs are the raw counts entered on the K3 calculator.
type SafetyInputs struct {
	TotalLTI         float64 `json:"total_lti" validate:"min=0"`
	TotalIncidents   float64 `json:"total_incidents" validate:"min=0"`
	TotalWorkHours   float64 `json:"total_work_hours" validate:"min=0"`
	TotalDaysLost    float64 `json:"total_days_lost" validate:"min=0"`
	EmployeesWithPPE float64 `json:"employees_with_ppe" validate:"min=0"`
	TotalEmployees   float64 `json:"total_employees" validate:"min=0"`
}

type SafetyMetrics struct {
	LTIR          float64 `json:"ltir"`
	TRIR          float64 `json:"trir"`
	SeverityRate  float64 `json:"severity_rate"`
	FrequencyRate float64 `json:"frequency_rate"`
	SafeManHours  float64 `json:"safe_man_hours"`
	PPECompliance float64 `json:"ppe_compliance"`
}

func LTIR(lostTimeInjuries, workHours float64) float64 {
	if workHours <= 0 {
		return 0
	}
	return lostTimeInjuries / workHours * 1_000_000
}

func TRIR(incidents, workHours float64) float64 {
	if workHours <= 0 {
		return 0
	}
	return incidents / workHours * 200_000
}

func SeverityRate(daysLost, incidents float64) float64 {
	if incidents <= 0 {
		return 0
	}
	return daysLost / incidents
}

func FrequencyRate(incidents, workHours float64) float64 {
	if workHours <= 0 {
		return 0
	}
	return incidents / workHours * 1_000_000
}

// SafeManHours subtracts eight hours per lost day, never going below zero.
func SafeManHours(workHours, daysLost float64) float64 {
	return math.Max(0, workHours-daysLost*8)
}

func ComplianceRate(withPPE, totalEmployees float64) float64 {
	if totalEmployees <= 0 {
		return 0
	}
	return withPPE / totalEmployees * 100
}

// CalculateSafetyMetrics derives every K3 metric. Rates are rounded to two
// decimals the way they are stored and displayed.
func CalculateSafetyMetrics(in SafetyInputs) SafetyMetrics {
	return SafetyMetrics{
		LTIR:          round2(LTIR(in.TotalLTI, in.TotalWorkHours)),
		TRIR:          round2(TRIR(in.TotalIncidents, in.TotalWorkHours)),
		SeverityRate:  round2(SeverityRate(in.TotalDaysLost, in.TotalIncidents)),
		FrequencyRate: round2(FrequencyRate(in.TotalIncidents, in.TotalWorkHours)),
		SafeManHours:  SafeManHours(in.TotalWorkHours, in.TotalDaysLost),
		PPECompliance: round2(ComplianceRate(in.EmployeesWithPPE, in.TotalEmployees)),
	}
}

type MetricRating string

const (
	RatingGood     MetricRating = "good"
	RatingWarning  MetricRating = "warning"
	RatingCritical MetricRating = "critical"
	RatingNeutral  MetricRating = "neutral"
)

type SafetyRatings struct {
	LTIR          MetricRating `json:"ltir"`
	TRIR          MetricRating `json:"trir"`
	SeverityRate  MetricRating `json:"severity_rate"`
	FrequencyRate MetricRating `json:"frequency_rate"`
	SafeManHours  MetricRating `json:"safe_man_hours"`
	PPECompliance MetricRating `json:"ppe_compliance"`
}

func RateSafetyMetrics(m SafetyMetrics) SafetyRatings {
	return SafetyRatings{
		LTIR:          rateIncidentRate(m.LTIR),
		TRIR:          rateIncidentRate(m.TRIR),
		SeverityRate:  RatingNeutral,
		FrequencyRate: rateIncidentRate(m.FrequencyRate),
		SafeManHours:  RatingNeutral,
		PPECompliance: rateCompliance(m.PPECompliance),
	}
}

func rateIncidentRate(v float64) MetricRating {
	switch {
	case v <= 2:
		return RatingGood
	case v <= 5:
		return RatingWarning
	default:
		return RatingCritical
	}
}

func rateCompliance(v float64) MetricRating {
	switch {
	case v >= 90:
		return RatingGood
	case v >= 70:
		return RatingWarning
	default:
		return RatingCritical
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
