package main

import (
	"fmt"
	"strings"
)

const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskExtreme = "Extreme"
)

// controlHierarchy is ordered from most to least effective.
var controlHierarchy = []string{
	"Elimination",
	"Substitution",
	"Engineering Controls",
	"Administrative Controls",
	"Personal Protective Equipment (PPE)",
}

// RiskScore returns severity × likelihood.
func RiskScore(severity, likelihood int) int {
	return severity * likelihood
}

func RiskCategory(score int) string {
	switch {
	case score <= 5:
		return RiskLow
	case score <= 12:
		return RiskMedium
	case score <= 20:
		return RiskHigh
	default:
		return RiskExtreme
	}
}

func ControlHierarchy() []string {
	out := make([]string, len(controlHierarchy))
	copy(out, controlHierarchy)
	return out
}

type HazardInput struct {
	ActivityName string `json:"activity_name" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Hazard       string `json:"hazard" validate:"required"`
	Severity     int    `json:"severity" validate:"min=1,max=5"`
	Likelihood   int    `json:"likelihood" validate:"min=1,max=5"`
}

// HazardInsight builds the narrative saved alongside a HIRADC analysis.
func HazardInsight(in HazardInput) string {
	score := RiskScore(in.Severity, in.Likelihood)
	category := RiskCategory(score)

	var b strings.Builder
	fmt.Fprintf(&b, "Risk analysis for activity %q at %s identifies the following hazard: %s.\n\n",
		in.ActivityName, in.Location, in.Hazard)
	fmt.Fprintf(&b, "With severity %d and likelihood %d, this risk is categorised as %s with a risk score of %d.\n\n",
		in.Severity, in.Likelihood, category, score)
	b.WriteString("Controls to apply, following the hierarchy of controls:\n")
	descriptions := []string{
		"remove the hazard from the work process entirely",
		"replace the material or process with a safer alternative",
		"install technical measures that reduce exposure",
		"work procedures, training and worker rotation",
		"as the last line of defence",
	}
	for i, c := range controlHierarchy {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, c, descriptions[i])
	}
	b.WriteString("\n")
	if category == RiskHigh || category == RiskExtreme {
		b.WriteString("ATTENTION: this risk requires immediate action and strict controls before the activity continues.")
	} else {
		b.WriteString("Keep monitoring periodically and evaluate the effectiveness of the applied controls.")
	}
	return b.String()
}

type RiskMatrixCell struct {
	Severity   int    `json:"severity"`
	Likelihood int    `json:"likelihood"`
	Score      int    `json:"score"`
	Category   string `json:"category"`
}

// RiskMatrix returns the 5×5 grid with severity rows from 5 down to 1 and
// likelihood columns from 1 up to 5.
func RiskMatrix() [][]RiskMatrixCell {
	rows := make([][]RiskMatrixCell, 0, 5)
	for s := 5; s >= 1; s-- {
		row := make([]RiskMatrixCell, 0, 5)
		for l := 1; l <= 5; l++ {
			score := RiskScore(s, l)
			row = append(row, RiskMatrixCell{Severity: s, Likelihood: l, Score: score, Category: RiskCategory(score)})
		}
		rows = append(rows, row)
	}
	return rows
}
