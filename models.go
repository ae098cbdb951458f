package main

import "time"

type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	PasswordResetToken  string     `json:"-"`
	PasswordResetSentAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

type HazardAnalysis struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	ActivityName           string    `json:"activity_name"`
	Location               string    `json:"location"`
	Hazard                 string    `json:"hazard"`
	Severity               int       `json:"severity"`
	Likelihood             int       `json:"likelihood"`
	RiskScore              int       `json:"risk_score"`
	RiskCategory           string    `json:"risk_category"`
	ControlRecommendations []string  `json:"control_recommendations"`
	AIInsight              string    `json:"ai_insight"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

type FaultTreeAnalysis struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"`
	Title     string             `json:"title"`
	TopEvent  string             `json:"top_event"`
	Structure FaultTreeStructure `json:"structure"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type EventTreeAnalysis struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Title           string         `json:"title"`
	InitiatingEvent string         `json:"initiating_event"`
	Barriers        []Barrier      `json:"barriers"`
	Outcomes        []EventOutcome `json:"outcomes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type CauseConsequenceAnalysis struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	CriticalEvent   string     `json:"critical_event"`
	CauseTree       []CCAEvent `json:"cause_tree"`
	ConsequenceTree []CCAEvent `json:"consequence_tree"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CCAEvent is one node of a cause or consequence branch; slice order is diagram order.
type CCAEvent struct {
	ID       string   `json:"id"`
	Text     string   `json:"text" validate:"required"`
	GateType GateType `json:"gate_type" validate:"omitempty,oneof=AND OR"`
}

type SafetyMetricsCalculation struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	SafetyInputs
	SafetyMetrics
	CreatedAt time.Time `json:"created_at"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisType tags a record with the collection it lives in.
type AnalysisType string

const (
	AnalysisHIRADC AnalysisType = "HIRADC"
	AnalysisFTA    AnalysisType = "FTA"
	AnalysisETA    AnalysisType = "ETA"
	AnalysisCCA    AnalysisType = "CCA"
	AnalysisK3     AnalysisType = "K3"
)

var analysisCollections = map[AnalysisType]string{
	AnalysisHIRADC: "hiradc_analyses",
	AnalysisFTA:    "fta_analyses",
	AnalysisETA:    "eta_analyses",
	AnalysisCCA:    "cca_analyses",
	AnalysisK3:     "k3_calculations",
}

// Collection returns the table backing the type and false for unknown types.
func (t AnalysisType) Collection() (string, bool) {
	c, ok := analysisCollections[t]
	return c, ok
}

// ReportEntry is one row of the unified report list.
type ReportEntry struct {
	ID        string       `json:"id"`
	Type      AnalysisType `json:"type"`
	Title     string       `json:"title"`
	Status    string       `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
