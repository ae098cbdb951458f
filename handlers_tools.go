package main

import (
	"net/http"
)

// K3 calculator handlers

func (a *App) getSafetyCalculationsHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	calcs, err := a.store.ListSafetyCalculations(r.Context(), p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load calculations", err)
		return
	}
	writeJSON(w, http.StatusOK, calcs)
}

func (a *App) createSafetyCalculationHandler(w http.ResponseWriter, r *http.Request) {
	var in SafetyInputs
	if !decodeAndValidate(w, r, &in) {
		return
	}
	p := principalFrom(r.Context())
	calc := SafetyMetricsCalculation{
		UserID:        p.UserID,
		SafetyInputs:  in,
		SafetyMetrics: CalculateSafetyMetrics(in),
	}
	if err := a.store.CreateSafetyCalculation(r.Context(), &calc); err != nil {
		storeError(w, r, "Failed to save calculation.", err)
		return
	}
	writeJSON(w, http.StatusCreated, calc)
}

type safetyPreview struct {
	Metrics SafetyMetrics `json:"metrics"`
	Ratings SafetyRatings `json:"ratings"`
}

func (a *App) previewSafetyMetricsHandler(w http.ResponseWriter, r *http.Request) {
	var in SafetyInputs
	if !decodeAndValidate(w, r, &in) {
		return
	}
	m := CalculateSafetyMetrics(in)
	writeJSON(w, http.StatusOK, safetyPreview{Metrics: m, Ratings: RateSafetyMetrics(m)})
}

func (a *App) riskMatrixHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RiskMatrix())
}

// Contact & about

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

func (a *App) createContactMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	msg := ContactMessage{
		UserID:  p.UserID,
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
		Status:  "unread",
	}
	if err := a.store.CreateContactMessage(r.Context(), &msg); err != nil {
		storeError(w, r, "Failed to send message. Please try again.", err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type systemFeature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var systemFeatures = []systemFeature{
	{"AI-HIRADC", "Hazard identification and risk assessment with recommended controls following the hierarchy of controls."},
	{"Fault Tree Analysis (FTA)", "Systematic deductive analysis to find the root causes of an undesired top event."},
	{"Event Tree Analysis (ETA)", "Inductive probabilistic analysis of the consequences of an initiating event through layers of protective barriers."},
	{"Cause Consequence Analysis (CCA)", "Combines FTA and ETA to show the relation between the causes and consequences of a critical event."},
	{"K3 Calculator", "Automatic calculation of occupational safety metrics such as LTIR, TRIR, severity rate and frequency rate."},
	{"Integrated Reports", "One list that brings together the results of every risk analysis."},
}

func (a *App) aboutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     "SMART OSH",
		"features": systemFeatures,
	})
}
