package main

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// HIRADC handlers

type hazardRequest struct {
	ActivityName string `json:"activity_name" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Hazard       string `json:"hazard" validate:"required"`
	Severity     int    `json:"severity" validate:"min=1,max=5"`
	Likelihood   int    `json:"likelihood" validate:"min=1,max=5"`
	AIInsight    string `json:"ai_insight"`
}

// toAnalysis recomputes every derived field; client-sent scores are never trusted.
func (req hazardRequest) toAnalysis(userID string) HazardAnalysis {
	in := HazardInput{
		ActivityName: req.ActivityName,
		Location:     req.Location,
		Hazard:       req.Hazard,
		Severity:     req.Severity,
		Likelihood:   req.Likelihood,
	}
	score := RiskScore(in.Severity, in.Likelihood)
	insight := req.AIInsight
	if insight == "" {
		insight = HazardInsight(in)
	}
	return HazardAnalysis{
		UserID:                 userID,
		ActivityName:           in.ActivityName,
		Location:               in.Location,
		Hazard:                 in.Hazard,
		Severity:               in.Severity,
		Likelihood:             in.Likelihood,
		RiskScore:              score,
		RiskCategory:           RiskCategory(score),
		ControlRecommendations: ControlHierarchy(),
		AIInsight:              insight,
	}
}

func (a *App) getHazardAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	analyses, err := a.store.ListHazardAnalyses(r.Context(), p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load analyses", err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (a *App) createHazardAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req hazardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	if err := a.store.CreateHazardAnalysis(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to save analysis. Please try again.", err)
		return
	}
	slog.Info("HIRADC analysis saved", "id", analysis.ID, "user", p.UserID, "category", analysis.RiskCategory)
	writeJSON(w, http.StatusCreated, analysis)
}

func (a *App) updateHazardAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req hazardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	analysis.ID = mux.Vars(r)["id"]
	if err := a.store.UpdateHazardAnalysis(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to update analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type hazardPreview struct {
	RiskScore              int      `json:"risk_score"`
	RiskCategory           string   `json:"risk_category"`
	ControlRecommendations []string `json:"control_recommendations"`
	AIInsight              string   `json:"ai_insight"`
}

func (a *App) previewHazardHandler(w http.ResponseWriter, r *http.Request) {
	var in HazardInput
	if !decodeAndValidate(w, r, &in) {
		return
	}
	score := RiskScore(in.Severity, in.Likelihood)
	writeJSON(w, http.StatusOK, hazardPreview{
		RiskScore:              score,
		RiskCategory:           RiskCategory(score),
		ControlRecommendations: ControlHierarchy(),
		AIInsight:              HazardInsight(in),
	})
}

// FTA handlers

type faultTreeRequest struct {
	Title     string             `json:"title" validate:"required"`
	TopEvent  string             `json:"top_event" validate:"required"`
	Structure FaultTreeStructure `json:"structure"`
}

func (req faultTreeRequest) toAnalysis(userID string) FaultTreeAnalysis {
	s := normalizeStructure(req.Structure)
	s.TopEvent.Text = req.TopEvent
	return FaultTreeAnalysis{
		UserID:    userID,
		Title:     req.Title,
		TopEvent:  req.TopEvent,
		Structure: s,
	}
}

// normalizeStructure fills in the default top node and empty lists.
func normalizeStructure(s FaultTreeStructure) FaultTreeStructure {
	def := NewFaultTreeStructure()
	if s.TopEvent.ID == "" {
		text := s.TopEvent.Text
		s.TopEvent = def.TopEvent
		s.TopEvent.Text = text
	}
	if s.Gates == nil {
		s.Gates = def.Gates
	}
	if s.IntermediateEvents == nil {
		s.IntermediateEvents = def.IntermediateEvents
	}
	if s.BasicEvents == nil {
		s.BasicEvents = def.BasicEvents
	}
	return s
}

func (a *App) decodeFaultTree(w http.ResponseWriter, r *http.Request) (faultTreeRequest, bool) {
	var req faultTreeRequest
	if !decodeAndValidate(w, r, &req) {
		return req, false
	}
	if err := req.Structure.CheckReferences(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": map[string]string{"structure": err.Error()},
		})
		return req, false
	}
	return req, true
}

func (a *App) getFaultTreesHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	analyses, err := a.store.ListFaultTrees(r.Context(), p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load FTA analyses", err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (a *App) createFaultTreeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeFaultTree(w, r)
	if !ok {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	if err := a.store.CreateFaultTree(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to save FTA analysis.", err)
		return
	}
	writeJSON(w, http.StatusCreated, analysis)
}

func (a *App) updateFaultTreeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeFaultTree(w, r)
	if !ok {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	analysis.ID = mux.Vars(r)["id"]
	if err := a.store.UpdateFaultTree(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to update FTA analysis.", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type faultTreeNodeRequest struct {
	Structure FaultTreeStructure `json:"structure"`
	Kind      string             `json:"kind" validate:"oneof=intermediate basic"`
	Text      string             `json:"text" validate:"required"`
	GateType  GateType           `json:"gate_type" validate:"omitempty,oneof=AND OR"`
	ParentID  string             `json:"parent_id"`
}

// addFaultTreeNodeHandler places a new event in the posted structure and
// returns the result without saving it.
func (a *App) addFaultTreeNodeHandler(w http.ResponseWriter, r *http.Request) {
	var req faultTreeNodeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s := normalizeStructure(req.Structure)
	parent := req.ParentID
	if parent == "" {
		parent = topEventID
	}

	var err error
	if req.Kind == "intermediate" {
		gate := req.GateType
		if gate == "" {
			gate = GateAND
		}
		_, err = s.AddIntermediateEvent(req.Text, gate, parent)
	} else {
		_, err = s.AddBasicEvent(req.Text, parent)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Validation failed",
			"fields": map[string]string{"parent_id": err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ETA handlers

type eventTreeRequest struct {
	Title           string    `json:"title" validate:"required"`
	InitiatingEvent string    `json:"initiating_event" validate:"required"`
	Barriers        []Barrier `json:"barriers" validate:"max=16,dive"`
}

func (req eventTreeRequest) toAnalysis(userID string) EventTreeAnalysis {
	barriers := withBarrierIDs(req.Barriers)
	return EventTreeAnalysis{
		UserID:          userID,
		Title:           req.Title,
		InitiatingEvent: req.InitiatingEvent,
		Barriers:        barriers,
		Outcomes:        EnumerateOutcomes(barriers),
	}
}

func withBarrierIDs(in []Barrier) []Barrier {
	out := make([]Barrier, len(in))
	for i, b := range in {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		out[i] = b
	}
	return out
}

func (a *App) getEventTreesHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	analyses, err := a.store.ListEventTrees(r.Context(), p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load ETA analyses", err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (a *App) createEventTreeHandler(w http.ResponseWriter, r *http.Request) {
	var req eventTreeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	if err := a.store.CreateEventTree(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to save ETA analysis.", err)
		return
	}
	writeJSON(w, http.StatusCreated, analysis)
}

func (a *App) updateEventTreeHandler(w http.ResponseWriter, r *http.Request) {
	var req eventTreeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	analysis.ID = mux.Vars(r)["id"]
	if err := a.store.UpdateEventTree(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to update ETA analysis.", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type eventTreePreviewRequest struct {
	Barriers []Barrier `json:"barriers" validate:"max=16,dive"`
}

func (a *App) previewEventTreeHandler(w http.ResponseWriter, r *http.Request) {
	var req eventTreePreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"outcomes": EnumerateOutcomes(req.Barriers)})
}

// CCA handlers

type causeConsequenceRequest struct {
	Title           string     `json:"title" validate:"required"`
	CriticalEvent   string     `json:"critical_event" validate:"required"`
	CauseTree       []CCAEvent `json:"cause_tree" validate:"dive"`
	ConsequenceTree []CCAEvent `json:"consequence_tree" validate:"dive"`
}

func (req causeConsequenceRequest) toAnalysis(userID string) CauseConsequenceAnalysis {
	return CauseConsequenceAnalysis{
		UserID:          userID,
		Title:           req.Title,
		CriticalEvent:   req.CriticalEvent,
		CauseTree:       normalizeCCAEvents(req.CauseTree),
		ConsequenceTree: normalizeCCAEvents(req.ConsequenceTree),
	}
}

func normalizeCCAEvents(in []CCAEvent) []CCAEvent {
	out := make([]CCAEvent, len(in))
	for i, ev := range in {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.GateType == "" {
			ev.GateType = GateAND
		}
		out[i] = ev
	}
	return out
}

func (a *App) getCauseConsequencesHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	analyses, err := a.store.ListCauseConsequences(r.Context(), p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load CCA analyses", err)
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func (a *App) createCauseConsequenceHandler(w http.ResponseWriter, r *http.Request) {
	var req causeConsequenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	if err := a.store.CreateCauseConsequence(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to save CCA analysis.", err)
		return
	}
	writeJSON(w, http.StatusCreated, analysis)
}

func (a *App) updateCauseConsequenceHandler(w http.ResponseWriter, r *http.Request) {
	var req causeConsequenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	p := principalFrom(r.Context())
	analysis := req.toAnalysis(p.UserID)
	analysis.ID = mux.Vars(r)["id"]
	if err := a.store.UpdateCauseConsequence(r.Context(), &analysis); err != nil {
		storeError(w, r, "Failed to update CCA analysis.", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// deleteRecordHandler serves DELETE for every collection keyed by t.
func (a *App) deleteRecordHandler(t AnalysisType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := principalFrom(r.Context())
		id := mux.Vars(r)["id"]
		if err := a.store.DeleteRecord(r.Context(), t, p.UserID, id); err != nil {
			storeError(w, r, "Failed to delete "+string(t)+" record.", err)
			return
		}
		slog.Info("record deleted", "type", t, "id", id, "user", p.UserID)
		w.WriteHeader(http.StatusOK)
	}
}
