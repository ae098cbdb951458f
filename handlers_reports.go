package main

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const reportsPerPage = 10

type reportSources struct {
	hazards      []HazardAnalysis
	faultTrees   []FaultTreeAnalysis
	eventTrees   []EventTreeAnalysis
	causes       []CauseConsequenceAnalysis
	calculations []SafetyMetricsCalculation
}

// fetchReportSources loads all five collections concurrently. A single
// failure fails the whole aggregate.
func (a *App) fetchReportSources(r *http.Request, userID string) (reportSources, error) {
	var src reportSources
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		src.hazards, err = a.store.ListHazardAnalyses(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		src.faultTrees, err = a.store.ListFaultTrees(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		src.eventTrees, err = a.store.ListEventTrees(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		src.causes, err = a.store.ListCauseConsequences(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		src.calculations, err = a.store.ListSafetyCalculations(ctx, userID)
		return err
	})
	return src, g.Wait()
}

func buildReportEntries(src reportSources) []ReportEntry {
	entries := make([]ReportEntry, 0,
		len(src.hazards)+len(src.faultTrees)+len(src.eventTrees)+len(src.causes)+len(src.calculations))
	for _, h := range src.hazards {
		entries = append(entries, ReportEntry{ID: h.ID, Type: AnalysisHIRADC, Title: h.ActivityName, Status: h.RiskCategory, CreatedAt: h.CreatedAt})
	}
	for _, f := range src.faultTrees {
		entries = append(entries, ReportEntry{ID: f.ID, Type: AnalysisFTA, Title: f.Title, Status: "Completed", CreatedAt: f.CreatedAt})
	}
	for _, e := range src.eventTrees {
		entries = append(entries, ReportEntry{ID: e.ID, Type: AnalysisETA, Title: e.Title, Status: "Completed", CreatedAt: e.CreatedAt})
	}
	for _, c := range src.causes {
		entries = append(entries, ReportEntry{ID: c.ID, Type: AnalysisCCA, Title: c.Title, Status: "Completed", CreatedAt: c.CreatedAt})
	}
	for _, k := range src.calculations {
		entries = append(entries, ReportEntry{
			ID:        k.ID,
			Type:      AnalysisK3,
			Title:     "K3 Calculation - " + k.CreatedAt.Format("2006-01-02"),
			Status:    "LTIR: " + strconv.FormatFloat(k.LTIR, 'f', -1, 64),
			CreatedAt: k.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// filterReports keeps entries of the given type (empty or "all" keeps every
// type) whose title or type contains query, ignoring case.
func filterReports(entries []ReportEntry, t AnalysisType, query string) []ReportEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]ReportEntry, 0, len(entries))
	for _, e := range entries {
		if t != "" && t != "all" && e.Type != t {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(string(e.Type)), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

type ReportPage struct {
	Items      []ReportEntry `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

func paginateReports(entries []ReportEntry, page int) ReportPage {
	totalPages := int(math.Ceil(float64(len(entries)) / reportsPerPage))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	start := (page - 1) * reportsPerPage
	end := min(start+reportsPerPage, len(entries))
	items := []ReportEntry{}
	if start < end {
		items = entries[start:end]
	}
	return ReportPage{Items: items, Total: len(entries), Page: page, TotalPages: totalPages}
}

func (a *App) getReportsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t := AnalysisType(q.Get("type"))
	if t != "" && t != "all" {
		if _, ok := t.Collection(); !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown report type %q", t), nil)
			return
		}
	}
	page, _ := strconv.Atoi(q.Get("page"))

	p := principalFrom(r.Context())
	src, err := a.fetchReportSources(r, p.UserID)
	if err != nil {
		storeError(w, r, "Failed to load reports.", err)
		return
	}
	entries := filterReports(buildReportEntries(src), t, q.Get("search"))
	writeJSON(w, http.StatusOK, paginateReports(entries, page))
}

func (a *App) deleteReportHandler(w http.ResponseWriter, r *http.Request) {
	t := AnalysisType(mux.Vars(r)["type"])
	if _, ok := t.Collection(); !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown report type %q", t), nil)
		return
	}
	a.deleteRecordHandler(t)(w, r)
}

// Dashboard

type DashboardKPI struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

type DistributionSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type MonthlyTrend struct {
	Month    string  `json:"month"`
	Year     int     `json:"year"`
	Analyses int     `json:"analyses"`
	TRIR     float64 `json:"trir"`
}

type RecentActivity struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Type  AnalysisType `json:"type"`
	Score int          `json:"score"`
	Date  time.Time    `json:"date"`
}

type Dashboard struct {
	KPI              DashboardKPI        `json:"kpi"`
	RiskDistribution []DistributionSlice `json:"risk_distribution"`
	MonthlyTrend     []MonthlyTrend      `json:"monthly_trend"`
	RecentActivities []RecentActivity    `json:"recent_activities"`
}

// buildDashboard summarises analyses and K3 calculations, both ordered newest
// first, for the six calendar months ending with now.
func buildDashboard(analyses []HazardAnalysis, calcs []SafetyMetricsCalculation, now time.Time) Dashboard {
	var kpi DashboardKPI
	kpi.Total = len(analyses)
	for _, a := range analyses {
		switch {
		case a.RiskScore >= 13:
			kpi.High++
		case a.RiskScore >= 6:
			kpi.Medium++
		default:
			kpi.Low++
		}
	}

	distribution := []DistributionSlice{}
	for _, s := range []DistributionSlice{
		{Name: "High Risk", Value: kpi.High},
		{Name: "Medium Risk", Value: kpi.Medium},
		{Name: "Low Risk", Value: kpi.Low},
	} {
		if s.Value > 0 {
			distribution = append(distribution, s)
		}
	}

	loc := now.Location()
	months := make([]MonthlyTrend, 0, 6)
	index := map[string]int{}
	for i := 5; i >= 0; i-- {
		first := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, loc)
		index[monthKey(first)] = len(months)
		months = append(months, MonthlyTrend{Month: first.Format("Jan"), Year: first.Year()})
	}
	for _, a := range analyses {
		if i, ok := index[monthKey(a.CreatedAt.In(loc))]; ok {
			months[i].Analyses++
		}
	}
	sums := make([]float64, len(months))
	counts := make([]int, len(months))
	for _, c := range calcs {
		if i, ok := index[monthKey(c.CreatedAt.In(loc))]; ok {
			sums[i] += c.TRIR
			counts[i]++
		}
	}
	for i := range months {
		if counts[i] > 0 {
			months[i].TRIR = round2(sums[i] / float64(counts[i]))
		}
	}

	recent := []RecentActivity{}
	for _, a := range analyses[:min(5, len(analyses))] {
		title := a.ActivityName
		if title == "" {
			title = "Untitled Analysis"
		}
		recent = append(recent, RecentActivity{ID: a.ID, Title: title, Type: AnalysisHIRADC, Score: a.RiskScore, Date: a.CreatedAt})
	}

	return Dashboard{
		KPI:              kpi,
		RiskDistribution: distribution,
		MonthlyTrend:     months,
		RecentActivities: recent,
	}
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func (a *App) getDashboardHandler(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())

	var analyses []HazardAnalysis
	var calcs []SafetyMetricsCalculation
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		analyses, err = a.store.ListHazardAnalyses(ctx, p.UserID)
		return err
	})
	g.Go(func() (err error) {
		calcs, err = a.store.ListSafetyCalculations(ctx, p.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		storeError(w, r, "Failed to load dashboard data. Please try again later.", err)
		return
	}

	writeJSON(w, http.StatusOK, buildDashboard(analyses, calcs, a.now()))
}
