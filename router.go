package main

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

var protectedPages = []string{
	"dashboard",
	"ai-hiradc",
	"calculator",
	"fta",
	"eta",
	"cca",
	"reports",
	"kontak",
	"tentang-sistem",
}

func newRouter(app *App, corsOrigins []string) http.Handler {
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(app.staticDir))))

	// Public pages
	r.HandleFunc("/", app.homeHandler).Methods("GET")
	r.HandleFunc("/login", app.pageHandler("login")).Methods("GET")
	r.HandleFunc("/register", app.pageHandler("register")).Methods("GET")
	r.HandleFunc("/forgot-password", app.pageHandler("forgot-password")).Methods("GET")
	r.HandleFunc("/reset-password/{token}", app.pageHandler("reset-password")).Methods("GET")

	// Protected pages
	for _, page := range protectedPages {
		r.HandleFunc("/"+page, app.requirePage(app.pageHandler(page))).Methods("GET")
	}

	// Authentication
	limit := app.authLimiter.middleware
	r.HandleFunc("/api/login", limit(app.loginHandler)).Methods("POST")
	r.HandleFunc("/api/register", limit(app.registerHandler)).Methods("POST")
	r.HandleFunc("/api/logout", app.logoutHandler).Methods("POST")
	r.HandleFunc("/api/forgot-password", limit(app.forgotPasswordHandler)).Methods("POST")
	r.HandleFunc("/api/reset-password", limit(app.resetPasswordHandler)).Methods("POST")
	r.HandleFunc("/api/check-auth", app.checkAuthHandler).Methods("GET")

	// Protected API
	auth := app.requireAuth
	r.HandleFunc("/api/hiradc", auth(app.getHazardAnalysesHandler)).Methods("GET")
	r.HandleFunc("/api/hiradc", auth(app.createHazardAnalysisHandler)).Methods("POST")
	r.HandleFunc("/api/hiradc/preview", auth(app.previewHazardHandler)).Methods("POST")
	r.HandleFunc("/api/hiradc/{id}", auth(app.updateHazardAnalysisHandler)).Methods("PUT")
	r.HandleFunc("/api/hiradc/{id}", auth(app.deleteRecordHandler(AnalysisHIRADC))).Methods("DELETE")

	r.HandleFunc("/api/fta", auth(app.getFaultTreesHandler)).Methods("GET")
	r.HandleFunc("/api/fta", auth(app.createFaultTreeHandler)).Methods("POST")
	r.HandleFunc("/api/fta/nodes", auth(app.addFaultTreeNodeHandler)).Methods("POST")
	r.HandleFunc("/api/fta/{id}", auth(app.updateFaultTreeHandler)).Methods("PUT")
	r.HandleFunc("/api/fta/{id}", auth(app.deleteRecordHandler(AnalysisFTA))).Methods("DELETE")

	r.HandleFunc("/api/eta", auth(app.getEventTreesHandler)).Methods("GET")
	r.HandleFunc("/api/eta", auth(app.createEventTreeHandler)).Methods("POST")
	r.HandleFunc("/api/eta/preview", auth(app.previewEventTreeHandler)).Methods("POST")
	r.HandleFunc("/api/eta/{id}", auth(app.updateEventTreeHandler)).Methods("PUT")
	r.HandleFunc("/api/eta/{id}", auth(app.deleteRecordHandler(AnalysisETA))).Methods("DELETE")

	r.HandleFunc("/api/cca", auth(app.getCauseConsequencesHandler)).Methods("GET")
	r.HandleFunc("/api/cca", auth(app.createCauseConsequenceHandler)).Methods("POST")
	r.HandleFunc("/api/cca/{id}", auth(app.updateCauseConsequenceHandler)).Methods("PUT")
	r.HandleFunc("/api/cca/{id}", auth(app.deleteRecordHandler(AnalysisCCA))).Methods("DELETE")

	r.HandleFunc("/api/k3", auth(app.getSafetyCalculationsHandler)).Methods("GET")
	r.HandleFunc("/api/k3", auth(app.createSafetyCalculationHandler)).Methods("POST")
	r.HandleFunc("/api/k3/preview", auth(app.previewSafetyMetricsHandler)).Methods("POST")
	r.HandleFunc("/api/k3/{id}", auth(app.deleteRecordHandler(AnalysisK3))).Methods("DELETE")

	r.HandleFunc("/api/risk-matrix", auth(app.riskMatrixHandler)).Methods("GET")
	r.HandleFunc("/api/reports", auth(app.getReportsHandler)).Methods("GET")
	r.HandleFunc("/api/reports/{type}/{id}", auth(app.deleteReportHandler)).Methods("DELETE")
	r.HandleFunc("/api/dashboard", auth(app.getDashboardHandler)).Methods("GET")
	r.HandleFunc("/api/contact", auth(app.createContactMessageHandler)).Methods("POST")
	r.HandleFunc("/api/about", auth(app.aboutHandler)).Methods("GET")

	var h http.Handler = r
	if len(corsOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(corsOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
			handlers.AllowCredentials(),
		)(h)
	}
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// recoveryLogger routes panics caught by the recovery handler to slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...any) {
	slog.Error("panic while serving request", "panic", v)
}
