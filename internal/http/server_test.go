package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetcare/internal/core"
	"budgetcare/internal/editor"
	"budgetcare/internal/log"
	"budgetcare/internal/memory"
	"budgetcare/internal/plans"
	"budgetcare/internal/services"
)

var fixedNow = time.Date(2025, 12, 10, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	svc := services.NewReservationService(memory.New(memory.SeedReservations()...), plans.NewDefault(),
		services.WithLogger(logger),
		services.WithClock(func() time.Time { return fixedNow }),
	)
	opts = append([]Option{WithLogger(logger), WithClock(func() time.Time { return fixedNow })}, opts...)
	srv := NewServer(":0", svc, plans.NewDefault(), opts...)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rr.Body.String(), err)
	}
	return v
}

const jsonType = "application/json"

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz", "/health", "/metrics"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if body := do(t, srv, http.MethodGet, "/health", "", "").Body.String(); body != `{"status":"ok"}` {
		t.Fatalf("health body = %s", body)
	}
	rr := do(t, srv, http.MethodGet, "/api/plans", "", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("middleware headers missing: %v", rr.Header())
	}
}

func TestReadinessFailure(t *testing.T) {
	srv := newTestServer(t, WithReadinessCheck(func(context.Context) error { return errors.New("db down") }))
	if rr := do(t, srv, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestPlans(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/plans", "", "")
	list := decode[struct {
		Plans []core.BudgetPlan `json:"plans"`
	}](t, rr)
	if len(list.Plans) != 3 {
		t.Fatalf("plans = %d", len(list.Plans))
	}

	rr = do(t, srv, http.MethodGet, "/api/plans/plan-2025", "", "")
	if plan := decode[core.BudgetPlan](t, rr); plan.Currency != "XAF" || len(plan.Categories) != 4 {
		t.Fatalf("plan = %+v", plan)
	}

	rr = do(t, srv, http.MethodGet, "/api/plans/plan-missing", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Error != "plan_not_found" || body.Message != "Plan budgétaire non trouvé." {
		t.Fatalf("body = %+v", body)
	}
}

func TestCreateReservationUpdatesOverview(t *testing.T) {
	srv := newTestServer(t)

	// Seeded res-001 already holds 2 000 000 on education.
	rr := do(t, srv, http.MethodGet, "/api/plans/plan-2025/categories/cat-education/summary", "", "")
	summary := decode[categorySummaryBody](t, rr)
	if summary.Available != 14000000 || summary.Summary.ActiveAmount != 2000000 {
		t.Fatalf("summary = %+v", summary)
	}

	// Prime the overview cache.
	if rr := do(t, srv, http.MethodGet, "/api/plans/plan-2025/overview", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("overview status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/api/plans/plan-2025/reservations",
		`{"categoryId":"cat-education","amount":"4 000 000","purpose":"Bourses","reservedBy":"finance@solidcam.org"}`, jsonType)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	res := decode[core.Reservation](t, rr)
	if res.Amount != 4000000 || res.Status != core.ReservationActive || res.ReservedBy != "finance@solidcam.org" {
		t.Fatalf("reservation = %+v", res)
	}
	if rr.Header().Get("Location") != "/api/reservations/"+res.ID {
		t.Fatalf("location = %q", rr.Header().Get("Location"))
	}

	ov := decode[services.PlanOverview](t, do(t, srv, http.MethodGet, "/api/plans/plan-2025/overview", "", ""))
	for _, c := range ov.Categories {
		if c.Category.ID == "cat-education" && c.Available != 10000000 {
			t.Fatalf("stale overview: available = %v", c.Available)
		}
	}
	if ov.Statistics.ActiveCount != 2 {
		t.Fatalf("statistics = %+v", ov.Statistics)
	}
}

func TestPlanHistory(t *testing.T) {
	srv := newTestServer(t)

	revs := decode[struct {
		Revisions []core.PlanRevision `json:"revisions"`
	}](t, do(t, srv, http.MethodGet, "/api/plans/plan-2024-reforecast/revisions", "", ""))
	if len(revs.Revisions) != 1 || revs.Revisions[0].ID != "rev-003" || revs.Revisions[0].NetDelta() != -1500000 {
		t.Fatalf("revisions = %+v", revs.Revisions)
	}

	execs := decode[struct {
		Executions []core.ExecutionEntry `json:"executions"`
	}](t, do(t, srv, http.MethodGet, "/api/plans/plan-2025/executions", "", ""))
	if len(execs.Executions) != 3 || execs.Executions[0].RiskLevel != core.RiskMedium || execs.Executions[1].CompletionRate != 0.89 {
		t.Fatalf("executions = %+v", execs.Executions)
	}

	for _, path := range []string{"/api/plans/plan-missing/revisions", "/api/plans/plan-missing/executions"} {
		if rr := do(t, srv, http.MethodGet, path, "", ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	ov := decode[services.PlanOverview](t, do(t, srv, http.MethodGet, "/api/plans/plan-2025/overview", "", ""))
	if ov.Totals.TotalCommitted != 90000000 || ov.Totals.Reserve != 60000000 || len(ov.Revisions) != 2 {
		t.Fatalf("overview totals = %+v, revisions = %d", ov.Totals, len(ov.Revisions))
	}
}

func TestOverviewNotCachedAcrossInvalidation(t *testing.T) {
	srv := newTestServer(t)
	key := overviewKey("plan-2025")
	ev := core.ReservationEvent{Reservation: core.Reservation{PlanID: "plan-2025"}}

	gen := srv.overviewGeneration()
	srv.invalidateOverview(ev)
	if srv.storeOverview(key, gen, services.PlanOverview{}) {
		t.Fatal("overview computed before a change was cached")
	}
	if _, ok := srv.overviews.Get(key); ok {
		t.Fatal("stale overview in cache")
	}

	gen = srv.overviewGeneration()
	if !srv.storeOverview(key, gen, services.PlanOverview{}) {
		t.Fatal("current overview not cached")
	}
	srv.invalidateOverview(ev)
	if _, ok := srv.overviews.Get(key); ok {
		t.Fatal("invalidation left the overview cached")
	}
}

func TestErrorType(t *testing.T) {
	cases := map[int]string{
		http.StatusUnprocessableEntity: log.ErrorTypeValidation,
		http.StatusBadRequest:          log.ErrorTypeValidation,
		http.StatusNotFound:            log.ErrorTypeNotFound,
		http.StatusConflict:            log.ErrorTypeConflict,
		http.StatusInternalServerError: log.ErrorTypeInternal,
	}
	for status, want := range cases {
		if got := errorType(status); got != want {
			t.Errorf("errorType(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestCreateReservationErrors(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		name        string
		path        string
		body        string
		contentType string
		status      int
		message     string
	}{
		{
			name:        "invalid amount from form",
			path:        "/api/plans/plan-2025/reservations",
			body:        "categoryId=cat-education&amount=abc&purpose=x",
			contentType: "application/x-www-form-urlencoded",
			status:      http.StatusUnprocessableEntity,
			message:     "Le montant doit être supérieur à 0.",
		},
		{
			name:    "insufficient funds",
			path:    "/api/plans/plan-2025/reservations",
			body:    `{"categoryId":"cat-education","amount":15000000,"purpose":"x"}`,
			status:  http.StatusConflict,
			message: "Montant insuffisant. Disponible: 14 000 000 XAF",
		},
		{
			name:    "unknown category",
			path:    "/api/plans/plan-2025/reservations",
			body:    `{"categoryId":"cat-nope","amount":"10","purpose":"x"}`,
			status:  http.StatusNotFound,
			message: "Catégorie non trouvée.",
		},
		{
			name:    "unknown plan",
			path:    "/api/plans/plan-nope/reservations",
			body:    `{"categoryId":"cat-education","amount":"10","purpose":"x"}`,
			status:  http.StatusNotFound,
			message: "Plan budgétaire non trouvé.",
		},
		{
			name:   "malformed json",
			path:   "/api/plans/plan-2025/reservations",
			body:   `{"categoryId":`,
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ct := tc.contentType
			if ct == "" {
				ct = jsonType
			}
			rr := do(t, srv, http.MethodPost, tc.path, tc.body, ct)
			if rr.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tc.status, rr.Body.String())
			}
			if tc.message != "" {
				if body := decode[ErrorBody](t, rr); body.Message != tc.message {
					t.Fatalf("message = %q, want %q", body.Message, tc.message)
				}
			}
		})
	}
}

func TestReservationLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodDelete, "/api/reservations/res-001", "", "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("delete active status=%d", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Message != "Impossible de supprimer une réservation active. Annulez-la d'abord." {
		t.Fatalf("message = %q", body.Message)
	}

	rr = do(t, srv, http.MethodPost, "/api/reservations/res-001/convert", `{"vendor":"ACME"}`, jsonType)
	if rr.Code != http.StatusOK {
		t.Fatalf("convert status=%d body=%s", rr.Code, rr.Body.String())
	}
	res := decode[core.Reservation](t, rr)
	if res.Status != core.ReservationUtilized || !strings.Contains(res.Notes, "Vendeur: ACME") {
		t.Fatalf("converted = %+v", res)
	}

	rr = do(t, srv, http.MethodPost, "/api/reservations/res-001/cancel", `{"reason":"trop tard"}`, jsonType)
	if rr.Code != http.StatusConflict {
		t.Fatalf("cancel utilized status=%d", rr.Code)
	}

	if rr := do(t, srv, http.MethodDelete, "/api/reservations/res-001", "", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, "/api/reservations/res-001", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d", rr.Code)
	}
}

func TestListReservations(t *testing.T) {
	srv := newTestServer(t)
	cases := []struct {
		path   string
		status int
		count  int
	}{
		{"/api/reservations", http.StatusOK, 3},
		{"/api/reservations?plan=plan-2025", http.StatusOK, 2},
		{"/api/plans/plan-2025/reservations?status=utilized", http.StatusOK, 1},
		{"/api/plans/plan-2025/reservations?category=cat-education", http.StatusOK, 1},
		{"/api/plans/plan-2025/reservations?status=all&q=zzz", http.StatusOK, 0},
		{"/api/plans/plan-2025/reservations?status=pending", http.StatusBadRequest, 0},
		{"/api/plans/plan-nope/reservations", http.StatusNotFound, 0},
	}
	for _, tc := range cases {
		rr := do(t, srv, http.MethodGet, tc.path, "", "")
		if rr.Code != tc.status {
			t.Fatalf("%s status=%d want %d", tc.path, rr.Code, tc.status)
		}
		if tc.status != http.StatusOK {
			continue
		}
		if body := decode[reservationListBody](t, rr); body.Count != tc.count || len(body.Reservations) != tc.count {
			t.Fatalf("%s count=%d want %d", tc.path, body.Count, tc.count)
		}
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/plans/plan-2025/export.csv", "", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("status=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}
	want := `attachment; filename="reservations-Plan budgétaire 2025-2025-12-10.csv"`
	if got := rr.Header().Get("Content-Disposition"); got != want {
		t.Fatalf("disposition = %q", got)
	}
	if !strings.Contains(rr.Body.String(), "res-001") {
		t.Fatalf("csv body = %s", rr.Body.String())
	}

	for _, path := range []string{"/api/plans/plan-2024-reforecast/export.csv", "/api/plans/plan-nope/export.csv"} {
		rr := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK || rr.Body.String() != "Aucune réservation trouvée pour ce plan." {
			t.Fatalf("%s: status=%d body=%q", path, rr.Code, rr.Body.String())
		}
	}
}

func TestEditorSession(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/plans/plan-2026-draft/editor", "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("open status=%d", rr.Code)
	}
	opened := decode[editorBody](t, rr)
	if !opened.State.Editable || opened.SessionID == "" {
		t.Fatalf("opened = %+v", opened)
	}
	base := "/api/editor/" + opened.SessionID
	initial := len(opened.State.Categories)

	actions := []string{
		`{"type":"toggleAddForm"}`,
		`{"type":"updateAddForm","payload":{"field":"label","value":"Logistique"}}`,
		`{"type":"updateAddForm","payload":{"field":"owner","value":"Service Finance"}}`,
		`{"type":"updateAddForm","payload":{"field":"allocated","value":"5 000 000"}}`,
		`{"type":"addCategory"}`,
	}
	var last editorBody
	for _, a := range actions {
		rr := do(t, srv, http.MethodPost, base+"/actions", a, jsonType)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", a, rr.Code, rr.Body.String())
		}
		last = decode[editorBody](t, rr)
	}
	if len(last.State.Categories) != initial+1 || last.State.Feedback == nil || last.State.Feedback.Type != editor.FeedbackSuccess {
		t.Fatalf("state = %+v", last.State)
	}

	got := decode[editorBody](t, do(t, srv, http.MethodGet, base, "", ""))
	if len(got.State.Categories) != initial+1 {
		t.Fatalf("session not persisted")
	}

	if rr := do(t, srv, http.MethodPost, base+"/actions", `{"type":"hydrate"}`, jsonType); rr.Code != http.StatusBadRequest {
		t.Fatalf("hydrate status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPost, base+"/actions", `not json`, jsonType); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/editor/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing session status=%d", rr.Code)
	}
}

func TestEditorRefusesValidatedPlan(t *testing.T) {
	srv := newTestServer(t)
	opened := decode[editorBody](t, do(t, srv, http.MethodPost, "/api/plans/plan-2025/editor", "", ""))
	if opened.State.Editable {
		t.Fatalf("validated plan should not be editable")
	}
	rr := do(t, srv, http.MethodPost, "/api/editor/"+opened.SessionID+"/actions",
		`{"type":"deleteCategory","payload":{"categoryId":"cat-education"}}`, jsonType)
	state := decode[editorBody](t, rr).State
	if state.Feedback == nil || state.Feedback.Type != editor.FeedbackError || len(state.Categories) != 4 {
		t.Fatalf("state = %+v", state)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(1))

	body := `{"reason":"r"}`
	if rr := do(t, srv, http.MethodPost, "/api/reservations/res-001/cancel", body, jsonType); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/reservations/res-001/cancel", body, jsonType)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if decode[ErrorBody](t, rr).Error != "rate_limited" {
		t.Fatalf("body = %s", rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/api/reservations", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)
	if rr := do(t, srv, http.MethodGet, "/api/nope", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodPut, "/api/plans", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rr.Code)
	}
}
