package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentUsesRoutePattern(t *testing.T) {
	Init()
	Init()

	r := chi.NewRouter()
	r.Use(Instrument)
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/posts/{id}", "418"))
	for _, id := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodGet, "/posts/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/posts/{id}", "418"))
	if after-before != 3 {
		t.Fatalf("expected 3 requests under one pattern label, got %v", after-before)
	}
}

func TestDecisionCounter(t *testing.T) {
	before := testutil.ToFloat64(workflowDecisions.WithLabelValues("assign_role", OutcomeDenied))
	Decision("assign_role", OutcomeDenied)
	after := testutil.ToFloat64(workflowDecisions.WithLabelValues("assign_role", OutcomeDenied))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestOutcomeFor(t *testing.T) {
	errDenied := errors.New("denied")
	errInvalid := errors.New("invalid")
	classes := []Class{{Err: errDenied, Outcome: OutcomeDenied}, {Err: errInvalid, Outcome: OutcomeInvalid}}

	if got := OutcomeFor(nil, classes...); got != OutcomeCommitted {
		t.Fatalf("expected committed, got %s", got)
	}
	if got := OutcomeFor(fmt.Errorf("wrap: %w", errInvalid), classes...); got != OutcomeInvalid {
		t.Fatalf("expected invalid, got %s", got)
	}
	if got := OutcomeFor(errors.New("boom"), classes...); got != OutcomeError {
		t.Fatalf("expected error, got %s", got)
	}
}
