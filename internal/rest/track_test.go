//go:build !integration

package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopsense/domain"

	"github.com/labstack/echo/v4"
)

type fakeTracker struct {
	events []domain.InteractionEvent
	err    error
}

func (f *fakeTracker) Track(_ context.Context, event *domain.InteractionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

type fakeResolver struct {
	outcomes []string
}

func (f *fakeResolver) Resolve(_ context.Context, _, _ string) (string, domain.WeightConfig, error) {
	return "", domain.WeightConfig{}, nil
}

func (f *fakeResolver) RecordOutcome(_ context.Context, experimentID, variant, eventType string, _ float64) error {
	f.outcomes = append(f.outcomes, fmt.Sprintf("%s/%s/%s", experimentID, variant, eventType))
	return nil
}

func postJSON(handler echo.HandlerFunc, body string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, handler(e.NewContext(req, rec))
}

func TestTrack_ReturnsTheStoredEventID(t *testing.T) {
	tracker := &fakeTracker{}
	h := NewTrackHandler(tracker, &fakeResolver{})

	rec, err := postJSON(h.Track, `{"user_id":"u1","product_id":"p1","event_type":"view"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if len(tracker.events) != 1 {
		t.Fatalf("expected 1 stored event, got %d", len(tracker.events))
	}

	if tracker.events[0].EventID == "" {
		t.Fatal("expected a non-empty event id on the stored event")
	}
	if !strings.Contains(rec.Body.String(), tracker.events[0].EventID) {
		t.Fatalf("response %s does not carry the stored event id %s",
			rec.Body.String(), tracker.events[0].EventID)
	}
}

func TestTrack_ValidationFailureIsBadRequest(t *testing.T) {
	tracker := &fakeTracker{
		err: fmt.Errorf("%w: unknown product", domain.ErrValidation),
	}
	h := NewTrackHandler(tracker, &fakeResolver{})

	rec, err := postJSON(h.Track, `{"user_id":"u1","product_id":"nope","event_type":"view"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestTrack_AttributesExperimentOutcomes(t *testing.T) {
	resolver := &fakeResolver{}
	h := NewTrackHandler(&fakeTracker{}, resolver)

	body := `{"user_id":"u1","product_id":"p1","event_type":"click",` +
		`"metadata":{"experiment_id":"weights-q3","variant":"treatment"}}`
	rec, err := postJSON(h.Track, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}
	if len(resolver.outcomes) != 1 || resolver.outcomes[0] != "weights-q3/treatment/click" {
		t.Fatalf("expected one click outcome, got %v", resolver.outcomes)
	}
}
