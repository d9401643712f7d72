package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"heating_controller/internal/models"
	"heating_controller/internal/service"
)

func fixtureMonitoring() *mockMonitoring {
	ts := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	exp := 21.0
	temp := 19.5
	on, off := true, false
	return &mockMonitoring{
		temps: map[string]models.TemperatureReading{
			"office":       {Key: "office", Label: "Office", Value: 19.5, Expected: &exp, Timestamp: ts},
			models.KeyPipe: {Key: models.KeyPipe, Label: "Pipe", Value: 44, Timestamp: ts},
		},
		snapshot: map[string]models.EntityState{
			"office":        {Key: "office", Label: "Office", Timestamp: ts, Temperature: &temp, Expected: &exp, HeatingEnabled: &on},
			models.KeyStove: {Key: models.KeyStove, Label: "Stove", Timestamp: ts, HeatingEnabled: &off},
		},
	}
}

func TestHealth(t *testing.T) {
	r := newOpenRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d", w.Code)
	}
}

func TestMonitoringHandlers(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		wantCode int
		check    func(t *testing.T, body []byte)
	}{
		{
			name:     "all temperatures",
			path:     "/api/temperatures",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var got map[string]models.TemperatureReading
				if err := json.Unmarshal(body, &got); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if len(got) != 2 || got["office"].Value != 19.5 {
					t.Fatalf("unexpected temperatures: %+v", got)
				}
			},
		},
		{
			name:     "one temperature",
			path:     "/api/temperatures/office",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var got models.TemperatureReading
				if err := json.Unmarshal(body, &got); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if got.Key != "office" || got.Expected == nil || *got.Expected != 21 {
					t.Fatalf("unexpected reading: %+v", got)
				}
			},
		},
		{
			name:     "unknown key",
			path:     "/api/temperatures/attic",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "snapshot includes stove",
			path:     "/api/state",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var got map[string]models.EntityState
				if err := json.Unmarshal(body, &got); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				stove, ok := got[models.KeyStove]
				if !ok || stove.HeatingEnabled == nil || *stove.HeatingEnabled || stove.Temperature != nil {
					t.Fatalf("unexpected stove entry: %+v", got)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newOpenRouter(&service.Service{Monitoring: fixtureMonitoring()})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.check != nil {
				tc.check(t, w.Body.Bytes())
			}
		})
	}
}

func TestMonitoringHandlers_StoreError(t *testing.T) {
	mon := &mockMonitoring{err: errors.New("db locked")}
	r := newOpenRouter(&service.Service{Monitoring: mon})

	for _, path := range []string{"/api/temperatures", "/api/temperatures/office", "/api/state"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s: status=%d, want 500", path, w.Code)
		}
	}
}

func TestMonitoringHandlers_RequireTokenWhenAuthEnabled(t *testing.T) {
	auth := &mockAuth{parseID: 1}
	r := newTestRouter(&service.Service{Monitoring: fixtureMonitoring(), Authorization: auth})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, withHeader(httptest.NewRequest(http.MethodGet, "/api/state", nil), authHeader("tok")))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	if auth.lastParseToken != "tok" {
		t.Fatalf("ParseToken got %q", auth.lastParseToken)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newOpenRouter(&service.Service{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
}
