package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"heating_controller/internal/service"

	"github.com/gin-gonic/gin"
)

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthEndpoints(t *testing.T) {
	const creds = `{"username":"heater","password":"pw"}`

	cases := []struct {
		name     string
		auth     mockAuth
		path     string
		body     string
		wantCode int
		wantKey  string
		wantVal  any
	}{
		{name: "sign-up returns id", auth: mockAuth{signUpID: 42}, path: "/auth/sign-up", body: creds,
			wantCode: http.StatusOK, wantKey: "id", wantVal: float64(42)},
		{name: "sign-up disabled", auth: mockAuth{signUpErr: service.ErrSignUpDisabled}, path: "/auth/sign-up", body: creds,
			wantCode: http.StatusForbidden, wantKey: "error", wantVal: service.ErrSignUpDisabled.Error()},
		{name: "sign-up rejected by store", auth: mockAuth{signUpErr: errors.New("username taken")}, path: "/auth/sign-up", body: creds,
			wantCode: http.StatusBadRequest, wantKey: "error", wantVal: "username taken"},
		{name: "sign-up missing password", path: "/auth/sign-up", body: `{"username":"heater"}`,
			wantCode: http.StatusBadRequest},
		{name: "sign-in returns token", auth: mockAuth{genTokenToken: "tok123"}, path: "/auth/sign-in", body: creds,
			wantCode: http.StatusOK, wantKey: "token", wantVal: "tok123"},
		{name: "sign-in wrong password", auth: mockAuth{genTokenErr: service.ErrInvalidPassword}, path: "/auth/sign-in", body: creds,
			wantCode: http.StatusUnauthorized, wantKey: "error", wantVal: "invalid credentials"},
		{name: "sign-in unknown operator", auth: mockAuth{genTokenErr: service.ErrUserNotFound}, path: "/auth/sign-in", body: creds,
			wantCode: http.StatusUnauthorized, wantKey: "error", wantVal: "invalid credentials"},
		{name: "sign-in malformed body", path: "/auth/sign-in", body: `{"username":1}`,
			wantCode: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := tc.auth
			r := newTestRouter(&service.Service{Authorization: &auth})

			w := postJSON(r, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d (body=%s)", w.Code, tc.wantCode, w.Body.String())
			}
			if tc.wantKey == "" {
				return
			}
			var out map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out[tc.wantKey] != tc.wantVal {
				t.Fatalf("%s = %v, want %v", tc.wantKey, out[tc.wantKey], tc.wantVal)
			}
		})
	}
}

func TestAuthEndpoints_PassUsernameThrough(t *testing.T) {
	auth := &mockAuth{}
	r := newTestRouter(&service.Service{Authorization: auth})

	postJSON(r, "/auth/sign-up", `{"username":"first","password":"pw"}`)
	postJSON(r, "/auth/sign-in", `{"username":"second","password":"pw"}`)

	if auth.lastSignUpUsername != "first" || auth.lastGenUsername != "second" {
		t.Fatalf("usernames = %q/%q", auth.lastSignUpUsername, auth.lastGenUsername)
	}
}

func TestAuthRoutes_AbsentWhenAuthDisabled(t *testing.T) {
	r := newOpenRouter(&service.Service{Authorization: &mockAuth{}})

	for _, path := range []string{"/auth/sign-up", "/auth/sign-in"} {
		if w := postJSON(r, path, `{"username":"u","password":"p"}`); w.Code != http.StatusNotFound {
			t.Fatalf("%s: code = %d, want 404", path, w.Code)
		}
	}
}
