package handlers

import (
	"context"
	"net/http"

	"heating_controller/internal/models"
	"heating_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, _ string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, _ string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	temps    map[string]models.TemperatureReading
	snapshot map[string]models.EntityState
	err      error
	lastKey  string
}

func (m *mockMonitoring) Temperatures(context.Context) (map[string]models.TemperatureReading, error) {
	return m.temps, m.err
}

func (m *mockMonitoring) Temperature(_ context.Context, key string) (*models.TemperatureReading, error) {
	m.lastKey = key
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.temps[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mockMonitoring) Snapshot(context.Context) (map[string]models.EntityState, error) {
	return m.snapshot, m.err
}

type mockEventLog struct {
	resp       []models.ControllerEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.ControllerEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, true).InitRoutes()
}

func newOpenRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, false).InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeader(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
