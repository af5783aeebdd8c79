package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-session-service/internal/models"
	"github.com/SAP-F-2025/exam-session-service/internal/services"
	"github.com/SAP-F-2025/exam-session-service/internal/utils"
	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ===== fakes =====

type fakeSessionService struct {
	services.ExamSessionService

	startErr   error
	lastStart  *services.StartSessionRequest
	currentErr error
	submitErr  error
	incomplete *services.SessionResponse
	lastUserID string
	lastCancel *services.CancelRequest
}

func (f *fakeSessionService) StartSession(_ context.Context, userID string, req *services.StartSessionRequest) (*services.StartSessionResponse, error) {
	f.lastUserID, f.lastStart = userID, req
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &services.StartSessionResponse{
		Session: &services.SessionResponse{ID: 7, ExamSetID: req.ExamSetID},
		Total:   40,
	}, nil
}

func (f *fakeSessionService) CurrentQuestion(_ context.Context, userID string) (*services.CurrentQuestionResponse, error) {
	f.lastUserID = userID
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return &services.CurrentQuestionResponse{State: services.StateAwaitingAnswer, SessionID: 7, Position: 1, Total: 40}, nil
}

func (f *fakeSessionService) SubmitAnswer(_ context.Context, userID string, req *services.SubmitAnswerRequest) (*services.SubmitAnswerResponse, error) {
	f.lastUserID = userID
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &services.SubmitAnswerResponse{State: services.StateAwaitingAnswer, NextIndex: 1, Total: 40}, nil
}

func (f *fakeSessionService) Cancel(_ context.Context, userID string, req *services.CancelRequest) (*services.CancelResponse, error) {
	f.lastUserID, f.lastCancel = userID, req
	return &services.CancelResponse{Action: req.Action, State: services.StatePaused}, nil
}

func (f *fakeSessionService) FindIncompleteSession(_ context.Context, userID string, examSetID uint) (*services.SessionResponse, error) {
	f.lastUserID = userID
	return f.incomplete, nil
}

type fakeExamSetService struct {
	services.ExamSetService
}

func (fakeExamSetService) GetByID(_ context.Context, id uint) (*services.ExamSetResponse, error) {
	if id != 1 {
		return nil, services.ErrExamSetNotFound
	}
	return &services.ExamSetResponse{ID: 1, Name: "Networking", TotalQuestions: 40, AvailableQuestions: 40, Startable: true}, nil
}

type fakeImportExport struct {
	services.ImportExportService
	imported int
}

func (f *fakeImportExport) ImportExamSets(_ context.Context, r io.Reader) (*models.ImportSummary, error) {
	f.imported++
	return &models.ImportSummary{ExamSetsCreated: 1}, nil
}

type fakeServiceManager struct {
	sessions  *fakeSessionService
	importExp *fakeImportExport
	healthErr error
}

func (m *fakeServiceManager) ExamSession() services.ExamSessionService   { return m.sessions }
func (m *fakeServiceManager) ExamSet() services.ExamSetService           { return fakeExamSetService{} }
func (m *fakeServiceManager) ImportExport() services.ImportExportService { return m.importExp }
func (m *fakeServiceManager) Initialize(context.Context) error           { return nil }
func (m *fakeServiceManager) HealthCheck(context.Context) error          { return m.healthErr }
func (m *fakeServiceManager) Shutdown(context.Context) error             { return nil }

// fakeParser accepts "<role>-token" and rejects everything else
type fakeParser struct{}

func (fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	switch token {
	case "student-token":
		return &casdoorsdk.Claims{User: casdoorsdk.User{Id: "student-1", Name: "stu", Type: "student"}}, nil
	case "teacher-token":
		return &casdoorsdk.Claims{User: casdoorsdk.User{Id: "teacher-1", Name: "tea", Type: "teacher"}}, nil
	}
	return nil, errors.New("signature is invalid")
}

func newTestRouter(sm *fakeServiceManager) *gin.Engine {
	router := gin.New()
	SetupMiddleware(router, testLogger())
	auth := NewCasdoorAuthMiddlewareWithParser(fakeParser{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	NewHandlerManager(sm, testLogger(), auth, nil).SetupRoutes(router)
	return router
}

func newFakeServiceManager() *fakeServiceManager {
	return &fakeServiceManager{
		sessions:  &fakeSessionService{},
		importExp: &fakeImportExport{},
	}
}

func doRequest(router http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ===== tests =====

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(newFakeServiceManager())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer forged", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer student-token", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/exam/current", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRequireRole_Import(t *testing.T) {
	sm := newFakeServiceManager()
	router := newTestRouter(sm)

	if w := doRequest(router, http.MethodPost, "/api/v1/exam-sets/import", "student-token", nil); w.Code != http.StatusForbidden {
		t.Errorf("student import status = %d, want 403", w.Code)
	}

	// teacher passes the role check and fails on the missing file instead
	if w := doRequest(router, http.MethodPost, "/api/v1/exam-sets/import", "teacher-token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("teacher import status = %d, want 400", w.Code)
	}
	if sm.importExp.imported != 0 {
		t.Error("import ran without a file")
	}
}

func TestStartSessionHandler(t *testing.T) {
	sm := newFakeServiceManager()
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodPost, "/api/v1/sessions/start", "student-token",
		bytes.NewBufferString(`{"exam_set_id": 3, "restart": true}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if sm.sessions.lastUserID != "student-1" || sm.sessions.lastStart.ExamSetID != 3 || !sm.sessions.lastStart.Restart {
		t.Errorf("service called with %q %+v", sm.sessions.lastUserID, sm.sessions.lastStart)
	}

	var resp services.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Session.ID != 7 || resp.Total != 40 {
		t.Errorf("response = %+v", resp)
	}

	if w := doRequest(router, http.MethodPost, "/api/v1/sessions/start", "student-token", bytes.NewBufferString(`{`)); w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestStartSessionHandler_ErrorDetails(t *testing.T) {
	sm := newFakeServiceManager()
	sm.sessions.startErr = &services.IncompleteSessionExistsError{SessionID: 11, ExamSetID: 3, Answered: 4}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodPost, "/api/v1/sessions/start", "student-token",
		bytes.NewBufferString(`{"exam_set_id": 3}`))
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}

	var resp struct {
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Details["session_id"] != float64(11) {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestFindIncompleteSessionHandler(t *testing.T) {
	sm := newFakeServiceManager()
	router := newTestRouter(sm)

	if w := doRequest(router, http.MethodGet, "/api/v1/sessions/incomplete/3", "student-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("no session status = %d, want 404", w.Code)
	}

	sm.sessions.incomplete = &services.SessionResponse{ID: 5, ExamSetID: 3}
	if w := doRequest(router, http.MethodGet, "/api/v1/sessions/incomplete/3", "student-token", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	if w := doRequest(router, http.MethodGet, "/api/v1/sessions/incomplete/abc", "student-token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", w.Code)
	}
}

func TestCancelHandler(t *testing.T) {
	sm := newFakeServiceManager()
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodPost, "/api/v1/exam/cancel", "student-token", bytes.NewBufferString(`{"action":"pause"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if sm.sessions.lastCancel.Action != services.CancelPause {
		t.Errorf("action = %s", sm.sessions.lastCancel.Action)
	}
}

func TestExamSetHandler_Get(t *testing.T) {
	router := newTestRouter(newFakeServiceManager())

	if w := doRequest(router, http.MethodGet, "/api/v1/exam-sets/1", "student-token", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/api/v1/exam-sets/2", "student-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/api/v1/exam-sets/0", "student-token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealth(t *testing.T) {
	sm := newFakeServiceManager()
	router := newTestRouter(sm)

	if w := doRequest(router, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	sm.healthErr = errors.New("database unreachable")
	if w := doRequest(router, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(testLogger())
	choiceErr := validator.New().Validate(&services.SubmitAnswerRequest{Choice: 9})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", choiceErr, http.StatusBadRequest},
		{"insufficient questions", &services.InsufficientQuestionsError{ExamSetID: 1, Available: 3, Required: 40}, http.StatusUnprocessableEntity},
		{"incomplete exists", &services.IncompleteSessionExistsError{SessionID: 1}, http.StatusConflict},
		{"exam set not found", services.ErrExamSetNotFound, http.StatusNotFound},
		{"session not found", fmt.Errorf("wrapped: %w", services.ErrSessionNotFound), http.StatusNotFound},
		{"no active session", services.ErrNoActiveSession, http.StatusConflict},
		{"invalid choice", services.ErrInvalidChoice, http.StatusBadRequest},
		{"invalid cancel action", services.ErrInvalidCancelAction, http.StatusBadRequest},
		{"already completed", services.ErrSessionAlreadyCompleted, http.StatusConflict},
		{"not completed", services.ErrSessionNotCompleted, http.StatusConflict},
		{"not deletable", services.ErrSessionNotDeletable, http.StatusForbidden},
		{"bad workbook", services.ErrInvalidImportFile, http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, err := GetUserIDFromContext(c); err == nil {
		t.Error("expected error without user")
	}

	setUser(c, &models.User{ID: "u-1", Role: models.RoleTeacher})
	id, err := GetUserIDFromContext(c)
	if err != nil || id != "u-1" {
		t.Errorf("GetUserIDFromContext() = %q, %v", id, err)
	}
	role, err := GetUserRoleFromContext(c)
	if err != nil || role != models.RoleTeacher {
		t.Errorf("GetUserRoleFromContext() = %q, %v", role, err)
	}
}
