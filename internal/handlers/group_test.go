package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m1z23r/nikode-sync/internal/middleware"
	"github.com/m1z23r/nikode-sync/internal/models"
	"github.com/m1z23r/nikode-sync/internal/services"
	"github.com/m1z23r/nikode-sync/pkg/dto"
	"github.com/m1z23r/nikode-sync/tests/testutil"
)

func setupGroupTest(t *testing.T) (*testutil.MockGroupService, *drift.Engine, *services.JWTService) {
	t.Helper()
	mockGroupService := new(testutil.MockGroupService)
	handler := NewGroupHandler(mockGroupService)
	jwtSvc := services.NewJWTService("test-secret-key", 15*time.Minute)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/groups", handler.Create)
	app.Delete("/groups/:groupId", handler.Delete)
	app.Post("/groups/:groupId/members", handler.AddMember)
	app.Delete("/groups/:groupId/members/:userId", handler.RemoveMember)

	return mockGroupService, app, jwtSvc
}

func TestGroupHandler_Create_Success(t *testing.T) {
	mockGroupService, app, jwtSvc := setupGroupTest(t)

	group := &models.Group{ID: "editors", CreatedAt: time.Now()}
	mockGroupService.On("Create", mock.Anything, "editors").Return(group, nil)

	jsonBody, _ := json.Marshal(dto.CreateGroupRequest{ID: "editors"})
	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, jwtSvc, "alice"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockGroupService.AssertExpectations(t)
}

func TestGroupHandler_AddMember_UnknownGroup(t *testing.T) {
	mockGroupService, app, jwtSvc := setupGroupTest(t)

	mockGroupService.On("AddMember", mock.Anything, "alice", "missing").
		Return(nil, services.ErrGroupNotFound)

	jsonBody, _ := json.Marshal(dto.AddMemberRequest{UserID: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/groups/missing/members", bytes.NewReader(jsonBody))
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, jwtSvc, "alice"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockGroupService.AssertExpectations(t)
}

func TestGroupHandler_RemoveMember_Success(t *testing.T) {
	mockGroupService, app, jwtSvc := setupGroupTest(t)

	mockGroupService.On("RemoveMember", mock.Anything, "alice", "editors").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/groups/editors/members/alice", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, jwtSvc, "alice"))
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockGroupService.AssertExpectations(t)
}
