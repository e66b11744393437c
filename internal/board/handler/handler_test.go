package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/repository"
	"github.com/bitfantasy/agileboard/internal/board/service"
	"github.com/bitfantasy/agileboard/internal/board/sse"
	"github.com/bitfantasy/agileboard/internal/board/storage"
	"github.com/bitfantasy/agileboard/internal/board/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type server struct {
	router  *gin.Engine
	backend *testutil.Backend
	board   *service.Board
	hub     *sse.Hub
}

func newServer(t *testing.T, configured bool, jwtSecret string) *server {
	t.Helper()
	backend := testutil.NewBackend()
	hub := sse.NewHub(zap.NewNop())
	board := service.NewBoard(service.Backend{
		Users:     backend,
		Sprints:   backend,
		WorkItems: backend,
		Files:     backend,
	}, service.Options{
		Configured: configured,
		Alerter:    hub,
		Listener:   hub,
		Now:        func() time.Time { return testNow },
	}, zap.NewNop())

	r := testutil.SetupRouter()
	RegisterRoutes(r, NewHandlers(board, hub, zap.NewNop()), jwtSecret)
	return &server{router: r, backend: backend, board: board, hub: hub}
}

func (s *server) refresh(t *testing.T) {
	t.Helper()
	require.NoError(t, s.board.Refresh(context.Background()))
}

func seedItem(id, title string) entity.WorkItem {
	return entity.WorkItem{ID: id, Type: entity.TypeTask, Title: title}
}

func TestNotConfigured(t *testing.T) {
	s := newServer(t, false, "")
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/board", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, false, data["configured"])
	assert.Equal(t, false, data["loading"])

	w = testutil.DoRequest(s.router, http.MethodPost, "/api/v1/work-items", map[string]interface{}{"title": "x"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, float64(CodeNotConfigured), testutil.ParseResponse(w)["code"])
	assert.Zero(t, s.backend.Calls("CreateWorkItem"))

	w = testutil.DoRequest(s.router, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configured":false`)
}

func TestWorkItemCreateAndUpdate(t *testing.T) {
	s := newServer(t, true, "")
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodPost, "/api/v1/work-items", map[string]interface{}{
		"title":     "Checkout",
		"priority":  "P1",
		"effort":    5,
		"startDate": "2025-03-11",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := testutil.DataMap(testutil.ParseResponse(w))
	id, _ := data["id"].(string)
	assert.Regexp(t, `^A-[0-9A-Z]{5}$`, id)
	assert.Equal(t, "Task", data["type"])

	stored, ok := s.backend.StoredWorkItem(id)
	require.True(t, ok)
	assert.Equal(t, "2025-03-11", stored.StartDate.String())

	w = testutil.DoRequest(s.router, http.MethodPatch, "/api/v1/work-items/"+id, map[string]interface{}{
		"column":     "Doing",
		"assigneeId": "u1",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data = testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, "Doing", data["column"])
	assert.Equal(t, "u1", data["assigneeId"])

	w = testutil.DoRequest(s.router, http.MethodPatch, "/api/v1/work-items/"+id, map[string]interface{}{"assigneeId": nil}, "")
	require.Equal(t, http.StatusOK, w.Code)
	stored, _ = s.backend.StoredWorkItem(id)
	assert.Nil(t, stored.AssigneeID)
}

func TestWorkItemEmptyDateClears(t *testing.T) {
	s := newServer(t, true, "")
	item := seedItem("A-00001", "Dated")
	item.StartDate = entity.DatePtr(entity.MustParseDate("2025-03-03"))
	s.backend.SeedWorkItems(item)
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/timeline", nil, "")
	require.Len(t, testutil.DataMap(testutil.ParseResponse(w))["items"], 1)

	w = testutil.DoRequest(s.router, http.MethodPatch, "/api/v1/work-items/A-00001", map[string]interface{}{"startDate": ""}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	local, ok := s.board.WorkItem("A-00001")
	require.True(t, ok)
	assert.Nil(t, local.StartDate)
	stored, _ := s.backend.StoredWorkItem("A-00001")
	assert.Nil(t, stored.StartDate)

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/timeline", nil, "")
	assert.Empty(t, testutil.DataMap(testutil.ParseResponse(w))["items"])
}

func TestWorkItemValidation(t *testing.T) {
	s := newServer(t, true, "")
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodPost, "/api/v1/work-items", map[string]interface{}{"title": " "}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(s.router, http.MethodPost, "/api/v1/work-items", map[string]interface{}{"title": "x", "priority": "P9"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, s.backend.Calls("CreateWorkItem"))

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/work-items/A-NONE0", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWorkItemSchemaMismatch(t *testing.T) {
	s := newServer(t, true, "")
	s.backend.SeedWorkItems(seedItem("A-00001", "one"))
	s.refresh(t)
	s.backend.Fail("UpdateWorkItem", fmt.Errorf("%w: column cost_type does not exist", repository.ErrSchemaMismatch))

	w := testutil.DoRequest(s.router, http.MethodPatch, "/api/v1/work-items/A-00001", map[string]interface{}{"costType": "OPEX"}, "")
	assert.Equal(t, 422, w.Code)
	assert.Equal(t, float64(CodeSchemaMismatch), testutil.ParseResponse(w)["code"])
}

func TestWorkItemList(t *testing.T) {
	s := newServer(t, true, "")
	a := seedItem("A-00001", "Login page")
	a.SprintID = entity.StringPtr("s1")
	a.Priority = entity.PriorityP2
	b := seedItem("A-00002", "Logout")
	b.Priority = entity.PriorityP1
	c := seedItem("A-00003", "Report")
	c.Priority = entity.PriorityP4
	s.backend.SeedWorkItems(a, b, c)
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/work-items?sprint=backlog&sort=priority", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, float64(2), data["total"])
	items := data["items"].([]interface{})
	assert.Equal(t, "A-00002", items[0].(map[string]interface{})["id"])

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/work-items?q=log&sort=priority&order=desc", nil, "")
	items = testutil.DataMap(testutil.ParseResponse(w))["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "A-00001", items[0].(map[string]interface{})["id"])
}

func TestAttachmentUploadAndRemove(t *testing.T) {
	s := newServer(t, true, "")
	s.backend.SeedWorkItems(seedItem("A-00001", "one"))
	s.refresh(t)

	w := testutil.DoMultipart(s.router, "/api/v1/work-items/A-00001/attachments", nil, testutil.FormFile{
		Field: "file", Filename: "relatório final.pdf", ContentType: "application/pdf", Data: []byte("%PDF"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	att := testutil.DataMap(testutil.ParseResponse(w))
	path := fmt.Sprintf("attachments/A-00001/%d-relatorio-final.pdf", testNow.UnixMilli())
	assert.Equal(t, path, att["id"])
	assert.Equal(t, "https://files.test/attachments/"+path, att["url"])
	data, ok := s.backend.Object(storage.BucketAttachments, path)
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data))

	stored, _ := s.backend.StoredWorkItem("A-00001")
	require.Len(t, stored.Attachments, 1)

	w = testutil.DoRequest(s.router, http.MethodDelete, "/api/v1/work-items/A-00001/attachments/"+path, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stored, _ = s.backend.StoredWorkItem("A-00001")
	assert.Empty(t, stored.Attachments)
	assert.Zero(t, s.backend.Calls("RemoveObject"))

	w = testutil.DoRequest(s.router, http.MethodDelete, "/api/v1/work-items/A-00001/attachments/"+path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSprintRoutes(t *testing.T) {
	s := newServer(t, true, "")
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodPost, "/api/v1/sprints", nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, "Sprint 1", data["name"])
	assert.Equal(t, "2025-03-10", data["startDate"])
	assert.Equal(t, "2025-03-24", data["endDate"])

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/sprints", nil, "")
	data = testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, "sprint-1", data["selectedSprintId"])

	w = testutil.DoRequest(s.router, http.MethodPost, "/api/v1/sprints", map[string]interface{}{
		"startDate": "2025-04-10", "endDate": "2025-04-01",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(s.router, http.MethodPost, "/api/v1/sprints/nope/select", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = testutil.DoRequest(s.router, http.MethodPost, "/api/v1/sprints/sync-by-date?policy=weekly", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(s.router, http.MethodDelete, "/api/v1/sprints/sprint-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.backend.Calls("ClearSprint"))
}

func TestSyncByDate(t *testing.T) {
	s := newServer(t, true, "")
	s.backend.SeedSprints(entity.Sprint{
		ID: "s1", Name: "Sprint 1", Status: entity.SprintActive,
		StartDate: entity.MustParseDate("2025-03-01"), EndDate: entity.MustParseDate("2025-03-14"),
	})
	w1 := seedItem("A-00001", "dated")
	w1.StartDate = entity.DatePtr(entity.MustParseDate("2025-03-01"))
	w1.EndDate = entity.DatePtr(entity.MustParseDate("2025-03-14"))
	s.backend.SeedWorkItems(w1, seedItem("A-00002", "undated"))
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodPost, "/api/v1/sprints/sync-by-date", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, "containment", data["policy"])
	assert.Equal(t, float64(1), data["updated"])
	assert.Equal(t, float64(1), data["skipped"])

	stored, _ := s.backend.StoredWorkItem("A-00001")
	require.NotNil(t, stored.SprintID)
	assert.Equal(t, "s1", *stored.SprintID)
}

func TestUserRoutes(t *testing.T) {
	s := newServer(t, true, "")
	s.refresh(t)

	w := testutil.DoMultipart(s.router, "/api/v1/users", map[string]string{"name": "Ana"}, testutil.FormFile{
		Field: "avatar", Filename: "ana.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := testutil.DataMap(testutil.ParseResponse(w))
	assert.Equal(t, "Ana", data["name"])
	assert.Equal(t, fmt.Sprintf("https://files.test/avatars/%d-ana.png", testNow.UnixMilli()), data["avatarUrl"])

	w = testutil.DoMultipart(s.router, "/api/v1/users", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/users", nil, "")
	items := testutil.DataMap(testutil.ParseResponse(w))["items"].([]interface{})
	assert.Len(t, items, 1)
}

func TestUserDeleteNeedsAdmin(t *testing.T) {
	s := newServer(t, true, testutil.JWTSecret)
	s.backend.SeedUsers(entity.User{ID: "u1", Name: "Ana"})
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/board", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	member := testutil.GenerateTestToken("u2", "Bo", "board_member")
	w = testutil.DoRequest(s.router, http.MethodDelete, "/api/v1/users/u1", nil, member)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, s.backend.Calls("DeleteUser"))

	admin := testutil.GenerateTestToken("u3", "Cy", RoleBoardAdmin)
	w = testutil.DoRequest(s.router, http.MethodDelete, "/api/v1/users/u1", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.board.Snapshot().Users)
}

func TestAnalyticsRoutes(t *testing.T) {
	s := newServer(t, true, "")
	ws := entity.WorkItem{ID: "A-00001", Type: entity.TypeWorkstream, Title: "Payments"}
	task := seedItem("A-00002", "Card form")
	task.WorkstreamID = entity.StringPtr("A-00001")
	task.Effort = 4
	task.CostType = entity.CostOPEX
	task.CostValue = 99.5
	s.backend.SeedWorkItems(ws, task)
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/costs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 99.5, testutil.DataMap(testutil.ParseResponse(w))["total"])

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/workstreams", nil, "")
	items := testutil.DataMap(testutil.ParseResponse(w))["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(4), items[0].(map[string]interface{})["effort"])

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/hierarchy-issues", nil, "")
	items = testutil.DataMap(testutil.ParseResponse(w))["items"].([]interface{})
	assert.Len(t, items, 1)

	w = testutil.DoRequest(s.router, http.MethodGet, "/api/v1/analytics/timeline", nil, "")
	items = testutil.DataMap(testutil.ParseResponse(w))["items"].([]interface{})
	assert.Empty(t, items)
}

func TestExportCosts(t *testing.T) {
	s := newServer(t, true, "")
	item := seedItem("A-00001", "Servers")
	item.CostType = entity.CostCAPEX
	item.CostValue = 1200
	s.backend.SeedWorkItems(item)
	s.refresh(t)

	w := testutil.DoRequest(s.router, http.MethodGet, "/api/v1/costs/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "costs_")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Costs", "A2")
	require.NoError(t, err)
	assert.Equal(t, "A-00001", v)
}

func TestSSEStream(t *testing.T) {
	s := newServer(t, true, "")
	s.backend.SeedWorkItems(seedItem("A-00001", "one"))
	s.refresh(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sse/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: connected\n"))
	assert.Contains(t, body, "event: snapshot\ndata: {")
	assert.Contains(t, body, `"id":"A-00001"`)
	assert.Zero(t, s.hub.ClientCount())
}

func TestServiceErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrNotConfigured, 503, CodeNotConfigured},
		{fmt.Errorf("%w: bad", service.ErrInvalidInput), 400, CodeBadRequest},
		{fmt.Errorf("x: %w", entity.ErrInvalidField), 400, CodeBadRequest},
		{fmt.Errorf("updateSprint: %w", repository.ErrNotFound), 404, CodeNotFound},
		{fmt.Errorf("createWorkItem: %w", repository.ErrSchemaMismatch), 422, CodeSchemaMismatch},
		{errors.New("boom"), 500, CodeInternal},
	}
	for _, tc := range cases {
		r := testutil.SetupRouter()
		r.GET("/", func(c *gin.Context) { ServiceError(c, tc.err) })
		w := testutil.DoRequest(r, http.MethodGet, "/", nil, "")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.Equal(t, float64(tc.code), testutil.ParseResponse(w)["code"])
	}
}
