package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PRANJALBANSALJI/Kanban/internal/audit"
	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	dbpkg "github.com/PRANJALBANSALJI/Kanban/internal/db"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
	"github.com/PRANJALBANSALJI/Kanban/internal/notify"
	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
	"github.com/PRANJALBANSALJI/Kanban/internal/store"
)

type fixture struct {
	router   *gin.Engine
	db       *gorm.DB
	sessions *auth.Sessions
}

func newTestServer(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(dbpkg.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := realtime.NewHub()
	sessions := auth.NewSessions("test-secret", time.Hour)
	router, err := NewRouter(StartOpts{
		DB:       db,
		Hub:      hub,
		Store:    store.New(db, hub),
		Sessions: sessions,
		Notifier: notify.New(db, ""),
		Audit:    audit.NewLogger(db),
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return &fixture{router: router, db: db, sessions: sessions}
}

// newUser inserts a profile directly and returns its id and a session token.
func (f *fixture) newUser(t *testing.T, email, role string) (string, string) {
	t.Helper()
	hash, err := auth.HashPassword("hunter2secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	profile := models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     "Test " + email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := f.db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	token, err := f.sessions.Issue(profile.ID)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return profile.ID, token
}

// do performs a JSON request with an optional bearer token.
func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestSignupLoginLogout(t *testing.T) {
	f := newTestServer(t)

	w := f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": "dana@example.com", "full_name": "Dana", "password": "hunter2secret",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d body = %s", w.Code, w.Body.String())
	}
	created := decode[profileView](t, w)
	if created.Email != "dana@example.com" || created.Role != "user" {
		t.Fatalf("unexpected profile: %+v", created)
	}
	if w.Header().Get("Set-Cookie") == "" {
		t.Fatal("signup did not set a session cookie")
	}

	// Duplicate email.
	w = f.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": "dana@example.com", "full_name": "Dana", "password": "hunter2secret",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d", w.Code)
	}

	// Wrong password.
	w = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dana@example.com", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dana@example.com", "password": "hunter2secret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", w.Code, w.Body.String())
	}
	token := w.Header().Get("X-Session-Token")
	if token == "" {
		t.Fatal("login did not return a session token")
	}

	w = f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", w.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	f := newTestServer(t)

	w := f.do(t, http.MethodGet, "/api/boards", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestBoardLifecycle(t *testing.T) {
	f := newTestServer(t)
	_, token := f.newUser(t, "owner@example.com", "user")

	w := f.do(t, http.MethodPost, "/api/boards", token, gin.H{"title": "Launch Plan"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create board status = %d body = %s", w.Code, w.Body.String())
	}
	board := decode[models.Board](t, w)

	w = f.do(t, http.MethodGet, "/api/boards", token, nil)
	boards := decode[[]models.Board](t, w)
	if len(boards) != 1 || boards[0].ID != board.ID {
		t.Fatalf("unexpected board list: %+v", boards)
	}

	w = f.do(t, http.MethodPatch, "/api/boards/"+board.ID, token, gin.H{
		"title": "Launch Plan v2", "description": "updated",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update board status = %d", w.Code)
	}

	w = f.do(t, http.MethodDelete, "/api/boards/"+board.ID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete board status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/boards/"+board.ID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("deleted board status = %d, want 404", w.Code)
	}
}

func TestNonMemberSeesNotFound(t *testing.T) {
	f := newTestServer(t)
	_, ownerToken := f.newUser(t, "owner@example.com", "user")
	_, strangerToken := f.newUser(t, "stranger@example.com", "user")

	w := f.do(t, http.MethodPost, "/api/boards", ownerToken, gin.H{"title": "Private"})
	board := decode[models.Board](t, w)

	w = f.do(t, http.MethodGet, "/api/boards/"+board.ID, strangerToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("stranger status = %d, want 404", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/boards/"+board.ID+"/tree", strangerToken, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("stranger tree status = %d, want 404", w.Code)
	}
}

func TestMemberRoleEnforcement(t *testing.T) {
	f := newTestServer(t)
	_, ownerToken := f.newUser(t, "owner@example.com", "user")
	memberID, memberToken := f.newUser(t, "member@example.com", "user")

	w := f.do(t, http.MethodPost, "/api/boards", ownerToken, gin.H{"title": "Shared"})
	board := decode[models.Board](t, w)

	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/members", ownerToken, gin.H{
		"user_id": memberID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add member status = %d body = %s", w.Code, w.Body.String())
	}

	// Plain members can edit content but not manage the board.
	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/columns", memberToken, gin.H{"title": "Todo"})
	if w.Code != http.StatusCreated {
		t.Fatalf("member create column status = %d", w.Code)
	}
	w = f.do(t, http.MethodPatch, "/api/boards/"+board.ID, memberToken, gin.H{"title": "Hijacked"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("member update board status = %d, want 403", w.Code)
	}
	w = f.do(t, http.MethodDelete, "/api/boards/"+board.ID, memberToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("member delete board status = %d, want 403", w.Code)
	}

	// The new member got a notification about being added.
	w = f.do(t, http.MethodGet, "/api/notifications", memberToken, nil)
	rows := decode[[]models.Notification](t, w)
	if len(rows) != 1 || rows[0].Type != notify.TypeBoardChange {
		t.Fatalf("unexpected notifications: %+v", rows)
	}
}

func TestColumnAndCardFlow(t *testing.T) {
	f := newTestServer(t)
	_, token := f.newUser(t, "owner@example.com", "user")

	w := f.do(t, http.MethodPost, "/api/boards", token, gin.H{"title": "Flow"})
	board := decode[models.Board](t, w)

	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/columns", token, gin.H{"title": "Todo"})
	todo := decode[models.Column](t, w)
	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/columns", token, gin.H{"title": "Done"})
	done := decode[models.Column](t, w)
	if todo.Position != 0 || done.Position != 1 {
		t.Fatalf("column positions = %d, %d", todo.Position, done.Position)
	}

	w = f.do(t, http.MethodPost, "/api/columns/"+todo.ID+"/cards", token, gin.H{"title": "Ship it"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create card status = %d body = %s", w.Code, w.Body.String())
	}
	card := decode[models.Card](t, w)

	w = f.do(t, http.MethodPost, "/api/cards/"+card.ID+"/move", token, gin.H{
		"column_id": done.ID, "position": 0,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("move card status = %d body = %s", w.Code, w.Body.String())
	}
	moved := decode[models.Card](t, w)
	if moved.ColumnID != done.ID || moved.Position != 0 {
		t.Fatalf("moved card = %+v", moved)
	}

	// Tree reflects the move.
	w = f.do(t, http.MethodGet, "/api/boards/"+board.ID+"/tree", token, nil)
	tree := decode[struct {
		Columns []models.Column `json:"columns"`
	}](t, w)
	if len(tree.Columns) != 2 {
		t.Fatalf("tree has %d columns", len(tree.Columns))
	}
	if len(tree.Columns[0].Cards) != 0 || len(tree.Columns[1].Cards) != 1 {
		t.Fatalf("cards not where expected: %+v", tree.Columns)
	}

	// The move was audited.
	var entry models.AuditLog
	if err := f.db.Where("action = ?", "card_moved").First(&entry).Error; err != nil {
		t.Fatalf("no card_moved audit entry: %v", err)
	}
	if entry.EntityID != card.ID || entry.BoardID != board.ID {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestAssignmentNotifiesAssignee(t *testing.T) {
	f := newTestServer(t)
	_, ownerToken := f.newUser(t, "owner@example.com", "user")
	assigneeID, assigneeToken := f.newUser(t, "dev@example.com", "user")

	w := f.do(t, http.MethodPost, "/api/boards", ownerToken, gin.H{"title": "Work"})
	board := decode[models.Board](t, w)
	f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/members", ownerToken, gin.H{"user_id": assigneeID})
	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/columns", ownerToken, gin.H{"title": "Todo"})
	column := decode[models.Column](t, w)

	w = f.do(t, http.MethodPost, "/api/columns/"+column.ID+"/cards", ownerToken, gin.H{
		"title": "Ship it", "assignee_id": assigneeID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create card status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/notifications?unread=1", assigneeToken, nil)
	rows := decode[[]models.Notification](t, w)

	var found bool
	for _, row := range rows {
		if row.Type == notify.TypeAssignment {
			found = true
		}
	}
	if !found {
		t.Fatalf("no assignment notification in %+v", rows)
	}
}

func TestAdminEndpointsGated(t *testing.T) {
	f := newTestServer(t)
	_, userToken := f.newUser(t, "user@example.com", "user")
	_, adminToken := f.newUser(t, "ops@example.com", "admin")

	w := f.do(t, http.MethodGet, "/api/admin/stats", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin stats status = %d, want 403", w.Code)
	}

	w = f.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin stats status = %d", w.Code)
	}
	stats := decode[map[string]any](t, w)
	if stats["users"].(float64) != 2 {
		t.Fatalf("stats users = %v, want 2", stats["users"])
	}

	w = f.do(t, http.MethodGet, "/api/admin/boards", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin boards status = %d", w.Code)
	}
	w = f.do(t, http.MethodGet, "/api/admin/connected", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin connected status = %d", w.Code)
	}
}

func TestAdminBoardCounts(t *testing.T) {
	f := newTestServer(t)
	_, ownerToken := f.newUser(t, "owner@example.com", "user")
	_, adminToken := f.newUser(t, "ops@example.com", "admin")

	w := f.do(t, http.MethodPost, "/api/boards", ownerToken, gin.H{"title": "Counted"})
	board := decode[models.Board](t, w)
	w = f.do(t, http.MethodPost, "/api/boards/"+board.ID+"/columns", ownerToken, gin.H{"title": "Todo"})
	column := decode[models.Column](t, w)
	f.do(t, http.MethodPost, "/api/columns/"+column.ID+"/cards", ownerToken, gin.H{"title": "One"})
	f.do(t, http.MethodPost, "/api/columns/"+column.ID+"/cards", ownerToken, gin.H{"title": "Two"})

	w = f.do(t, http.MethodGet, "/api/admin/boards", adminToken, nil)
	rows := decode[[]adminBoardRow](t, w)
	if len(rows) != 1 {
		t.Fatalf("admin boards = %+v", rows)
	}
	if rows[0].MemberCount != 1 || rows[0].CardCount != 2 {
		t.Fatalf("counts = %d members, %d cards", rows[0].MemberCount, rows[0].CardCount)
	}
}

func TestPageRedirects(t *testing.T) {
	f := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("dashboard redirect = %d %q", w.Code, w.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login page status = %d", w.Code)
	}
}

func TestNewRouterValidation(t *testing.T) {
	if _, err := NewRouter(StartOpts{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
