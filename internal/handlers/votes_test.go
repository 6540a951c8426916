package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackit-forum/backend/internal/database"
	"github.com/stackit-forum/backend/internal/models"
)

func newTestHandler(t *testing.T) (*gorm.DB, *Handler) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, NewHandler(db)
}

// authAs stands in for the JWT middleware in tests.
func authAs(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

// newRouter registers the vote and answer routes; userID 0 means anonymous.
func newRouter(h *Handler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api")
	if userID != 0 {
		api.Use(authAs(userID))
	}
	api.GET("/votes", h.Vote.GetVoteSummary)
	api.POST("/votes", h.Vote.CastVote)
	api.POST("/answers", h.Answer.CreateAnswer)
	api.POST("/answers/accept", h.Answer.AcceptAnswer)
	api.GET("/questions/:id/answers", h.Answer.GetAnswers)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

type forumFixture struct {
	asker    models.User
	answerer models.User
	question models.Question
	answer   models.Answer
}

func seedForum(t *testing.T, db *gorm.DB) forumFixture {
	t.Helper()

	f := forumFixture{
		asker:    models.User{Name: "Alice", Username: "alice", Email: "alice@example.com", Password: "x"},
		answerer: models.User{Name: "Bob", Username: "bob", Email: "bob@example.com", Password: "x"},
	}
	if err := db.Create(&f.asker).Error; err != nil {
		t.Fatalf("seed asker: %v", err)
	}
	if err := db.Create(&f.answerer).Error; err != nil {
		t.Fatalf("seed answerer: %v", err)
	}

	f.question = models.Question{Title: "What is a slice?", Description: "Really", AuthorID: f.asker.ID}
	if err := db.Create(&f.question).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	f.answer = models.Answer{Content: "A view over an array", QuestionID: f.question.ID, AuthorID: f.answerer.ID}
	if err := db.Create(&f.answer).Error; err != nil {
		t.Fatalf("seed answer: %v", err)
	}
	return f
}

func TestCastVoteEndpoint(t *testing.T) {
	db, h := newTestHandler(t)
	f := seedForum(t, db)
	r := newRouter(h, f.asker.ID)

	w, body := doJSON(t, r, http.MethodPost, "/api/votes", gin.H{"type": "UP", "answerId": f.answer.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, body)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	result, _ := body["result"].(map[string]any)
	if result["action"] != "created" || result["type"] != "UP" {
		t.Errorf("result = %v, want created UP", result)
	}
	if body["score"] != float64(1) || body["userVote"] != "UP" {
		t.Errorf("score/userVote = %v/%v, want 1/UP", body["score"], body["userVote"])
	}

	// Same vote toggles off.
	w, body = doJSON(t, r, http.MethodPost, "/api/votes", gin.H{"type": "UP", "answerId": f.answer.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	result, _ = body["result"].(map[string]any)
	if result["action"] != "removed" {
		t.Errorf("action = %v, want removed", result["action"])
	}
	if body["score"] != float64(0) || body["userVote"] != nil {
		t.Errorf("score/userVote = %v/%v, want 0/nil", body["score"], body["userVote"])
	}
}

func TestCastVoteEndpointErrors(t *testing.T) {
	db, h := newTestHandler(t)
	f := seedForum(t, db)
	r := newRouter(h, f.asker.ID)
	anon := newRouter(h, 0)

	tests := []struct {
		name   string
		router *gin.Engine
		body   gin.H
		status int
	}{
		{"unauthenticated", anon, gin.H{"type": "UP", "answerId": f.answer.ID}, http.StatusUnauthorized},
		{"bad polarity", r, gin.H{"type": "MAYBE", "answerId": f.answer.ID}, http.StatusBadRequest},
		{"both targets", r, gin.H{"type": "UP", "questionId": f.question.ID, "answerId": f.answer.ID}, http.StatusBadRequest},
		{"neither target", r, gin.H{"type": "UP"}, http.StatusBadRequest},
		{"missing answer", r, gin.H{"type": "UP", "answerId": 99999}, http.StatusNotFound},
		{"missing question", r, gin.H{"type": "DOWN", "questionId": 99999}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doJSON(t, tt.router, http.MethodPost, "/api/votes", tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestGetVoteSummaryEndpoint(t *testing.T) {
	db, h := newTestHandler(t)
	f := seedForum(t, db)
	r := newRouter(h, f.asker.ID)
	anon := newRouter(h, 0)

	if _, body := doJSON(t, r, http.MethodPost, "/api/votes", gin.H{"type": "DOWN", "questionId": f.question.ID}); body["success"] != true {
		t.Fatalf("vote setup failed: %v", body)
	}

	w, body := doJSON(t, r, http.MethodGet, "/api/votes?questionId="+strconv.Itoa(f.question.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body["score"] != float64(-1) || body["downvotes"] != float64(1) || body["userVote"] != "DOWN" {
		t.Errorf("summary = %v, want score -1, down 1, userVote DOWN", body)
	}

	// Anonymous sees counts but no caller vote.
	_, body = doJSON(t, anon, http.MethodGet, "/api/votes?questionId="+strconv.Itoa(f.question.ID), nil)
	if body["userVote"] != nil {
		t.Errorf("userVote = %v, want nil for anonymous", body["userVote"])
	}

	w, _ = doJSON(t, anon, http.MethodGet, "/api/votes", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without target = %d, want 400", w.Code)
	}
}

func TestAcceptAnswerEndpoint(t *testing.T) {
	db, h := newTestHandler(t)
	f := seedForum(t, db)
	author := newRouter(h, f.asker.ID)
	stranger := newRouter(h, f.answerer.ID)

	payload := gin.H{"answerId": f.answer.ID, "questionId": f.question.ID}

	// Only the question author may accept.
	w, _ := doJSON(t, stranger, http.MethodPost, "/api/answers/accept", payload)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}

	w, body := doJSON(t, author, http.MethodPost, "/api/answers/accept", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %v", w.Code, body)
	}
	if body["isAccepted"] != true {
		t.Errorf("isAccepted = %v, want true", body["isAccepted"])
	}

	// The answer author is notified.
	var notifications []models.Notification
	if err := db.Where("user_id = ?", f.answerer.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Type != models.NotificationAnswerAccepted {
		t.Errorf("notifications = %+v, want one ANSWER_ACCEPTED", notifications)
	}

	// Accepting again toggles off.
	_, body = doJSON(t, author, http.MethodPost, "/api/answers/accept", payload)
	if body["isAccepted"] != false {
		t.Errorf("isAccepted = %v, want false", body["isAccepted"])
	}

	// Mismatched parent question.
	other := models.Question{Title: "Other", Description: "d", AuthorID: f.asker.ID}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed question: %v", err)
	}
	w, _ = doJSON(t, author, http.MethodPost, "/api/answers/accept", gin.H{"answerId": f.answer.ID, "questionId": other.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for mismatch", w.Code)
	}

	w, _ = doJSON(t, author, http.MethodPost, "/api/answers/accept", gin.H{"answerId": 99999, "questionId": f.question.ID})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateAnswerNotifiesQuestionAuthor(t *testing.T) {
	db, h := newTestHandler(t)
	f := seedForum(t, db)
	r := newRouter(h, f.answerer.ID)

	w, _ := doJSON(t, r, http.MethodPost, "/api/answers", gin.H{"content": "Another take", "questionId": f.question.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var notifications []models.Notification
	if err := db.Where("user_id = ?", f.asker.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("find notifications: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Type != models.NotificationQuestionAnswered {
		t.Errorf("notifications = %+v, want one QUESTION_ANSWERED", notifications)
	}

	// Answering your own question stays quiet.
	self := newRouter(h, f.asker.ID)
	if w, _ := doJSON(t, self, http.MethodPost, "/api/answers", gin.H{"content": "Self answer", "questionId": f.question.ID}); w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", f.asker.ID).Count(&count)
	if count != 1 {
		t.Errorf("notifications = %d, want still 1", count)
	}
}
