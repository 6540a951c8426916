package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackit-forum/backend/internal/models"
)

// TestMigrateEnforcesVoteUniqueness runs the migrations against a real
// Postgres and verifies the composite unique vote indexes reject a second
// vote row for the same (user, target) pair.
func TestMigrateEnforcesVoteUniqueness(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stackit_test"),
		tcpostgres.WithUsername("stackit"),
		tcpostgres.WithPassword("stackit"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	alice := models.User{Name: "Alice", Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := models.User{Name: "Bob", Username: "bob", Email: "bob@example.com", Password: "x"}
	if err := db.Create(&alice).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Create(&bob).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	question := models.Question{Title: "Q", Description: "D", AuthorID: alice.ID}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	answer := models.Answer{Content: "A", QuestionID: question.ID, AuthorID: bob.ID}
	if err := db.Create(&answer).Error; err != nil {
		t.Fatalf("create answer: %v", err)
	}

	questionID := question.ID
	answerID := answer.ID

	if err := db.Create(&models.Vote{UserID: bob.ID, QuestionID: &questionID, Type: "UP"}).Error; err != nil {
		t.Fatalf("first question vote: %v", err)
	}
	err = db.Create(&models.Vote{UserID: bob.ID, QuestionID: &questionID, Type: "DOWN"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate question vote error = %v, want ErrDuplicatedKey", err)
	}

	if err := db.Create(&models.Vote{UserID: bob.ID, AnswerID: &answerID, Type: "UP"}).Error; err != nil {
		t.Fatalf("first answer vote: %v", err)
	}
	err = db.Create(&models.Vote{UserID: bob.ID, AnswerID: &answerID, Type: "UP"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate answer vote error = %v, want ErrDuplicatedKey", err)
	}

	// A different user voting the same target is fine.
	if err := db.Create(&models.Vote{UserID: alice.ID, AnswerID: &answerID, Type: "DOWN"}).Error; err != nil {
		t.Errorf("vote by different user: %v", err)
	}
}
