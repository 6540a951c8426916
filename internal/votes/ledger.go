// Package votes owns the vote rows for questions and answers and the
// accepted-answer flag. It enforces one vote per user per target, recomputes
// aggregate scores from the vote rows at read time, and keeps at most one
// answer accepted per question.
package votes

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/stackit-forum/backend/internal/models"
)

type Polarity string

const (
	Up   Polarity = "UP"
	Down Polarity = "DOWN"
)

func (p Polarity) valid() bool {
	return p == Up || p == Down
}

// Action reports what a CastVote call did to the caller's vote row.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
)

// Target identifies the entity being voted on: exactly one of a question or
// an answer.
type Target struct {
	QuestionID *int
	AnswerID   *int
}

func QuestionTarget(id int) Target { return Target{QuestionID: &id} }
func AnswerTarget(id int) Target   { return Target{AnswerID: &id} }

func (t Target) validate() error {
	if t.QuestionID != nil && t.AnswerID != nil {
		return fmt.Errorf("%w: cannot vote on both question and answer simultaneously", ErrInvalidArgument)
	}
	if t.QuestionID == nil && t.AnswerID == nil {
		return fmt.Errorf("%w: either questionId or answerId is required", ErrInvalidArgument)
	}
	return nil
}

func (t Target) scope(tx *gorm.DB) *gorm.DB {
	if t.QuestionID != nil {
		return tx.Where("question_id = ?", *t.QuestionID)
	}
	return tx.Where("answer_id = ?", *t.AnswerID)
}

func (t Target) key(userID int) string {
	if t.QuestionID != nil {
		return fmt.Sprintf("q:%d:u:%d", *t.QuestionID, userID)
	}
	return fmt.Sprintf("a:%d:u:%d", *t.AnswerID, userID)
}

// Summary is the read-time aggregate over a target's vote rows. CallerVote is
// nil when the caller is anonymous or has no vote on the target.
type Summary struct {
	Score      int       `json:"score"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
	CallerVote *Polarity `json:"userVote"`
}

// VoteResult reports the transition CastVote performed plus the fresh
// aggregate. Polarity is nil when the vote was removed.
type VoteResult struct {
	Action   Action
	Polarity *Polarity
	Summary  Summary
}

type AcceptResult struct {
	IsAccepted bool
	Message    string
}

const lockStripes = 64

// Ledger serializes vote and acceptance transitions. Each mutating operation
// runs its read-then-write inside one transaction, under a striped lock keyed
// by (user, target) for votes and by question for acceptance; the unique
// indexes on the votes table remain the storage-level backstop.
type Ledger struct {
	db    *gorm.DB
	locks [lockStripes]sync.Mutex
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &l.locks[h.Sum32()%lockStripes]
}

// CastVote applies the three-way toggle for one user on one target: no
// existing vote creates one, the same polarity again removes it, the opposite
// polarity updates it in place. It returns the action taken and the
// recomputed aggregate for the target.
func (l *Ledger) CastVote(userID int, target Target, polarity Polarity) (*VoteResult, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if !polarity.valid() {
		return nil, fmt.Errorf("%w: vote type must be UP or DOWN", ErrInvalidArgument)
	}
	if err := l.targetExists(target); err != nil {
		return nil, err
	}

	mu := l.lock(target.key(userID))
	mu.Lock()
	result := &VoteResult{}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		err := target.scope(tx).Where("user_id = ?", userID).First(&existing).Error
		switch {
		case err == nil && existing.Type == string(polarity):
			// Same vote again: toggle off.
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Action = ActionRemoved
		case err == nil:
			existing.Type = string(polarity)
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			p := polarity
			result.Action = ActionUpdated
			result.Polarity = &p
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{
				UserID:     userID,
				QuestionID: target.QuestionID,
				AnswerID:   target.AnswerID,
				Type:       string(polarity),
			}
			if err := tx.Create(&vote).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrConflict
				}
				return err
			}
			p := polarity
			result.Action = ActionCreated
			result.Polarity = &p
		default:
			return err
		}
		return nil
	})
	mu.Unlock()
	if err != nil {
		return nil, err
	}

	summary, err := l.Summary(target, &userID)
	if err != nil {
		return nil, err
	}
	result.Summary = *summary
	return result, nil
}

// Summary aggregates all votes for the target. A concurrent CastVote may land
// before or after the counts; the summary reflects state at read time.
func (l *Ledger) Summary(target Target, callerID *int) (*Summary, error) {
	if err := target.validate(); err != nil {
		return nil, err
	}

	var up, down int64
	if err := target.scope(l.db.Model(&models.Vote{})).Where("type = ?", string(Up)).Count(&up).Error; err != nil {
		return nil, err
	}
	if err := target.scope(l.db.Model(&models.Vote{})).Where("type = ?", string(Down)).Count(&down).Error; err != nil {
		return nil, err
	}

	summary := &Summary{
		Upvotes:   int(up),
		Downvotes: int(down),
		Score:     int(up) - int(down),
	}

	if callerID != nil {
		var vote models.Vote
		err := target.scope(l.db).Where("user_id = ?", *callerID).First(&vote).Error
		switch {
		case err == nil:
			p := Polarity(vote.Type)
			summary.CallerVote = &p
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return summary, nil
}

// AcceptAnswer toggles acceptance of an answer by the question's author. An
// already-accepted answer is unaccepted; otherwise the currently accepted
// answer of the question, if any, is cleared and the target answer set, both
// inside one transaction.
func (l *Ledger) AcceptAnswer(callerID, answerID, questionID int) (*AcceptResult, error) {
	if callerID == 0 {
		return nil, ErrUnauthenticated
	}
	if answerID == 0 || questionID == 0 {
		return nil, fmt.Errorf("%w: answer ID and question ID are required", ErrInvalidArgument)
	}

	// One accept at a time per question, so clear-then-set cannot interleave
	// with another accept and leave two answers marked.
	mu := l.lock(fmt.Sprintf("accept:%d", questionID))
	mu.Lock()
	defer mu.Unlock()

	result := &AcceptResult{}
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question %d", ErrNotFound, questionID)
			}
			return err
		}
		if question.AuthorID != callerID {
			return fmt.Errorf("%w: only the question author can accept answers", ErrForbidden)
		}

		var answer models.Answer
		if err := tx.First(&answer, answerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: answer %d", ErrNotFound, answerID)
			}
			return err
		}
		if answer.QuestionID != questionID {
			return fmt.Errorf("%w: answer does not belong to this question", ErrInvalidArgument)
		}

		if answer.IsAccepted {
			if err := tx.Model(&answer).Update("is_accepted", false).Error; err != nil {
				return err
			}
			result.IsAccepted = false
			result.Message = "Answer unaccepted successfully"
			return nil
		}

		// Clear the at most one currently accepted answer, then set ours.
		var current models.Answer
		err := tx.Where("question_id = ? AND is_accepted = ?", questionID, true).First(&current).Error
		if err == nil {
			if err := tx.Model(&current).Update("is_accepted", false).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&answer).Update("is_accepted", true).Error; err != nil {
			return err
		}
		result.IsAccepted = true
		result.Message = "Answer accepted successfully"
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Ledger) targetExists(target Target) error {
	if target.QuestionID != nil {
		var question models.Question
		if err := l.db.Select("id").First(&question, *target.QuestionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: question %d", ErrNotFound, *target.QuestionID)
			}
			return err
		}
		return nil
	}
	var answer models.Answer
	if err := l.db.Select("id").First(&answer, *target.AnswerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: answer %d", ErrNotFound, *target.AnswerID)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// sqlite (used in tests) reports constraint violations by message only.
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
