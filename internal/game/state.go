package game

import (
	"time"

	"song-trivia-service/internal/domain"
)

// State is the closed set of phases a room's game can be in. Exactly one
// variant is active at a time; call sites type-switch over all three.
type State interface{ isState() }

// Waiting is the pre-game lobby phase. No payload.
type Waiting struct{}

func (Waiting) isState() {}

// Playing holds the generated question sequence and the live question cursor.
type Playing struct {
	Params    domain.GameParams
	Questions []domain.Question
	Current   QuestionState
}

func (Playing) isState() {}

// Ended retains the parameters needed to restart with the same settings.
type Ended struct {
	Params domain.GameParams
}

func (Ended) isState() {}

// QuestionStatus is the sub-phase of the current question.
type QuestionStatus string

const (
	// QuestionOpen means submissions are being collected.
	QuestionOpen QuestionStatus = "open"
	// QuestionResolved means the question has been scored and the room is in
	// the reveal grace period before advancing.
	QuestionResolved QuestionStatus = "resolved"
)

// QuestionState tracks progress through the current question. PhaseStart is
// reset on every sub-phase change and drives the timeout checks.
type QuestionState struct {
	Index       int
	Status      QuestionStatus
	Submissions []domain.UserSubmission
	PhaseStart  time.Time
}

// CurrentQuestion returns the question the cursor points at.
func (p Playing) CurrentQuestion() domain.Question {
	return p.Questions[p.Current.Index]
}

// LastQuestion reports whether the cursor is on the final question.
func (p Playing) LastQuestion() bool {
	return p.Current.Index == len(p.Questions)-1
}
