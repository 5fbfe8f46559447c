package app

import (
	"song-trivia-service/internal/domain"
	"song-trivia-service/internal/game"
)

// Phase labels the observable room states sent to clients.
type Phase string

const (
	PhaseWaiting          Phase = "Waiting"
	PhasePlaying          Phase = "Playing"
	PhaseQuestionResolved Phase = "QuestionResolved"
	PhaseEnded            Phase = "Ended"
)

// Snapshot is an immutable render of the room at one instant. Fields beyond
// Phase and Users are only populated for the phases that carry them. The
// Question's answer index and media reference are excluded from its JSON
// form, so the snapshot is safe to serialize while a question is open.
type Snapshot struct {
	Phase              Phase
	Users              []domain.User
	QuestionIndex      int
	NumQuestions       int
	Question           domain.Question
	ElapsedMs          int64
	Answer             string
	CorrectSubmissions []domain.UserSubmission
}

// Snapshot renders the current state. Receivers of a change signal call this
// rather than consuming deltas, so a coalesced signal still yields a correct
// render.
func (r *Room) Snapshot() Snapshot {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()

	switch st := r.state.(type) {
	case game.Playing:
		q := st.CurrentQuestion()
		if st.Current.Status == game.QuestionOpen {
			return Snapshot{
				Phase:         PhasePlaying,
				Users:         r.SnapshotUsers(false),
				QuestionIndex: st.Current.Index,
				NumQuestions:  len(st.Questions),
				Question:      q,
				ElapsedMs:     r.now().Sub(st.Current.PhaseStart).Milliseconds(),
			}
		}
		correct := make([]domain.UserSubmission, 0, len(st.Current.Submissions))
		for _, s := range st.Current.Submissions {
			if s.Choice == q.AnswerIndex {
				correct = append(correct, s)
			}
		}
		return Snapshot{
			Phase:              PhaseQuestionResolved,
			Users:              r.SnapshotUsers(false),
			QuestionIndex:      st.Current.Index,
			NumQuestions:       len(st.Questions),
			Answer:             q.Choices[q.AnswerIndex],
			CorrectSubmissions: correct,
		}
	case game.Ended:
		return Snapshot{Phase: PhaseEnded, Users: r.SnapshotUsers(false)}
	default:
		return Snapshot{Phase: PhaseWaiting, Users: r.SnapshotUsers(false)}
	}
}
