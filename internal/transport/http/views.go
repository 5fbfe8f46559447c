package http

import (
	"song-trivia-service/internal/app"
	"song-trivia-service/internal/domain"
)

// outboundMessage is the envelope for every frame sent to a client.
type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type userView struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Online bool   `json:"online"`
}

// questionView is the redacted question shown while answering: no answer
// index, no media reference.
type questionView struct {
	QuestionType domain.QuestionType `json:"questionType"`
	Choices      []string            `json:"choices"`
	Score        int                 `json:"score"`
	Bonus        int                 `json:"bonus"`
}

type submissionView struct {
	UserName      string `json:"userName"`
	Score         int    `json:"score"`
	SubmittedAtMs int64  `json:"submittedAtMs"`
}

type waitingPayload struct {
	Users []userView `json:"users"`
}

type playingPayload struct {
	Question      questionView `json:"question"`
	QuestionIndex int          `json:"questionIndex"`
	NumQuestions  int          `json:"numQuestions"`
	ElapsedMs     int64        `json:"elapsedMs"`
	Users         []userView   `json:"users"`
}

type resolvedPayload struct {
	Answer             string           `json:"answer"`
	CorrectSubmissions []submissionView `json:"correctSubmissions"`
	QuestionIndex      int              `json:"questionIndex"`
	NumQuestions       int              `json:"numQuestions"`
	Users              []userView       `json:"users"`
}

type endedPayload struct {
	Users []userView `json:"users"`
}

// renderSnapshot maps a room snapshot onto the wire vocabulary.
func renderSnapshot(snap app.Snapshot) any {
	users := make([]userView, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, userView{Name: u.Name, Score: u.Score, Online: u.Online})
	}

	switch snap.Phase {
	case app.PhasePlaying:
		return outboundMessage[playingPayload]{
			Type: string(app.PhasePlaying),
			Payload: playingPayload{
				Question: questionView{
					QuestionType: snap.Question.Type,
					Choices:      snap.Question.Choices,
					Score:        snap.Question.Score,
					Bonus:        snap.Question.Bonus,
				},
				QuestionIndex: snap.QuestionIndex,
				NumQuestions:  snap.NumQuestions,
				ElapsedMs:     snap.ElapsedMs,
				Users:         users,
			},
		}
	case app.PhaseQuestionResolved:
		correct := make([]submissionView, 0, len(snap.CorrectSubmissions))
		for _, s := range snap.CorrectSubmissions {
			correct = append(correct, submissionView{
				UserName:      s.UserName,
				Score:         s.Score,
				SubmittedAtMs: s.SubmittedAtMs,
			})
		}
		return outboundMessage[resolvedPayload]{
			Type: string(app.PhaseQuestionResolved),
			Payload: resolvedPayload{
				Answer:             snap.Answer,
				CorrectSubmissions: correct,
				QuestionIndex:      snap.QuestionIndex,
				NumQuestions:       snap.NumQuestions,
				Users:              users,
			},
		}
	case app.PhaseEnded:
		return outboundMessage[endedPayload]{
			Type:    string(app.PhaseEnded),
			Payload: endedPayload{Users: users},
		}
	default:
		return outboundMessage[waitingPayload]{
			Type:    string(app.PhaseWaiting),
			Payload: waitingPayload{Users: users},
		}
	}
}
