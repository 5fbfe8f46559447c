package game

import (
	"time"

	"song-trivia-service/internal/domain"
)

// Score returns the points awarded for a submission. Incorrect answers score
// zero. Correct answers decay linearly from the full base score at offset 0
// down to half the base score at the answer timeout; the fastest correct
// submission additionally receives the question bonus.
func Score(q domain.Question, sub domain.UserSubmission, fastest bool, timeout time.Duration) int {
	if sub.Choice != q.AnswerIndex {
		return 0
	}

	timeoutMs := timeout.Milliseconds()
	if timeoutMs <= 0 {
		timeoutMs = 1
	}
	offset := sub.SubmittedAtMs
	if offset < 0 {
		offset = 0
	}
	if offset > timeoutMs {
		offset = timeoutMs
	}

	points := q.Score - int(int64(q.Score/2)*offset/timeoutMs)
	if fastest {
		points += q.Bonus
	}
	return points
}

// FastestCorrect returns the index of the submission that receives the speed
// bonus: the correct submission with the smallest offset, first received on
// ties. Returns -1 when no submission is correct.
func FastestCorrect(q domain.Question, subs []domain.UserSubmission) int {
	best := -1
	for i, s := range subs {
		if s.Choice != q.AnswerIndex {
			continue
		}
		if best == -1 || s.SubmittedAtMs < subs[best].SubmittedAtMs {
			best = i
		}
	}
	return best
}
