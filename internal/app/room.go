package app

import (
	"sort"
	"sync"
	"time"

	"song-trivia-service/internal/domain"
	"song-trivia-service/internal/game"
)

// Timing groups the durations driving the question lifecycle.
type Timing struct {
	AnswerTimeout time.Duration
	GracePeriod   time.Duration
}

// DefaultTiming returns the production timings: 10s to answer, 1.5s reveal.
func DefaultTiming() Timing {
	return Timing{
		AnswerTimeout: 10 * time.Second,
		GracePeriod:   1500 * time.Millisecond,
	}
}

// Room is one isolated trivia session: a roster, a game state machine and a
// payload-free change-notification fan-out.
//
// Lock ordering: operations that touch both the game state and the roster
// acquire stateMu first, then usersMu. Roster-only operations (Join, Leave,
// SnapshotUsers) never take stateMu while holding usersMu. subMu is a leaf
// lock.
type Room struct {
	id      string
	ownerID string
	timing  Timing
	now     func() time.Time

	stateMu sync.RWMutex
	state   game.State

	usersMu sync.RWMutex
	users   map[string]*domain.User

	subMu       sync.Mutex
	subscribers map[chan struct{}]struct{}
}

func newRoom(id, ownerID string, timing Timing) *Room {
	return NewRoomWithClock(id, ownerID, timing, time.Now)
}

// NewRoomWithClock builds a room with an injected clock for deterministic
// timer tests.
func NewRoomWithClock(id, ownerID string, timing Timing, now func() time.Time) *Room {
	return &Room{
		id:          id,
		ownerID:     ownerID,
		timing:      timing,
		now:         now,
		state:       game.Waiting{},
		users:       make(map[string]*domain.User),
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// OwnerID returns the owner identity, or "" for an ownerless room.
func (r *Room) OwnerID() string { return r.ownerID }

// Join is idempotent: a new user starts at score 0, a returning user keeps
// their score and is marked online again.
func (r *Room) Join(userID, name string) {
	r.usersMu.Lock()
	if u, ok := r.users[userID]; ok {
		u.Name = name
		u.Online = true
	} else {
		r.users[userID] = &domain.User{ID: userID, Name: name, Online: true}
	}
	r.usersMu.Unlock()
	r.notify()
}

// Leave removes the user outright while the room is still waiting; once a
// game has started it only marks them offline so their standing survives a
// reconnect.
func (r *Room) Leave(userID string) {
	r.stateMu.RLock()
	_, waiting := r.state.(game.Waiting)
	r.stateMu.RUnlock()

	r.usersMu.Lock()
	if u, ok := r.users[userID]; ok {
		if waiting {
			delete(r.users, userID)
		} else {
			u.Online = false
		}
	}
	r.usersMu.Unlock()
	r.notify()
}

// SnapshotUsers returns a copy of the roster ordered by score (ties broken
// by name). With onlineOnly set, offline users are skipped.
func (r *Room) SnapshotUsers(onlineOnly bool) []domain.User {
	r.usersMu.RLock()
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if onlineOnly && !u.Online {
			continue
		}
		users = append(users, *u)
	}
	r.usersMu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Score != users[j].Score {
			return users[i].Score > users[j].Score
		}
		return users[i].Name < users[j].Name
	})
	return users
}

// Startable reports whether start_game is currently a legal transition.
func (r *Room) Startable() bool {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	switch r.state.(type) {
	case game.Waiting, game.Ended:
		return true
	}
	return false
}

// EndedParams returns the previous game parameters for a restart. Fails with
// domain.ErrGameNotEnded outside the Ended state.
func (r *Room) EndedParams() (domain.GameParams, error) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if ended, ok := r.state.(game.Ended); ok {
		return ended.Params, nil
	}
	return domain.GameParams{}, domain.ErrGameNotEnded
}

// StartGame installs a freshly generated question sequence and opens the
// first question. Legal only from Waiting or Ended; the roster is reset
// (offline users dropped, scores zeroed) as part of the same transition.
func (r *Room) StartGame(params domain.GameParams, questions []domain.Question) error {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	switch r.state.(type) {
	case game.Waiting, game.Ended:
	default:
		return domain.ErrGameInProgress
	}

	r.state = game.Playing{
		Params:    params,
		Questions: questions,
		Current: game.QuestionState{
			Status:     game.QuestionOpen,
			PhaseStart: r.now(),
		},
	}
	r.resetRosterLocked()
	r.notify()
	return nil
}

// Reset forces the room back to the lobby from any state.
func (r *Room) Reset() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	r.state = game.Waiting{}
	r.resetRosterLocked()
	r.notify()
}

// resetRosterLocked drops offline users and zeroes every remaining score.
// Caller holds stateMu, satisfying the state-before-roster lock order.
func (r *Room) resetRosterLocked() {
	r.usersMu.Lock()
	for id, u := range r.users {
		if !u.Online {
			delete(r.users, id)
			continue
		}
		u.Score = 0
	}
	r.usersMu.Unlock()
}

// Submit records a user's answer for the open question. The first submission
// per user wins; later ones are ignored. Submissions from users not in the
// roster are dropped. Once every online user has answered, the question is
// resolved immediately without waiting for the timeout. Individual
// submissions do not notify; only the resulting phase change does.
func (r *Room) Submit(userID string, choice int, offsetMs int64) {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	playing, ok := r.state.(game.Playing)
	if !ok || playing.Current.Status != game.QuestionOpen {
		return
	}
	if choice < 0 || choice >= len(playing.CurrentQuestion().Choices) {
		return
	}
	for _, s := range playing.Current.Submissions {
		if s.UserID == userID {
			return
		}
	}

	r.usersMu.RLock()
	user, known := r.users[userID]
	var name string
	online := 0
	if known {
		name = user.Name
	}
	for _, u := range r.users {
		if u.Online {
			online++
		}
	}
	r.usersMu.RUnlock()
	if !known {
		return
	}

	playing.Current.Submissions = append(playing.Current.Submissions, domain.UserSubmission{
		UserID:        userID,
		UserName:      name,
		Choice:        choice,
		SubmittedAtMs: offsetMs,
	})

	if len(playing.Current.Submissions) >= online {
		r.resolveQuestionLocked(&playing)
	}
	r.state = playing
}

// EndQuestion resolves the open question, scoring every submission. No-op
// unless the question is still open, so racing callers are safe.
func (r *Room) EndQuestion() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	playing, ok := r.state.(game.Playing)
	if !ok || playing.Current.Status != game.QuestionOpen {
		return
	}
	r.resolveQuestionLocked(&playing)
	r.state = playing
}

// resolveQuestionLocked scores all submissions, credits user totals and
// flips the question to resolved. Score mutation completes before stateMu is
// released so a racing second call observes the resolved status and no-ops.
func (r *Room) resolveQuestionLocked(playing *game.Playing) {
	q := playing.CurrentQuestion()
	fastest := game.FastestCorrect(q, playing.Current.Submissions)

	r.usersMu.Lock()
	for i := range playing.Current.Submissions {
		sub := &playing.Current.Submissions[i]
		points := game.Score(q, *sub, i == fastest, r.timing.AnswerTimeout)
		sub.Score = points
		if u, ok := r.users[sub.UserID]; ok {
			u.Score += points
		}
	}
	r.usersMu.Unlock()

	playing.Current.Status = game.QuestionResolved
	playing.Current.PhaseStart = r.now()
	r.notify()
}

// AdvanceQuestion opens the next question, or ends the game after the last
// one. No-op unless the current question has been resolved.
func (r *Room) AdvanceQuestion() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	playing, ok := r.state.(game.Playing)
	if !ok || playing.Current.Status != game.QuestionResolved {
		return
	}
	r.advanceQuestionLocked(playing)
}

func (r *Room) advanceQuestionLocked(playing game.Playing) {
	if playing.LastQuestion() {
		r.state = game.Ended{Params: playing.Params}
	} else {
		playing.Current = game.QuestionState{
			Index:      playing.Current.Index + 1,
			Status:     game.QuestionOpen,
			PhaseStart: r.now(),
		}
		r.state = playing
	}
	r.notify()
}

// PeriodicUpdate runs the cooperative timer check: it resolves an open
// question past the answer timeout and advances a resolved one past the
// grace period. Every connection loop calls this on its poll tick; the
// transitions are idempotent so the races are harmless.
func (r *Room) PeriodicUpdate() {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()

	playing, ok := r.state.(game.Playing)
	if !ok {
		return
	}
	elapsed := r.now().Sub(playing.Current.PhaseStart)

	switch playing.Current.Status {
	case game.QuestionOpen:
		if elapsed >= r.timing.AnswerTimeout {
			r.resolveQuestionLocked(&playing)
			r.state = playing
		}
	case game.QuestionResolved:
		if elapsed >= r.timing.GracePeriod {
			r.advanceQuestionLocked(playing)
		}
	}
}

// Subscribe registers for change signals. The channel carries no payload;
// receivers re-render the current state on each signal. The buffer of one
// makes a lagging receiver coalesce missed signals into its next receive,
// which is correct because renders always reflect current state. The
// returned cancel must be called to avoid leaks.
func (r *Room) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	r.subMu.Lock()
	r.subscribers[ch] = struct{}{}
	r.subMu.Unlock()

	cancel := func() {
		r.subMu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.subMu.Unlock()
	}
	return ch, cancel
}

// notify wakes all subscribers, best-effort. A full channel means that
// subscriber already has a pending signal, so dropping is fine.
func (r *Room) notify() {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
