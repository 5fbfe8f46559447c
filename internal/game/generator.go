package game

import (
	"math/rand"
	"sort"

	"song-trivia-service/internal/domain"
)

const (
	choicesPerQuestion = 4

	baseScoreStart = 500
	baseScoreStep  = 100
	baseScoreCap   = 2000

	// Correct answers are excluded from being the answer again for this many
	// subsequent questions.
	repeatWindow = 10

	// Weight penalties applied after a track is featured, so later questions
	// favor less-recently-used tracks.
	correctPenalty  = 20
	wrongPenaltyMin = 7
	wrongPenaltyMax = 10
)

// candidate pairs a track with its mutable selection weight. Weights start at
// the provider popularity and decay as the track gets featured.
type candidate struct {
	track  domain.Track
	weight int
}

// GenerateQuestions builds n multiple-choice questions from the playlist
// tracks. Each question picks a random allowed type, takes the four
// heaviest tracks with textually distinct display values, shuffles them and
// picks the answer uniformly, avoiding tracks that answered one of the last
// ten questions. Returns domain.ErrNotEnoughTracks when no allowed type can
// fill four distinct choices.
func GenerateQuestions(tracks []domain.Track, n int, types []domain.QuestionType, rng *rand.Rand) ([]domain.Question, error) {
	if len(types) == 0 {
		types = domain.AllQuestionTypes()
	}

	pool := usableCandidates(tracks)
	if len(pool) < choicesPerQuestion {
		return nil, domain.ErrNotEnoughTracks
	}

	questions := make([]domain.Question, 0, n)
	recentAnswers := make([]string, 0, repeatWindow)
	base := baseScoreStart

	for i := 0; i < n; i++ {
		sort.Slice(pool, func(a, b int) bool { return pool[a].weight > pool[b].weight })

		qt, picks, err := pickChoices(pool, types, rng)
		if err != nil {
			return nil, err
		}

		rng.Shuffle(len(picks), func(a, b int) { picks[a], picks[b] = picks[b], picks[a] })

		ans := pickAnswer(picks, recentAnswers, rng)

		choices := make([]string, len(picks))
		for j, c := range picks {
			choices[j] = qt.Display(c.track)
		}

		questions = append(questions, domain.Question{
			Type:        qt,
			Choices:     choices,
			AnswerIndex: ans,
			Score:       base,
			Bonus:       base / 5,
			SongURL:     picks[ans].track.PreviewURL,
		})

		recentAnswers = append(recentAnswers, picks[ans].track.ID)
		if len(recentAnswers) > repeatWindow {
			recentAnswers = recentAnswers[1:]
		}

		for j, c := range picks {
			if j == ans {
				c.weight -= correctPenalty
			} else {
				c.weight -= wrongPenaltyMin + rng.Intn(wrongPenaltyMax-wrongPenaltyMin+1)
			}
		}

		if base < baseScoreCap {
			base += baseScoreStep
			if base > baseScoreCap {
				base = baseScoreCap
			}
		}
	}

	return questions, nil
}

// usableCandidates drops tracks without a preview or with a duplicate
// identity, keeping the first occurrence.
func usableCandidates(tracks []domain.Track) []*candidate {
	seen := make(map[string]struct{}, len(tracks))
	pool := make([]*candidate, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" || t.PreviewURL == "" {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		pool = append(pool, &candidate{track: t, weight: t.Popularity})
	}
	return pool
}

// pickChoices selects a question type and the four heaviest candidates with
// distinct display values for it. The first type is drawn uniformly; if it
// cannot fill four distinct choices the remaining allowed types are tried
// before giving up.
func pickChoices(pool []*candidate, types []domain.QuestionType, rng *rand.Rand) (domain.QuestionType, []*candidate, error) {
	for _, idx := range rng.Perm(len(types)) {
		qt := types[idx]
		if picks := distinctByDisplay(pool, qt); picks != nil {
			return qt, picks, nil
		}
	}
	return "", nil, domain.ErrNotEnoughTracks
}

// distinctByDisplay walks pool in weight order and collects the first four
// candidates whose display text for qt is non-empty and not already chosen.
func distinctByDisplay(pool []*candidate, qt domain.QuestionType) []*candidate {
	picks := make([]*candidate, 0, choicesPerQuestion)
	seen := make(map[string]struct{}, choicesPerQuestion)
	for _, c := range pool {
		text := qt.Display(c.track)
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		picks = append(picks, c)
		if len(picks) == choicesPerQuestion {
			return picks
		}
	}
	return nil
}

// pickAnswer chooses the answer index uniformly among candidates that did not
// answer a recent question. When every choice is recent the window cannot be
// honored and the pick falls back to all four.
func pickAnswer(picks []*candidate, recent []string, rng *rand.Rand) int {
	eligible := make([]int, 0, len(picks))
	for i, c := range picks {
		if !containsID(recent, c.track.ID) {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return rng.Intn(len(picks))
	}
	return eligible[rng.Intn(len(eligible))]
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
