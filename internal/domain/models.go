package domain

// Track is one playable item from the catalog provider, normalized to the
// fields questions are built from.
type Track struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	PreviewURL string `json:"previewUrl"`
	Popularity int    `json:"popularity"`
}

// Playlist is a provider search result.
type Playlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// QuestionType selects which track attribute is shown as the guessable text.
type QuestionType string

const (
	QuestionSong   QuestionType = "Song"
	QuestionArtist QuestionType = "Artist"
	QuestionAlbum  QuestionType = "Album"
)

// AllQuestionTypes is the default set used when a request does not narrow it.
func AllQuestionTypes() []QuestionType {
	return []QuestionType{QuestionSong, QuestionArtist, QuestionAlbum}
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSong, QuestionArtist, QuestionAlbum:
		return true
	}
	return false
}

// Display returns the track attribute this question type asks about.
func (t QuestionType) Display(track Track) string {
	switch t {
	case QuestionArtist:
		return track.Artist
	case QuestionAlbum:
		return track.Album
	default:
		return track.Name
	}
}

// Question is one generated multiple-choice question. Immutable once built.
// AnswerIndex and SongURL never reach clients while the question is open.
type Question struct {
	Type        QuestionType `json:"questionType"`
	Choices     []string     `json:"choices"`
	AnswerIndex int          `json:"-"`
	Score       int          `json:"score"`
	Bonus       int          `json:"bonus"`
	SongURL     string       `json:"-"`
}

// User is a roster entry. Score survives disconnects once a game has started.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Online bool   `json:"online"`
}

// UserSubmission is one user's answer to the current question. Score stays
// zero until the question resolves.
type UserSubmission struct {
	UserID        string `json:"userId"`
	UserName      string `json:"userName"`
	Choice        int    `json:"choice"`
	Score         int    `json:"score"`
	SubmittedAtMs int64  `json:"submittedAtMs"`
}

// GameParams is everything start/restart needs to (re)build a question set.
type GameParams struct {
	PlaylistID    string         `json:"playlistId"`
	NumQuestions  int            `json:"numQuestions"`
	QuestionTypes []QuestionType `json:"questionTypes"`
}
