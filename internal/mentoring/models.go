package mentoring

import "encoding/json"

// Status is the per-question outcome of a graded submission.
type Status string

const (
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
	StatusPartial   Status = "partial"
)

// Mode selects how the block sequences and grades its questions.
type Mode string

const (
	ModeStandard   Mode = "standard"
	ModeAssessment Mode = "assessment"
)

// ResultRecord is a question child's grading outcome for a single
// submission. Score is normalized to [0,1]; Weight is the child's
// configured weight at grading time. Choices carries child-specific
// detail (selected choice ids etc.) untouched by the core.
//
// Completed is only ever set on legacy stored records; Migrate rewrites
// it into Status before any status-based logic runs.
type ResultRecord struct {
	Status    Status          `json:"status,omitempty"`
	Completed *bool           `json:"completed,omitempty"`
	Score     float64         `json:"score"`
	Weight    float64         `json:"weight"`
	Tips      string          `json:"tips,omitempty"`
	Choices   json.RawMessage `json:"choices,omitempty"`
}

// StudentResult pairs a question id with its stored grading outcome.
// Order is significant: it is the submission order within an attempt.
type StudentResult struct {
	ID     string       `json:"id"`
	Result ResultRecord `json:"result"`
}

// SessionState is the durable per-learner state of one block instance.
// The host's store owns its lifetime; the coordinator loads it at the
// start of a request and saves it at the end.
type SessionState struct {
	Attempted   bool            `json:"attempted"`
	Completed   bool            `json:"completed"`
	Step        int             `json:"step"`
	NumAttempts int             `json:"num_attempts"`
	Results     []StudentResult `json:"results"`
}

// AnswerDetail is one bucket entry of a computed Score. Number is the
// question's 1-based position among the block's current steps.
type AnswerDetail struct {
	Number  int          `json:"number"`
	ID      string       `json:"id"`
	Details ResultRecord `json:"details"`
}

// Score is derived from stored results and the live child weights.
// It is recomputed on every read, never cached.
type Score struct {
	Raw              float64        `json:"raw"`
	Percentage       int            `json:"percentage"`
	Correct          []AnswerDetail `json:"correct"`
	Incorrect        []AnswerDetail `json:"incorrect"`
	PartiallyCorrect []AnswerDetail `json:"partially_correct"`
}

// SubmitResponse is the standard-mode submit envelope.
type SubmitResponse struct {
	Results     []StudentResult `json:"results"`
	Completed   bool            `json:"completed"`
	Attempted   bool            `json:"attempted"`
	Message     string          `json:"message"`
	MaxAttempts int             `json:"max_attempts"`
	NumAttempts int             `json:"num_attempts"`
}

// AssessmentResponse is the assessment-mode submit envelope. The detail
// buckets are only populated when extended feedback is active.
type AssessmentResponse struct {
	Completed              bool           `json:"completed"`
	Attempted              bool           `json:"attempted"`
	MaxAttempts            int            `json:"max_attempts"`
	NumAttempts            int            `json:"num_attempts"`
	Step                   int            `json:"step"`
	Score                  int            `json:"score"`
	CorrectAnswer          int            `json:"correct_answer"`
	IncorrectAnswer        int            `json:"incorrect_answer"`
	PartiallyCorrectAnswer int            `json:"partially_correct_answer"`
	ExtendedFeedback       bool           `json:"extended_feedback"`
	Correct                []AnswerDetail `json:"correct,omitempty"`
	Incorrect              []AnswerDetail `json:"incorrect,omitempty"`
	Partial                []AnswerDetail `json:"partial,omitempty"`
	AssessmentMessage      string         `json:"assessment_message,omitempty"`
}

// TryAgainResponse reports the outcome of a retry request.
type TryAgainResponse struct {
	Result  string `json:"result"` // success|error
	Message string `json:"message,omitempty"`
}

// ResultsResponse is the extended-feedback detail envelope returned by
// GetResults. Error is set (and Results empty) when extended feedback
// is not active.
type ResultsResponse struct {
	Results     []StudentResult `json:"results"`
	Completed   Status          `json:"completed,omitempty"`
	Attempted   bool            `json:"attempted"`
	Message     string          `json:"message"`
	Step        int             `json:"step"`
	MaxAttempts int             `json:"max_attempts"`
	NumAttempts int             `json:"num_attempts"`
	Error       string          `json:"error,omitempty"`
}
