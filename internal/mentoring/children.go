package mentoring

import (
	"encoding/json"
	"fmt"
)

// Gradable is the capability a question child must offer to be a step
// of a mentoring block. Decorative children (titles, shared headers,
// message templates) never appear in the step list.
type Gradable interface {
	Name() string
	Weight() float64
	Submit(payload json.RawMessage) (ResultRecord, error)
}

// ErrUnknownQuestion is returned when a question id is not a step of
// the block. Aggregation tolerates it per item; other lookups surface
// it to the caller.
var ErrUnknownQuestion = fmt.Errorf("question id is not a step of this mentoring block")

// Block is the configured content of one mentoring exercise: its mode,
// attempt policy, ordered question steps and feedback templates. Block
// carries no per-learner state and is safe to share across requests.
type Block struct {
	Mode              Mode
	MaxAttempts       int // 0 means unlimited
	ExtendedFeedback  bool
	EnforceDependency bool
	URLName           string
	FollowedBy        string

	steps    []Gradable
	messages MessageSource
}

// NewBlock builds a Block over an ordered list of gradable steps.
// messages may be nil; feedback then resolves to empty text.
func NewBlock(mode Mode, steps []Gradable, messages MessageSource) *Block {
	if messages == nil {
		messages = MessageMap{}
	}
	return &Block{Mode: mode, steps: steps, messages: messages}
}

// Steps returns the ordered gradable children.
func (b *Block) Steps() []Gradable { return b.steps }

// IsAssessment reports whether the block runs in assessment mode.
func (b *Block) IsAssessment() bool { return b.Mode == ModeAssessment }

// QuestionNumber resolves a question id to its 1-based step number
// among the current children. Unknown ids return ErrUnknownQuestion.
func (b *Block) QuestionNumber(id string) (int, error) {
	for i, s := range b.steps {
		if s.Name() == id {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
}

// MaxAttemptsReached reports whether the session has used up its
// attempt budget. A zero MaxAttempts never exhausts.
func (b *Block) MaxAttemptsReached(st SessionState) bool {
	return b.MaxAttempts > 0 && st.NumAttempts >= b.MaxAttempts
}

// ShowExtendedFeedback gates detail exposure: both the configuration
// flag and attempt exhaustion are required, so answers never leak
// mid-attempt-cycle.
func (b *Block) ShowExtendedFeedback(st SessionState) bool {
	return b.ExtendedFeedback && b.MaxAttemptsReached(st)
}

// ExtendedCorrect returns the correct bucket, or nil when extended
// feedback is not active.
func (b *Block) ExtendedCorrect(st SessionState) []AnswerDetail {
	if !b.ShowExtendedFeedback(st) {
		return nil
	}
	return b.ComputeScore(st.Results).Correct
}

// ExtendedIncorrect returns the incorrect bucket, or nil when extended
// feedback is not active.
func (b *Block) ExtendedIncorrect(st SessionState) []AnswerDetail {
	if !b.ShowExtendedFeedback(st) {
		return nil
	}
	return b.ComputeScore(st.Results).Incorrect
}

// ExtendedPartial returns the partially-correct bucket, or nil when
// extended feedback is not active.
func (b *Block) ExtendedPartial(st SessionState) []AnswerDetail {
	if !b.ShowExtendedFeedback(st) {
		return nil
	}
	return b.ComputeScore(st.Results).PartiallyCorrect
}
