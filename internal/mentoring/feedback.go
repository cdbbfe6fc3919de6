package mentoring

// MessageKind keys the block's configured feedback templates.
type MessageKind string

const (
	MsgCompleted          MessageKind = "completed"
	MsgIncomplete         MessageKind = "incomplete"
	MsgMaxAttemptsReached MessageKind = "max_attempts_reached"
	MsgOnAssessmentReview MessageKind = "on-assessment-review"
)

// DependencyMessage overrides whatever the composer chose when an
// upstream step is still incomplete.
const DependencyMessage = "You need to complete all previous steps before being able to complete the current one."

// MessageSource resolves a message template to rendered text. An
// unconfigured kind yields empty text, never an error.
type MessageSource interface {
	Message(kind MessageKind) string
}

// MessageMap is the plain registry implementation of MessageSource.
type MessageMap map[MessageKind]string

func (m MessageMap) Message(kind MessageKind) string { return m[kind] }

// FeedbackMessage selects the contextual message for a grading pass.
// Exhausted attempts win over everything; then completion; then the
// incomplete fallback.
func (b *Block) FeedbackMessage(completed bool, st SessionState) string {
	switch {
	case b.MaxAttemptsReached(st):
		return b.messages.Message(MsgMaxAttemptsReached)
	case completed:
		return b.messages.Message(MsgCompleted)
	default:
		return b.messages.Message(MsgIncomplete)
	}
}

// AssessmentMessage is the review text shown after the terminal
// assessment submission, suppressed once attempts are exhausted.
func (b *Block) AssessmentMessage(st SessionState) string {
	if b.MaxAttemptsReached(st) {
		return ""
	}
	return b.messages.Message(MsgOnAssessmentReview)
}
