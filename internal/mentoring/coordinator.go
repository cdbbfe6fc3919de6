package mentoring

import (
	"context"
	"encoding/json"
)

// Event types published to the host.
const (
	EventGrade               = "grade"
	EventSubmitted           = "mentoring.submitted"
	EventAssessmentSubmitted = "mentoring.assessment.submitted"
)

// Coordinator is the top-level entry point for a block instance. It
// owns the load/save boundary around every request: session state is
// read once, mutated in memory, and written back only after the whole
// pass succeeded.
type Coordinator struct {
	Block    *Block
	Sessions SessionStore
	Prefs    PreferenceStore
	Events   Publisher
}

func NewCoordinator(b *Block, sessions SessionStore, prefs PreferenceStore, events Publisher) *Coordinator {
	return &Coordinator{Block: b, Sessions: sessions, Prefs: prefs, Events: events}
}

func (c *Coordinator) blockID() string { return c.Block.URLName }

func (c *Coordinator) publish(ctx context.Context, eventType, userID string, payload any) {
	if c.Events == nil {
		return
	}
	c.Events.Publish(ctx, eventType, userID+"|"+c.blockID(), payload)
}

// Submit grades a submission map and returns the mode-specific
// envelope: *SubmitResponse in standard mode, *AssessmentResponse in
// assessment mode.
func (c *Coordinator) Submit(ctx context.Context, userID string, submissions map[string]json.RawMessage) (any, error) {
	st, err := c.Sessions.Load(ctx, userID, c.blockID())
	if err != nil {
		return nil, err
	}
	st.Results = Migrate(st.Results)
	st.Attempted = true

	var resp any
	if c.Block.IsAssessment() {
		resp, err = c.submitAssessment(ctx, userID, &st, submissions)
	} else {
		resp, err = c.submitStandard(ctx, userID, &st, submissions)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Sessions.Save(ctx, userID, c.blockID(), st); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Coordinator) submitStandard(ctx context.Context, userID string, st *SessionState, submissions map[string]json.RawMessage) (*SubmitResponse, error) {
	b := c.Block

	results := []StudentResult{}
	completed := true
	for _, child := range b.steps {
		payload, ok := submissions[child.Name()]
		if !ok {
			continue
		}
		rec, err := child.Submit(payload)
		if err != nil {
			return nil, err
		}
		results = append(results, StudentResult{ID: child.Name(), Result: rec})
		completed = completed && rec.Status == StatusCorrect
	}

	message := b.FeedbackMessage(completed, *st)

	// Once completed, the learner keeps completion even when exploring
	// other answers afterwards.
	wasCompleted := st.Completed
	if wasCompleted {
		completed = true
	}
	// A fresh completion cannot be earned once attempts are exhausted.
	if b.MaxAttemptsReached(*st) {
		completed = false
	}

	nextStep := ""
	if c.Prefs != nil && (b.EnforceDependency || b.FollowedBy != "") {
		var err error
		nextStep, err = c.Prefs.NextStep(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	missingDependency := b.EnforceDependency && !wasCompleted && nextStep != b.URLName
	if missingDependency {
		completed = false
		message = DependencyMessage
	} else if completed && nextStep == b.URLName && b.FollowedBy != "" {
		if err := c.Prefs.SetNextStep(ctx, userID, b.FollowedBy); err != nil {
			return nil, err
		}
	}

	// Stored results are frozen once the session is completed; a
	// resubmission is still processed for messaging.
	if !wasCompleted {
		st.Results = results
		c.publish(ctx, EventGrade, userID, map[string]any{
			"value":     b.ComputeScore(st.Results).Raw,
			"max_value": 1,
		})
	}
	if !wasCompleted && b.MaxAttempts > 0 {
		st.NumAttempts++
	}
	st.Completed = completed

	c.publish(ctx, EventSubmitted, userID, map[string]any{
		"num_attempts":     st.NumAttempts,
		"submitted_answer": submissions,
		"grade":            b.ComputeScore(st.Results).Raw,
	})

	return &SubmitResponse{
		Results:     results,
		Completed:   st.Completed,
		Attempted:   st.Attempted,
		Message:     message,
		MaxAttempts: b.MaxAttempts,
		NumAttempts: st.NumAttempts,
	}, nil
}

func (c *Coordinator) submitAssessment(ctx context.Context, userID string, st *SessionState, submissions map[string]json.RawMessage) (*AssessmentResponse, error) {
	b := c.Block

	out, err := b.advanceStep(st, submissions)
	if err != nil {
		return nil, err
	}

	score := b.ComputeScore(st.Results)
	event := map[string]any{}
	assessmentMessage := ""

	if out.terminal {
		// The gate already rejected exhausted sessions, so this attempt
		// still counts and gets its grade published.
		c.publish(ctx, EventGrade, userID, map[string]any{
			"value":      score.Raw,
			"max_value":  1,
			"score_type": "proficiency",
		})
		event["final_grade"] = score.Raw
		assessmentMessage = b.AssessmentMessage(*st)
		st.NumAttempts++
		st.Completed = true
	}

	if out.target != nil {
		event["exercise_id"] = out.target.Name()
	}
	event["num_attempts"] = st.NumAttempts
	event["submitted_answer"] = submissions
	c.publish(ctx, EventAssessmentSubmitted, userID, event)

	return &AssessmentResponse{
		Completed:              !out.gated && st.Completed,
		Attempted:              st.Attempted,
		MaxAttempts:            b.MaxAttempts,
		NumAttempts:            st.NumAttempts,
		Step:                   st.Step,
		Score:                  score.Percentage,
		CorrectAnswer:          len(score.Correct),
		IncorrectAnswer:        len(score.Incorrect),
		PartiallyCorrectAnswer: len(score.PartiallyCorrect),
		ExtendedFeedback:       b.ShowExtendedFeedback(*st),
		Correct:                b.ExtendedCorrect(*st),
		Incorrect:              b.ExtendedIncorrect(*st),
		Partial:                b.ExtendedPartial(*st),
		AssessmentMessage:      assessmentMessage,
	}, nil
}

// TryAgain resets the session for a new attempt cycle. Once attempts
// are exhausted it returns a structured error result and leaves the
// session untouched.
func (c *Coordinator) TryAgain(ctx context.Context, userID string) (*TryAgainResponse, error) {
	st, err := c.Sessions.Load(ctx, userID, c.blockID())
	if err != nil {
		return nil, err
	}
	if c.Block.MaxAttemptsReached(st) {
		return &TryAgainResponse{Result: "error", Message: "max attempts reached"}, nil
	}

	st.Step = 0
	st.Completed = false
	st.Results = nil
	if err := c.Sessions.Save(ctx, userID, c.blockID(), st); err != nil {
		return nil, err
	}
	return &TryAgainResponse{Result: "success"}, nil
}

// GetResults returns stored per-question detail for the queried ids.
// It only works under active extended feedback; otherwise it reports a
// structured error without detail.
func (c *Coordinator) GetResults(ctx context.Context, userID string, queries []string) (*ResultsResponse, error) {
	st, err := c.Sessions.Load(ctx, userID, c.blockID())
	if err != nil {
		return nil, err
	}
	st.Results = Migrate(st.Results)
	b := c.Block

	if !b.ShowExtendedFeedback(st) {
		return &ResultsResponse{
			Results: []StudentResult{},
			Error:   "Extended feedback results cannot be obtained.",
		}, nil
	}

	queried := map[string]bool{}
	for _, q := range queries {
		queried[q] = true
	}

	// A question child can be stricter about completion than the block:
	// here the per-child stored status stands in for "completed".
	results := []StudentResult{}
	completed := StatusCorrect
	for _, r := range st.Results {
		if !queried[r.ID] {
			continue
		}
		results = append(results, r)
		completed = r.Result.Status
		break
	}

	// Attempts are exhausted here, so the completed template applies.
	return &ResultsResponse{
		Results:     results,
		Completed:   completed,
		Attempted:   st.Attempted,
		Message:     b.FeedbackMessage(true, st),
		Step:        st.Step,
		MaxAttempts: b.MaxAttempts,
		NumAttempts: st.NumAttempts,
	}, nil
}

// View is the render-time snapshot of a learner's session.
type ViewResponse struct {
	Completed        bool           `json:"completed"`
	Attempted        bool           `json:"attempted"`
	Step             int            `json:"step"`
	MaxAttempts      int            `json:"max_attempts"`
	NumAttempts      int            `json:"num_attempts"`
	Score            int            `json:"score"`
	ExtendedFeedback bool           `json:"extended_feedback"`
	Correct          []AnswerDetail `json:"correct,omitempty"`
	Incorrect        []AnswerDetail `json:"incorrect,omitempty"`
	Partial          []AnswerDetail `json:"partial,omitempty"`
}

// View computes the read-only session snapshot used for rendering.
func (c *Coordinator) View(ctx context.Context, userID string) (*ViewResponse, error) {
	st, err := c.Sessions.Load(ctx, userID, c.blockID())
	if err != nil {
		return nil, err
	}
	st.Results = Migrate(st.Results)
	b := c.Block
	score := b.ComputeScore(st.Results)

	return &ViewResponse{
		Completed:        st.Completed,
		Attempted:        st.Attempted,
		Step:             st.Step,
		MaxAttempts:      b.MaxAttempts,
		NumAttempts:      st.NumAttempts,
		Score:            score.Percentage,
		ExtendedFeedback: b.ShowExtendedFeedback(st),
		Correct:          b.ExtendedCorrect(st),
		Incorrect:        b.ExtendedIncorrect(st),
		Partial:          b.ExtendedPartial(st),
	}, nil
}
