package mentoring_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/edunexus/mentoring-block/internal/mentoring"
)

func subs(ids ...string) map[string]json.RawMessage {
	m := map[string]json.RawMessage{}
	for _, id := range ids {
		m[id] = json.RawMessage(`{}`)
	}
	return m
}

func newCoordinator(t *testing.T, b *mentoring.Block) (*mentoring.Coordinator, *mentoring.MemoryStore, *capturePublisher) {
	t.Helper()
	store := mentoring.NewMemoryStore()
	pub := &capturePublisher{}
	if b.URLName == "" {
		b.URLName = "block-1"
	}
	return mentoring.NewCoordinator(b, store, store, pub), store, pub
}

func submitStandard(t *testing.T, c *mentoring.Coordinator, userID string, m map[string]json.RawMessage) *mentoring.SubmitResponse {
	t.Helper()
	resp, err := c.Submit(context.Background(), userID, m)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out, ok := resp.(*mentoring.SubmitResponse)
	if !ok {
		t.Fatalf("expected *SubmitResponse, got %T", resp)
	}
	return out
}

func submitAssessment(t *testing.T, c *mentoring.Coordinator, userID string, m map[string]json.RawMessage) *mentoring.AssessmentResponse {
	t.Helper()
	resp, err := c.Submit(context.Background(), userID, m)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	out, ok := resp.(*mentoring.AssessmentResponse)
	if !ok {
		t.Fatalf("expected *AssessmentResponse, got %T", resp)
	}
	return out
}

func loadState(t *testing.T, store *mentoring.MemoryStore, userID, blockID string) mentoring.SessionState {
	t.Helper()
	st, err := store.Load(context.Background(), userID, blockID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return st
}

/* ------------------------------ Standard mode ------------------------------ */

func TestSubmitStandard_AllCorrectCompletes(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	q2 := &fakeQuestion{name: "q2", weight: 1, status: mentoring.StatusCorrect, score: 1}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1, q2},
		mentoring.MessageMap{mentoring.MsgCompleted: "well done"})
	c, _, pub := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs("q1", "q2"))
	if !resp.Completed || !resp.Attempted {
		t.Fatalf("expected completed+attempted, got %+v", resp)
	}
	if resp.Message != "well done" {
		t.Fatalf("expected completed message, got %q", resp.Message)
	}

	grades := pub.ofType(mentoring.EventGrade)
	if len(grades) != 1 {
		t.Fatalf("expected 1 grade event, got %d", len(grades))
	}
	if v := grades[0].payload.(map[string]any)["value"].(float64); v != 1.0 {
		t.Fatalf("expected grade 1.0, got %v", v)
	}
}

func TestSubmitStandard_PartialPassHalfScore(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	q2 := &fakeQuestion{name: "q2", weight: 1, status: mentoring.StatusIncorrect, score: 0}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1, q2}, nil)
	c, store, pub := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs("q1", "q2"))
	if resp.Completed {
		t.Fatalf("expected not completed")
	}

	st := loadState(t, store, "u1", "block-1")
	score := b.ComputeScore(st.Results)
	if score.Raw != 0.5 {
		t.Fatalf("expected raw 0.5, got %v", score.Raw)
	}
	if len(score.Incorrect) != 1 || score.Incorrect[0].ID != "q2" {
		t.Fatalf("expected one incorrect entry, got %+v", score.Incorrect)
	}
	if v := pub.ofType(mentoring.EventGrade)[0].payload.(map[string]any)["value"].(float64); v != 0.5 {
		t.Fatalf("expected grade event 0.5, got %v", v)
	}
}

func TestSubmitStandard_EmptySubmissionIsVacuouslyComplete(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusIncorrect}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1}, nil)
	c, _, _ := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs())
	if !resp.Completed {
		t.Fatalf("expected vacuous completion on empty submission map")
	}
	if q1.submits != 0 {
		t.Fatalf("expected no child graded")
	}
}

func TestSubmitStandard_UnknownIDIgnored(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1}, nil)
	c, _, _ := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs("q1", "ghost"))
	if !resp.Completed || len(resp.Results) != 1 {
		t.Fatalf("expected unknown id ignored, got %+v", resp)
	}
}

func TestSubmitStandard_StickyCompletion(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1}, nil)
	c, store, _ := newCoordinator(t, b)

	submitStandard(t, c, "u1", subs("q1"))
	frozen := loadState(t, store, "u1", "block-1").Results

	// The learner explores a wrong answer after passing.
	q1.status, q1.score = mentoring.StatusIncorrect, 0
	resp := submitStandard(t, c, "u1", subs("q1"))
	if !resp.Completed {
		t.Fatalf("expected completion to stick")
	}

	st := loadState(t, store, "u1", "block-1")
	if !st.Completed {
		t.Fatalf("expected stored completed to stay true")
	}
	if len(st.Results) != 1 || st.Results[0].Result.Status != frozen[0].Result.Status {
		t.Fatalf("expected stored results frozen after completion, got %+v", st.Results)
	}
}

func TestSubmitStandard_AttemptCeilingBlocksFreshCompletion(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusIncorrect, score: 0}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1},
		mentoring.MessageMap{mentoring.MsgMaxAttemptsReached: "out of attempts"})
	b.MaxAttempts = 1
	c, store, _ := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs("q1"))
	if resp.Completed || resp.NumAttempts != 1 {
		t.Fatalf("expected failed first attempt counted, got %+v", resp)
	}

	// Attempts are exhausted; even a perfect pass cannot newly complete.
	q1.status, q1.score = mentoring.StatusCorrect, 1
	resp = submitStandard(t, c, "u1", subs("q1"))
	if resp.Completed {
		t.Fatalf("expected no completion after attempts exhausted")
	}
	if resp.Message != "out of attempts" {
		t.Fatalf("expected max-attempts message, got %q", resp.Message)
	}
	if st := loadState(t, store, "u1", "block-1"); st.Completed {
		t.Fatalf("completed must not flip true after exhaustion")
	}
}

func TestSubmitStandard_NoAttemptCountingWhenUnlimited(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusIncorrect}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1}, nil)
	c, _, _ := newCoordinator(t, b)

	resp := submitStandard(t, c, "u1", subs("q1"))
	if resp.NumAttempts != 0 {
		t.Fatalf("expected no attempt counting with max_attempts=0, got %d", resp.NumAttempts)
	}
}

func TestSubmitStandard_DependencyGate(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1},
		mentoring.MessageMap{mentoring.MsgCompleted: "done"})
	b.EnforceDependency = true
	b.URLName = "step-2"
	c, _, _ := newCoordinator(t, b)

	// next_step still points at the workflow start, not this block.
	resp := submitStandard(t, c, "u1", subs("q1"))
	if resp.Completed {
		t.Fatalf("expected dependency gate to block completion")
	}
	if resp.Message != mentoring.DependencyMessage {
		t.Fatalf("expected dependency message, got %q", resp.Message)
	}
}

func TestSubmitStandard_AdvancesNextStepPointer(t *testing.T) {
	q1 := &fakeQuestion{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1}
	b := mentoring.NewBlock(mentoring.ModeStandard, []mentoring.Gradable{q1}, nil)
	b.URLName = mentoring.DefaultNextStep
	b.FollowedBy = "step-2"
	c, store, _ := newCoordinator(t, b)

	if resp := submitStandard(t, c, "u1", subs("q1")); !resp.Completed {
		t.Fatalf("expected completion, got %+v", resp)
	}
	next, err := store.NextStep(context.Background(), "u1")
	if err != nil {
		t.Fatalf("next step: %v", err)
	}
	if next != "step-2" {
		t.Fatalf("expected next step advanced to step-2, got %q", next)
	}
}

/* ----------------------------- Assessment mode ----------------------------- */

func assessmentBlock(maxAttempts int, extended bool) (*mentoring.Block, []*fakeQuestion) {
	qs := []*fakeQuestion{
		{name: "q1", weight: 1, status: mentoring.StatusCorrect, score: 1, tips: "tip one"},
		{name: "q2", weight: 1, status: mentoring.StatusIncorrect, score: 0},
		{name: "q3", weight: 1, status: mentoring.StatusIncorrect, score: 0},
	}
	steps := []mentoring.Gradable{qs[0], qs[1], qs[2]}
	b := mentoring.NewBlock(mentoring.ModeAssessment, steps,
		mentoring.MessageMap{mentoring.MsgOnAssessmentReview: "review your answers"})
	b.MaxAttempts = maxAttempts
	b.ExtendedFeedback = extended
	return b, qs
}

func TestSubmitAssessment_FullCycleCompletesRegardlessOfCorrectness(t *testing.T) {
	b, _ := assessmentBlock(1, false)
	c, store, pub := newCoordinator(t, b)

	r1 := submitAssessment(t, c, "u1", subs("q1"))
	if r1.Completed || r1.Step != 1 {
		t.Fatalf("expected step 1 and not completed, got %+v", r1)
	}
	r2 := submitAssessment(t, c, "u1", subs("q2"))
	if r2.Completed || r2.Step != 2 {
		t.Fatalf("expected step 2 and not completed, got %+v", r2)
	}

	r3 := submitAssessment(t, c, "u1", subs("q3"))
	if !r3.Completed {
		t.Fatalf("terminal submission must complete the cycle, got %+v", r3)
	}
	if r3.NumAttempts != 1 {
		t.Fatalf("expected num_attempts 1, got %d", r3.NumAttempts)
	}
	if r3.Score != 33 {
		t.Fatalf("expected percentage 33, got %d", r3.Score)
	}
	if r3.CorrectAnswer != 1 || r3.IncorrectAnswer != 2 {
		t.Fatalf("unexpected counts: %+v", r3)
	}
	if r3.AssessmentMessage != "review your answers" {
		t.Fatalf("expected review message, got %q", r3.AssessmentMessage)
	}

	grades := pub.ofType(mentoring.EventGrade)
	if len(grades) != 1 {
		t.Fatalf("expected one grade event, got %d", len(grades))
	}
	if st := grades[0].payload.(map[string]any)["score_type"]; st != "proficiency" {
		t.Fatalf("expected proficiency score_type, got %v", st)
	}
	if st := loadState(t, store, "u1", "block-1"); !st.Completed {
		t.Fatalf("expected stored completion")
	}
}

func TestSubmitAssessment_StepGatingIsNoOp(t *testing.T) {
	b, qs := assessmentBlock(0, false)
	c, store, _ := newCoordinator(t, b)

	submitAssessment(t, c, "u1", subs("q1"))
	before := loadState(t, store, "u1", "block-1")

	// Assessment mode does not allow modifying an answered step.
	resp := submitAssessment(t, c, "u1", subs("q1"))
	if resp.Completed {
		t.Fatalf("gated submission must not report completion")
	}
	after := loadState(t, store, "u1", "block-1")
	if after.Step != before.Step || len(after.Results) != len(before.Results) {
		t.Fatalf("gated submission mutated state: before=%+v after=%+v", before, after)
	}
	if qs[0].submits != 1 {
		t.Fatalf("expected child graded once, got %d", qs[0].submits)
	}
}

func TestSubmitAssessment_TipsNeverPersisted(t *testing.T) {
	b, _ := assessmentBlock(0, false)
	c, store, _ := newCoordinator(t, b)

	submitAssessment(t, c, "u1", subs("q1"))
	st := loadState(t, store, "u1", "block-1")
	if st.Results[0].Result.Tips != "" {
		t.Fatalf("expected tips stripped from stored assessment results")
	}
}

func TestSubmitAssessment_ExtendedFeedbackGate(t *testing.T) {
	b, _ := assessmentBlock(1, true)
	c, _, _ := newCoordinator(t, b)

	r := submitAssessment(t, c, "u1", subs("q1"))
	if r.ExtendedFeedback || r.Correct != nil || r.Incorrect != nil || r.Partial != nil {
		t.Fatalf("detail must be withheld mid-cycle, got %+v", r)
	}

	submitAssessment(t, c, "u1", subs("q2"))
	r = submitAssessment(t, c, "u1", subs("q3"))
	if !r.ExtendedFeedback {
		t.Fatalf("expected extended feedback once attempts exhausted")
	}
	if len(r.Correct) != 1 || len(r.Incorrect) != 2 {
		t.Fatalf("unexpected detail buckets: %+v", r)
	}
}

func TestExtendedAccessors_RequireFlagAndExhaustion(t *testing.T) {
	b, _ := assessmentBlock(1, false) // flag disabled
	st := mentoring.SessionState{
		NumAttempts: 1,
		Results:     []mentoring.StudentResult{result("q1", mentoring.StatusCorrect, 1, 1)},
	}
	if b.ExtendedCorrect(st) != nil || b.ExtendedIncorrect(st) != nil || b.ExtendedPartial(st) != nil {
		t.Fatalf("accessors must yield nothing without the extended_feedback flag")
	}

	b2, _ := assessmentBlock(2, true) // attempts not exhausted
	if b2.ExtendedCorrect(st) != nil {
		t.Fatalf("accessors must yield nothing before attempts are exhausted")
	}
}

/* --------------------------------- TryAgain -------------------------------- */

func TestTryAgain_ResetsSession(t *testing.T) {
	b, _ := assessmentBlock(3, false)
	c, store, _ := newCoordinator(t, b)

	submitAssessment(t, c, "u1", subs("q1"))
	submitAssessment(t, c, "u1", subs("q2"))
	submitAssessment(t, c, "u1", subs("q3"))

	resp, err := c.TryAgain(context.Background(), "u1")
	if err != nil {
		t.Fatalf("try_again: %v", err)
	}
	if resp.Result != "success" {
		t.Fatalf("expected success, got %+v", resp)
	}
	st := loadState(t, store, "u1", "block-1")
	if st.Step != 0 || st.Completed || len(st.Results) != 0 {
		t.Fatalf("expected reset session, got %+v", st)
	}
	if st.NumAttempts != 1 {
		t.Fatalf("try_again must not reset the attempt counter, got %d", st.NumAttempts)
	}
}

func TestTryAgain_ErrorWhenExhausted(t *testing.T) {
	b, _ := assessmentBlock(1, false)
	c, store, _ := newCoordinator(t, b)

	submitAssessment(t, c, "u1", subs("q1"))
	submitAssessment(t, c, "u1", subs("q2"))
	submitAssessment(t, c, "u1", subs("q3"))
	before := loadState(t, store, "u1", "block-1")

	resp, err := c.TryAgain(context.Background(), "u1")
	if err != nil {
		t.Fatalf("try_again: %v", err)
	}
	if resp.Result != "error" || resp.Message != "max attempts reached" {
		t.Fatalf("expected structured error, got %+v", resp)
	}
	after := loadState(t, store, "u1", "block-1")
	if after.Step != before.Step || len(after.Results) != len(before.Results) || !after.Completed {
		t.Fatalf("exhausted try_again must not mutate state")
	}
}

/* -------------------------------- GetResults ------------------------------- */

func TestGetResults_GatedWithoutExtendedFeedback(t *testing.T) {
	b, _ := assessmentBlock(1, false)
	c, _, _ := newCoordinator(t, b)

	resp, err := c.GetResults(context.Background(), "u1", []string{"q1"})
	if err != nil {
		t.Fatalf("get_results: %v", err)
	}
	if resp.Error == "" || len(resp.Results) != 0 {
		t.Fatalf("expected gated error response, got %+v", resp)
	}
}

func TestGetResults_DetailWhenActive(t *testing.T) {
	b, _ := assessmentBlock(1, true)
	c, _, _ := newCoordinator(t, b)

	submitAssessment(t, c, "u1", subs("q1"))
	submitAssessment(t, c, "u1", subs("q2"))
	submitAssessment(t, c, "u1", subs("q3"))

	resp, err := c.GetResults(context.Background(), "u1", []string{"q2"})
	if err != nil {
		t.Fatalf("get_results: %v", err)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error: %q", resp.Error)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "q2" {
		t.Fatalf("expected q2 detail, got %+v", resp.Results)
	}
	if resp.Completed != mentoring.StatusIncorrect {
		t.Fatalf("expected per-child status incorrect, got %q", resp.Completed)
	}
}
