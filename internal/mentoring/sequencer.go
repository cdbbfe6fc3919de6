package mentoring

import "encoding/json"

// stepOutcome summarizes one pass of the assessment state machine.
type stepOutcome struct {
	target    Gradable // child the submission addressed; nil if none matched
	targetPos int      // 0-based position of target among the steps
	gated     bool     // submission was a sequencing no-op
	terminal  bool     // target was the last gradable step and was graded
}

// advanceStep runs the assessment-mode state machine over a submission
// map. Submissions for a step the learner already passed, or arriving
// after attempts are exhausted, do not advance the step and do not
// record a result. Graded results are persisted without their tip
// payload so review only happens through the designated feedback
// channel. The terminal step is identified by list position, not id.
func (b *Block) advanceStep(st *SessionState, submissions map[string]json.RawMessage) (stepOutcome, error) {
	out := stepOutcome{targetPos: -1}
	for i, child := range b.steps {
		payload, ok := submissions[child.Name()]
		if !ok {
			continue
		}
		out.target = child
		out.targetPos = i

		if st.Step > i || b.MaxAttemptsReached(*st) {
			out.gated = true
			break
		}
		st.Step = i + 1

		rec, err := child.Submit(payload)
		if err != nil {
			return out, err
		}
		rec.Tips = ""
		st.Results = append(st.Results, StudentResult{ID: child.Name(), Result: rec})
	}
	out.terminal = !out.gated && out.target != nil && out.targetPos == len(b.steps)-1
	return out, nil
}
