// Package questions provides the built-in gradable children of a
// mentoring block. Each type grades one submission shape and reports a
// normalized ResultRecord; rendering and choice layout belong to the
// host's template pipeline.
package questions

import (
	"encoding/json"

	"github.com/edunexus/mentoring-block/internal/mentoring"
)

// MCQ is a single-choice question. A submission is correct when the
// selected value is one of the accepted choices. Rating questions are
// MCQs whose choices happen to be a numeric scale; nothing here
// distinguishes them.
type MCQ struct {
	ID       string
	Points   float64
	Accepted []string
	Tips     map[string]string // choice value -> tip text
}

func (q *MCQ) Name() string    { return q.ID }
func (q *MCQ) Weight() float64 { return q.Points }

func (q *MCQ) Submit(payload json.RawMessage) (mentoring.ResultRecord, error) {
	var sub struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(payload, &sub); err != nil {
		return mentoring.ResultRecord{}, err
	}

	status := mentoring.StatusIncorrect
	score := 0.0
	for _, a := range q.Accepted {
		if sub.Value == a {
			status = mentoring.StatusCorrect
			score = 1
			break
		}
	}

	choices, _ := json.Marshal([]string{sub.Value})
	return mentoring.ResultRecord{
		Status:  status,
		Score:   score,
		Weight:  q.Points,
		Tips:    q.Tips[sub.Value],
		Choices: choices,
	}, nil
}
