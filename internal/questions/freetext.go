package questions

import (
	"encoding/json"
	"strings"

	"github.com/edunexus/mentoring-block/internal/mentoring"
)

// FreeText is a long-answer question. There is no answer key: any
// non-blank answer counts as correct, a blank one as incorrect. The
// submitted text rides along in the record for later review.
type FreeText struct {
	ID     string
	Points float64
}

func (q *FreeText) Name() string    { return q.ID }
func (q *FreeText) Weight() float64 { return q.Points }

func (q *FreeText) Submit(payload json.RawMessage) (mentoring.ResultRecord, error) {
	var sub struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(payload, &sub); err != nil {
		return mentoring.ResultRecord{}, err
	}

	status := mentoring.StatusIncorrect
	score := 0.0
	if strings.TrimSpace(sub.Value) != "" {
		status = mentoring.StatusCorrect
		score = 1
	}

	answer, _ := json.Marshal(sub.Value)
	return mentoring.ResultRecord{
		Status:  status,
		Score:   score,
		Weight:  q.Points,
		Choices: answer,
	}, nil
}
