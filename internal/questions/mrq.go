package questions

import (
	"encoding/json"
	"strings"

	"github.com/edunexus/mentoring-block/internal/mentoring"
)

// MRQ is a multi-select question. Selecting exactly the required
// choices is correct; selecting a wrong choice forfeits credit;
// selecting a strict subset of the required choices earns partial
// credit proportional to the hits. Ignored choices never affect the
// outcome either way.
type MRQ struct {
	ID       string
	Points   float64
	Required []string
	Ignored  []string
	Tips     map[string]string
}

func (q *MRQ) Name() string    { return q.ID }
func (q *MRQ) Weight() float64 { return q.Points }

func (q *MRQ) Submit(payload json.RawMessage) (mentoring.ResultRecord, error) {
	var sub struct {
		Value []string `json:"value"`
	}
	if err := json.Unmarshal(payload, &sub); err != nil {
		return mentoring.ResultRecord{}, err
	}

	ignored := toSet(q.Ignored)
	required := toSet(q.Required)
	selected := map[string]struct{}{}
	for _, v := range sub.Value {
		if _, ok := ignored[v]; ok {
			continue
		}
		selected[v] = struct{}{}
	}

	status, score := gradeSelection(selected, required)

	var tips []string
	for _, v := range sub.Value {
		if t := q.Tips[v]; t != "" {
			tips = append(tips, t)
		}
	}
	choices, _ := json.Marshal(sub.Value)
	return mentoring.ResultRecord{
		Status:  status,
		Score:   score,
		Weight:  q.Points,
		Tips:    strings.Join(tips, "\n"),
		Choices: choices,
	}, nil
}

func gradeSelection(selected, required map[string]struct{}) (mentoring.Status, float64) {
	if setEqual(selected, required) {
		return mentoring.StatusCorrect, 1
	}
	for v := range selected {
		if _, ok := required[v]; !ok {
			return mentoring.StatusIncorrect, 0
		}
	}
	if len(selected) == 0 || len(required) == 0 {
		return mentoring.StatusIncorrect, 0
	}
	return mentoring.StatusPartial, float64(len(selected)) / float64(len(required))
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
