package mentoring

import "math"

// ComputeScore derives the weighted score and correctness buckets from
// stored results and the live weights of the current children. A zero
// total weight yields a zero Score rather than dividing by zero.
func (b *Block) ComputeScore(results []StudentResult) Score {
	total := 0.0
	for _, s := range b.steps {
		total += s.Weight()
	}
	if total == 0 {
		return Score{
			Correct:          []AnswerDetail{},
			Incorrect:        []AnswerDetail{},
			PartiallyCorrect: []AnswerDetail{},
		}
	}

	sum := 0.0
	for _, r := range results {
		sum += r.Result.Score * r.Result.Weight
	}
	raw := sum / total

	return Score{
		Raw:              raw,
		Percentage:       int(math.Round(raw * 100)),
		Correct:          b.bucket(results, StatusCorrect),
		Incorrect:        b.bucket(results, StatusIncorrect),
		PartiallyCorrect: b.bucket(results, StatusPartial),
	}
}

// bucket filters results by status, in stored order. Results whose
// question id is no longer among the current children are skipped:
// stale references are tolerated per item, not surfaced per request.
func (b *Block) bucket(results []StudentResult, status Status) []AnswerDetail {
	out := []AnswerDetail{}
	for _, r := range results {
		if r.Result.Status != status {
			continue
		}
		number, err := b.QuestionNumber(r.ID)
		if err != nil {
			continue
		}
		out = append(out, AnswerDetail{Number: number, ID: r.ID, Details: r.Result})
	}
	return out
}
