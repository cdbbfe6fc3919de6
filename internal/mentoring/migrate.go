package mentoring

// Migrate upgrades legacy stored results to the current schema. Early
// records carried a boolean "completed" field instead of "status";
// those map to correct/incorrect. The legacy format predates partial
// credit, so migrated records can never become partial.
//
// Migrate is pure and idempotent, and must run before the aggregator,
// the feedback composer or any status-based filtering reads the data.
func Migrate(results []StudentResult) []StudentResult {
	if len(results) == 0 || results[0].Result.Completed == nil {
		return results
	}
	out := make([]StudentResult, len(results))
	for i, r := range results {
		rec := r.Result
		if rec.Completed != nil {
			if *rec.Completed {
				rec.Status = StatusCorrect
			} else {
				rec.Status = StatusIncorrect
			}
			rec.Completed = nil
		}
		out[i] = StudentResult{ID: r.ID, Result: rec}
	}
	return out
}
