package mentoring

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLStore persists sessions and next-step preferences in SQL. It
// works against both supported drivers; the host serializes writes per
// session, so no additional locking happens here.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Load(ctx context.Context, userID, blockID string) (SessionState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT attempted, completed, step, num_attempts, results_json
		 FROM sessions WHERE user_id=$1 AND block_id=$2`, userID, blockID)

	var st SessionState
	var resultsJSON string
	if err := row.Scan(&st.Attempted, &st.Completed, &st.Step, &st.NumAttempts, &resultsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// First access creates the session implicitly with defaults.
			return SessionState{}, nil
		}
		return SessionState{}, err
	}
	if resultsJSON != "" {
		if err := json.Unmarshal([]byte(resultsJSON), &st.Results); err != nil {
			return SessionState{}, err
		}
	}
	return st, nil
}

func (s *SQLStore) Save(ctx context.Context, userID, blockID string, st SessionState) error {
	buf, err := json.Marshal(st.Results)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, block_id, attempted, completed, step, num_attempts, results_json, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (user_id, block_id) DO UPDATE SET
		   attempted=EXCLUDED.attempted, completed=EXCLUDED.completed, step=EXCLUDED.step,
		   num_attempts=EXCLUDED.num_attempts, results_json=EXCLUDED.results_json, updated_at=EXCLUDED.updated_at`,
		userID, blockID, st.Attempted, st.Completed, st.Step, st.NumAttempts, string(buf), time.Now().Unix())
	return err
}

func (s *SQLStore) NextStep(ctx context.Context, userID string) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE user_id=$1 AND name='next_step'`, userID)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultNextStep, nil
		}
		return "", err
	}
	return v, nil
}

func (s *SQLStore) SetNextStep(ctx context.Context, userID, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, name, value)
		 VALUES ($1,'next_step',$2)
		 ON CONFLICT (user_id, name) DO UPDATE SET value=EXCLUDED.value`,
		userID, value)
	return err
}
