package main

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

type pgStore struct {
	db *sql.DB
}

func newPostgresStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

// jsonb marshals the pointed-to value into a JSONB column and back. Values are
// sent as text so lib/pq does not encode them as bytea.
type jsonb[T any] struct {
	ptr *T
}

func asJSON[T any](p *T) jsonb[T] {
	return jsonb[T]{ptr: p}
}

func (j jsonb[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.ptr)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j jsonb[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, j.ptr)
	case string:
		return json.Unmarshal([]byte(v), j.ptr)
	default:
		return fmt.Errorf("cannot scan %T into jsonb", src)
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Users

const userColumns = `id, name, email, password_hash, password_reset_token, password_reset_sent_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var sentAt sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PasswordResetToken, &sentAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errNotFound
		}
		return nil, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		u.PasswordResetSentAt = &t
	}
	return &u, nil
}

func (s *pgStore) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, password_reset_token, password_reset_sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.PasswordResetToken, u.PasswordResetSentAt).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errEmailTaken
		}
		return errors.Wrap(err, "could not create user")
	}
	return nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	if !validID(id) {
		return nil, errNotFound
	}
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil && err != errNotFound {
		return nil, errors.Wrap(err, "could not load user")
	}
	return u, err
}

func (s *pgStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil && err != errNotFound {
		return nil, errors.Wrap(err, "could not load user by email")
	}
	return u, err
}

func (s *pgStore) GetUserByResetToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, errNotFound
	}
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token))
	if err != nil && err != errNotFound {
		return nil, errors.Wrap(err, "could not load user by reset token")
	}
	return u, err
}

func (s *pgStore) UpdateUser(ctx context.Context, u *User) error {
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET name = $1, email = $2, password_hash = $3, password_reset_token = $4,
		        password_reset_sent_at = $5, updated_at = now()
		 WHERE id = $6 RETURNING updated_at`,
		u.Name, u.Email, u.PasswordHash, u.PasswordResetToken, u.PasswordResetSentAt, u.ID).
		Scan(&u.UpdatedAt)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, "could not update user")
}

// HIRADC

func (s *pgStore) CreateHazardAnalysis(ctx context.Context, a *HazardAnalysis) error {
	a.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO hiradc_analyses (id, user_id, activity_name, location, hazard, severity, likelihood,
		        risk_score, risk_category, control_recommendations, ai_insight)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.ActivityName, a.Location, a.Hazard, a.Severity, a.Likelihood,
		a.RiskScore, a.RiskCategory, asJSON(&a.ControlRecommendations), a.AIInsight).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return errors.Wrap(err, "could not create HIRADC analysis")
}

func (s *pgStore) UpdateHazardAnalysis(ctx context.Context, a *HazardAnalysis) error {
	if !validID(a.ID) {
		return errNotFound
	}
	err := s.db.QueryRowContext(ctx,
		`UPDATE hiradc_analyses SET activity_name = $1, location = $2, hazard = $3, severity = $4,
		        likelihood = $5, risk_score = $6, risk_category = $7, control_recommendations = $8,
		        ai_insight = $9, updated_at = now()
		 WHERE id = $10 AND user_id = $11 RETURNING created_at, updated_at`,
		a.ActivityName, a.Location, a.Hazard, a.Severity, a.Likelihood, a.RiskScore, a.RiskCategory,
		asJSON(&a.ControlRecommendations), a.AIInsight, a.ID, a.UserID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, "could not update HIRADC analysis")
}

func (s *pgStore) ListHazardAnalyses(ctx context.Context, userID string) ([]HazardAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, activity_name, location, hazard, severity, likelihood, risk_score,
		        risk_category, control_recommendations, ai_insight, created_at, updated_at
		 FROM hiradc_analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list HIRADC analyses")
	}
	defer rows.Close()

	analyses := []HazardAnalysis{}
	for rows.Next() {
		var a HazardAnalysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActivityName, &a.Location, &a.Hazard, &a.Severity,
			&a.Likelihood, &a.RiskScore, &a.RiskCategory, asJSON(&a.ControlRecommendations), &a.AIInsight,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan HIRADC analysis")
		}
		analyses = append(analyses, a)
	}
	return analyses, errors.Wrap(rows.Err(), "could not iterate HIRADC analyses")
}

// FTA

func (s *pgStore) CreateFaultTree(ctx context.Context, a *FaultTreeAnalysis) error {
	a.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO fta_analyses (id, user_id, title, top_event, structure)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.TopEvent, asJSON(&a.Structure)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return errors.Wrap(err, "could not create FTA analysis")
}

func (s *pgStore) UpdateFaultTree(ctx context.Context, a *FaultTreeAnalysis) error {
	if !validID(a.ID) {
		return errNotFound
	}
	err := s.db.QueryRowContext(ctx,
		`UPDATE fta_analyses SET title = $1, top_event = $2, structure = $3, updated_at = now()
		 WHERE id = $4 AND user_id = $5 RETURNING created_at, updated_at`,
		a.Title, a.TopEvent, asJSON(&a.Structure), a.ID, a.UserID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, "could not update FTA analysis")
}

func (s *pgStore) ListFaultTrees(ctx context.Context, userID string) ([]FaultTreeAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, top_event, structure, created_at, updated_at
		 FROM fta_analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list FTA analyses")
	}
	defer rows.Close()

	analyses := []FaultTreeAnalysis{}
	for rows.Next() {
		var a FaultTreeAnalysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.TopEvent, asJSON(&a.Structure),
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan FTA analysis")
		}
		analyses = append(analyses, a)
	}
	return analyses, errors.Wrap(rows.Err(), "could not iterate FTA analyses")
}

// ETA

func (s *pgStore) CreateEventTree(ctx context.Context, a *EventTreeAnalysis) error {
	a.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO eta_analyses (id, user_id, title, initiating_event, barriers, outcomes)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.InitiatingEvent, asJSON(&a.Barriers), asJSON(&a.Outcomes)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return errors.Wrap(err, "could not create ETA analysis")
}

func (s *pgStore) UpdateEventTree(ctx context.Context, a *EventTreeAnalysis) error {
	if !validID(a.ID) {
		return errNotFound
	}
	err := s.db.QueryRowContext(ctx,
		`UPDATE eta_analyses SET title = $1, initiating_event = $2, barriers = $3, outcomes = $4,
		        updated_at = now()
		 WHERE id = $5 AND user_id = $6 RETURNING created_at, updated_at`,
		a.Title, a.InitiatingEvent, asJSON(&a.Barriers), asJSON(&a.Outcomes), a.ID, a.UserID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, "could not update ETA analysis")
}

func (s *pgStore) ListEventTrees(ctx context.Context, userID string) ([]EventTreeAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, initiating_event, barriers, outcomes, created_at, updated_at
		 FROM eta_analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list ETA analyses")
	}
	defer rows.Close()

	analyses := []EventTreeAnalysis{}
	for rows.Next() {
		var a EventTreeAnalysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.InitiatingEvent, asJSON(&a.Barriers),
			asJSON(&a.Outcomes), &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan ETA analysis")
		}
		analyses = append(analyses, a)
	}
	return analyses, errors.Wrap(rows.Err(), "could not iterate ETA analyses")
}

// CCA

func (s *pgStore) CreateCauseConsequence(ctx context.Context, a *CauseConsequenceAnalysis) error {
	a.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO cca_analyses (id, user_id, title, critical_event, cause_tree, consequence_tree)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.CriticalEvent, asJSON(&a.CauseTree), asJSON(&a.ConsequenceTree)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	return errors.Wrap(err, "could not create CCA analysis")
}

func (s *pgStore) UpdateCauseConsequence(ctx context.Context, a *CauseConsequenceAnalysis) error {
	if !validID(a.ID) {
		return errNotFound
	}
	err := s.db.QueryRowContext(ctx,
		`UPDATE cca_analyses SET title = $1, critical_event = $2, cause_tree = $3, consequence_tree = $4,
		        updated_at = now()
		 WHERE id = $5 AND user_id = $6 RETURNING created_at, updated_at`,
		a.Title, a.CriticalEvent, asJSON(&a.CauseTree), asJSON(&a.ConsequenceTree), a.ID, a.UserID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return errNotFound
	}
	return errors.Wrap(err, "could not update CCA analysis")
}

func (s *pgStore) ListCauseConsequences(ctx context.Context, userID string) ([]CauseConsequenceAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, critical_event, cause_tree, consequence_tree, created_at, updated_at
		 FROM cca_analyses WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list CCA analyses")
	}
	defer rows.Close()

	analyses := []CauseConsequenceAnalysis{}
	for rows.Next() {
		var a CauseConsequenceAnalysis
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.CriticalEvent, asJSON(&a.CauseTree),
			asJSON(&a.ConsequenceTree), &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan CCA analysis")
		}
		analyses = append(analyses, a)
	}
	return analyses, errors.Wrap(rows.Err(), "could not iterate CCA analyses")
}

// K3

func (s *pgStore) CreateSafetyCalculation(ctx context.Context, c *SafetyMetricsCalculation) error {
	c.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO k3_calculations (id, user_id, total_lti, total_incidents, total_work_hours,
		        total_days_lost, employees_with_ppe, total_employees, ltir, trir, severity_rate,
		        frequency_rate, safe_man_hours, ppe_compliance)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING created_at`,
		c.ID, c.UserID, c.TotalLTI, c.TotalIncidents, c.TotalWorkHours, c.TotalDaysLost,
		c.EmployeesWithPPE, c.TotalEmployees, c.LTIR, c.TRIR, c.SeverityRate, c.FrequencyRate,
		c.SafeManHours, c.PPECompliance).
		Scan(&c.CreatedAt)
	return errors.Wrap(err, "could not create K3 calculation")
}

func (s *pgStore) ListSafetyCalculations(ctx context.Context, userID string) ([]SafetyMetricsCalculation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, total_lti, total_incidents, total_work_hours, total_days_lost,
		        employees_with_ppe, total_employees, ltir, trir, severity_rate, frequency_rate,
		        safe_man_hours, ppe_compliance, created_at
		 FROM k3_calculations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "could not list K3 calculations")
	}
	defer rows.Close()

	calcs := []SafetyMetricsCalculation{}
	for rows.Next() {
		var c SafetyMetricsCalculation
		if err := rows.Scan(&c.ID, &c.UserID, &c.TotalLTI, &c.TotalIncidents, &c.TotalWorkHours,
			&c.TotalDaysLost, &c.EmployeesWithPPE, &c.TotalEmployees, &c.LTIR, &c.TRIR, &c.SeverityRate,
			&c.FrequencyRate, &c.SafeManHours, &c.PPECompliance, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "could not scan K3 calculation")
		}
		calcs = append(calcs, c)
	}
	return calcs, errors.Wrap(rows.Err(), "could not iterate K3 calculations")
}

// Contact

func (s *pgStore) CreateContactMessage(ctx context.Context, m *ContactMessage) error {
	m.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO contact_messages (id, user_id, name, email, message, status)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		m.ID, m.UserID, m.Name, m.Email, m.Message, m.Status).
		Scan(&m.CreatedAt)
	return errors.Wrap(err, "could not create contact message")
}

func (s *pgStore) DeleteRecord(ctx context.Context, t AnalysisType, userID, id string) error {
	table, ok := t.Collection()
	if !ok {
		return errors.Errorf("unknown analysis type %q", t)
	}
	if !validID(id) {
		return errNotFound
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrapf(err, "could not delete %s record", t)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "could not delete %s record", t)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}
