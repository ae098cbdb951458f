package main

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*pgStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return newPostgresStore(db), mock
}

func TestPostgresStoreUsers(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("create should map a unique violation to a taken email", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pq.Error{Code: uniqueViolation})

		err := s.CreateUser(ctx, &User{Name: "Ani", Email: "ani@example.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, errEmailTaken)
	})

	t.Run("create should fill the generated fields", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(sqlmock.AnyArg(), "Ani", "ani@example.com", "h", "", nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

		u := &User{Name: "Ani", Email: "ani@example.com", PasswordHash: "h"}
		require.NoError(t, s.CreateUser(ctx, u))
		_, err := uuid.Parse(u.ID)
		assert.NoError(t, err)
		assert.Equal(t, created, u.CreatedAt)
	})

	t.Run("lookups should report missing users as not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE lower(email) = lower($1)")).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := s.GetUserByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, errNotFound)

		_, err = s.GetUserByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, errNotFound)
		_, err = s.GetUserByResetToken(ctx, "")
		assert.ErrorIs(t, err, errNotFound)
	})

	t.Run("should scan the reset timestamp", func(t *testing.T) {
		s, mock := newMockStore(t)
		id := uuid.NewString()
		rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "password_reset_token", "password_reset_sent_at", "created_at", "updated_at"}).
			AddRow(id, "Ani", "ani@example.com", "h", "tok", created, created, created)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE password_reset_token = $1")).
			WithArgs("tok").
			WillReturnRows(rows)

		u, err := s.GetUserByResetToken(ctx, "tok")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
		require.NotNil(t, u.PasswordResetSentAt)
		assert.Equal(t, created, *u.PasswordResetSentAt)
	})
}

func TestPostgresStoreAnalyses(t *testing.T) {
	ctx := context.Background()
	userID := uuid.NewString()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("hazard analyses should round trip their JSON columns", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO hiradc_analyses")).
			WithArgs(sqlmock.AnyArg(), userID, "Welding", "Bay", "Burns", 4, 4, 16, RiskHigh, `["Elimination"]`, "note").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

		a := &HazardAnalysis{
			UserID: userID, ActivityName: "Welding", Location: "Bay", Hazard: "Burns", Severity: 4, Likelihood: 4,
			RiskScore: 16, RiskCategory: RiskHigh, ControlRecommendations: []string{"Elimination"}, AIInsight: "note",
		}
		require.NoError(t, s.CreateHazardAnalysis(ctx, a))

		rows := sqlmock.NewRows([]string{"id", "user_id", "activity_name", "location", "hazard", "severity", "likelihood",
			"risk_score", "risk_category", "control_recommendations", "ai_insight", "created_at", "updated_at"}).
			AddRow(a.ID, userID, "Welding", "Bay", "Burns", 4, 4, 16, RiskHigh, []byte(`["Elimination","Substitution"]`), "note", created, created)
		mock.ExpectQuery(regexp.QuoteMeta("FROM hiradc_analyses WHERE user_id = $1 ORDER BY created_at DESC")).
			WithArgs(userID).
			WillReturnRows(rows)

		list, err := s.ListHazardAnalyses(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, []string{"Elimination", "Substitution"}, list[0].ControlRecommendations)
	})

	t.Run("an empty list should not be nil", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM eta_analyses")).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		list, err := s.ListEventTrees(ctx, userID)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("updating a record of another user should be not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		id := uuid.NewString()
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE fta_analyses SET")).
			WillReturnError(sql.ErrNoRows)

		err := s.UpdateFaultTree(ctx, &FaultTreeAnalysis{ID: id, UserID: userID, Title: "t", TopEvent: "e", Structure: NewFaultTreeStructure()})
		assert.ErrorIs(t, err, errNotFound)

		err = s.UpdateCauseConsequence(ctx, &CauseConsequenceAnalysis{ID: "bad-id", UserID: userID})
		assert.ErrorIs(t, err, errNotFound)
	})

	t.Run("delete should target the collection table and owner", func(t *testing.T) {
		s, mock := newMockStore(t)
		id := uuid.NewString()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM k3_calculations WHERE id = $1 AND user_id = $2")).
			WithArgs(id, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cca_analyses WHERE id = $1 AND user_id = $2")).
			WithArgs(id, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, s.DeleteRecord(ctx, AnalysisK3, userID, id))
		assert.ErrorIs(t, s.DeleteRecord(ctx, AnalysisCCA, userID, id), errNotFound)
		assert.Error(t, s.DeleteRecord(ctx, AnalysisType("users"), userID, id))
	})

	t.Run("safety calculations should scan every metric", func(t *testing.T) {
		s, mock := newMockStore(t)
		rows := sqlmock.NewRows([]string{"id", "user_id", "total_lti", "total_incidents", "total_work_hours", "total_days_lost",
			"employees_with_ppe", "total_employees", "ltir", "trir", "severity_rate", "frequency_rate", "safe_man_hours",
			"ppe_compliance", "created_at"}).
			AddRow("k1", userID, 2.0, 5.0, 1e6, 20.0, 95.0, 100.0, 2.0, 1.0, 4.0, 5.0, 999840.0, 95.0, created)
		mock.ExpectQuery(regexp.QuoteMeta("FROM k3_calculations WHERE user_id = $1")).
			WithArgs(userID).
			WillReturnRows(rows)

		list, err := s.ListSafetyCalculations(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 1.0, list[0].TRIR)
		assert.Equal(t, 999840.0, list[0].SafeManHours)
	})
}
