package main

import (
	"context"

	"github.com/pkg/errors"
)

var (
	errNotFound   = errors.New("record not found")
	errEmailTaken = errors.New("email already registered")
)

// Store is the record store behind every collection. Every analysis query is
// scoped to the owning user and lists are ordered by created_at descending.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByResetToken(ctx context.Context, token string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error

	CreateHazardAnalysis(ctx context.Context, a *HazardAnalysis) error
	UpdateHazardAnalysis(ctx context.Context, a *HazardAnalysis) error
	ListHazardAnalyses(ctx context.Context, userID string) ([]HazardAnalysis, error)

	CreateFaultTree(ctx context.Context, a *FaultTreeAnalysis) error
	UpdateFaultTree(ctx context.Context, a *FaultTreeAnalysis) error
	ListFaultTrees(ctx context.Context, userID string) ([]FaultTreeAnalysis, error)

	CreateEventTree(ctx context.Context, a *EventTreeAnalysis) error
	UpdateEventTree(ctx context.Context, a *EventTreeAnalysis) error
	ListEventTrees(ctx context.Context, userID string) ([]EventTreeAnalysis, error)

	CreateCauseConsequence(ctx context.Context, a *CauseConsequenceAnalysis) error
	UpdateCauseConsequence(ctx context.Context, a *CauseConsequenceAnalysis) error
	ListCauseConsequences(ctx context.Context, userID string) ([]CauseConsequenceAnalysis, error)

	CreateSafetyCalculation(ctx context.Context, c *SafetyMetricsCalculation) error
	ListSafetyCalculations(ctx context.Context, userID string) ([]SafetyMetricsCalculation, error)

	CreateContactMessage(ctx context.Context, m *ContactMessage) error

	// DeleteRecord removes a record of the given type owned by userID.
	DeleteRecord(ctx context.Context, t AnalysisType, userID, id string) error
}
