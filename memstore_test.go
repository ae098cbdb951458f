package main

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for handler and service tests. Setting err
// makes every call fail with it.
type memStore struct {
	mu    sync.Mutex
	err   error
	clock func() time.Time

	users    map[string]*User
	hazards  map[string]HazardAnalysis
	faults   map[string]FaultTreeAnalysis
	events   map[string]EventTreeAnalysis
	causes   map[string]CauseConsequenceAnalysis
	calcs    map[string]SafetyMetricsCalculation
	contacts []ContactMessage
}

func newMemStore() *memStore {
	return &memStore{
		clock:   time.Now,
		users:   map[string]*User{},
		hazards: map[string]HazardAnalysis{},
		faults:  map[string]FaultTreeAnalysis{},
		events:  map[string]EventTreeAnalysis{},
		causes:  map[string]CauseConsequenceAnalysis{},
		calcs:   map[string]SafetyMetricsCalculation{},
	}
}

func (s *memStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errEmailTaken
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = s.clock()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) findUser(match func(*User) bool) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	return s.findUser(func(u *User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *memStore) GetUserByResetToken(_ context.Context, token string) (*User, error) {
	if token == "" {
		return nil, errNotFound
	}
	return s.findUser(func(u *User) bool { return u.PasswordResetToken == token })
}

func (s *memStore) UpdateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[u.ID]; !ok {
		return errNotFound
	}
	u.UpdatedAt = s.clock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// put stores v under a fresh id when id is empty, or replaces an existing
// record owned by userID.
func put[T any](s *memStore, m map[string]T, id *string, userID string, owner func(T) string, v func() T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if *id == "" {
		*id = uuid.NewString()
	} else if existing, ok := m[*id]; !ok || owner(existing) != userID {
		return errNotFound
	}
	m[*id] = v()
	return nil
}

func list[T any](s *memStore, m map[string]T, userID string, owner func(T) string, created func(T) time.Time) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []T{}
	for _, v := range m {
		if owner(v) == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return created(out[i]).After(created(out[j])) })
	return out, nil
}

func (s *memStore) CreateHazardAnalysis(_ context.Context, a *HazardAnalysis) error {
	a.ID = ""
	a.CreatedAt = s.clock()
	a.UpdatedAt = a.CreatedAt
	return put(s, s.hazards, &a.ID, a.UserID, func(h HazardAnalysis) string { return h.UserID }, func() HazardAnalysis { return *a })
}

func (s *memStore) UpdateHazardAnalysis(_ context.Context, a *HazardAnalysis) error {
	if a.ID == "" {
		return errNotFound
	}
	a.CreatedAt = s.hazards[a.ID].CreatedAt
	a.UpdatedAt = s.clock()
	return put(s, s.hazards, &a.ID, a.UserID, func(h HazardAnalysis) string { return h.UserID }, func() HazardAnalysis { return *a })
}

func (s *memStore) ListHazardAnalyses(_ context.Context, userID string) ([]HazardAnalysis, error) {
	return list(s, s.hazards, userID, func(h HazardAnalysis) string { return h.UserID }, func(h HazardAnalysis) time.Time { return h.CreatedAt })
}

func (s *memStore) CreateFaultTree(_ context.Context, a *FaultTreeAnalysis) error {
	a.ID = ""
	a.CreatedAt = s.clock()
	a.UpdatedAt = a.CreatedAt
	return put(s, s.faults, &a.ID, a.UserID, func(f FaultTreeAnalysis) string { return f.UserID }, func() FaultTreeAnalysis { return *a })
}

func (s *memStore) UpdateFaultTree(_ context.Context, a *FaultTreeAnalysis) error {
	if a.ID == "" {
		return errNotFound
	}
	a.CreatedAt = s.faults[a.ID].CreatedAt
	a.UpdatedAt = s.clock()
	return put(s, s.faults, &a.ID, a.UserID, func(f FaultTreeAnalysis) string { return f.UserID }, func() FaultTreeAnalysis { return *a })
}

func (s *memStore) ListFaultTrees(_ context.Context, userID string) ([]FaultTreeAnalysis, error) {
	return list(s, s.faults, userID, func(f FaultTreeAnalysis) string { return f.UserID }, func(f FaultTreeAnalysis) time.Time { return f.CreatedAt })
}

func (s *memStore) CreateEventTree(_ context.Context, a *EventTreeAnalysis) error {
	a.ID = ""
	a.CreatedAt = s.clock()
	a.UpdatedAt = a.CreatedAt
	return put(s, s.events, &a.ID, a.UserID, func(e EventTreeAnalysis) string { return e.UserID }, func() EventTreeAnalysis { return *a })
}

func (s *memStore) UpdateEventTree(_ context.Context, a *EventTreeAnalysis) error {
	if a.ID == "" {
		return errNotFound
	}
	a.CreatedAt = s.events[a.ID].CreatedAt
	a.UpdatedAt = s.clock()
	return put(s, s.events, &a.ID, a.UserID, func(e EventTreeAnalysis) string { return e.UserID }, func() EventTreeAnalysis { return *a })
}

func (s *memStore) ListEventTrees(_ context.Context, userID string) ([]EventTreeAnalysis, error) {
	return list(s, s.events, userID, func(e EventTreeAnalysis) string { return e.UserID }, func(e EventTreeAnalysis) time.Time { return e.CreatedAt })
}

func (s *memStore) CreateCauseConsequence(_ context.Context, a *CauseConsequenceAnalysis) error {
	a.ID = ""
	a.CreatedAt = s.clock()
	a.UpdatedAt = a.CreatedAt
	return put(s, s.causes, &a.ID, a.UserID, func(c CauseConsequenceAnalysis) string { return c.UserID }, func() CauseConsequenceAnalysis { return *a })
}

func (s *memStore) UpdateCauseConsequence(_ context.Context, a *CauseConsequenceAnalysis) error {
	if a.ID == "" {
		return errNotFound
	}
	a.CreatedAt = s.causes[a.ID].CreatedAt
	a.UpdatedAt = s.clock()
	return put(s, s.causes, &a.ID, a.UserID, func(c CauseConsequenceAnalysis) string { return c.UserID }, func() CauseConsequenceAnalysis { return *a })
}

func (s *memStore) ListCauseConsequences(_ context.Context, userID string) ([]CauseConsequenceAnalysis, error) {
	return list(s, s.causes, userID, func(c CauseConsequenceAnalysis) string { return c.UserID }, func(c CauseConsequenceAnalysis) time.Time { return c.CreatedAt })
}

func (s *memStore) CreateSafetyCalculation(_ context.Context, c *SafetyMetricsCalculation) error {
	c.ID = ""
	c.CreatedAt = s.clock()
	return put(s, s.calcs, &c.ID, c.UserID, func(k SafetyMetricsCalculation) string { return k.UserID }, func() SafetyMetricsCalculation { return *c })
}

func (s *memStore) ListSafetyCalculations(_ context.Context, userID string) ([]SafetyMetricsCalculation, error) {
	return list(s, s.calcs, userID, func(k SafetyMetricsCalculation) string { return k.UserID }, func(k SafetyMetricsCalculation) time.Time { return k.CreatedAt })
}

func (s *memStore) CreateContactMessage(_ context.Context, m *ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	m.ID = uuid.NewString()
	m.CreatedAt = s.clock()
	s.contacts = append(s.contacts, *m)
	return nil
}

func (s *memStore) DeleteRecord(_ context.Context, t AnalysisType, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	switch t {
	case AnalysisHIRADC:
		return deleteOwned(s.hazards, id, userID, func(v HazardAnalysis) string { return v.UserID })
	case AnalysisFTA:
		return deleteOwned(s.faults, id, userID, func(v FaultTreeAnalysis) string { return v.UserID })
	case AnalysisETA:
		return deleteOwned(s.events, id, userID, func(v EventTreeAnalysis) string { return v.UserID })
	case AnalysisCCA:
		return deleteOwned(s.causes, id, userID, func(v CauseConsequenceAnalysis) string { return v.UserID })
	case AnalysisK3:
		return deleteOwned(s.calcs, id, userID, func(v SafetyMetricsCalculation) string { return v.UserID })
	}
	return errNotFound
}

func deleteOwned[T any](m map[string]T, id, userID string, owner func(T) string) error {
	v, ok := m[id]
	if !ok || owner(v) != userID {
		return errNotFound
	}
	delete(m, id)
	return nil
}
