// Package plans holds the budget plan reference data. Plans are read-mostly:
// they are loaded once at startup, from the built-in seeds or a TOML file,
// and handed out as deep copies.
package plans

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"budgetcare/internal/core"
)

type Store struct {
	mu         sync.RWMutex
	plans      []core.BudgetPlan
	revisions  []core.PlanRevision
	executions []core.ExecutionEntry
}

type Option func(*Store)

// WithRevisions attaches plan revisions. Each must reference a known plan.
func WithRevisions(revs ...core.PlanRevision) Option {
	return func(s *Store) {
		for _, r := range revs {
			s.revisions = append(s.revisions, r.Clone())
		}
	}
}

// WithExecutions attaches execution reports. Each must reference a known plan.
func WithExecutions(entries ...core.ExecutionEntry) Option {
	return func(s *Store) { s.executions = append(s.executions, entries...) }
}

// New builds a store from plans, keeping their order.
func New(plans []core.BudgetPlan, opts ...Option) (*Store, error) {
	if err := validate(plans); err != nil {
		return nil, err
	}
	s := &Store{plans: make([]core.BudgetPlan, 0, len(plans))}
	for _, p := range plans {
		s.plans = append(s.plans, p.Clone())
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.validateHistory(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewDefault returns a store with the built-in plans, revisions and
// execution reports.
func NewDefault() *Store {
	s, err := New(Seed(), WithRevisions(SeedRevisions()...), WithExecutions(SeedExecutions()...))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in plans: %v", err))
	}
	return s
}

// NewFromFile loads plans from a TOML file. An empty path or a missing file
// falls back to the built-in plans; a malformed file is an error.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return NewDefault(), nil
	}
	f, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefault(), nil
	}
	if err != nil {
		return nil, err
	}
	return New(f.Plans, WithRevisions(f.Revisions...), WithExecutions(f.Executions...))
}

// File is the layout of a plans seed file.
type File struct {
	Plans      []core.BudgetPlan     `toml:"plans"`
	Revisions  []core.PlanRevision   `toml:"revisions"`
	Executions []core.ExecutionEntry `toml:"executions"`
}

// LoadFile decodes a TOML seed file made of [[plans]] tables with nested
// [[plans.categories]], and optional [[revisions]] (with
// [[revisions.impacts]]) and [[executions]] tables.
func LoadFile(path string) (File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return File{}, fmt.Errorf("decode plans file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return File{}, fmt.Errorf("plans file %s: unknown keys %v", path, undecoded)
	}
	return f, nil
}

func validate(plans []core.BudgetPlan) error {
	seen := make(map[string]struct{}, len(plans))
	for i, p := range plans {
		if p.ID == "" {
			return fmt.Errorf("plan %d: missing id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("plan %s: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.Status.IsValid() {
			return fmt.Errorf("plan %s: invalid status %q", p.ID, p.Status)
		}
		cats := make(map[string]struct{}, len(p.Categories))
		for _, c := range p.Categories {
			if c.ID == "" {
				return fmt.Errorf("plan %s: category without id", p.ID)
			}
			if _, dup := cats[c.ID]; dup {
				return fmt.Errorf("plan %s: duplicate category %s", p.ID, c.ID)
			}
			cats[c.ID] = struct{}{}
		}
	}
	return nil
}

func (s *Store) validateHistory() error {
	known := make(map[string]struct{}, len(s.plans))
	for _, p := range s.plans {
		known[p.ID] = struct{}{}
	}
	for i, r := range s.revisions {
		if r.ID == "" {
			return fmt.Errorf("revision %d: missing id", i)
		}
		if _, ok := known[r.PlanID]; !ok {
			return fmt.Errorf("revision %s: unknown plan %q", r.ID, r.PlanID)
		}
		if !r.Type.IsValid() {
			return fmt.Errorf("revision %s: invalid type %q", r.ID, r.Type)
		}
	}
	for i, e := range s.executions {
		if e.ID == "" {
			return fmt.Errorf("execution %d: missing id", i)
		}
		if _, ok := known[e.PlanID]; !ok {
			return fmt.Errorf("execution %s: unknown plan %q", e.ID, e.PlanID)
		}
		if !e.RiskLevel.IsValid() {
			return fmt.Errorf("execution %s: invalid risk level %q", e.ID, e.RiskLevel)
		}
	}
	return nil
}

func (s *Store) ListPlans(_ context.Context) ([]core.BudgetPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.BudgetPlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *Store) FindPlan(_ context.Context, id string) (core.BudgetPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.plans {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return core.BudgetPlan{}, fmt.Errorf("find plan %s: %w", id, core.ErrPlanNotFound)
}

// EditableCategories returns a fresh copy of the plan's categories for the
// category editor.
func (s *Store) EditableCategories(ctx context.Context, planID string) ([]core.Category, error) {
	p, err := s.FindPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return p.Categories, nil
}

// Revisions returns the plan's revisions in seed order.
func (s *Store) Revisions(ctx context.Context, planID string) ([]core.PlanRevision, error) {
	if _, err := s.FindPlan(ctx, planID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.PlanRevision{}
	for _, r := range s.revisions {
		if r.PlanID == planID {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Executions returns the plan's execution reports in seed order.
func (s *Store) Executions(ctx context.Context, planID string) ([]core.ExecutionEntry, error) {
	if _, err := s.FindPlan(ctx, planID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.ExecutionEntry{}
	for _, e := range s.executions {
		if e.PlanID == planID {
			out = append(out, e)
		}
	}
	return out, nil
}
