package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"budgetcare/internal/core"
	"budgetcare/internal/export"
	"budgetcare/internal/log"
	"budgetcare/internal/ports"
)

// ReservationService applies the reservation rules against a repository and
// the plan reference data. Every mutation runs under one mutex so the
// availability check and the write are atomic.
type ReservationService struct {
	mu        sync.Mutex // serializes mutations
	repo      ports.ReservationRepository
	plans     ports.PlanReader
	publisher ports.EventPublisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string

	listenersMu sync.RWMutex
	listeners   []func(core.ReservationEvent)
}

type Option func(*ReservationService)

// WithPublisher fans committed changes out to other processes.
func WithPublisher(p ports.EventPublisher) Option {
	return func(s *ReservationService) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *ReservationService) { s.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(s *ReservationService) { s.logger = l.WithComponent(log.ComponentReservation) }
}

func NewReservationService(repo ports.ReservationRepository, plans ports.PlanReader, opts ...Option) *ReservationService {
	s := &ReservationService{
		repo:   repo,
		plans:  plans,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentReservation),
		now:    time.Now,
		newID:  func() string { return "res-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to be called synchronously after each committed
// mutation, before the event is published. Listeners run outside the
// mutation lock and may call back into the service.
func (s *ReservationService) OnChange(fn func(core.ReservationEvent)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Create validates the form and records an active reservation. Checks run
// in order: amount, plan, category, availability.
func (s *ReservationService) Create(ctx context.Context, planID string, form core.ReservationForm, reservedBy string) (core.Reservation, error) {
	amount := core.ParseAmount(form.Amount)
	if !core.IsValidAmount(amount) {
		return core.Reservation{}, fmt.Errorf("create reservation: amount %q: %w", form.Amount, core.ErrInvalidAmount)
	}

	plan, err := s.plans.FindPlan(ctx, planID)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	category, ok := plan.FindCategory(form.CategoryID)
	if !ok {
		return core.Reservation{}, fmt.Errorf("create reservation: category %s: %w", form.CategoryID, core.ErrCategoryNotFound)
	}

	r, err := s.insertIfAvailable(ctx, plan, category, form, amount, reservedBy)
	if err != nil {
		return core.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}

	s.committed(ctx, s.event(core.EventReservationCreated, r, &plan), log.OpCreate)
	return r, nil
}

// insertIfAvailable runs the availability check and the insert as one step.
func (s *ReservationService) insertIfAvailable(ctx context.Context, plan core.BudgetPlan, category core.Category, form core.ReservationForm, amount float64, reservedBy string) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.repo.List(ctx)
	if err != nil {
		return core.Reservation{}, err
	}
	available := core.Available(category, core.Summarize(all, plan.ID, category.ID))
	if amount > available {
		return core.Reservation{}, &core.InsufficientFundsError{
			Requested: amount,
			Available: available,
			Currency:  plan.Currency,
		}
	}

	r := core.NewReservation(s.newID(), plan.ID, form, amount, reservedBy, s.now())
	if err := s.repo.Insert(ctx, r); err != nil {
		return core.Reservation{}, err
	}
	return r, nil
}

// Convert marks an active reservation as realized.
func (s *ReservationService) Convert(ctx context.Context, id string, c core.Conversion) (core.Reservation, error) {
	return s.transition(ctx, id, core.EventReservationConverted, log.OpConvert, func(r core.Reservation) (core.Reservation, error) {
		return r.Convert(c, s.now())
	})
}

// Cancel releases an active reservation.
func (s *ReservationService) Cancel(ctx context.Context, id string, c core.Cancellation) (core.Reservation, error) {
	return s.transition(ctx, id, core.EventReservationCancelled, log.OpCancel, func(r core.Reservation) (core.Reservation, error) {
		return r.Cancel(c)
	})
}

func (s *ReservationService) transition(ctx context.Context, id string, t core.EventType, op string, apply func(core.Reservation) (core.Reservation, error)) (core.Reservation, error) {
	current, next, err := s.update(ctx, id, apply)
	if err != nil {
		return current, fmt.Errorf("%s reservation: %w", op, err)
	}

	s.committed(ctx, s.event(t, next, s.planFor(ctx, next.PlanID)), op)
	return next, nil
}

func (s *ReservationService) update(ctx context.Context, id string, apply func(core.Reservation) (core.Reservation, error)) (current, next core.Reservation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err = s.repo.Find(ctx, id)
	if err != nil {
		return core.Reservation{}, core.Reservation{}, err
	}
	next, err = apply(current)
	if err != nil {
		return current, core.Reservation{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return current, core.Reservation{}, err
	}
	return current, next, nil
}

// Delete removes a utilized or cancelled reservation.
func (s *ReservationService) Delete(ctx context.Context, id string) error {
	removed, err := s.remove(ctx, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	s.committed(ctx, s.event(core.EventReservationDeleted, removed, s.planFor(ctx, removed.PlanID)), log.OpDelete)
	return nil
}

func (s *ReservationService) remove(ctx context.Context, id string) (core.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Find(ctx, id)
	if err != nil {
		return core.Reservation{}, err
	}
	if err := current.CheckDeletable(); err != nil {
		return core.Reservation{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return core.Reservation{}, err
	}
	return current, nil
}

func (s *ReservationService) ListAll(ctx context.Context) ([]core.Reservation, error) {
	return s.Search(ctx, core.Filter{})
}

func (s *ReservationService) ListByPlan(ctx context.Context, planID string) ([]core.Reservation, error) {
	return s.Search(ctx, core.Filter{PlanID: planID})
}

func (s *ReservationService) ListByCategory(ctx context.Context, planID, categoryID string) ([]core.Reservation, error) {
	return s.Search(ctx, core.Filter{PlanID: planID, CategoryID: categoryID})
}

func (s *ReservationService) Search(ctx context.Context, f core.Filter) ([]core.Reservation, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return f.Apply(all), nil
}

func (s *ReservationService) Summary(ctx context.Context, planID, categoryID string) (core.Summary, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize reservations: %w", err)
	}
	return core.Summarize(all, planID, categoryID), nil
}

// Available returns what can still be reserved on a category. Unknown plans
// and categories have nothing available.
func (s *ReservationService) Available(ctx context.Context, planID, categoryID string) (float64, error) {
	plan, err := s.plans.FindPlan(ctx, planID)
	if errors.Is(err, core.ErrPlanNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	category, ok := plan.FindCategory(categoryID)
	if !ok {
		return 0, nil
	}
	summary, err := s.Summary(ctx, planID, categoryID)
	if err != nil {
		return 0, err
	}
	return core.Available(category, summary), nil
}

// CategoryOverview is one budget line with its reservation totals.
type CategoryOverview struct {
	Category  core.Category `json:"category"`
	Summary   core.Summary  `json:"summary"`
	Available float64       `json:"available"`
}

// PlanOverview is everything the plan page shows: the category lines, the
// plan roll-up, reservation statistics, revisions and execution reports.
type PlanOverview struct {
	Plan       core.BudgetPlan       `json:"plan"`
	Categories []CategoryOverview    `json:"categories"`
	Totals     core.PlanTotals       `json:"totals"`
	Statistics core.PlanStatistics   `json:"statistics"`
	Revisions  []core.PlanRevision   `json:"revisions"`
	Executions []core.ExecutionEntry `json:"executions"`
}

// PlanOverview computes every category's summary and availability in one
// pass over the repository.
func (s *ReservationService) PlanOverview(ctx context.Context, planID string) (PlanOverview, error) {
	plan, err := s.plans.FindPlan(ctx, planID)
	if err != nil {
		return PlanOverview{}, err
	}
	revisions, err := s.plans.Revisions(ctx, planID)
	if err != nil {
		return PlanOverview{}, fmt.Errorf("plan overview: %w", err)
	}
	executions, err := s.plans.Executions(ctx, planID)
	if err != nil {
		return PlanOverview{}, fmt.Errorf("plan overview: %w", err)
	}
	all, err := s.repo.List(ctx)
	if err != nil {
		return PlanOverview{}, fmt.Errorf("plan overview: %w", err)
	}

	planReservations := core.Filter{PlanID: plan.ID}.Apply(all)
	out := PlanOverview{
		Plan:       plan,
		Categories: make([]CategoryOverview, 0, len(plan.Categories)),
		Totals:     core.Totals(plan),
		Statistics: core.Statistics(planReservations),
		Revisions:  revisions,
		Executions: executions,
	}
	for _, c := range plan.Categories {
		sum := core.Summarize(planReservations, plan.ID, c.ID)
		out.Categories = append(out.Categories, CategoryOverview{
			Category:  c,
			Summary:   sum,
			Available: core.Available(c, sum),
		})
	}
	return out, nil
}

// ExportCSV renders the plan's reservations. The result may be one of the
// export package's prose messages rather than CSV.
func (s *ReservationService) ExportCSV(ctx context.Context, planID string) (string, error) {
	rs, err := s.ListByPlan(ctx, planID)
	if err != nil {
		return "", err
	}
	plan, err := s.plans.FindPlan(ctx, planID)
	if err != nil && !errors.Is(err, core.ErrPlanNotFound) {
		return "", err
	}
	var p *core.BudgetPlan
	if err == nil {
		p = &plan
	}
	return export.PlanReservations(p, rs), nil
}

func (s *ReservationService) planFor(ctx context.Context, planID string) *core.BudgetPlan {
	plan, err := s.plans.FindPlan(ctx, planID)
	if err != nil {
		return nil
	}
	return &plan
}

func (s *ReservationService) event(t core.EventType, r core.Reservation, plan *core.BudgetPlan) core.ReservationEvent {
	return core.NewReservationEvent(t, r, plan, s.now())
}

// committed runs after a successful write, outside the mutation lock.
// Nothing here can fail the operation: the reservation is already stored.
func (s *ReservationService) committed(ctx context.Context, ev core.ReservationEvent, op string) {
	r := ev.Reservation
	s.logger.ReservationChanged(ctx, op, r.ID, r.PlanID, r.CategoryID, r.Amount, string(r.Status))

	s.listenersMu.RLock()
	listeners := append(([]func(core.ReservationEvent))(nil), s.listeners...)
	s.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping", log.FieldEvent, ev.Type)
		return
	}
	if err := s.publisher.PublishReservationEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish reservation event",
			log.FieldOperation, log.OpPublish,
			log.FieldEvent, ev.Type,
			log.FieldReservationID, r.ID,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeNetwork)
	}
}

// Close releases the repository and publisher when they hold resources.
func (s *ReservationService) Close() error {
	var errs []error
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close reservation service: %w", errors.Join(errs...))
	}
	return nil
}
