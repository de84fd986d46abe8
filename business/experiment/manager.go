package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"shopsense/domain"
	"shopsense/pkg/logger"
)

const (
	// tolerance when checking that a traffic split sums to 1
	splitEpsilon = 1e-6
)

const (
	MetricCTR            = "ctr"
	MetricConversionRate = "conversion_rate"
)

// counter kinds accepted by RecordOutcome
const (
	OutcomeImpression = "impression"
	OutcomeClick      = "click"
	OutcomeConversion = "conversion"
)

// ---- Repository interfaces ----

type ExperimentRepository interface {
	GetByID(ctx context.Context, experimentID string) (*domain.Experiment, error)
	Create(ctx context.Context, exp domain.Experiment) error
	UpdateState(ctx context.Context, experimentID, state string, startedAt, endedAt *time.Time) error
}

type AssignmentRepository interface {
	Get(ctx context.Context, experimentID, userID string) (string, bool, error)

	// Save persists the first resolution; a concurrent insert for the same
	// pair must keep the stored row and is not an error.
	Save(ctx context.Context, assignment domain.Assignment) error
}

type CounterRepository interface {
	// Increment must be atomic per counter: concurrent callers never
	// observe read-modify-write races.
	Increment(ctx context.Context, experimentID, variant, kind string, value float64) error
	GetAll(ctx context.Context, experimentID string) ([]domain.VariantCounters, error)
}

// ---- Usecase / Service ----

type Manager struct {
	expRepo     ExperimentRepository
	assignRepo  AssignmentRepository
	counterRepo CounterRepository
	baseline    domain.WeightConfig
}

func NewManager(
	expRepo ExperimentRepository,
	assignRepo AssignmentRepository,
	counterRepo CounterRepository,
	baseline domain.WeightConfig,
) *Manager {
	return &Manager{
		expRepo:     expRepo,
		assignRepo:  assignRepo,
		counterRepo: counterRepo,
		baseline:    baseline,
	}
}

// Baseline is the weight configuration served outside any experiment.
func (m *Manager) Baseline() domain.WeightConfig {
	return m.baseline
}

// Create validates and persists a draft experiment.
func (m *Manager) Create(ctx context.Context, exp domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := validateDefinition(exp); err != nil {
		return err
	}

	existing, err := m.expRepo.GetByID(ctx, exp.ExperimentID)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("lookup experiment: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("%w: experiment %q already exists", domain.ErrValidation, exp.ExperimentID)
	}

	exp.State = domain.ExperimentDraft
	exp.CreatedAt = time.Now()

	if err := m.expRepo.Create(ctx, exp); err != nil {
		return fmt.Errorf("create experiment: %w", err)
	}

	logger.Info("experiment created", "experiment_id", exp.ExperimentID, "variants", len(exp.Variants))
	return nil
}

func (m *Manager) Activate(ctx context.Context, experimentID string) error {
	return m.transition(ctx, experimentID, domain.ExperimentActive)
}

func (m *Manager) Pause(ctx context.Context, experimentID string) error {
	return m.transition(ctx, experimentID, domain.ExperimentPaused)
}

func (m *Manager) Complete(ctx context.Context, experimentID string) error {
	return m.transition(ctx, experimentID, domain.ExperimentCompleted)
}

// Resolve returns the user's variant and its weight configuration. Only
// active experiments assign: anything else yields the baseline weights and
// an empty variant name. The first resolution is persisted so assignment
// survives later traffic-split changes.
func (m *Manager) Resolve(ctx context.Context, experimentID, userID string) (string, domain.WeightConfig, error) {
	if err := ctx.Err(); err != nil {
		return "", m.baseline, fmt.Errorf("context error: %w", err)
	}
	if experimentID == "" || userID == "" {
		return "", m.baseline, nil
	}

	exp, err := m.expRepo.GetByID(ctx, experimentID)
	if err != nil {
		if isNotFound(err) {
			return "", m.baseline, nil
		}
		return "", m.baseline, fmt.Errorf("lookup experiment: %w", err)
	}

	if exp.State != domain.ExperimentActive {
		return "", m.baseline, nil
	}

	variant, found, err := m.assignRepo.Get(ctx, experimentID, userID)
	if err != nil {
		return "", m.baseline, fmt.Errorf("lookup assignment: %w", err)
	}

	if !found {
		variant = assignVariant(*exp, userID)
		if err := m.assignRepo.Save(ctx, domain.Assignment{
			ExperimentID: experimentID,
			UserID:       userID,
			Variant:      variant,
		}); err != nil {
			return "", m.baseline, fmt.Errorf("persist assignment: %w", err)
		}
		// a concurrent first resolution may have won the insert
		if stored, ok, err := m.assignRepo.Get(ctx, experimentID, userID); err == nil && ok {
			variant = stored
		}
	}

	v, ok := exp.Variants[variant]
	if !ok {
		// assignment predates a variant rename; serve the baseline
		logger.Warn("assigned variant missing from experiment",
			"experiment_id", experimentID, "variant", variant)
		return "", m.baseline, nil
	}

	return variant, v.Weights, nil
}

// RecordOutcome increments the variant's counters. Safe under concurrent
// increments; counters are monotonic.
func (m *Manager) RecordOutcome(ctx context.Context, experimentID, variant, eventType string, value float64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if experimentID == "" || variant == "" {
		return nil
	}

	var kind string
	switch eventType {
	case OutcomeImpression:
		kind = "impressions"
	case OutcomeClick:
		kind = "clicks"
	case OutcomeConversion:
		kind = "conversions"
	default:
		return fmt.Errorf("%w: unknown outcome %q", domain.ErrValidation, eventType)
	}

	if err := m.counterRepo.Increment(ctx, experimentID, variant, kind, 1); err != nil {
		return fmt.Errorf("increment %s: %w", kind, err)
	}

	if eventType == OutcomeConversion && value > 0 {
		if err := m.counterRepo.Increment(ctx, experimentID, variant, "revenue", value); err != nil {
			return fmt.Errorf("increment revenue: %w", err)
		}
	}

	OutcomeEventsTotal.WithLabelValues(experimentID, variant, eventType).Inc()
	return nil
}

// Results returns per-variant counters and derived rates. Zero-count
// denominators yield zero rates, never a division error.
func (m *Manager) Results(ctx context.Context, experimentID string) (*domain.ExperimentResults, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	exp, err := m.expRepo.GetByID(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("lookup experiment: %w", err)
	}

	counters, err := m.counterRepo.GetAll(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}

	byVariant := make(map[string]domain.VariantCounters, len(counters))
	for _, c := range counters {
		byVariant[c.Variant] = c
	}

	results := &domain.ExperimentResults{
		ExperimentID: experimentID,
		State:        exp.State,
		Variants:     make(map[string]domain.VariantResults, len(exp.Variants)),
	}

	for name := range exp.Variants {
		c := byVariant[name]
		c.ExperimentID = experimentID
		c.Variant = name

		r := domain.VariantResults{VariantCounters: c}
		if c.Impressions > 0 {
			r.CTR = float64(c.Clicks) / float64(c.Impressions)
		}
		if c.Clicks > 0 {
			r.ConversionRate = float64(c.Conversions) / float64(c.Clicks)
		}
		if c.Conversions > 0 {
			r.AOV = c.Revenue / float64(c.Conversions)
		}

		results.Variants[name] = r
	}

	return results, nil
}

// Significance compares every non-control variant against the control on
// the given metric. Insufficient data is a normal result value.
func (m *Manager) Significance(ctx context.Context, experimentID, metric string) (map[string]domain.SignificanceResult, error) {
	if metric == "" {
		metric = MetricConversionRate
	}

	results, err := m.Results(ctx, experimentID)
	if err != nil {
		return nil, err
	}

	controlName := controlVariant(results.Variants)
	if controlName == "" {
		return nil, fmt.Errorf("%w: experiment %q has no variants", domain.ErrValidation, experimentID)
	}
	control := results.Variants[controlName]

	controlSuccess, controlTotal, ok := successTotal(metric, control.VariantCounters)
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrValidation, metric)
	}

	out := make(map[string]domain.SignificanceResult)
	for name, v := range results.Variants {
		if name == controlName {
			continue
		}
		success, total, _ := successTotal(metric, v.VariantCounters)
		out[name] = twoProportionTest(name, success, total, controlSuccess, controlTotal)
	}

	return out, nil
}

// ---- helpers ----

func (m *Manager) transition(ctx context.Context, experimentID, target string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	exp, err := m.expRepo.GetByID(ctx, experimentID)
	if err != nil {
		return fmt.Errorf("lookup experiment: %w", err)
	}

	if !validTransition(exp.State, target) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrState, exp.State, target)
	}

	now := time.Now()
	var startedAt, endedAt *time.Time
	if target == domain.ExperimentActive && exp.StartedAt == nil {
		startedAt = &now
	}
	if target == domain.ExperimentCompleted {
		endedAt = &now
	}

	if err := m.expRepo.UpdateState(ctx, experimentID, target, startedAt, endedAt); err != nil {
		return fmt.Errorf("update state: %w", err)
	}

	logger.Info("experiment state changed",
		"experiment_id", experimentID, "from", exp.State, "to", target)
	return nil
}

// draft -> active -> (paused <-> active) -> completed
func validTransition(from, to string) bool {
	switch from {
	case domain.ExperimentDraft:
		return to == domain.ExperimentActive
	case domain.ExperimentActive:
		return to == domain.ExperimentPaused || to == domain.ExperimentCompleted
	case domain.ExperimentPaused:
		return to == domain.ExperimentActive || to == domain.ExperimentCompleted
	}
	return false
}

func validateDefinition(exp domain.Experiment) error {
	if exp.ExperimentID == "" {
		return fmt.Errorf("%w: experiment id is required", domain.ErrValidation)
	}
	if len(exp.Variants) == 0 {
		return fmt.Errorf("%w: at least one variant is required", domain.ErrValidation)
	}

	if len(exp.TrafficSplit) != len(exp.Variants) {
		return fmt.Errorf("%w: traffic split must cover exactly the variant set", domain.ErrValidation)
	}

	sum := 0.0
	for name, share := range exp.TrafficSplit {
		if _, ok := exp.Variants[name]; !ok {
			return fmt.Errorf("%w: traffic split references unknown variant %q", domain.ErrValidation, name)
		}
		if share < 0 {
			return fmt.Errorf("%w: traffic share for %q is negative", domain.ErrValidation, name)
		}
		sum += share
	}
	if math.Abs(sum-1) > splitEpsilon {
		return fmt.Errorf("%w: traffic split sums to %.4f, expected 1", domain.ErrValidation, sum)
	}

	for name, v := range exp.Variants {
		w := v.Weights
		if w.CFWeight < 0 || w.CBWeight < 0 || w.ContextWeight < 0 || w.TrendingWeight < 0 {
			return fmt.Errorf("%w: variant %q has a negative weight", domain.ErrValidation, name)
		}
		if w.Sum() == 0 {
			return fmt.Errorf("%w: variant %q has all-zero weights", domain.ErrValidation, name)
		}
	}

	return nil
}

// controlVariant picks the designated baseline: the variant named
// "control" when present, otherwise the lexicographically first.
func controlVariant(variants map[string]domain.VariantResults) string {
	if _, ok := variants[domain.ControlVariant]; ok {
		return domain.ControlVariant
	}

	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
