package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
)

var (
	ErrItemNotFound      = errors.New("plan item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateDay      = errors.New("duplicate plan day")
	ErrInvalidAsset      = errors.New("invalid asset")
)

// Aggregate is one successful onboarding result, applied by Commit as a unit.
type Aggregate struct {
	Plan     []domain.ContentPlanItem
	Trends   []domain.Trend
	Strategy *domain.BrandStrategy
	Assets   []domain.Asset
}

// PlanItemPatch carries the fields updatePlanItem merges into an item.
// Nil fields are left untouched. Day cannot be patched.
type PlanItemPatch struct {
	Title           *string                  `json:"title,omitempty"`
	Description     *string                  `json:"description,omitempty"`
	ContentType     *domain.ContentType      `json:"contentType,omitempty"`
	ContentPillar   *domain.ContentPillar    `json:"contentPillar,omitempty"`
	VisualHook      *string                  `json:"visualHook,omitempty"`
	Script          *string                  `json:"script,omitempty"`
	Prompt          *string                  `json:"prompt,omitempty"`
	Caption         *string                  `json:"caption,omitempty"`
	Hashtags        []string                 `json:"hashtags,omitempty"`
	Platform        *domain.Platform         `json:"platform,omitempty"`
	Status          *domain.Status           `json:"status,omitempty"`
	AssetURL        *string                  `json:"assetUrl,omitempty"`
	AudioURL        *string                  `json:"audioUrl,omitempty"`
	Performance     *domain.Performance      `json:"performance,omitempty"`
	Reasoning       *string                  `json:"reasoning,omitempty"`
	ClientFeedback  *string                  `json:"clientFeedback,omitempty"`
	GeoTarget       *string                  `json:"geoTarget,omitempty"`
	ProxyNode       *string                  `json:"proxyNode,omitempty"`
	PredictionScore *float64                 `json:"predictionScore,omitempty"`
	AltText         *string                  `json:"altText,omitempty"`
	Variants        []domain.PlatformVariant `json:"variants,omitempty"`
	AudioLevels     *domain.AudioLevels      `json:"audioLevels,omitempty"`
	Metrics         *domain.Metrics          `json:"metrics,omitempty"`
}

// Store owns a GenerationState. All mutations take the single write lock, so
// two mutations on the same day never interleave.
type Store struct {
	mu    sync.RWMutex
	state domain.GenerationState
	index map[int]int
}

func NewStore() *Store {
	return &Store{state: domain.NewGenerationState(), index: map[int]int{}}
}

// Restore builds a store from a persisted snapshot.
func Restore(gs domain.GenerationState) (*Store, error) {
	idx, err := indexPlan(gs.Plan)
	if err != nil {
		return nil, err
	}
	gs = gs.Clone()
	return &Store{state: gs, index: idx}, nil
}

func indexPlan(plan []domain.ContentPlanItem) (map[int]int, error) {
	idx := make(map[int]int, len(plan))
	for i, it := range plan {
		if _, dup := idx[it.Day]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateDay, it.Day)
		}
		idx[it.Day] = i
	}
	return idx, nil
}

func (s *Store) Snapshot() domain.GenerationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Commit replaces plan, trends and strategy with agg and appends agg.Assets to
// the existing assets. Nothing changes if agg.Plan repeats a day.
func (s *Store) Commit(agg Aggregate) (domain.GenerationState, error) {
	idx, err := indexPlan(agg.Plan)
	if err != nil {
		return domain.GenerationState{}, err
	}
	for _, a := range agg.Assets {
		if err := a.Validate(); err != nil {
			return domain.GenerationState{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		}
	}

	plan := make([]domain.ContentPlanItem, len(agg.Plan))
	for i, it := range agg.Plan {
		plan[i] = it.Clone()
	}
	trends := make([]domain.Trend, len(agg.Trends))
	for i, t := range agg.Trends {
		trends[i] = t.Clone()
	}
	var strategy *domain.BrandStrategy
	if agg.Strategy != nil {
		st := agg.Strategy.Clone()
		strategy = &st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Plan = plan
	s.state.Trends = trends
	s.state.Strategy = strategy
	for _, a := range agg.Assets {
		s.state.Assets = append(s.state.Assets, a.Clone())
	}
	s.state.Error = ""
	s.state.Progress = 100
	s.index = idx
	return s.state.Clone(), nil
}

func (s *Store) ReviewItem(day int, status domain.Status, feedback *string) (domain.ContentPlanItem, error) {
	if status != domain.StatusCompleted && status != domain.StatusRejected {
		return domain.ContentPlanItem{}, fmt.Errorf("%w: review must be %s or %s", ErrInvalidTransition, domain.StatusCompleted, domain.StatusRejected)
	}
	return s.mutate(day, func(it *domain.ContentPlanItem) error {
		if !domain.CanTransition(it.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.Status, status)
		}
		it.Status = status
		if feedback != nil {
			it.ClientFeedback = *feedback
		}
		return nil
	})
}

func (s *Store) ScheduleItem(day int, timestamp int64) (domain.ContentPlanItem, error) {
	return s.mutate(day, func(it *domain.ContentPlanItem) error {
		if !domain.CanTransition(it.Status, domain.StatusScheduled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.Status, domain.StatusScheduled)
		}
		it.Status = domain.StatusScheduled
		ts := timestamp
		it.ScheduledAt = &ts
		return nil
	})
}

func (s *Store) UpdatePlanItem(day int, patch PlanItemPatch) (domain.ContentPlanItem, error) {
	return s.mutate(day, func(it *domain.ContentPlanItem) error {
		if patch.Status != nil && *patch.Status != it.Status {
			if !domain.CanTransition(it.Status, *patch.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, it.Status, *patch.Status)
			}
		}
		applyPatch(it, patch)
		return nil
	})
}

func (s *Store) AppendAsset(a domain.Asset) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Assets = append(s.state.Assets, a.Clone())
	return nil
}

func (s *Store) ReplaceTrends(trends []domain.Trend) {
	out := make([]domain.Trend, len(trends))
	for i, t := range trends {
		out[i] = t.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Trends = out
}

// SetAnalyzing toggles the in-flight flag. Starting a run resets progress;
// only a successful Commit brings it to 100.
func (s *Store) SetAnalyzing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsAnalyzing = v
	if v {
		s.state.Progress = 0
	}
}

func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
}

// mutate applies fn to a copy of the item keyed by day and stores it only if fn succeeds.
func (s *Store) mutate(day int, fn func(it *domain.ContentPlanItem) error) (domain.ContentPlanItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[day]
	if !ok {
		return domain.ContentPlanItem{}, fmt.Errorf("%w: day %d", ErrItemNotFound, day)
	}
	next := s.state.Plan[i].Clone()
	if err := fn(&next); err != nil {
		return domain.ContentPlanItem{}, err
	}
	s.state.Plan[i] = next
	return next.Clone(), nil
}

func applyPatch(it *domain.ContentPlanItem, p PlanItemPatch) {
	setString(&it.Title, p.Title)
	setString(&it.Description, p.Description)
	if p.ContentType != nil {
		it.ContentType = *p.ContentType
	}
	if p.ContentPillar != nil {
		it.ContentPillar = *p.ContentPillar
	}
	setString(&it.VisualHook, p.VisualHook)
	setString(&it.Script, p.Script)
	setString(&it.Prompt, p.Prompt)
	setString(&it.Caption, p.Caption)
	if p.Hashtags != nil {
		it.Hashtags = append([]string(nil), p.Hashtags...)
	}
	if p.Platform != nil {
		it.Platform = *p.Platform
	}
	if p.Status != nil {
		it.Status = *p.Status
	}
	setString(&it.AssetURL, p.AssetURL)
	setString(&it.AudioURL, p.AudioURL)
	if p.Performance != nil {
		it.Performance = *p.Performance
	}
	setString(&it.Reasoning, p.Reasoning)
	setString(&it.ClientFeedback, p.ClientFeedback)
	setString(&it.GeoTarget, p.GeoTarget)
	setString(&it.ProxyNode, p.ProxyNode)
	if p.PredictionScore != nil {
		v := *p.PredictionScore
		it.PredictionScore = &v
	}
	setString(&it.AltText, p.AltText)
	if p.Variants != nil {
		it.Variants = append([]domain.PlatformVariant(nil), p.Variants...)
	}
	if p.AudioLevels != nil {
		v := *p.AudioLevels
		it.AudioLevels = &v
	}
	if p.Metrics != nil {
		v := *p.Metrics
		it.Metrics = &v
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
