package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/apierr"
	"github.com/contentpilot/contentpilot-backend/internal/platform/background"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/state"
)

var ErrOnboardingFailed = errors.New("onboarding failed")

type PlanGenerator interface {
	GeneratePlan(ctx context.Context, brand domain.BrandInfo) ([]domain.ContentPlanItem, error)
}

type TrendScanner interface {
	ScanTrends(ctx context.Context, industry string) ([]domain.Trend, error)
}

type CompetitorResearcher interface {
	ResearchCompetitors(ctx context.Context, brand domain.BrandInfo) (domain.BrandStrategy, error)
}

type PersonaGenerator interface {
	GeneratePersona(ctx context.Context, brand domain.BrandInfo) (domain.BrandPersona, error)
}

type MemorySyncer interface {
	SyncMemory(ctx context.Context, userID string, memory domain.BrandMemory) error
}

// OnboardResult carries the brand as enriched during onboarding. Brand is set
// even when err is non-nil so callers can keep a generated persona.
type OnboardResult struct {
	Brand domain.BrandInfo
	State domain.GenerationState
}

type Orchestrator interface {
	Onboard(ctx context.Context, userID string, store *state.Store, brand domain.BrandInfo, initialAssets []domain.Asset) (OnboardResult, error)
}

type OrchestratorDeps struct {
	Plans    PlanGenerator
	Trends   TrendScanner
	Research CompetitorResearcher
	Personas PersonaGenerator
	Memory   MemorySyncer
	Runner   *background.Runner
	Metrics  *observability.Metrics
}

type orchestrator struct {
	log      *logger.Logger
	plans    PlanGenerator
	trends   TrendScanner
	research CompetitorResearcher
	personas PersonaGenerator
	memory   MemorySyncer
	runner   *background.Runner
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

func NewOrchestrator(log *logger.Logger, deps OrchestratorDeps) (Orchestrator, error) {
	if deps.Plans == nil || deps.Trends == nil || deps.Research == nil {
		return nil, fmt.Errorf("orchestrator: plan, trend and research collaborators are required")
	}
	return &orchestrator{
		log:      log.With("service", "Orchestrator"),
		plans:    deps.Plans,
		trends:   deps.Trends,
		research: deps.Research,
		personas: deps.Personas,
		memory:   deps.Memory,
		runner:   deps.Runner,
		metrics:  deps.Metrics,
		tracer:   observability.Tracer(),
	}, nil
}

func (o *orchestrator) Onboard(ctx context.Context, userID string, store *state.Store, brand domain.BrandInfo, initialAssets []domain.Asset) (OnboardResult, error) {
	if err := brand.Validate(); err != nil {
		return OnboardResult{}, apierr.BadRequest("invalid_brand", err)
	}
	for _, a := range initialAssets {
		if err := a.Validate(); err != nil {
			return OnboardResult{}, apierr.BadRequest("invalid_asset", err)
		}
	}

	ctx, span := o.tracer.Start(ctx, "orchestrator.onboard", trace.WithAttributes(
		attribute.String("brand.industry", brand.Industry),
		attribute.Int("assets.initial", len(initialAssets)),
	))
	defer span.End()
	start := time.Now()

	brand = brand.Clone()
	if brand.Persona == nil && o.personas != nil {
		persona, err := o.generatePersona(ctx, brand)
		if err != nil {
			o.log.Warn("Persona generation failed; continuing without persona", "brand", brand.Name, "error", err)
		} else {
			brand.Persona = &persona
		}
	}

	if !brand.Memory.Empty() {
		o.dispatchMemorySync(userID, *brand.Memory)
	}

	store.SetAnalyzing(true)
	agg, err := o.fanOut(ctx, brand)
	store.SetAnalyzing(false)
	if err == nil {
		agg.Assets = initialAssets
		var gs domain.GenerationState
		gs, err = store.Commit(agg)
		if err == nil {
			o.metrics.ObserveOnboarding(nil, time.Since(start))
			o.log.Info("Onboarding complete",
				"brand", brand.Name,
				"plan_items", len(gs.Plan),
				"trends", len(gs.Trends),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return OnboardResult{Brand: brand, State: gs}, nil
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "onboarding failed")
	o.metrics.ObserveOnboarding(err, time.Since(start))
	o.log.Warn("Onboarding failed; plan left unchanged", "brand", brand.Name, "error", err)
	return OnboardResult{Brand: brand, State: store.Snapshot()}, fmt.Errorf("%w: %w", ErrOnboardingFailed, err)
}

// fanOut runs the three required collaborators concurrently. The first error
// cancels the shared context; Wait still joins every goroutine.
func (o *orchestrator) fanOut(ctx context.Context, brand domain.BrandInfo) (state.Aggregate, error) {
	var (
		plan     []domain.ContentPlanItem
		trends   []domain.Trend
		strategy domain.BrandStrategy
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.traced(gctx, "orchestrator.generate_plan", func(ctx context.Context) (err error) {
			plan, err = o.plans.GeneratePlan(ctx, brand)
			if err != nil {
				return fmt.Errorf("generate plan: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return o.traced(gctx, "orchestrator.scan_trends", func(ctx context.Context) (err error) {
			trends, err = o.trends.ScanTrends(ctx, brand.Industry)
			if err != nil {
				return fmt.Errorf("scan trends: %w", err)
			}
			return nil
		})
	})
	g.Go(func() error {
		return o.traced(gctx, "orchestrator.research_competitors", func(ctx context.Context) (err error) {
			strategy, err = o.research.ResearchCompetitors(ctx, brand)
			if err != nil {
				return fmt.Errorf("research competitors: %w", err)
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return state.Aggregate{}, err
	}

	for i := range plan {
		plan[i].Status = domain.StatusPending
	}
	return state.Aggregate{Plan: plan, Trends: trends, Strategy: &strategy}, nil
}

func (o *orchestrator) generatePersona(ctx context.Context, brand domain.BrandInfo) (persona domain.BrandPersona, err error) {
	err = o.traced(ctx, "orchestrator.generate_persona", func(ctx context.Context) error {
		persona, err = o.personas.GeneratePersona(ctx, brand)
		return err
	})
	return persona, err
}

func (o *orchestrator) dispatchMemorySync(userID string, memory domain.BrandMemory) {
	if o.memory == nil || o.runner == nil {
		o.log.Debug("Memory sync skipped; no syncer configured")
		return
	}
	o.runner.Go("memory_sync", func(ctx context.Context) error {
		return o.memory.SyncMemory(ctx, userID, memory)
	})
}

func (o *orchestrator) traced(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
