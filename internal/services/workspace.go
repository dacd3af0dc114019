package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/contentpilot/contentpilot-backend/internal/data/repos"
	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/platform/apierr"
	"github.com/contentpilot/contentpilot-backend/internal/platform/gcp"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/platform/redis"
	"github.com/contentpilot/contentpilot-backend/internal/state"
)

type Phase string

const (
	PhaseConfig     Phase = "config"
	PhaseGenerating Phase = "generating"
	PhaseReady      Phase = "ready"
)

const (
	EventOnboarded        = "workspace.onboarded"
	EventOnboardingFailed = "workspace.onboarding_failed"
	EventBrandUpdated     = "brand.updated"
	EventPersonaUpdated   = "brand.persona_updated"
	EventItemReviewed     = "plan_item.reviewed"
	EventItemScheduled    = "plan_item.scheduled"
	EventItemUpdated      = "plan_item.updated"
	EventAssetAppended    = "asset.appended"
	EventTrendsRefreshed  = "trends.refreshed"
)

const (
	onboardingFailedMessage = "Content generation failed. Adjust the brand configuration and try again."
	trendScanFailedMessage  = "Trend scan failed. Try again later."
)

// Workspace is a point-in-time view of one user's application state.
type Workspace struct {
	UserID string                 `json:"userId"`
	Phase  Phase                  `json:"phase"`
	Brand  *domain.BrandInfo      `json:"brand,omitempty"`
	State  domain.GenerationState `json:"state"`
}

type Upload struct {
	Filename    string
	ContentType string
	Tags        []string
	Body        io.Reader
}

type WorkspaceService interface {
	Get(ctx context.Context, userID string) (Workspace, error)
	Onboard(ctx context.Context, userID string, brand domain.BrandInfo, initialAssets []domain.Asset) (Workspace, error)
	UpdateBrand(ctx context.Context, userID string, brand domain.BrandInfo) (Workspace, error)
	UpdatePersona(ctx context.Context, userID string, persona domain.BrandPersona) (Workspace, error)
	ReviewItem(ctx context.Context, userID string, day int, status domain.Status, feedback *string) (domain.ContentPlanItem, error)
	ScheduleItem(ctx context.Context, userID string, day int, timestamp int64) (domain.ContentPlanItem, error)
	UpdatePlanItem(ctx context.Context, userID string, day int, patch state.PlanItemPatch) (domain.ContentPlanItem, error)
	ListAssets(ctx context.Context, userID string) ([]domain.Asset, error)
	AppendAsset(ctx context.Context, userID string, asset domain.Asset) (domain.Asset, error)
	UploadAsset(ctx context.Context, userID string, upload Upload) (domain.Asset, error)
	RefreshTrends(ctx context.Context, userID string) ([]domain.Trend, error)
	Close()
}

type WorkspaceDeps struct {
	Orchestrator Orchestrator
	Trends       TrendScanner
	Snapshots    repos.WorkspaceSnapshotRepo
	Events       redis.EventBus
	Bucket       gcp.AssetBucket
	ReadyDelay   time.Duration
	Now          func() time.Time
}

type workspace struct {
	mu         sync.Mutex
	brand      *domain.BrandInfo
	phase      Phase
	store      *state.Store
	generation int
	running    bool
	readyTimer *time.Timer
}

type workspaceService struct {
	log        *logger.Logger
	orch       Orchestrator
	trends     TrendScanner
	snapshots  repos.WorkspaceSnapshotRepo
	events     redis.EventBus
	bucket     gcp.AssetBucket
	readyDelay time.Duration
	now        func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspace
}

func NewWorkspaceService(log *logger.Logger, deps WorkspaceDeps) WorkspaceService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &workspaceService{
		log:        log.With("service", "WorkspaceService"),
		orch:       deps.Orchestrator,
		trends:     deps.Trends,
		snapshots:  deps.Snapshots,
		events:     deps.Events,
		bucket:     deps.Bucket,
		readyDelay: deps.ReadyDelay,
		now:        now,
		workspaces: map[string]*workspace{},
	}
}

func (s *workspaceService) Get(ctx context.Context, userID string) (Workspace, error) {
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.view(userID), nil
}

func (s *workspaceService) Onboard(ctx context.Context, userID string, brand domain.BrandInfo, initialAssets []domain.Asset) (Workspace, error) {
	if s.orch == nil {
		return Workspace{}, apierr.New(http.StatusServiceUnavailable, "generation_disabled", errors.New("content generation is not configured"))
	}
	ws := s.workspace(ctx, userID)

	ws.mu.Lock()
	if ws.running {
		ws.mu.Unlock()
		return Workspace{}, apierr.Conflict("onboarding_in_progress", errors.New("an onboarding run is already in progress"))
	}
	if ws.readyTimer != nil {
		ws.readyTimer.Stop()
		ws.readyTimer = nil
	}
	prevPhase := ws.phase
	ws.phase = PhaseGenerating
	ws.running = true
	ws.generation++
	gen := ws.generation
	ws.mu.Unlock()

	assets := make([]domain.Asset, len(initialAssets))
	for i, a := range initialAssets {
		assets[i] = s.fillAsset(a, domain.SourceUpload)
	}

	res, err := s.orch.Onboard(ctx, userID, ws.store, brand, assets)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.running = false
	if res.Brand.Name != "" {
		b := res.Brand
		ws.brand = &b
	}
	if ae, ok := apierr.From(err); ok {
		// Rejected before any generation started.
		ws.phase = prevPhase
		return Workspace{}, ae
	}
	if err != nil {
		ws.phase = PhaseConfig
		ws.store.SetError(onboardingFailedMessage)
		s.persistLocked(ctx, userID, ws)
		s.publish(ctx, redis.Event{Type: EventOnboardingFailed, UserID: userID})
		s.log.Warn("Onboarding failed", "user_id", userID, "error", err)
		return Workspace{}, apierr.New(http.StatusBadGateway, "onboarding_failed", errors.New(onboardingFailedMessage))
	}

	s.scheduleReady(userID, ws, gen)
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: EventOnboarded, UserID: userID, Data: map[string]any{"planItems": len(res.State.Plan)}})
	return ws.view(userID), nil
}

// scheduleReady moves a finished onboarding to the ready phase after the
// display delay. A newer onboarding run invalidates the pending timer.
func (s *workspaceService) scheduleReady(userID string, ws *workspace, gen int) {
	if s.readyDelay <= 0 {
		ws.phase = PhaseReady
		return
	}
	ws.readyTimer = time.AfterFunc(s.readyDelay, func() {
		ws.mu.Lock()
		defer ws.mu.Unlock()
		if ws.readyTimer != nil && ws.generation == gen && ws.phase == PhaseGenerating {
			ws.phase = PhaseReady
			ws.readyTimer = nil
			s.persistLocked(context.Background(), userID, ws)
		}
	})
}

func (s *workspaceService) UpdateBrand(ctx context.Context, userID string, brand domain.BrandInfo) (Workspace, error) {
	if err := brand.Validate(); err != nil {
		return Workspace{}, apierr.BadRequest("invalid_brand", err)
	}
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	b := brand.Clone()
	ws.brand = &b
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: EventBrandUpdated, UserID: userID})
	return ws.view(userID), nil
}

func (s *workspaceService) UpdatePersona(ctx context.Context, userID string, persona domain.BrandPersona) (Workspace, error) {
	if strings.TrimSpace(persona.Name) == "" {
		return Workspace{}, apierr.BadRequest("invalid_persona", errors.New("persona name is required"))
	}
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.brand == nil {
		return Workspace{}, errBrandNotConfigured
	}
	b := ws.brand.Clone()
	b.Persona = &persona
	ws.brand = &b
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: EventPersonaUpdated, UserID: userID})
	return ws.view(userID), nil
}

func (s *workspaceService) ReviewItem(ctx context.Context, userID string, day int, status domain.Status, feedback *string) (domain.ContentPlanItem, error) {
	return s.mutateItem(ctx, userID, day, EventItemReviewed, func(st *state.Store) (domain.ContentPlanItem, error) {
		return st.ReviewItem(day, status, feedback)
	})
}

func (s *workspaceService) ScheduleItem(ctx context.Context, userID string, day int, timestamp int64) (domain.ContentPlanItem, error) {
	if timestamp <= 0 {
		return domain.ContentPlanItem{}, apierr.BadRequest("invalid_timestamp", errors.New("scheduledAt must be a positive unix timestamp"))
	}
	return s.mutateItem(ctx, userID, day, EventItemScheduled, func(st *state.Store) (domain.ContentPlanItem, error) {
		return st.ScheduleItem(day, timestamp)
	})
}

func (s *workspaceService) UpdatePlanItem(ctx context.Context, userID string, day int, patch state.PlanItemPatch) (domain.ContentPlanItem, error) {
	return s.mutateItem(ctx, userID, day, EventItemUpdated, func(st *state.Store) (domain.ContentPlanItem, error) {
		return st.UpdatePlanItem(day, patch)
	})
}

func (s *workspaceService) mutateItem(ctx context.Context, userID string, day int, eventType string, fn func(st *state.Store) (domain.ContentPlanItem, error)) (domain.ContentPlanItem, error) {
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	item, err := fn(ws.store)
	if err != nil {
		return domain.ContentPlanItem{}, mapStateError(err)
	}
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: eventType, UserID: userID, Day: day, Data: item})
	return item, nil
}

func (s *workspaceService) ListAssets(ctx context.Context, userID string) ([]domain.Asset, error) {
	ws := s.workspace(ctx, userID)
	return ws.store.Snapshot().Assets, nil
}

func (s *workspaceService) AppendAsset(ctx context.Context, userID string, asset domain.Asset) (domain.Asset, error) {
	asset = s.fillAsset(asset, domain.SourceUpload)
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if err := ws.store.AppendAsset(asset); err != nil {
		return domain.Asset{}, mapStateError(err)
	}
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: EventAssetAppended, UserID: userID, Data: asset})
	return asset, nil
}

func (s *workspaceService) UploadAsset(ctx context.Context, userID string, upload Upload) (domain.Asset, error) {
	if s.bucket == nil {
		return domain.Asset{}, apierr.New(http.StatusServiceUnavailable, "storage_disabled", errors.New("asset storage is not configured"))
	}
	assetType, ok := domain.AssetTypeForContentType(upload.ContentType)
	if !ok {
		return domain.Asset{}, apierr.BadRequest("unsupported_media_type", fmt.Errorf("unsupported content type %q", upload.ContentType))
	}
	id := uuid.NewString()
	key := path.Join("assets", userID, id+path.Ext(path.Base(upload.Filename)))
	if err := s.bucket.Upload(ctx, key, upload.ContentType, upload.Body); err != nil {
		return domain.Asset{}, fmt.Errorf("upload asset: %w", err)
	}
	return s.AppendAsset(ctx, userID, domain.Asset{
		ID:     id,
		URL:    s.bucket.PublicURL(key),
		Type:   assetType,
		Tags:   upload.Tags,
		Source: domain.SourceUpload,
	})
}

func (s *workspaceService) RefreshTrends(ctx context.Context, userID string) ([]domain.Trend, error) {
	if s.trends == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "generation_disabled", errors.New("trend scanning is not configured"))
	}
	ws := s.workspace(ctx, userID)
	ws.mu.Lock()
	if ws.brand == nil {
		ws.mu.Unlock()
		return nil, errBrandNotConfigured
	}
	industry := ws.brand.Industry
	ws.mu.Unlock()

	trends, err := s.trends.ScanTrends(ctx, industry)
	if err != nil {
		s.log.Warn("Trend scan failed", "user_id", userID, "industry", industry, "error", err)
		return nil, apierr.New(http.StatusBadGateway, "trend_scan_failed", errors.New(trendScanFailedMessage))
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.store.ReplaceTrends(trends)
	s.persistLocked(ctx, userID, ws)
	s.publish(ctx, redis.Event{Type: EventTrendsRefreshed, UserID: userID, Data: map[string]any{"count": len(trends)}})
	return ws.store.Snapshot().Trends, nil
}

func (s *workspaceService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ws := range s.workspaces {
		ws.mu.Lock()
		if ws.readyTimer != nil {
			ws.readyTimer.Stop()
			ws.readyTimer = nil
		}
		ws.mu.Unlock()
	}
}

// workspace returns the in-memory workspace for userID, restoring the last
// persisted snapshot on first access.
func (s *workspaceService) workspace(ctx context.Context, userID string) *workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.workspaces[userID]; ok {
		return ws
	}
	ws := s.restore(ctx, userID)
	s.workspaces[userID] = ws
	return ws
}

func (s *workspaceService) restore(ctx context.Context, userID string) *workspace {
	fresh := &workspace{phase: PhaseConfig, store: state.NewStore()}
	if s.snapshots == nil {
		return fresh
	}
	snap, err := s.snapshots.Get(ctx, nil, userID)
	if err != nil {
		s.log.Warn("Workspace snapshot load failed; starting empty", "user_id", userID, "error", err)
		return fresh
	}
	if snap == nil {
		return fresh
	}

	gs := domain.NewGenerationState()
	if err := json.Unmarshal(snap.State, &gs); err != nil {
		s.log.Warn("Workspace snapshot state undecodable; starting empty", "user_id", userID, "error", err)
		return fresh
	}
	store, err := state.Restore(gs)
	if err != nil {
		s.log.Warn("Workspace snapshot state invalid; starting empty", "user_id", userID, "error", err)
		return fresh
	}
	ws := &workspace{phase: Phase(snap.Phase), store: store}
	if len(snap.Brand) > 0 && string(snap.Brand) != "null" {
		var b domain.BrandInfo
		if err := json.Unmarshal(snap.Brand, &b); err != nil {
			s.log.Warn("Workspace snapshot brand undecodable", "user_id", userID, "error", err)
		} else {
			ws.brand = &b
		}
	}
	// A run interrupted by a restart never finished its fan-out.
	switch ws.phase {
	case PhaseReady:
	case PhaseGenerating:
		if len(gs.Plan) > 0 {
			ws.phase = PhaseReady
		} else {
			ws.phase = PhaseConfig
		}
	default:
		ws.phase = PhaseConfig
	}
	ws.store.SetAnalyzing(false)
	s.log.Debug("Workspace restored", "user_id", userID, "phase", ws.phase, "revision", snap.Revision)
	return ws
}

// persistLocked saves the workspace. Callers hold ws.mu so saves for one user
// are applied in mutation order. Failures are logged and swallowed.
func (s *workspaceService) persistLocked(ctx context.Context, userID string, ws *workspace) {
	if s.snapshots == nil {
		return
	}
	stateJSON, err := json.Marshal(ws.store.Snapshot())
	if err != nil {
		s.log.Warn("Workspace snapshot encode failed", "user_id", userID, "error", err)
		return
	}
	var brandJSON datatypes.JSON
	if ws.brand != nil {
		raw, err := json.Marshal(ws.brand)
		if err != nil {
			s.log.Warn("Workspace brand encode failed", "user_id", userID, "error", err)
			return
		}
		brandJSON = raw
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.snapshots.Upsert(saveCtx, nil, &domain.WorkspaceSnapshot{
		UserID: userID,
		Phase:  string(ws.phase),
		Brand:  brandJSON,
		State:  stateJSON,
	}); err != nil {
		s.log.Warn("Workspace snapshot save failed", "user_id", userID, "error", err)
	}
}

func (s *workspaceService) publish(ctx context.Context, ev redis.Event) {
	if s.events == nil {
		return
	}
	if ev.At == 0 {
		ev.At = s.now().UnixMilli()
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.events.Publish(pubCtx, ev); err != nil {
		s.log.Warn("Workspace event publish failed", "event", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

func (s *workspaceService) fillAsset(a domain.Asset, source domain.AssetSource) domain.Asset {
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if a.Source == "" {
		a.Source = source
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = s.now().UnixMilli()
	}
	return a
}

func (ws *workspace) view(userID string) Workspace {
	v := Workspace{UserID: userID, Phase: ws.phase, State: ws.store.Snapshot()}
	if ws.brand != nil {
		b := ws.brand.Clone()
		v.Brand = &b
	}
	return v
}

var errBrandNotConfigured = apierr.Conflict("brand_not_configured", errors.New("complete onboarding before using this feature"))

func mapStateError(err error) error {
	switch {
	case errors.Is(err, state.ErrItemNotFound):
		return apierr.NotFound("plan_item_not_found", err)
	case errors.Is(err, state.ErrInvalidTransition):
		return apierr.Conflict("invalid_transition", err)
	case errors.Is(err, state.ErrInvalidAsset):
		return apierr.BadRequest("invalid_asset", err)
	case errors.Is(err, state.ErrDuplicateDay):
		return apierr.Conflict("duplicate_day", err)
	}
	return err
}
