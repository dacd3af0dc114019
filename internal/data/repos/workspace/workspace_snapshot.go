package workspace

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

type WorkspaceSnapshotRepo interface {
	// Get returns (nil, nil) when the user has no snapshot yet.
	Get(ctx context.Context, tx *gorm.DB, userID string) (*domain.WorkspaceSnapshot, error)
	Upsert(ctx context.Context, tx *gorm.DB, snap *domain.WorkspaceSnapshot) error
	Delete(ctx context.Context, tx *gorm.DB, userID string) error
}

type workspaceSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceSnapshotRepo {
	repoLog := baseLog.With("repo", "WorkspaceSnapshotRepo")
	return &workspaceSnapshotRepo{db: db, log: repoLog}
}

func (r *workspaceSnapshotRepo) Get(ctx context.Context, tx *gorm.DB, userID string) (*domain.WorkspaceSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	var snap domain.WorkspaceSnapshot
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Upsert inserts snap at revision 1 or overwrites the stored row and bumps its revision.
func (r *workspaceSnapshotRepo) Upsert(ctx context.Context, tx *gorm.DB, snap *domain.WorkspaceSnapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if snap == nil || strings.TrimSpace(snap.UserID) == "" {
		return errors.New("workspace snapshot requires a user id")
	}
	if snap.Revision <= 0 {
		snap.Revision = 1
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"phase":      snap.Phase,
				"brand":      snap.Brand,
				"state":      snap.State,
				"revision":   gorm.Expr("workspace_snapshot.revision + 1"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(snap).Error
}

func (r *workspaceSnapshotRepo) Delete(ctx context.Context, tx *gorm.DB, userID string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.WorkspaceSnapshot{}).Error
}
