package repos

import (
	"gorm.io/gorm"

	"github.com/contentpilot/contentpilot-backend/internal/data/repos/workspace"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

type WorkspaceSnapshotRepo = workspace.WorkspaceSnapshotRepo

type Repos struct {
	WorkspaceSnapshots WorkspaceSnapshotRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		WorkspaceSnapshots: workspace.NewWorkspaceSnapshotRepo(db, log),
	}
}
