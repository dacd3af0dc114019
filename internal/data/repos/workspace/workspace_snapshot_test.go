package workspace

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/contentpilot/contentpilot-backend/internal/data/repos/testutil"
	"github.com/contentpilot/contentpilot-backend/internal/domain"
)

func TestWorkspaceSnapshotRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewWorkspaceSnapshotRepo(db, testutil.Logger(t))
	ctx := context.Background()

	missing, err := repo.Get(ctx, nil, "user-1")
	if err != nil {
		t.Fatalf("Get(missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("Get(missing): want nil got %+v", missing)
	}

	snap := &domain.WorkspaceSnapshot{
		UserID: "user-1",
		Phase:  "ready",
		Brand:  datatypes.JSON(`{"name":"Bean There"}`),
		State:  datatypes.JSON(`{"plan":[{"day":1}]}`),
	}
	if err := repo.Upsert(ctx, nil, snap); err != nil {
		t.Fatalf("Upsert(create): %v", err)
	}

	update := &domain.WorkspaceSnapshot{
		UserID: "user-1",
		Phase:  "config",
		Brand:  datatypes.JSON(`{"name":"Bean There Roasters"}`),
		State:  datatypes.JSON(`{"plan":[]}`),
	}
	if err := repo.Upsert(ctx, nil, update); err != nil {
		t.Fatalf("Upsert(update): %v", err)
	}

	got, err := repo.Get(ctx, nil, "user-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Phase != "config" || string(got.Brand) != `{"name":"Bean There Roasters"}` {
		t.Fatalf("Get: unexpected snapshot %+v", got)
	}
	if got.Revision != 2 {
		t.Fatalf("revision: want=2 got=%d", got.Revision)
	}

	if err := repo.Delete(ctx, nil, "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gone, _ := repo.Get(ctx, nil, "user-1"); gone != nil {
		t.Fatalf("Get(after delete): want nil got %+v", gone)
	}
}

func TestWorkspaceSnapshotRepoRespectsTx(t *testing.T) {
	db := testutil.DB(t)
	repo := NewWorkspaceSnapshotRepo(db, testutil.Logger(t))
	ctx := context.Background()

	tx := db.Begin()
	if err := repo.Upsert(ctx, tx, &domain.WorkspaceSnapshot{UserID: "user-2", Phase: "ready", State: datatypes.JSON(`{}`)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := tx.Rollback().Error; err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if got, _ := repo.Get(ctx, nil, "user-2"); got != nil {
		t.Fatalf("rolled back snapshot visible: %+v", got)
	}
}
