package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/data/repos/testutil"
	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserRepo(db, testutil.Logger(t))
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	created, err := repo.Create(dbc, []*types.User{
		{
			ID:      uuid.New(),
			Email:   "userrepo@example.com",
			Name:    "A B",
			Process: "onboarding",
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Create: expected 1 user, got %d", len(created))
	}
	if created[0].Role != types.RoleUser {
		t.Fatalf("default role: want=%s got=%s", types.RoleUser, created[0].Role)
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Process != "onboarding" {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing): want nil,nil got=%v,%v", missing, err)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatalf("EmailExists: expected true")
	}

	if err := repo.UpdateProcess(dbc, created[0].ID, "finance"); err != nil {
		t.Fatalf("UpdateProcess: %v", err)
	}
	got, _ = repo.GetByID(dbc, created[0].ID)
	if got.Process != "finance" {
		t.Fatalf("UpdateProcess: want=finance got=%s", got.Process)
	}

	up, err := repo.UpsertByEmail(dbc, &types.User{
		Email:   created[0].Email,
		Name:    "Renamed",
		Process: "audit",
		Role:    types.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("UpsertByEmail: %v", err)
	}
	if up.ID != created[0].ID || up.Name != "Renamed" || up.Role != types.RoleAdmin {
		t.Fatalf("UpsertByEmail should update existing row, got=%+v", up)
	}
}
