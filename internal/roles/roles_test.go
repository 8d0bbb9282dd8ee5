package roles_test

import (
	"context"
	"testing"

	"vcert/internal/roles"
	"vcert/internal/store"
	"vcert/internal/testsupport"
)

func TestResolveDefaultsToUser(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := roles.NewResolver(cfg, st)

	user, effective, err := resolver.Resolve(context.Background(), roles.Identity{TelegramID: 100, FirstName: "Ivan"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective != store.RoleUser || user.Role != store.RoleUser {
		t.Fatalf("effective=%q persisted=%q, want user/user", effective, user.Role)
	}
}

func TestAdminOverridePersistsUpgrade(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Roles.AdminIDs = []int64{100}
	st := testsupport.MustOpenStore(t, cfg)
	resolver := roles.NewResolver(cfg, st)

	_, effective, err := resolver.Resolve(context.Background(), roles.Identity{TelegramID: 100, FirstName: "Ivan"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective != store.RoleAdmin {
		t.Fatalf("effective = %q, want admin", effective)
	}
	persisted, err := st.UserByTelegramID(context.Background(), 100)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if persisted.Role != store.RoleAdmin {
		t.Fatalf("persisted role = %q, want admin", persisted.Role)
	}
}

func TestOperatorOverrideDoesNotDowngradeAdmin(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Roles.OperatorIDs = []int64{100}
	st := testsupport.MustOpenStore(t, cfg)
	resolver := roles.NewResolver(cfg, st)

	if _, err := st.UpsertUser(context.Background(), 100, "", "Ivan", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.SetRole(context.Background(), 100, store.RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	user, effective, err := resolver.Resolve(context.Background(), roles.Identity{TelegramID: 100, FirstName: "Ivan"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective != store.RoleAdmin || user.Role != store.RoleAdmin {
		t.Fatalf("effective=%q persisted=%q, want admin/admin", effective, user.Role)
	}
}

func TestAllows(t *testing.T) {
	if !roles.Allows(store.RoleAdmin, store.RoleOperator) {
		t.Fatal("admin should satisfy operator requirement")
	}
	if roles.Allows(store.RoleUser, store.RoleOperator) {
		t.Fatal("user should not satisfy operator requirement")
	}
	if !roles.Allows(store.RoleOperator, store.RoleOperator) {
		t.Fatal("operator should satisfy operator requirement")
	}
}
