package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	var version string
	err := db.QueryRow(`SELECT version FROM schema_migrations ORDER BY version LIMIT 1`).Scan(&version)
	if err != nil {
		t.Fatalf("querying schema_migrations: %v", err)
	}
	if version != "0001_init" {
		t.Errorf("version = %q, want 0001_init", version)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	db1.Close()

	db2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer db2.Close()

	var count int
	if err := db2.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations count = %d, want 1 (migration should not reapply)", count)
	}
}

func TestTenantRepositoryCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "a.example"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	tenant, err := repo.GetByDomain(ctx, "a.example")
	if err != nil {
		t.Fatalf("GetByDomain() error: %v", err)
	}
	if tenant == nil {
		t.Fatal("GetByDomain() returned nil, want tenant")
	}
	if tenant.DomainName != "a.example" {
		t.Errorf("DomainName = %q, want a.example", tenant.DomainName)
	}
}

func TestTenantRepositoryGetByDomainMissing(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)

	tenant, err := repo.GetByDomain(context.Background(), "nowhere.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant != nil {
		t.Errorf("expected nil tenant for missing domain, got %+v", tenant)
	}
}

func TestTenantRepositoryCreateConflict(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "a.example"); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	_, err := repo.Create(ctx, "a.example")
	if err != ErrConflict {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
}

func TestSipClientUpsertPreservesOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "a.example"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	for _, id := range []string{"1001", "1002", "1003"} {
		if _, err := repo.UpsertSipClient(ctx, "a.example", SipClient{UserID: id, Password: "p", NoAnswerTimeout: 30}); err != nil {
			t.Fatalf("UpsertSipClient(%s) error: %v", id, err)
		}
	}

	tenant, err := repo.GetByDomain(ctx, "a.example")
	if err != nil {
		t.Fatalf("GetByDomain() error: %v", err)
	}
	if len(tenant.SipClients) != 3 {
		t.Fatalf("len(SipClients) = %d, want 3", len(tenant.SipClients))
	}
	want := []string{"1001", "1002", "1003"}
	for i, c := range tenant.SipClients {
		if c.UserID != want[i] {
			t.Errorf("SipClients[%d].UserID = %q, want %q", i, c.UserID, want[i])
		}
	}
}

func TestDeleteSipClientRewritesGroupsAndDIDs(t *testing.T) {
	db := openTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()

	if _, err := repo.Create(ctx, "a.example"); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := repo.UpsertSipClient(ctx, "a.example", SipClient{UserID: "1001", Password: "p"}); err != nil {
		t.Fatalf("UpsertSipClient() error: %v", err)
	}
	if _, err := repo.UpsertGroup(ctx, "a.example", Group{
		Name: "sales", Type: GroupTypeHunt, Strategy: StrategySequential,
		Members: []GroupMember{{UserID: "1001"}},
	}); err != nil {
		t.Fatalf("UpsertGroup() error: %v", err)
	}
	if _, err := repo.UpsertDID(ctx, "a.example", DID{
		DIDNumber: "+15125551234", Active: true,
		RoutingType: RoutingExtension, RoutingTarget: "1001",
	}); err != nil {
		t.Fatalf("UpsertDID() error: %v", err)
	}

	if err := repo.DeleteSipClient(ctx, "a.example", "1001"); err != nil {
		t.Fatalf("DeleteSipClient() error: %v", err)
	}

	tenant, err := repo.GetByDomain(ctx, "a.example")
	if err != nil {
		t.Fatalf("GetByDomain() error: %v", err)
	}
	if len(tenant.SipClients) != 0 {
		t.Errorf("expected no sip clients after delete, got %d", len(tenant.SipClients))
	}
	if len(tenant.Groups[0].Members) != 0 {
		t.Errorf("expected group to have no members after client delete, got %d", len(tenant.Groups[0].Members))
	}
	if tenant.DIDs[0].RoutingType != RoutingCustom || tenant.DIDs[0].RoutingTarget != "unassigned" {
		t.Errorf("expected DID to be rewritten to unassigned custom target, got %+v", tenant.DIDs[0])
	}
}

func TestGatewayRepositoryCRUD(t *testing.T) {
	db := openTestDB(t)
	repo := NewGatewayRepository(db)
	ctx := context.Background()

	gw, err := repo.Create(ctx, Gateway{Name: "sw1", Realm: "sw1.example.com", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if gw.ID == 0 {
		t.Error("expected non-zero ID after Create()")
	}

	_, err = repo.Create(ctx, Gateway{Name: "sw1"})
	if err != ErrConflict {
		t.Fatalf("Create() duplicate error = %v, want ErrConflict", err)
	}

	got, err := repo.Get(ctx, "sw1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.Realm != "sw1.example.com" {
		t.Fatalf("Get() = %+v, want realm sw1.example.com", got)
	}

	if err := repo.Delete(ctx, "sw1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := repo.Delete(ctx, "sw1"); err != ErrNotFound {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestGatewayRepositoryListExternalOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewGatewayRepository(db)
	ctx := context.Background()

	for _, name := range []string{"sw1", "sw2", "sw3"} {
		if _, err := repo.Create(ctx, Gateway{Name: name}); err != nil {
			t.Fatalf("Create(%s) error: %v", name, err)
		}
	}

	gws, err := repo.ListExternal(ctx)
	if err != nil {
		t.Fatalf("ListExternal() error: %v", err)
	}
	want := []string{"sw1", "sw2", "sw3"}
	if len(gws) != len(want) {
		t.Fatalf("len(gws) = %d, want %d", len(gws), len(want))
	}
	for i, g := range gws {
		if g.Name != want[i] {
			t.Errorf("gws[%d].Name = %q, want %q", i, g.Name, want[i])
		}
	}
}
