package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/carelink/internal/domain/patient"
	"github.com/carelink/carelink/internal/platform/db"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool         *pgxpool.Pool
	ConnStr      string
	TenantMigDir string
	SharedMigDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr, cleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "create pool: %v\n", err)
		os.Exit(1)
	}

	tenantDir, sharedDir := findMigrationDirs()
	globalDB = &testDB{
		Pool:         pool,
		ConnStr:      connStr,
		TenantMigDir: tenantDir,
		SharedMigDir: sharedDir,
	}

	if err := applySharedMigrations(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "apply shared migrations: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationDirs locates the migration directories relative to this test file.
func findMigrationDirs() (tenant, shared string) {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(filename), "..", "..")
	return filepath.Join(root, "migrations", "tenant"), filepath.Join(root, "migrations", "shared")
}

// applySharedMigrations creates the shared schema and runs its migrations.
func applySharedMigrations(ctx context.Context) error {
	if _, err := globalDB.Pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS shared"); err != nil {
		return err
	}
	_, err := db.NewMigrator(globalDB.Pool, globalDB.SharedMigDir).Up(ctx, "shared")
	return err
}

// createHospitalSchema provisions a tenant schema and runs all tenant migrations.
func createHospitalSchema(t *testing.T, ctx context.Context, slug string) {
	t.Helper()
	if err := db.CreateHospitalSchema(ctx, globalDB.Pool, slug, globalDB.TenantMigDir); err != nil {
		t.Fatalf("create hospital schema %s: %v", slug, err)
	}
}

// dropHospitalSchema drops a tenant schema for cleanup.
func dropHospitalSchema(t *testing.T, ctx context.Context, slug string) {
	t.Helper()
	schema := db.SchemaForHospital(slug)
	if _, err := globalDB.Pool.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
		t.Logf("warning: failed to drop schema %s: %v", schema, err)
	}
}

// withHospitalConn acquires a connection, pins it to the hospital's schema,
// and passes it to the callback the same way HospitalMiddleware does.
func withHospitalConn(ctx context.Context, slug string, fn func(ctx context.Context) error) error {
	conn, err := globalDB.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	schema := db.SchemaForHospital(slug)
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", schema)); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	ctx = context.WithValue(ctx, db.HospitalSlugKey, slug)
	ctx = context.WithValue(ctx, db.DBConnKey, conn)
	return fn(ctx)
}

// uniqueSlug generates a unique hospital slug for test isolation.
func uniqueSlug(prefix string) string {
	short := strings.ReplaceAll(uuid.New().String()[:8], "-", "")
	return fmt.Sprintf("%s-%s", prefix, short)
}

// createTestPatient inserts a patient into the hospital's schema via the repo.
func createTestPatient(t *testing.T, ctx context.Context, slug, firstName, lastName, mrn string) *patient.Patient {
	t.Helper()
	var result *patient.Patient
	err := withHospitalConn(ctx, slug, func(ctx context.Context) error {
		repo := patient.NewRepoPG(globalDB.Pool)
		p := &patient.Patient{
			MRN:         mrn,
			FirstName:   firstName,
			LastName:    lastName,
			DateOfBirth: time.Date(1992, 3, 14, 0, 0, 0, 0, time.UTC),
			Gender:      "female",
		}
		if err := repo.Create(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		t.Fatalf("create test patient: %v", err)
	}
	return result
}

// ptrStr returns a pointer to the given string.
func ptrStr(s string) *string { return &s }

// ptrInt returns a pointer to the given int.
func ptrInt(i int) *int { return &i }
