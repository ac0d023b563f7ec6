package db

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	HospitalSlugKey contextKey = "hospital_slug"
	DBConnKey       contextKey = "db_conn"
)

// hospitalSlugPattern matches subdomain slugs as produced by the hospital
// provisioning service: lowercase alphanumerics separated by single hyphens.
var (
	hospitalSlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	numericLabelPattern = regexp.MustCompile(`^\d+$`)
)

// SchemaForHospital maps a subdomain slug to its Postgres schema name.
// Hyphens are not legal in unquoted identifiers, so they become underscores.
func SchemaForHospital(slug string) string {
	return "hospital_" + strings.ReplaceAll(slug, "-", "_")
}

// HospitalMiddleware resolves the hospital tenant for each request and pins a
// pooled connection to the hospital's schema via search_path. The connection
// is released when the request finishes.
func HospitalMiddleware(pool *pgxpool.Pool, defaultSlug string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slug := extractHospitalSlug(c, defaultSlug)

			if !hospitalSlugPattern.MatchString(slug) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid hospital identifier")
			}

			ctx := c.Request().Context()
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			// Deactivated hospitals fail tenant resolution. A missing row
			// passes: the dev default tenant has no registry entry.
			var active bool
			if err := conn.QueryRow(ctx,
				`SELECT active FROM shared.hospitals WHERE subdomain = $1`, slug,
			).Scan(&active); err == nil && !active {
				return echo.NewHTTPError(http.StatusForbidden, "hospital is deactivated")
			}

			_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, shared, public", SchemaForHospital(slug)))
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "hospital resolution failed")
			}

			ctx = context.WithValue(ctx, HospitalSlugKey, slug)
			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("hospital_slug", slug)
			c.Set("db", conn)

			return next(c)
		}
	}
}

func extractHospitalSlug(c echo.Context, defaultSlug string) string {
	// 1. JWT claim (set by auth middleware)
	if slug, ok := c.Get("jwt_hospital_slug").(string); ok && slug != "" {
		return slug
	}

	// 2. X-Hospital header
	if slug := c.Request().Header.Get("X-Hospital"); slug != "" {
		return slug
	}

	// 3. Subdomain of the request host (stmarys.carelink.example)
	if slug := subdomainFromHost(c.Request().Host); slug != "" {
		return slug
	}

	return defaultSlug
}

// subdomainFromHost extracts the leftmost label of a multi-label hostname.
// Bare hosts (localhost, IPs) and the www label carry no tenant information.
func subdomainFromHost(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	sub := parts[0]
	if sub == "" || sub == "www" || sub == "localhost" {
		return ""
	}
	// IPv4 hosts look multi-label but are not subdomained
	if numericLabelPattern.MatchString(sub) {
		return ""
	}
	return sub
}

// ConnFromContext retrieves the hospital-scoped database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}

// HospitalFromContext retrieves the hospital slug from context.
func HospitalFromContext(ctx context.Context) string {
	slug, _ := ctx.Value(HospitalSlugKey).(string)
	return slug
}

// CreateHospitalSchema creates the schema for a newly provisioned hospital and
// runs all migrations against it. If migrationsDir is empty, migrations are
// skipped.
func CreateHospitalSchema(ctx context.Context, pool *pgxpool.Pool, slug string, migrationsDir string) error {
	if !hospitalSlugPattern.MatchString(slug) {
		return fmt.Errorf("invalid hospital identifier: %s", slug)
	}

	schema := SchemaForHospital(slug)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}

	if migrationsDir != "" {
		migrator := NewMigrator(pool, migrationsDir)
		if _, err := migrator.Up(ctx, schema); err != nil {
			return fmt.Errorf("run migrations for %s: %w", schema, err)
		}
	}

	return nil
}
