package capability

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Builtin returns a registry pre-loaded with the stock specialist
// types. Role naming is independent: a worker binds any role to any of
// these by configuration.
func Builtin() *Registry {
	r := NewRegistry()

	builtins := map[string]ExecuteFunc{
		"architecture":     reviewArchitecture,
		"database":         analyzeDatabase,
		"rust-translation": planRustTranslation,
		"infrastructure":   setupInfrastructure,
		"testing":          createTestPlan,
		"security-audit":   auditSecurity,
		"api-design":       designAPI,
		"general":          generalProcessing,
	}

	for name, fn := range builtins {
		// Names are unique by construction
		_ = r.Register(name, fn)
	}
	return r
}

// ctxString reads a string value from the task context payload.
func ctxString(ctx map[string]interface{}, key, fallback string) string {
	if v, ok := ctx[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// ctxInt reads an integer value from the task context payload. JSON
// round-trips numbers as float64, so both forms are accepted.
func ctxInt(ctx map[string]interface{}, key string, fallback int) int {
	switch v := ctx[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// ctxStrings reads a list of strings from the task context payload.
func ctxStrings(ctx map[string]interface{}, key string) []string {
	v, ok := ctx[key]
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func reviewArchitecture(_ context.Context, req Request) (string, error) {
	workspace := ctxString(req.Context, "workspace_path", "commercerack-rust")
	crates := ctxInt(req.Context, "crates_count", 12)

	lines := []string{
		fmt.Sprintf("Reviewed %s Cargo workspace", workspace),
		fmt.Sprintf("Workspace structure looks good with %d planned crates", crates),
		"Recommend adding:",
		"  - crates/middleware/ for Axum middleware",
		"  - crates/auth/ for authentication logic",
		"  - crates/cache/ for Redis abstraction",
		"  - crates/models/ for shared domain models",
		"Consider workspace-level integration tests",
	}
	return strings.Join(lines, "\n"), nil
}

func analyzeDatabase(_ context.Context, req Request) (string, error) {
	remaining := ctxInt(req.Context, "remaining_tables", 130)

	lines := []string{
		fmt.Sprintf("Analyzed remaining %d tables", remaining),
		"Priority tables for next migration (002_*.sql):",
		"  1. EBAY_* tables (eBay integration, ~9 tables)",
		"  2. SUPPLIER_* tables (supplier management, ~6 tables)",
		"  3. SHIPPING_* tables (shipping config, ~8 tables)",
		"  4. GOOGLE_* tables (Google Shopping, ~2 tables)",
		"  5. WAREHOUSE_* tables (WMS, ~3 tables)",
		"Recommend batching migrations by business domain",
		"All migrations should follow 001_*.sql pattern:",
		"   - Convert ENUMs",
		"   - Fix zero datetimes",
		"   - Add triggers for ON UPDATE",
	}
	return strings.Join(lines, "\n"), nil
}

func planRustTranslation(_ context.Context, req Request) (string, error) {
	source := ctxString(req.Context, "source_file", "")
	target := ctxString(req.Context, "target_crate", "")
	loc := ctxInt(req.Context, "lines_of_code", 0)

	lines := []string{
		fmt.Sprintf("Rust translation plan for %s (%d LOC)", filepath.Base(source), loc),
		fmt.Sprintf("   Target: %s", target),
		"",
		"Translation strategy:",
		"  1. Define domain models (Customer struct)",
		"  2. Implement database queries with SQLx",
		"  3. Add business logic methods",
		"  4. Create error types",
		"  5. Write unit tests",
		"",
		"Key patterns:",
		"  - Perl tie hash -> Rust Index/IndexMut traits",
		"  - DBI queries -> SQLx compile-time checked",
		"  - YAML serialization -> serde_yaml",
		"  - Package globals -> Arc<RwLock<T>>",
		"",
		fmt.Sprintf("Estimated: %d hours for complete translation", loc/50),
	}
	return strings.Join(lines, "\n"), nil
}

func setupInfrastructure(_ context.Context, req Request) (string, error) {
	terraformPath := ctxString(req.Context, "terraform_path", "infra/k0s")

	lines := []string{
		fmt.Sprintf("DevOps setup for %s", terraformPath),
		"",
		"Infrastructure deployment steps:",
		"  1. Install OpenTofu: brew install opentofu",
		"  2. Initialize: tofu init",
		"  3. Plan: tofu plan",
		"  4. Apply: tofu apply",
		"",
		"k0s cluster setup:",
		"  - Single-node controller with worker enabled",
		"  - Exposes ports: 6443 (API), 8080 (dashboard)",
		"  - Persistent volumes: /var/lib/k0s, /etc/k0s",
		"",
		"Supporting services:",
		"  - PostgreSQL 16 (port 5432)",
		"  - Redis 7 (port 6379)",
		"  - CommerceRack API (port 8000)",
		"",
		"Post-deployment:",
		"  kubectl --kubeconfig /var/lib/k0s/pki/admin.conf get nodes",
	}
	return strings.Join(lines, "\n"), nil
}

func createTestPlan(_ context.Context, req Request) (string, error) {
	testPath := ctxString(req.Context, "test_path", "tests")
	framework := ctxString(req.Context, "framework", "cargo test")
	coverage := ctxInt(req.Context, "coverage_target", 80)

	lines := []string{
		fmt.Sprintf("Test suite creation for %s", testPath),
		fmt.Sprintf("   Framework: %s", framework),
		fmt.Sprintf("   Coverage target: %d%%", coverage),
		"",
		"Test categories:",
		"  1. Unit tests (per module)",
		"     - DatabaseRouter connection pooling",
		"     - Model serialization/deserialization",
		"     - Error handling",
		"  2. Integration tests",
		"     - Database queries (testcontainers)",
		"     - Redis caching",
		"     - Multi-tenant isolation",
		"  3. End-to-end tests",
		"     - API endpoints",
		"     - Authentication flows",
		"",
		"Dependencies needed:",
		"  - testcontainers for Postgres",
		"  - mockall for mocking",
		"  - tarpaulin for coverage",
	}
	return strings.Join(lines, "\n"), nil
}

func auditSecurity(_ context.Context, req Request) (string, error) {
	target := ctxString(req.Context, "target", "codebase")
	focus := ctxStrings(req.Context, "focus_areas")

	lines := []string{
		fmt.Sprintf("Security audit for %s", target),
		fmt.Sprintf("   Focus areas: %s", strings.Join(focus, ", ")),
		"",
		"Findings and recommendations:",
		"  1. Password Hashing:",
		"     Use argon2 (already in Cargo.toml)",
		"     Ensure salt is randomly generated per user",
		"     Use memory-hard parameters for Argon2",
		"  2. Session Management:",
		"     Use JWT with RS256 (asymmetric)",
		"     Set short expiration times (15-30 min)",
		"     Implement refresh token rotation",
		"  3. SQL Injection:",
		"     SQLx provides compile-time query checking",
		"     Parameterized queries prevent injection",
		"  4. Additional recommendations:",
		"     - Enable CORS with strict origin checking",
		"     - Use HTTPS only in production",
		"     - Implement rate limiting per IP/user",
		"     - Add request logging for audit trails",
	}
	return strings.Join(lines, "\n"), nil
}

func designAPI(_ context.Context, req Request) (string, error) {
	endpoints := ctxStrings(req.Context, "endpoints")
	auth := ctxString(req.Context, "auth_type", "JWT")
	version := ctxString(req.Context, "api_version", "v1")

	lines := []string{
		fmt.Sprintf("API Design for /%s/", version),
		fmt.Sprintf("   Authentication: %s", auth),
		fmt.Sprintf("   Endpoints: %s", strings.Join(endpoints, ", ")),
		"",
		"API Structure:",
		fmt.Sprintf("  /%s/customers", version),
		"    GET    /            - List customers (paginated)",
		"    POST   /            - Create customer",
		"    GET    /:id         - Get customer",
		"    PUT    /:id         - Update customer",
		"    DELETE /:id         - Delete customer",
		fmt.Sprintf("  /%s/products", version),
		"    GET    /            - List products",
		"    GET    /:pid        - Get product",
		"    GET    /search      - Search products",
		fmt.Sprintf("  /%s/orders", version),
		"    GET    /            - List orders",
		"    POST   /            - Create order",
		"    GET    /:id         - Get order",
		fmt.Sprintf("  /%s/cart", version),
		"    GET    /:cart_id    - Get cart",
		"    POST   /:cart_id/items - Add item",
		"    DELETE /:cart_id/items/:item_id - Remove item",
		"",
		"Authentication:",
		"  - POST /auth/login  -> JWT token",
		"  - POST /auth/refresh -> Refresh token",
		"  - All endpoints require 'Authorization: Bearer <token>'",
	}
	return strings.Join(lines, "\n"), nil
}

func generalProcessing(_ context.Context, req Request) (string, error) {
	return fmt.Sprintf("Generic processing for role %s: %s", req.Role, req.Description), nil
}
