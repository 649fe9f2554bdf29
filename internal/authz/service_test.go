package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceRoleWithGrantedPolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/orders/:id/status", "PATCH"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}

	allow, err := svc.EnforceRole("ops", "/api/v1/admin/orders/:id/status", "patch")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceRole("ops", "/api/v1/admin/payouts/generate", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}

	if err := svc.RevokeRolePolicy("ops", "/admin/orders/:id/status", "PATCH"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, _ = svc.EnforceRole("ops", "/admin/orders/:id/status", "PATCH")
	if allow {
		t.Fatalf("expected revoked policy to deny")
	}
}

func TestEnforceRoleRequiresRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if _, err := svc.EnforceRole("  ", "/admin/orders", "GET"); !errors.Is(err, ErrRoleRequired) {
		t.Fatalf("expected ErrRoleRequired, got %v", err)
	}
	var nilSvc *Service
	if _, err := nilSvc.Enforce("role:admin", "/admin/orders", "GET"); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/payouts/:id/pay", want: "/admin/payouts/:id/pay"},
		{in: "/admin/orders/:id/status", want: "/admin/orders/:id/status"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	// 重复执行不报错
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:readonly_auditor": true,
		"role:operations":       true,
		"role:finance":          true,
		"role:admin":            true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	cases := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{role: "operations", object: "/api/v1/admin/orders", action: "GET", want: true},
		{role: "operations", object: "/api/v1/admin/commission-rules/:id", action: "PUT", want: true},
		{role: "operations", object: "/api/v1/admin/payouts/:id/pay", action: "PATCH", want: false},
		{role: "finance", object: "/api/v1/admin/payouts/:id/pay", action: "PATCH", want: true},
		{role: "finance", object: "/api/v1/admin/commission-rules", action: "POST", want: false},
		{role: "readonly_auditor", object: "/api/v1/admin/platform-profit", action: "GET", want: true},
		{role: "readonly_auditor", object: "/api/v1/admin/admitad/sync", action: "POST", want: false},
		{role: "admin", object: "/api/v1/admin/links/:code/active", action: "PATCH", want: true},
	}
	for _, tc := range cases {
		allow, err := svc.EnforceRole(tc.role, tc.object, tc.action)
		if err != nil {
			t.Fatalf("enforce %s %s %s failed: %v", tc.role, tc.action, tc.object, err)
		}
		if allow != tc.want {
			t.Fatalf("enforce %s %s %s want %v got %v", tc.role, tc.action, tc.object, tc.want, allow)
		}
	}

	policies, err := svc.GetRolePolicies("finance")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	if len(policies) != 3 {
		t.Fatalf("finance should see own and inherited policies, got %+v", policies)
	}

	if err := svc.DeleteRole("finance"); !errors.Is(err, ErrRoleImmutable) {
		t.Fatalf("expected builtin role to be immutable, got %v", err)
	}
}

func TestDeleteCustomRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("partner_ops", "/admin/links", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.DeleteRole("partner_ops"); err != nil {
		t.Fatalf("delete role failed: %v", err)
	}
	allow, err := svc.EnforceRole("partner_ops", "/admin/links", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if allow {
		t.Fatalf("deleted role should not keep policies")
	}
}
