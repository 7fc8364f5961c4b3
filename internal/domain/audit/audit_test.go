package audit

import (
	"testing"
	"time"
)

func TestBuildQueryNumbersPlaceholders(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildQuery("SELECT COUNT(1)", "t1", Filter{Action: "leave.approve", ActorUser: "u1", From: &from})
	want := "SELECT COUNT(1) FROM audit_events WHERE tenant_id = $1 AND action = $2 AND actor_user_id::text = $3 AND created_at >= $4"
	if query != want {
		t.Fatalf("unexpected query:\n%s", query)
	}
	if len(args) != 4 || args[0] != "t1" || args[2] != "u1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildQueryWithoutFilters(t *testing.T) {
	query, args := buildQuery("SELECT id", "t1", Filter{})
	if query != "SELECT id FROM audit_events WHERE tenant_id = $1" || len(args) != 1 {
		t.Fatalf("unexpected query %q args %v", query, args)
	}
}
