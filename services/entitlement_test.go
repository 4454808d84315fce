package services

import (
	"testing"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

func newTestEntitlements() *EntitlementService {
	return &EntitlementService{
		planLimits: map[string]int64{
			shared.PlanFree:  100,
			shared.PlanBasic: 100_000,
			shared.PlanPro:   1_000_000,
		},
	}
}

func TestEntitlementWithinLimit(t *testing.T) {
	t.Parallel()

	svc := newTestEntitlements()
	u := &model.User{Plan: shared.PlanFree, MonthlyCharactersUsed: 90}

	if err := svc.Check(u, 10); err != nil {
		t.Fatalf("used 90 + needed 10 must pass a limit of 100, got %v", err)
	}
}

func TestEntitlementExceedsLimit(t *testing.T) {
	t.Parallel()

	svc := newTestEntitlements()
	u := &model.User{Plan: shared.PlanFree, MonthlyCharactersUsed: 90}

	err := svc.Check(u, 11)
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code != shared.CodeQuotaExceeded {
		t.Fatalf("expected QUOTA_EXCEEDED, got %s", appErr.Code)
	}
}

func TestEntitlementCheckDoesNotConsume(t *testing.T) {
	t.Parallel()

	svc := newTestEntitlements()
	u := &model.User{Plan: shared.PlanFree, MonthlyCharactersUsed: 90}

	for i := 0; i < 5; i++ {
		if err := svc.Check(u, 10); err != nil {
			t.Fatalf("check %d: a pure check must not consume quota, got %v", i, err)
		}
	}
	if u.MonthlyCharactersUsed != 90 {
		t.Fatalf("usage must be unchanged by checks, got %d", u.MonthlyCharactersUsed)
	}
}

func TestEntitlementUnknownPlan(t *testing.T) {
	t.Parallel()

	svc := newTestEntitlements()
	u := &model.User{Plan: "enterprise", MonthlyCharactersUsed: 0}

	err := svc.Check(u, 1)
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code != shared.CodeUnknownPlan {
		t.Fatalf("expected UNKNOWN_PLAN, got %s", appErr.Code)
	}
}

func TestPlanLimitLookup(t *testing.T) {
	t.Parallel()

	svc := newTestEntitlements()

	if limit, ok := svc.PlanLimit(shared.PlanBasic); !ok || limit != 100_000 {
		t.Fatalf("expected basic limit 100000, got %d (ok=%v)", limit, ok)
	}
	if _, ok := svc.PlanLimit("enterprise"); ok {
		t.Fatal("unknown plan must not resolve a limit")
	}
}
