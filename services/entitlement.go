package services

import (
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// EntitlementService owns the plan -> characters-per-period table. The table
// is built once during Configure and never mutated afterwards, so reads need
// no locking.
type EntitlementService struct {
	context.DefaultService

	planLimits map[string]int64
}

const ENTITLEMENT_SVC = "entitlement_svc"

func (svc EntitlementService) Id() string {
	return ENTITLEMENT_SVC
}

func (svc *EntitlementService) Configure(ctx *context.Context) error {
	svc.planLimits = map[string]int64{
		shared.PlanFree:  envInt64("PLAN_LIMIT_FREE", 1_000),
		shared.PlanBasic: envInt64("PLAN_LIMIT_BASIC", 100_000),
		shared.PlanPro:   envInt64("PLAN_LIMIT_PRO", 1_000_000),
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *EntitlementService) Start() error {
	log.WithField("plans", len(svc.planLimits)).Info("Plan limit table loaded")
	return nil
}

// PlanLimit returns the character budget for a plan tag.
func (svc *EntitlementService) PlanLimit(plan string) (int64, bool) {
	limit, ok := svc.planLimits[plan]
	return limit, ok
}

// Check verifies that the principal may consume charactersNeeded more
// characters this period. The limit is inclusive: used + needed == limit
// passes. Check never increments the usage counter; the operation that
// actually consumes quota commits usage after it succeeds, so failed work is
// never charged.
func (svc *EntitlementService) Check(u *model.User, charactersNeeded int64) error {
	limit, ok := svc.planLimits[u.Plan]
	if !ok {
		// Plan tags are validated at write time, so this is a defensive
		// path, not an expected one.
		return shared.ErrUnknownPlan(u.Plan)
	}

	if u.MonthlyCharactersUsed+charactersNeeded > limit {
		quotaRejectionsTotal.WithLabelValues(u.Plan).Inc()
		return shared.ErrQuotaExceeded()
	}

	return nil
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
