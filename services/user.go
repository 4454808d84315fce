package services

import (
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
)

type UserService struct {
	context.DefaultService

	sqlSvc         *PostgresService
	entitlementSvc *EntitlementService

	resetUsage func(cutoff time.Time) (int64, error)
	stopReset  chan struct{}
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.entitlementSvc = svc.Service(ENTITLEMENT_SVC).(*EntitlementService)

	svc.resetUsage = svc.sqlSvc.ResetMonthlyUsage
	svc.stopReset = make(chan struct{})

	go svc.startUsageResetScheduler()

	return nil
}

func (svc *UserService) Shutdown() {
	if svc.stopReset != nil {
		close(svc.stopReset)
	}
}

// Usage counters reset at the start of each calendar month. The scheduler
// catches up immediately at startup, so a reset missed while the process was
// down never waits for the next boundary, then re-checks hourly.
func (svc *UserService) startUsageResetScheduler() {
	svc.resetExpiredUsage()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.resetExpiredUsage()
		case <-svc.stopReset:
			return
		}
	}
}

// currentPeriodStart returns the start of the calendar month containing now.
// Accounts whose UsageReset predates it are due for a reset.
func currentPeriodStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func (svc *UserService) resetExpiredUsage() {
	count, err := svc.resetUsage(currentPeriodStart(time.Now()))
	if err != nil {
		log.WithError(err).Error("Failed to reset monthly usage counters")
		return
	}
	if count > 0 {
		log.WithField("accounts", count).Info("Monthly usage counters reset")
	}
}

func (svc *UserService) GetProfile(user *model.User) *dto.UserProfileResponse {
	resp := &dto.UserProfileResponse{
		UserInfo:              toUserInfo(user),
		MonthlyCharactersUsed: user.MonthlyCharactersUsed,
	}

	if limit, ok := svc.entitlementSvc.PlanLimit(user.Plan); ok {
		resp.PlanCharacterLimit = limit
		remaining := limit - user.MonthlyCharactersUsed
		if remaining < 0 {
			remaining = 0
		}
		resp.CharactersRemaining = remaining
	}

	return resp
}
