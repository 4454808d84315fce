package services

import (
	"testing"

	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

func TestVerifiedGuardPrecedesSubscriptionGuard(t *testing.T) {
	t.Parallel()

	// Unverified and without a subscription: the verification failure must
	// win, so the caller never learns subscription state before verifying.
	u := &model.User{EmailVerified: false, SubscriptionStatus: shared.SubscriptionInactive}

	err := RunGuards(u, PaidUserGuards()...)
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code != shared.CodeNotVerified {
		t.Fatalf("expected NOT_VERIFIED, got %s", appErr.Code)
	}
}

func TestSubscriptionGuardAfterVerification(t *testing.T) {
	t.Parallel()

	u := &model.User{EmailVerified: true, SubscriptionStatus: shared.SubscriptionInactive}

	err := RunGuards(u, PaidUserGuards()...)
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected typed error, got %v", err)
	}
	if appErr.Code != shared.CodeNoActiveSubscription {
		t.Fatalf("expected NO_ACTIVE_SUBSCRIPTION, got %s", appErr.Code)
	}
}

func TestGuardsPassForEligibleUser(t *testing.T) {
	t.Parallel()

	u := &model.User{EmailVerified: true, SubscriptionStatus: shared.SubscriptionActive}

	if err := RunGuards(u, PaidUserGuards()...); err != nil {
		t.Fatalf("eligible user must pass all guards, got %v", err)
	}
}

func TestRunGuardsFailsFast(t *testing.T) {
	t.Parallel()

	var secondCalled bool
	first := func(u *model.User) error { return shared.ErrNotVerified() }
	second := func(u *model.User) error {
		secondCalled = true
		return nil
	}

	_ = RunGuards(&model.User{}, first, second)
	if secondCalled {
		t.Fatal("guards after a failure must not run")
	}
}

func TestRunGuardsEmptyChain(t *testing.T) {
	t.Parallel()

	if err := RunGuards(&model.User{}); err != nil {
		t.Fatalf("empty chain must pass, got %v", err)
	}
}
