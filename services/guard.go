package services

import (
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

// PrincipalGuard is one stage of the account-state chain. A guard either
// accepts the principal unchanged or terminates the chain with a typed
// failure. Guards hold no state and perform no I/O.
type PrincipalGuard func(u *model.User) error

// RunGuards applies guards strictly left to right, failing fast. Ordering is
// part of the contract: an unverified user must never learn their
// subscription state, so VerifiedGuard always precedes
// ActiveSubscriptionGuard.
func RunGuards(u *model.User, guards ...PrincipalGuard) error {
	for _, guard := range guards {
		if err := guard(u); err != nil {
			return err
		}
	}
	return nil
}

func VerifiedGuard(u *model.User) error {
	if !u.EmailVerified {
		return shared.ErrNotVerified()
	}
	return nil
}

func ActiveSubscriptionGuard(u *model.User) error {
	if !u.HasActiveSubscription() {
		return shared.ErrNoActiveSubscription()
	}
	return nil
}

// PaidUserGuards is the canonical chain for paid endpoints.
func PaidUserGuards() []PrincipalGuard {
	return []PrincipalGuard{VerifiedGuard, ActiveSubscriptionGuard}
}
