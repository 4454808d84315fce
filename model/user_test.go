package model

import (
	"testing"

	"github.com/rephrase-labs/rephrase_api/shared"
)

func TestHasActiveSubscription(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status string
		want   bool
	}{
		{shared.SubscriptionActive, true},
		{shared.SubscriptionInactive, false},
		{"canceled", false},
		{"", false},
	}

	for _, tc := range cases {
		u := &User{SubscriptionStatus: tc.status}
		if got := u.HasActiveSubscription(); got != tc.want {
			t.Fatalf("status %q: expected %v, got %v", tc.status, tc.want, got)
		}
	}
}
