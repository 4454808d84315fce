package services

import (
	"testing"
	"time"
)

func TestCurrentPeriodStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{
			time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		if got := currentPeriodStart(tc.now); !got.Equal(tc.want) {
			t.Fatalf("currentPeriodStart(%v) = %v, want %v", tc.now, got, tc.want)
		}
	}
}

func TestUsageResetSchedulerCatchesUpAtStartup(t *testing.T) {
	t.Parallel()

	called := make(chan time.Time, 1)
	svc := &UserService{
		resetUsage: func(cutoff time.Time) (int64, error) {
			called <- cutoff
			return 0, nil
		},
		stopReset: make(chan struct{}),
	}
	defer close(svc.stopReset)

	go svc.startUsageResetScheduler()

	select {
	case cutoff := <-called:
		want := currentPeriodStart(time.Now())
		if !cutoff.Equal(want) {
			t.Fatalf("startup reset used cutoff %v, want %v", cutoff, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler must reset stale usage immediately at startup, not at the next boundary")
	}
}
