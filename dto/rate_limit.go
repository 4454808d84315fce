package dto

import "time"

type RateLimitInfo struct {
	Allowed    bool       `json:"allowed"`
	Count      int        `json:"count"`
	Remaining  int        `json:"remaining"`
	RetryAfter int        `json:"retry_after,omitempty"` // seconds until the window resets
	ResetTime  *time.Time `json:"reset_time,omitempty"`
}
