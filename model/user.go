package model

import (
	"time"

	"github.com/rephrase-labs/rephrase_api/shared"
)

// User is the resolved principal attached to a request after token
// verification. Email and Username carry unique indexes; the password hash is
// never serialized.
type User struct {
	ID                    string `gorm:"primaryKey;type:text" json:"id"`
	Email                 string `gorm:"uniqueIndex;not null" json:"email"`
	Username              string `gorm:"uniqueIndex;not null" json:"username"`
	Password              string `gorm:"not null" json:"-"`
	Phone                 string `json:"phone,omitempty"`
	Role                  string `gorm:"not null;default:user" json:"role"`
	EmailVerified         bool   `gorm:"not null;default:false" json:"email_verified"`
	Plan                  string `gorm:"not null;default:free" json:"plan"`
	SubscriptionStatus    string `gorm:"not null;default:inactive" json:"subscription_status"`
	MonthlyCharactersUsed int64  `gorm:"not null;default:0" json:"monthly_characters_used"`
	StripeCustomerID      string `gorm:"index" json:"-"`

	LastLogin  *time.Time `json:"last_login,omitempty"`
	UsageReset time.Time  `json:"usage_reset"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (u *User) HasActiveSubscription() bool {
	return u.SubscriptionStatus == shared.SubscriptionActive
}
