package shared

const (
	UserID    = "user_id"
	Principal = "principal"

	PlanFree  = "free"
	PlanBasic = "basic"
	PlanPro   = "pro"

	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"

	RoleUser  = "user"
	RoleAdmin = "admin"

	ModeStandard = "standard"
	ModeFluency  = "fluency"
	ModeFormal   = "formal"
	ModeAcademic = "academic"
	ModeCreative = "creative"
	ModeShorten  = "shorten"
	ModeExpand   = "expand"
)
