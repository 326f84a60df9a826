package common

import "time"

const (
	IdentityCacheTTL     = 10 * time.Minute
	IdentityCacheName    = "identity"
	AutoBanWindow        = 24 * time.Hour
	RecentActivityWindow = time.Hour
	SystemAddedBy        = "system"

	TraceIDHeader = "X-Trace-Id"
)
