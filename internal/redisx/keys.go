package redisx

import "time"

const (
	// Cached order view for GET endpoints: order:view:{order_id}
	KeyOrderView = "order:view:%s"

	// Dedup of consumed payment notifications: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderView = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
