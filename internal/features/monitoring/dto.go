package monitoring

import (
	"time"

	"github.com/google/uuid"
)

type GetSecurityEventsRequest struct {
	Limit      int        `form:"limit"      json:"limit"`
	Offset     int        `form:"offset"     json:"offset"`
	Kind       string     `form:"kind"       json:"kind"`
	KeyID      *uuid.UUID `form:"keyId"      json:"keyId"`
	BeforeDate *time.Time `form:"beforeDate" json:"beforeDate"`
}

type GetSecurityEventsResponse struct {
	Events []*SecurityEvent `json:"events"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type SecurityEventSummaryResponse struct {
	Counters map[string]int64 `json:"counters"`
}
