package monitoring

import (
	"time"

	"github.com/google/uuid"
)

type SecurityEventKind string

const (
	EventRequestAllowed    SecurityEventKind = "REQUEST_ALLOWED"
	EventUnauthenticated   SecurityEventKind = "UNAUTHENTICATED"
	EventInvalidKey        SecurityEventKind = "INVALID_KEY"
	EventKeyDisabled       SecurityEventKind = "KEY_DISABLED"
	EventKeyExpired        SecurityEventKind = "KEY_EXPIRED"
	EventIPNotAllowed      SecurityEventKind = "IP_NOT_ALLOWED"
	EventInsufficientScope SecurityEventKind = "INSUFFICIENT_SCOPE"
	EventRateLimited       SecurityEventKind = "RATE_LIMITED"
	EventBackendDegraded   SecurityEventKind = "BACKEND_DEGRADED"
)

type SecurityEvent struct {
	ID        uuid.UUID         `json:"id"        gorm:"column:id"`
	Kind      SecurityEventKind `json:"kind"      gorm:"column:kind"`
	KeyID     *uuid.UUID        `json:"keyId"     gorm:"column:key_id"`
	KeyPrefix string            `json:"keyPrefix" gorm:"column:key_prefix"`
	ClientIP  string            `json:"clientIp"  gorm:"column:client_ip"`
	Method    string            `json:"method"    gorm:"column:method"`
	Path      string            `json:"path"      gorm:"column:path"`
	Detail    string            `json:"detail"    gorm:"column:detail"`
	CreatedAt time.Time         `json:"createdAt" gorm:"column:created_at"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}
