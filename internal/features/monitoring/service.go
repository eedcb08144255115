package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

const counterKeyPrefix = "monitoring:events:"

// MonitoringService records security events emitted by the API key
// middleware. Recording is best effort: a failing database or cache
// never affects the request being monitored.
type MonitoringService struct {
	eventRepository *SecurityEventRepository
	cacheClient     valkey.Client
	logger          *slog.Logger
}

// NewMonitoringService builds a log-only sink with no persistence and an
// optional cache client. Used by tests.
func NewMonitoringService(cacheClient valkey.Client, logger *slog.Logger) *MonitoringService {
	return &MonitoringService{
		cacheClient: cacheClient,
		logger:      logger,
	}
}

func (s *MonitoringService) RecordEvent(event *SecurityEvent) {
	event.CreatedAt = time.Now().UTC()

	s.logger.Info("security event",
		"kind", event.Kind,
		"keyId", event.KeyID,
		"keyPrefix", event.KeyPrefix,
		"clientIp", event.ClientIP,
		"method", event.Method,
		"path", event.Path,
		"detail", event.Detail,
	)

	if s.eventRepository != nil {
		if err := s.eventRepository.Create(event); err != nil {
			s.logger.Error("failed to persist security event", "error", err, "kind", event.Kind)
		}
	}

	s.incrementCounter(event.Kind)
}

func (s *MonitoringService) incrementCounter(kind SecurityEventKind) {
	if s.cacheClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := s.cacheClient.Do(ctx,
		s.cacheClient.B().Incr().Key(counterKeyPrefix+string(kind)).Build(),
	).Error()
	if err != nil {
		s.logger.Warn("failed to increment security event counter", "error", err, "kind", kind)
	}
}

func (s *MonitoringService) GetEvents(request *GetSecurityEventsRequest) (*GetSecurityEventsResponse, error) {
	limit := request.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	request.Limit = limit
	request.Offset = max(request.Offset, 0)

	events, total, err := s.eventRepository.GetEvents(request)
	if err != nil {
		return nil, err
	}

	return &GetSecurityEventsResponse{
		Events: events,
		Total:  total,
		Limit:  request.Limit,
		Offset: request.Offset,
	}, nil
}

func (s *MonitoringService) GetSummary() (*SecurityEventSummaryResponse, error) {
	counters := make(map[string]int64)

	kinds := []SecurityEventKind{
		EventRequestAllowed,
		EventUnauthenticated,
		EventInvalidKey,
		EventKeyDisabled,
		EventKeyExpired,
		EventIPNotAllowed,
		EventInsufficientScope,
		EventRateLimited,
		EventBackendDegraded,
	}

	if s.cacheClient == nil {
		return &SecurityEventSummaryResponse{Counters: counters}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, kind := range kinds {
		result := s.cacheClient.Do(ctx,
			s.cacheClient.B().Get().Key(counterKeyPrefix+string(kind)).Build(),
		)

		count, err := result.AsInt64()
		if err != nil {
			if valkey.IsValkeyNil(err) {
				counters[string(kind)] = 0
				continue
			}
			return nil, err
		}

		counters[string(kind)] = count
	}

	return &SecurityEventSummaryResponse{Counters: counters}, nil
}
