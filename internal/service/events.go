package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/geocoder89/collegeevents/internal/cache"
	"github.com/geocoder89/collegeevents/internal/domain/event"
	"github.com/geocoder89/collegeevents/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const (
	cacheKeyAllEvents      = "events:list:v1:all"
	cacheKeyApprovedEvents = "events:list:v1:approved"
)

type EventService struct {
	events EventStore
	cache  cache.Store
	log    *slog.Logger
	prom   *observability.Prom
	now    func() time.Time

	// listGen is bumped on every invalidation. A list read from the store is
	// only cached if no invalidation happened while it was being read.
	listGen atomic.Uint64
}

// NewEventService wires the event workflow. c, log and prom may be nil.
func NewEventService(events EventStore, c cache.Store, log *slog.Logger, prom *observability.Prom) *EventService {
	if log == nil {
		log = observability.DiscardLogger()
	}
	return &EventService{
		events: events,
		cache:  c,
		log:    log,
		prom:   prom,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateEvent stores a new, unapproved event.
func (s *EventService) CreateEvent(ctx context.Context, req event.CreateEventRequest) (e event.Event, err error) {
	ctx, span := startSpan(ctx, "events.create")
	defer func() { endSpan(span, err) }()

	req.Title = normalizeText(req.Title)

	if err = validateStruct("invalid event", req); err != nil {
		return event.Event{}, err
	}
	if err = event.CheckTimes(req.StartTime, req.EndTime); err != nil {
		return event.Event{}, err
	}

	e = event.NewFromCreateRequest(req, s.now())

	if err = s.events.Create(ctx, e); err != nil {
		return event.Event{}, err
	}

	span.SetAttributes(attribute.String("event.id", e.ID))
	s.prom.Transition("event_created")
	s.invalidateLists(ctx)
	s.log.InfoContext(ctx, "event created", "event_id", e.ID, "created_by", e.CreatedBy)

	return e, nil
}

// GetAllEvents returns every event, approved or not, in creation order.
func (s *EventService) GetAllEvents(ctx context.Context) (events []event.Event, err error) {
	ctx, span := startSpan(ctx, "events.list_all")
	defer func() { endSpan(span, err) }()

	return s.cachedList(ctx, cacheKeyAllEvents, false)
}

// ListApprovedEvents is the public listing.
func (s *EventService) ListApprovedEvents(ctx context.Context) (events []event.Event, err error) {
	ctx, span := startSpan(ctx, "events.list_approved")
	defer func() { endSpan(span, err) }()

	return s.cachedList(ctx, cacheKeyApprovedEvents, true)
}

func (s *EventService) GetEvent(ctx context.Context, id string) (e event.Event, err error) {
	ctx, span := startSpan(ctx, "events.get", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	return s.events.GetByID(ctx, id)
}

// ApproveEvent is idempotent: approving an approved event returns it unchanged.
func (s *EventService) ApproveEvent(ctx context.Context, id string) (e event.Event, err error) {
	ctx, span := startSpan(ctx, "events.approve", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	changed := false
	e, err = s.events.Update(ctx, id, func(cur *event.Event) error {
		changed = !cur.Approved
		cur.Approve(s.now())
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}

	if changed {
		s.prom.Transition("event_approved")
		s.invalidateLists(ctx)
		s.log.InfoContext(ctx, "event approved", "event_id", e.ID)
	}

	return e, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id string, req event.UpdateEventRequest) (e event.Event, err error) {
	ctx, span := startSpan(ctx, "events.update", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	req.Title = normalizeText(req.Title)

	if err = validateStruct("invalid event", req); err != nil {
		return event.Event{}, err
	}
	if err = event.CheckTimes(req.StartTime, req.EndTime); err != nil {
		return event.Event{}, err
	}

	e, err = s.events.Update(ctx, id, func(cur *event.Event) error {
		cur.Apply(req, s.now())
		return nil
	})
	if err != nil {
		return event.Event{}, err
	}

	s.invalidateLists(ctx)
	return e, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) (err error) {
	ctx, span := startSpan(ctx, "events.delete", attribute.String("event.id", id))
	defer func() { endSpan(span, err) }()

	if err = s.events.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateLists(ctx)
	s.log.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}

// cachedList serves a list from the cache when possible. Cache failures
// degrade to a store read.
func (s *EventService) cachedList(ctx context.Context, key string, approvedOnly bool) ([]event.Event, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.prom.CacheResult(key, "error")
			s.log.WarnContext(ctx, "event list cache read failed", "key", key, "err", err)
		case ok:
			var events []event.Event
			if uerr := json.Unmarshal(raw, &events); uerr == nil {
				s.prom.CacheResult(key, "hit")
				return events, nil
			}
			s.prom.CacheResult(key, "error")
		default:
			s.prom.CacheResult(key, "miss")
		}
	}

	gen := s.listGen.Load()

	events, err := s.events.List(ctx, approvedOnly)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.storeList(ctx, key, gen, events)
	}

	return events, nil
}

// storeList caches events read at generation gen. A write that lands while
// Set is in flight is caught by the second check and the entry is dropped.
func (s *EventService) storeList(ctx context.Context, key string, gen uint64, events []event.Event) {
	if s.listGen.Load() != gen {
		s.prom.CacheResult(key, "stale")
		return
	}

	raw, err := json.Marshal(events)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.log.WarnContext(ctx, "event list cache write failed", "key", key, "err", err)
		return
	}

	if s.listGen.Load() != gen {
		s.prom.CacheResult(key, "stale")
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.WarnContext(ctx, "event list cache invalidation failed", "err", err)
		}
	}
}

func (s *EventService) invalidateLists(ctx context.Context) {
	s.listGen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyAllEvents, cacheKeyApprovedEvents); err != nil {
		s.log.WarnContext(ctx, "event list cache invalidation failed", "err", err)
	}
}
