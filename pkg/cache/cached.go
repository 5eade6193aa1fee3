package cache

import (
	"context"
	"fmt"
	"time"

	"f1visualizer/pkg/caster"
	"f1visualizer/pkg/model"
	"f1visualizer/pkg/provider"
	"f1visualizer/pkg/pubsub"

	"github.com/sirupsen/logrus"
)

const (
	kindSchedule  = "schedule"
	kindSession   = "session"
	kindTelemetry = "telemetry"

	// CurrentSeasonTTL bounds the age of the cached schedule of the current season.
	CurrentSeasonTTL = time.Hour

	// TopicStats carries the Stats published after every sync.
	TopicStats = "cache.stats"
)

// Cached is a provider.Provider that answers from the store when it can and
// records what the wrapped provider returns. Store failures are logged and the
// request goes upstream, the cache never turns a good answer into an error.
type Cached struct {
	next  provider.Provider
	store *Store
	ttl   time.Duration
	now   func() time.Time
	ps    *pubsub.PubSub[Stats]

	scheduleCaster  caster.Caster[[]model.Event]
	sessionCaster   caster.Caster[*model.Session]
	telemetryCaster caster.Caster[[]model.Sample]
}

// NewCached wraps next. A ttl of zero keeps entries forever.
func NewCached(next provider.Provider, store *Store, ttl time.Duration) *Cached {
	return &Cached{
		next:            next,
		store:           store,
		ttl:             ttl,
		now:             time.Now,
		scheduleCaster:  caster.JSONCaster[[]model.Event]{},
		sessionCaster:   caster.JSONCaster[*model.Session]{},
		telemetryCaster: caster.JSONCaster[[]model.Sample]{},
	}
}

// Notify publishes the cache stats on TopicStats after every sync.
func (c *Cached) Notify(ps *pubsub.PubSub[Stats]) {
	c.ps = ps
}

func (c *Cached) notBefore() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(-c.ttl)
}

func (c *Cached) EventSchedule(ctx context.Context, season int) ([]model.Event, error) {
	key := fmt.Sprintf("%s/%d", kindSchedule, season)
	notBefore := c.notBefore()
	if now := c.now(); season >= now.Year() {
		if t := now.Add(-CurrentSeasonTTL); t.After(notBefore) {
			notBefore = t
		}
	}
	if events, ok := lookup(c, key, notBefore, c.scheduleCaster); ok {
		return events, nil
	}
	events, err := c.next.EventSchedule(ctx, season)
	if err != nil {
		return nil, err
	}
	store(c, key, kindSchedule, events, c.scheduleCaster)
	return events, nil
}

func (c *Cached) Session(ctx context.Context, event model.Event, info model.SessionInfo) (*model.Session, error) {
	key := fmt.Sprintf("%s/%d", kindSession, info.Key)
	if s, ok := lookup(c, key, c.notBefore(), c.sessionCaster); ok && s != nil {
		return s, nil
	}
	s, err := c.next.Session(ctx, event, info)
	if err != nil {
		return nil, err
	}
	// a session still running will get more laps
	if info.End.IsZero() || info.End.Before(c.now()) {
		store(c, key, kindSession, s, c.sessionCaster)
	}
	return s, nil
}

func (c *Cached) LapTelemetry(ctx context.Context, session *model.Session, lap model.Lap) ([]model.Sample, error) {
	key := fmt.Sprintf("%s/%d/%s/%d", kindTelemetry, session.Info.Key, lap.Driver, lap.Number)
	if samples, ok := lookup(c, key, c.notBefore(), c.telemetryCaster); ok {
		return samples, nil
	}
	samples, err := c.next.LapTelemetry(ctx, session, lap)
	if err != nil {
		return nil, err
	}
	store(c, key, kindTelemetry, samples, c.telemetryCaster)
	return samples, nil
}

func lookup[T any](c *Cached, key string, notBefore time.Time, cs caster.Caster[T]) (T, bool) {
	var zero T
	payload, ok, err := c.store.Get(key, notBefore)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache read failed")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := cs.From(payload)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Ignoring unreadable cache entry")
		return zero, false
	}
	logrus.WithField("key", key).Debug("cache hit")
	return v, true
}

func store[T any](c *Cached, key, kind string, v T, cs caster.Caster[T]) {
	payload, err := cs.To(v)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Could not encode response for the cache")
		return
	}
	if err := c.store.Put(key, kind, payload); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// Sync purges expired entries now and on every tick until exitChan is closed.
func (c *Cached) Sync(ticker *time.Ticker, exitChan chan bool) {
	c.doSync(c.now())
	go func() {
		for {
			select {
			case <-exitChan:
				return
			case t := <-ticker.C:
				c.doSync(t)
			}
		}
	}()
}

func (c *Cached) doSync(t time.Time) {
	if c.ttl > 0 {
		n, err := c.store.Purge(t.Add(-c.ttl))
		if err != nil {
			logrus.WithError(err).Error("Purging the response cache")
			return
		}
		if n > 0 {
			logrus.Infof("Purged %d expired cache entries", n)
		}
	}
	stats, err := c.store.Stats()
	if err != nil {
		logrus.WithError(err).Error("Reading cache stats")
		return
	}
	logrus.Infof("Response cache: %s", stats)
	if c.ps != nil {
		c.ps.Publish(TopicStats, stats)
	}
}

func (c *Cached) Stats() (Stats, error) {
	return c.store.Stats()
}

var _ provider.Provider = (*Cached)(nil)
