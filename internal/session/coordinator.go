package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/treefix50/playhead/internal/config"
	"github.com/treefix50/playhead/internal/log"
	"github.com/treefix50/playhead/internal/media"
)

// Coordinator orchestrates the playback lifecycle: it mutates session state,
// applies the resume policy, persists per-user playback records and emits
// lifecycle events.
//
// Session mutation and persistence are not transactional. A failed write is
// surfaced to the caller while the in-memory state keeps the already-applied
// report; the next successful report converges the stored record again.
type Coordinator struct {
	sessions   *Store
	data       DataStore
	thresholds config.Provider
	notifier   *Notifier
	logger     zerolog.Logger
	now        func() time.Time
}

// NewCoordinator wires a coordinator over the given collaborators.
func NewCoordinator(sessions *Store, data DataStore, thresholds config.Provider, notifier *Notifier) *Coordinator {
	return &Coordinator{
		sessions:   sessions,
		data:       data,
		thresholds: thresholds,
		notifier:   notifier,
		logger:     log.WithComponent("coordinator"),
		now:        time.Now,
	}
}

func (c *Coordinator) lookup(item *media.Item, sessionID string) (*Session, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: item is required", ErrInvalidArgument)
	}
	sess, ok := c.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return sess, nil
}

// OnPlaybackStart records that a session started playing an item. The
// user's play count is incremented immediately; non-video items also get
// their played flag set here, since only videos earn it through position
// reports.
func (c *Coordinator) OnPlaybackStart(item *media.Item, sessionID string) error {
	sess, err := c.lookup(item, sessionID)
	if err != nil {
		return err
	}

	now := c.now()
	sess.applyStart(item, now)
	playbackEventsTotal.WithLabelValues(string(EventPlaybackStart)).Inc()

	u := sess.User()
	if u != nil {
		record, err := c.data.UserItemData(u.ID, item.Key())
		if err != nil {
			return fmt.Errorf("%w: load record for item %s: %v", ErrPersistence, item.ID, err)
		}
		record.PlayCount++
		record.LastPlayedAt = now
		if !item.IsVideo() {
			record.Played = true
		}
		if err := c.data.SaveUserItemData(u.ID, item.Key(), record); err != nil {
			return fmt.Errorf("%w: save record for item %s: %v", ErrPersistence, item.ID, err)
		}
	}

	c.logger.Info().
		Str("session_id", sess.ID).
		Str("item_id", item.ID).
		Str("kind", string(item.Kind)).
		Msg("playback started")

	c.notifier.Notify(Event{
		Type:      EventPlaybackStart,
		Item:      item,
		User:      u,
		SessionID: sess.ID,
	})
	return nil
}

// OnPlaybackProgress records a progress report. Reports without a position
// only refresh session state; reports with one run the resume policy and
// persist the outcome.
func (c *Coordinator) OnPlaybackProgress(item *media.Item, positionTicks *int64, isPaused, isMuted bool, sessionID string) error {
	if positionTicks != nil && *positionTicks < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidArgument, *positionTicks)
	}
	sess, err := c.lookup(item, sessionID)
	if err != nil {
		return err
	}

	now := c.now()
	sess.applyProgress(item, positionTicks, isPaused, isMuted, now)
	playbackEventsTotal.WithLabelValues(string(EventPlaybackProgress)).Inc()

	u := sess.User()
	if u != nil && positionTicks != nil {
		if err := c.applyResume(u.ID, item, *positionTicks); err != nil {
			return err
		}
	}

	c.notifier.Notify(Event{
		Type:          EventPlaybackProgress,
		Item:          item,
		User:          u,
		PositionTicks: positionTicks,
		SessionID:     sess.ID,
	})
	return nil
}

// OnPlaybackStopped records that a session stopped playing an item. Without
// a reported position the client could not measure progress, so the item is
// conservatively counted as played in full.
func (c *Coordinator) OnPlaybackStopped(item *media.Item, positionTicks *int64, sessionID string) error {
	if positionTicks != nil && *positionTicks < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidArgument, *positionTicks)
	}
	sess, err := c.lookup(item, sessionID)
	if err != nil {
		return err
	}

	now := c.now()
	sess.applyStopped(item, now)
	playbackEventsTotal.WithLabelValues(string(EventPlaybackStopped)).Inc()

	u := sess.User()
	if u != nil {
		if positionTicks != nil {
			if err := c.applyResume(u.ID, item, *positionTicks); err != nil {
				return err
			}
		} else {
			record, err := c.data.UserItemData(u.ID, item.Key())
			if err != nil {
				return fmt.Errorf("%w: load record for item %s: %v", ErrPersistence, item.ID, err)
			}
			record.PlayCount++
			record.Played = true
			record.PositionTicks = 0
			if err := c.data.SaveUserItemData(u.ID, item.Key(), record); err != nil {
				return fmt.Errorf("%w: save record for item %s: %v", ErrPersistence, item.ID, err)
			}
			resumeDecisionsTotal.WithLabelValues("assumed_finished").Inc()
		}
	}

	c.logger.Info().
		Str("session_id", sess.ID).
		Str("item_id", item.ID).
		Msg("playback stopped")

	c.notifier.Notify(Event{
		Type:          EventPlaybackStopped,
		Item:          item,
		User:          u,
		PositionTicks: positionTicks,
		SessionID:     sess.ID,
	})
	return nil
}

// applyResume runs the resume policy for one report and persists the
// resulting record.
func (c *Coordinator) applyResume(userID string, item *media.Item, positionTicks int64) error {
	record, err := c.data.UserItemData(userID, item.Key())
	if err != nil {
		return fmt.Errorf("%w: load record for item %s: %v", ErrPersistence, item.ID, err)
	}

	decision := decideResume(item, positionTicks, c.thresholds.ResumeThresholds())
	record.PositionTicks = decision.PositionTicks
	if decision.MarkPlayed {
		record.Played = true
	}
	resumeDecisionsTotal.WithLabelValues(decision.outcome).Inc()

	if err := c.data.SaveUserItemData(userID, item.Key(), record); err != nil {
		return fmt.Errorf("%w: save record for item %s: %v", ErrPersistence, item.ID, err)
	}
	return nil
}

// Subscribe registers a subscriber for playback lifecycle events.
func (c *Coordinator) Subscribe(sub Subscriber) {
	c.notifier.Subscribe(sub)
}

// ListSessions returns a recency-ordered snapshot of all sessions.
func (c *Coordinator) ListSessions() []Info {
	return c.sessions.List()
}
