// Package media holds the item model shared by the session coordinator and
// its storage layer. Item resolution (scanning, classification, metadata) is
// owned by the library pipeline; this package only describes what the
// coordinator needs to know about an item.
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// TicksPerSecond is the resolution of playback positions and runtimes.
// One tick is 100 nanoseconds.
const TicksPerSecond = int64(10_000_000)

// Kind discriminates how an item is consumed. The coordinator only cares
// about audio vs. non-audio (resumability) and video vs. non-video
// (played-flag policy).
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindPhoto Kind = "photo"
)

// Item is the coordinator's view of a playable media item.
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Kind         Kind   `json:"kind"`
	RuntimeTicks *int64 `json:"runtimeTicks,omitempty"`
}

// IsAudio reports whether the item is an audio track. Audio is never
// resumable; only play counts and the played flag are tracked for it.
func (i *Item) IsAudio() bool { return i.Kind == KindAudio }

// IsVideo reports whether the item is a video.
func (i *Item) IsVideo() bool { return i.Kind == KindVideo }

// Key returns the deterministic storage key for per-user playback records
// of this item.
func (i *Item) Key() string {
	hash := sha1.Sum([]byte(i.ID))
	return hex.EncodeToString(hash[:])
}

// RuntimeSeconds converts the item runtime to whole seconds. The second
// return value is false when the runtime is unknown.
func (i *Item) RuntimeSeconds() (int64, bool) {
	if i.RuntimeTicks == nil || *i.RuntimeTicks <= 0 {
		return 0, false
	}
	return *i.RuntimeTicks / TicksPerSecond, true
}

// TicksToDuration converts a tick count to a time.Duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

// DurationToTicks converts a time.Duration to ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d / 100)
}
