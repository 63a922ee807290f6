package session

import (
	"github.com/treefix50/playhead/internal/config"
	"github.com/treefix50/playhead/internal/media"
)

// resumeDecision is the outcome of the resume policy for one progress or
// stop report. MarkPlayed only ever promotes the played flag; it never
// clears it.
type resumeDecision struct {
	PositionTicks int64
	MarkPlayed    bool
	outcome       string
}

// decideResume maps a reported playback position to the position worth
// persisting, and decides whether the report counts as having finished the
// item. It is deterministic and side-effect free; the caller applies the
// result to the playback record and persists it.
//
// Thresholds are passed per call so that a configuration reload between two
// reports takes effect immediately.
func decideResume(item *media.Item, positionTicks int64, t config.ResumeThresholds) resumeDecision {
	decision := resumeDecision{outcome: "discarded"}

	if item.RuntimeTicks == nil || *item.RuntimeTicks <= 0 {
		// Without a runtime there is no partial-progress concept; count the
		// item as consumed in full.
		decision.MarkPlayed = true
		decision.outcome = "unknown_runtime"
	} else if positionTicks > 0 {
		runtime := *item.RuntimeTicks
		pctIn := float64(positionTicks) / float64(runtime) * 100

		switch {
		case pctIn < t.MinResumePct:
			// Too early to be worth resuming.
			decision.outcome = "too_early"
		case pctIn > t.MaxResumePct || positionTicks >= runtime:
			// Effectively finished.
			decision.MarkPlayed = true
			decision.outcome = "finished"
		default:
			if runtime/media.TicksPerSecond < t.MinResumeDurationSeconds {
				// Items too short to bother resuming count as fully watched.
				decision.MarkPlayed = true
				decision.outcome = "too_short"
			} else {
				decision.PositionTicks = positionTicks
				decision.outcome = "stored"
			}
		}
	}

	// Audio is never resumable; only play counts and the played flag are
	// tracked for it.
	if item.IsAudio() && decision.PositionTicks != 0 {
		decision.PositionTicks = 0
		decision.outcome = "audio"
	}

	return decision
}
