package sync

import (
	"time"

	"github.com/romsync/romsync-go/internal/library"
)

// Resolve turns a detected conflict into an action under the configured
// conflict mode. It is invoked only on DecisionConflict.
//
// Under newest_wins the local file's modification time is compared against
// the server's update time as UTC instants. When the gap is within the
// clock-skew tolerance the two sides are treated as simultaneous and the
// verdict is ask — guessing a winner inside the skew window risks silently
// destroying the newer save.
func Resolve(settings Settings, localMtime time.Time, server *library.Save) Resolution {
	switch settings.ConflictMode {
	case ModeAlwaysUpload:
		return ResolutionUpload
	case ModeAlwaysDownload:
		return ResolutionDownload
	case ModeAskMe:
		return ResolutionAsk
	case ModeNewestWins:
		// fall through to timestamp comparison below
	default:
		return ResolutionAsk
	}

	if server == nil || server.UpdatedAt.IsZero() {
		// Nothing to compare against; require a human decision.
		return ResolutionAsk
	}

	diff := localMtime.UTC().Sub(server.UpdatedAt.Time)

	tolerance := time.Duration(settings.ClockSkewToleranceSec) * time.Second
	if diff < 0 {
		diff = -diff
	}

	if diff <= tolerance {
		return ResolutionAsk
	}

	if localMtime.UTC().After(server.UpdatedAt.Time) {
		return ResolutionUpload
	}

	return ResolutionDownload
}
