package signup

import (
	"time"

	"github.com/harrybrwn/neucore-slack/internal/invite"
	"github.com/harrybrwn/neucore-slack/neucore"
)

// Reconcile computes the account status reported to the host for an invite.
//
// A linked account that is active (or about to be removed) is always active,
// even if it was re-invited recently. Otherwise a recent invite is pending,
// and a linked account that was terminated is deactivated.
func Reconcile(rec *invite.Record, now time.Time, wait time.Duration) neucore.AccountStatus {
	switch {
	case rec.Linked() && rec.HasStatus(invite.StatusActive, invite.StatusPendingRemoval):
		return neucore.StatusActive
	case invitedWithin(rec, now, wait):
		return neucore.StatusPending
	case rec.Linked() && rec.HasStatus(invite.StatusTerminated):
		return neucore.StatusDeactivated
	default:
		return neucore.StatusUnknown
	}
}

func invitedWithin(rec *invite.Record, now time.Time, wait time.Duration) bool {
	return rec.InvitedAt.After(now.Add(-wait))
}
