package invite

import (
	"database/sql"
	"strings"
	"time"
)

// Values of the "account_status" column. The column is maintained by the
// process that links invites to Slack accounts, never by this package.
const (
	StatusActive         = "Active"
	StatusTerminated     = "Terminated"
	StatusPendingRemoval = "Pending Removal"
)

// Record represents a row in the "invite" table.
type Record struct {
	CharacterID   int64
	CharacterName string
	Email         string
	EmailHistory  string
	InvitedAt     time.Time
	SlackID       sql.NullString
	SlackName     sql.NullString
	AccountStatus sql.NullString
}

// Linked reports whether the invite has been matched to a Slack account.
func (r *Record) Linked() bool { return r.SlackID.Valid }

// HasStatus reports whether account_status is set to one of the given values.
func (r *Record) HasStatus(statuses ...string) bool {
	if !r.AccountStatus.Valid {
		return false
	}
	for _, s := range statuses {
		if r.AccountStatus.String == s {
			return true
		}
	}
	return false
}

// AppendHistory returns the email history with the given address added to
// the end.
func AppendHistory(history, email string) string {
	if len(email) == 0 {
		return history
	}
	if len(strings.TrimSpace(history)) == 0 {
		return email
	}
	return history + ", " + email
}

// History splits the email history into its addresses, oldest first.
func (r *Record) History() []string {
	res := make([]string, 0)
	for _, e := range strings.Split(r.EmailHistory, ",") {
		e = strings.TrimSpace(e)
		if len(e) > 0 {
			res = append(res, e)
		}
	}
	return res
}
