package invite

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/harrybrwn/db"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/harrybrwn/neucore-slack/array"
)

//go:embed init.sql
var migration []byte

// ErrNotFound is returned when a character has no invite.
var ErrNotFound = errors.New("invite not found")

var columns = []string{
	"character_id",
	"character_name",
	"email",
	"email_history",
	"invited_at",
	"slack_id",
	"slack_name",
	"account_status",
}

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store reads and writes the "invite" table. Every method is a single
// statement.
type Store struct {
	db     Queryer
	flavor sqlbuilder.Flavor
}

func New(db Queryer, flavor sqlbuilder.Flavor) *Store {
	return &Store{db: db, flavor: flavor}
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, string(migration))
	if err != nil {
		return errors.WithStack(err)
	}
	if s.flavor == sqlbuilder.SQLite {
		_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode = WAL`)
	}
	return errors.WithStack(err)
}

// Get fetches the invite for one character.
func (s *Store) Get(ctx context.Context, characterID int64) (*Record, error) {
	sb := s.flavor.NewSelectBuilder()
	query, args := sb.Select(columns...).
		From("invite").
		Where(sb.Equal("character_id", characterID)).
		Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query invite")
	}
	defer rows.Close()
	var (
		rec       Record
		invitedAt int64
	)
	err = db.ScanOne(
		rows,
		&rec.CharacterID,
		&rec.CharacterName,
		&rec.Email,
		&rec.EmailHistory,
		&invitedAt,
		&rec.SlackID,
		&rec.SlackName,
		&rec.AccountStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan invite")
	}
	rec.InvitedAt = time.Unix(invitedAt, 0).UTC()
	return &rec, nil
}

// List fetches the invites of all the given characters. Characters without
// an invite are left out.
func (s *Store) List(ctx context.Context, characterIDs []int64) ([]*Record, error) {
	if len(characterIDs) == 0 {
		return []*Record{}, nil
	}
	sb := s.flavor.NewSelectBuilder()
	query, args := sb.Select(columns...).
		From("invite").
		Where(sb.In("character_id", array.Map(characterIDs, array.ToAny)...)).
		OrderBy("character_id").
		Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query invites")
	}
	defer rows.Close()
	records := make([]*Record, 0, len(characterIDs))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}

// ActiveByEmail returns the ids of the characters holding an active Slack
// account registered with the email.
func (s *Store) ActiveByEmail(ctx context.Context, email string) ([]int64, error) {
	sb := s.flavor.NewSelectBuilder()
	query, args := sb.Select("character_id").
		From("invite").
		Where(
			sb.Equal("email", email),
			sb.Equal("account_status", StatusActive),
		).
		Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query invites by email")
	}
	return scanIDs(rows)
}

// Create inserts a new invite. The Slack linkage columns start out null.
func (s *Store) Create(ctx context.Context, characterID int64, name, email string, now time.Time) error {
	ib := s.flavor.NewInsertBuilder()
	query, args := ib.InsertInto("invite").
		Cols("character_id", "character_name", "email", "invited_at").
		Values(characterID, name, email, now.Unix()).
		Build()
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to insert invite")
	}
	return nil
}

// Reinvite points an existing invite at a new email address and resets the
// invitation time. The previous address is appended to the email history and
// the Slack id is cleared so the account has to be linked again.
func (s *Store) Reinvite(ctx context.Context, prev *Record, name, email string, now time.Time) error {
	ub := s.flavor.NewUpdateBuilder()
	query, args := ub.Update("invite").
		Set(
			ub.Assign("character_name", name),
			ub.Assign("email", email),
			ub.Assign("email_history", AppendHistory(prev.EmailHistory, prev.Email)),
			ub.Assign("invited_at", now.Unix()),
			"slack_id = NULL",
		).
		Where(ub.Equal("character_id", prev.CharacterID)).
		Build()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update invite")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row db.Scanner) (*Record, error) {
	var (
		rec       Record
		invitedAt int64
	)
	err := row.Scan(
		&rec.CharacterID,
		&rec.CharacterName,
		&rec.Email,
		&rec.EmailHistory,
		&invitedAt,
		&rec.SlackID,
		&rec.SlackName,
		&rec.AccountStatus,
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rec.InvitedAt = time.Unix(invitedAt, 0).UTC()
	return &rec, nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.WithStack(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}
