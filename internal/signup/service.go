// Package signup implements the Neucore service plugin that invites
// characters to Slack.
package signup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/harrybrwn/neucore-slack/array"
	"github.com/harrybrwn/neucore-slack/internal/invite"
	"github.com/harrybrwn/neucore-slack/neucore"
)

const (
	DefaultInviteWait    = 24 * time.Hour
	DefaultNotifyTimeout = 10 * time.Second
)

var _ neucore.Service = (*Service)(nil)

// Notifier delivers invite notifications. *slack.Client is the production
// implementation.
type Notifier interface {
	PostMessage(ctx context.Context, text string) error
}

type Service struct {
	db            *sql.DB
	flavor        sqlbuilder.Flavor
	notifier      Notifier
	logger        *slog.Logger
	wait          time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
	pending       sync.WaitGroup
}

type Option func(*Service)

func WithNotifier(n Notifier) Option           { return func(s *Service) { s.notifier = n } }
func WithLogger(l *slog.Logger) Option         { return func(s *Service) { s.logger = l } }
func WithInviteWait(d time.Duration) Option    { return func(s *Service) { s.wait = d } }
func WithNotifyTimeout(d time.Duration) Option { return func(s *Service) { s.notifyTimeout = d } }
func WithClock(now func() time.Time) Option    { return func(s *Service) { s.now = now } }

// New creates the plugin service on top of a connection pool. The pool is
// owned by the caller.
func New(db *sql.DB, flavor sqlbuilder.Flavor, opts ...Option) *Service {
	s := Service{
		db:            db,
		flavor:        flavor,
		logger:        slog.Default(),
		wait:          DefaultInviteWait,
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
	}
	for _, o := range opts {
		o(&s)
	}
	return &s
}

// Migrate creates the invite table if it does not exist.
func (s *Service) Migrate(ctx context.Context) error {
	st, release, err := s.store(ctx)
	if err != nil {
		return err
	}
	defer release()
	return st.Migrate(ctx)
}

// Wait blocks until all notifications that have been started are done.
func (s *Service) Wait() { s.pending.Wait() }

// store acquires a connection from the pool for the duration of one
// operation. The returned func releases it.
func (s *Service) store(ctx context.Context) (*invite.Store, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, s.fail(ctx, errors.WithStack(err), "failed to acquire database connection")
	}
	return invite.New(conn, s.flavor), func() { _ = conn.Close() }, nil
}

// GetAccounts reports the Slack account status of every character that has
// an invite. Characters that were never invited are left out of the result.
func (s *Service) GetAccounts(ctx context.Context, characters []neucore.Character, _ []neucore.Group) ([]neucore.ServiceAccountData, error) {
	if len(characters) == 0 {
		return []neucore.ServiceAccountData{}, nil
	}
	st, release, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	records, err := st.List(ctx, neucore.CharacterIDs(characters))
	if err != nil {
		return nil, s.fail(ctx, err, "failed to fetch invites")
	}
	now := s.now()
	return array.Map(records, func(rec *invite.Record) neucore.ServiceAccountData {
		data := neucore.ServiceAccountData{
			CharacterID: rec.CharacterID,
			Email:       rec.Email,
			Status:      Reconcile(rec, now, s.wait),
		}
		if rec.SlackName.Valid {
			data.DisplayName = rec.SlackName.String
		}
		return data
	}), nil
}

// Register invites a character to Slack, or re-invites it with a new email
// address once the wait window has passed.
func (s *Service) Register(
	ctx context.Context,
	character neucore.Character,
	_ []neucore.Group,
	email string,
	allCharacterIDs []int64,
) (*neucore.ServiceAccountData, error) {
	email = strings.TrimSpace(email)
	if len(email) == 0 {
		return nil, ErrMissingEmail
	}
	st, release, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	owners, err := st.ActiveByEmail(ctx, email)
	if err != nil {
		return nil, s.fail(ctx, err, "failed to look up email owners")
	}
	if !ownedByPlayer(owners, character.ID, allCharacterIDs) {
		s.logger.InfoContext(ctx, "email already used by another player",
			slog.Int64("character_id", character.ID))
		return nil, ErrEmailMismatch
	}

	now := s.now()
	prev, err := st.Get(ctx, character.ID)
	switch {
	case errors.Is(err, invite.ErrNotFound):
		err = st.Create(ctx, character.ID, character.Name, email, now)
	case err != nil:
		return nil, s.fail(ctx, err, "failed to fetch invite")
	case invitedWithin(prev, now, s.wait):
		return nil, ErrInviteWait
	default:
		err = st.Reinvite(ctx, prev, character.Name, email, now)
	}
	if err != nil {
		return nil, s.fail(ctx, err, "failed to save invite")
	}
	s.logger.InfoContext(ctx, "character invited",
		slog.Int64("character_id", character.ID),
		slog.Bool("reinvite", prev != nil))

	s.notify(ctx, InviteMessage(character.Name, email))
	return &neucore.ServiceAccountData{
		CharacterID: character.ID,
		Email:       email,
		Status:      neucore.StatusPending,
	}, nil
}

// ownedByPlayer reports whether every character holding an active account
// with the email belongs to the player.
func ownedByPlayer(owners []int64, characterID int64, allCharacterIDs []int64) bool {
	roster := array.Set(allCharacterIDs)
	roster[characterID] = struct{}{}
	return !array.Any(owners, func(id int64) bool {
		_, ok := roster[id]
		return !ok
	})
}

// InviteMessage is the text posted to the admin channel for a new invite.
func InviteMessage(name, email string) string {
	return fmt.Sprintf("%s <%s>", name, email)
}

// notify posts text to Slack in the background. A failed notification is
// logged and otherwise ignored: the invite is already stored.
func (s *Service) notify(ctx context.Context, text string) {
	if s.notifier == nil {
		s.logger.WarnContext(ctx, "no slack notifier configured, dropping notification")
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.PostMessage(ctx, text); err != nil {
			s.logger.WarnContext(ctx, "failed to send slack notification", slog.Any("error", err))
		}
	}()
}

// Search finds characters by Slack display name or Slack id. Only the
// character ids are filled in.
func (s *Service) Search(ctx context.Context, query string) ([]neucore.ServiceAccountData, error) {
	st, release, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	ids, err := st.Search(ctx, query)
	if err != nil {
		return nil, s.fail(ctx, err, "failed to search invites")
	}
	return array.Map(ids, func(id int64) neucore.ServiceAccountData {
		return neucore.ServiceAccountData{CharacterID: id}
	}), nil
}

func (s *Service) UpdateAccount(context.Context, neucore.Character, []neucore.Group, *neucore.Character) error {
	return ErrUnsupported
}

func (s *Service) UpdatePlayerAccount(context.Context, neucore.Character, []neucore.Group) error {
	return ErrUnsupported
}

// MoveServiceAccount is a no-op. Invites are keyed by character, so they
// follow the character to its new player.
func (s *Service) MoveServiceAccount(context.Context, int64, int64) error { return nil }

func (s *Service) ResetPassword(context.Context, int64) (string, error) {
	return "", ErrUnsupported
}

func (s *Service) GetAllAccounts(context.Context) ([]int64, error) { return nil, ErrUnsupported }

func (s *Service) GetAllPlayerAccounts(context.Context) ([]int64, error) { return nil, ErrUnsupported }
