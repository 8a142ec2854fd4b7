package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/harrybrwn/neucore-slack/internal/config"
	"github.com/harrybrwn/neucore-slack/internal/invite"
	"github.com/harrybrwn/neucore-slack/internal/signup"
	"github.com/harrybrwn/neucore-slack/internal/slack"
)

var HttpClient = http.DefaultClient

// Context is shared by every command. The database and the service are
// opened lazily so that commands like token work without a database.
type Context struct {
	ctx    context.Context
	logger *slog.Logger
	conf   *config.EnvConfig
	db     *sql.DB
	svc    *signup.Service
}

func newContext() *Context {
	return &Context{
		ctx:    context.Background(),
		logger: slog.Default(),
	}
}

func (cctx *Context) WithCtx(ctx context.Context) *Context {
	cctx.ctx = ctx
	return cctx
}

func (cctx *Context) init(ctx context.Context) (err error) {
	cctx.ctx = ctx
	cctx.conf, err = config.Load()
	return err
}

// service opens the database and builds the plugin service on first use.
func (cctx *Context) service() (*signup.Service, error) {
	if cctx.svc != nil {
		return cctx.svc, nil
	}
	if err := cctx.conf.Validate(); err != nil {
		return nil, err
	}
	db, flavor, err := invite.Open(cctx.conf.DBDSN, cctx.conf.DBUsername, cctx.conf.DBPassword)
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(cctx.ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	opts := []signup.Option{
		signup.WithLogger(cctx.logger),
		signup.WithInviteWait(cctx.conf.InviteWait()),
		signup.WithNotifyTimeout(cctx.conf.NotifyTimeout()),
	}
	if cctx.conf.CanNotify() {
		slackOpts := []slack.ClientOption{
			slack.WithToken(cctx.conf.Token),
			slack.WithChannel(cctx.conf.Channel),
			slack.WithHTTPClient(HttpClient),
		}
		if len(cctx.conf.UserAgent) > 0 {
			slackOpts = append(slackOpts, slack.WithUserAgent(cctx.conf.UserAgent))
		}
		opts = append(opts, signup.WithNotifier(slack.NewClient(slackOpts...)))
	} else {
		cctx.logger.Warn("slack token or channel not set, invite notifications are disabled")
	}
	cctx.db = db
	cctx.svc = signup.New(db, flavor, opts...)
	return cctx.svc, nil
}

func (cctx *Context) cleanup() error {
	if cctx.svc != nil {
		cctx.svc.Wait()
	}
	if cctx.db != nil {
		return cctx.db.Close()
	}
	return nil
}
