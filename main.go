package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/harrybrwn/neucore-slack/internal/auth"
	"github.com/harrybrwn/neucore-slack/neucore"
)

func main() {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var (
		ctx         = newContext()
		logLevelStr string
		debug       bool
	)
	c := cobra.Command{
		Use:           "neucore-slack",
		Short:         "Neucore service plugin that sends Slack invites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) (err error) {
			if err = ctx.init(cmd.Context()); err != nil {
				return err
			}
			if len(logLevelStr) == 0 {
				logLevelStr = ctx.conf.LogLevel
			}
			var lvl slog.Level
			if err = lvl.UnmarshalText([]byte(logLevelStr)); err != nil {
				return err
			}
			if debug {
				lvl = slog.LevelDebug
			}
			l := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: lvl,
			}))
			slog.SetDefault(l)
			ctx.logger = l
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.cleanup()
		},
	}
	c.AddCommand(
		newServeCmd(ctx),
		newMigrateCmd(ctx),
		newAccountsCmd(ctx),
		newRegisterCmd(ctx),
		newSearchCmd(ctx),
		newTokenCmd(ctx),
	)
	c.PersistentFlags().StringVarP(&logLevelStr, "log-level", "l", logLevelStr, "set the log level (debug|info|warn|error)")
	c.PersistentFlags().BoolVarP(&debug, "debug", "d", debug, "turn on debug mode")
	return &c
}

func newMigrateCmd(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the invite table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := ctx.WithCtx(cmd.Context()).service()
			if err != nil {
				return err
			}
			if err = svc.Migrate(cmd.Context()); err != nil {
				return err
			}
			ctx.logger.Info("migrated invite table")
			return nil
		},
	}
}

func newAccountsCmd(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts <character-id>...",
		Short: "Show the Slack account status of characters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			characters := make([]neucore.Character, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return errors.Wrapf(err, "invalid character id %q", arg)
				}
				characters[i].ID = id
			}
			svc, err := ctx.WithCtx(cmd.Context()).service()
			if err != nil {
				return err
			}
			accounts, err := svc.GetAccounts(cmd.Context(), characters, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, accounts)
		},
	}
}

func newRegisterCmd(ctx *Context) *cobra.Command {
	var (
		character neucore.Character
		email     string
		all       []int64
	)
	c := cobra.Command{
		Use:   "register",
		Short: "Invite a character to Slack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if character.ID == 0 {
				return errors.New("--id is required")
			}
			svc, err := ctx.WithCtx(cmd.Context()).service()
			if err != nil {
				return err
			}
			data, err := svc.Register(cmd.Context(), character, nil, email, all)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
	c.Flags().Int64Var(&character.ID, "id", 0, "character id")
	c.Flags().StringVar(&character.Name, "name", "", "character name")
	c.Flags().StringVar(&email, "email", "", "email address to invite")
	c.Flags().Int64SliceVar(&all, "character-ids", nil, "ids of every character of the player")
	return &c
}

func newSearchCmd(ctx *Context) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find characters by Slack name or Slack id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.WithCtx(cmd.Context()).service()
			if err != nil {
				return err
			}
			res, err := svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newTokenCmd(ctx *Context) *cobra.Command {
	var (
		subject = "neucore"
		expires = auth.DefaultExpiry
	)
	c := cobra.Command{
		Use:   "token",
		Short: "Create a bearer token for the Neucore host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(ctx.conf.JWTSecret) == 0 {
				return errors.New("NEUCORE_PLUGIN_SLACK_JWT_SECRET is not set")
			}
			now := time.Now().UTC()
			tok, err := auth.CreateHostToken(&auth.CreateTokenOpts{
				Subject:   subject,
				JWTKey:    []byte(ctx.conf.JWTSecret),
				ExpiresIn: expires,
				Now:       &now,
			})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	c.Flags().StringVar(&subject, "subject", subject, "token subject")
	c.Flags().DurationVar(&expires, "expires", expires, "token lifetime")
	return &c
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(v))
}
