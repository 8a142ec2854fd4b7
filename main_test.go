package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/harrybrwn/neucore-slack/internal/auth"
	"github.com/harrybrwn/neucore-slack/neucore"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := NewRootCmd()
	c.SetOut(&out)
	c.SetErr(&logs)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	is := is.New(t)
	t.Setenv("NEUCORE_PLUGIN_SLACK_DB_DSN", "sqlite3:"+filepath.Join(t.TempDir(), "invites.db"))
	t.Setenv("NEUCORE_PLUGIN_SLACK_TOKEN", "")
	t.Setenv("NEUCORE_PLUGIN_SLACK_CHANNEL", "")

	_, err := run(t, "migrate")
	is.NoErr(err)

	out, err := run(t, "register", "--id", "90", "--name", "Ninety", "--email", " ninety@x.test ", "--character-ids", "90,91")
	is.NoErr(err)
	var data neucore.ServiceAccountData
	is.NoErr(json.Unmarshal([]byte(out), &data))
	is.Equal(data.CharacterID, int64(90))
	is.Equal(data.Email, "ninety@x.test")
	is.Equal(data.Status, neucore.StatusPending)

	_, err = run(t, "register", "--id", "90", "--name", "Ninety", "--email", "again@x.test")
	is.True(err != nil) // invite wait

	out, err = run(t, "accounts", "90", "91")
	is.NoErr(err)
	var accounts []neucore.ServiceAccountData
	is.NoErr(json.Unmarshal([]byte(out), &accounts))
	is.Equal(len(accounts), 1)
	is.Equal(accounts[0].Status, neucore.StatusPending)

	out, err = run(t, "search", "nobody")
	is.NoErr(err)
	is.Equal(strings.TrimSpace(out), "[]")

	_, err = run(t, "accounts", "abc")
	is.True(err != nil)
	_, err = run(t, "register", "--email", "a@x.test")
	is.True(err != nil)
}

func TestMissingDSN(t *testing.T) {
	is := is.New(t)
	t.Setenv("NEUCORE_PLUGIN_SLACK_DB_DSN", "")
	_, err := run(t, "migrate")
	is.True(err != nil)
}

func TestTokenCmd(t *testing.T) {
	is := is.New(t)
	t.Setenv("NEUCORE_PLUGIN_SLACK_JWT_SECRET", "")
	_, err := run(t, "token")
	is.True(err != nil)

	t.Setenv("NEUCORE_PLUGIN_SLACK_JWT_SECRET", "s3cret")
	out, err := run(t, "token", "--subject", "https://neucore.test")
	is.NoErr(err)
	opts := auth.Opts{JWTSecret: []byte("s3cret")}
	sub, err := opts.Verify(strings.TrimSpace(out))
	is.NoErr(err)
	is.Equal(sub, "https://neucore.test")
}
