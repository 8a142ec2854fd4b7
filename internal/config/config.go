package config

import (
	"time"

	"github.com/harrybrwn/env"
	"github.com/pkg/errors"
)

// Prefix is shared by every variable the plugin reads.
const Prefix = "neucore_plugin_slack"

const (
	DefaultInviteWaitHours      = 24
	DefaultNotifyTimeoutSeconds = 10
	DefaultPort                 = 8080
)

type EnvConfig struct {
	DBDSN      string `env:"NEUCORE_PLUGIN_SLACK_DB_DSN,noprefix"`
	DBUsername string `env:"NEUCORE_PLUGIN_SLACK_DB_USERNAME,noprefix"`
	DBPassword string `env:"NEUCORE_PLUGIN_SLACK_DB_PASSWORD,noprefix"`

	// Token is the Slack bot token used to post invite notifications to
	// Channel.
	Token     string `env:"NEUCORE_PLUGIN_SLACK_TOKEN,noprefix"`
	Channel   string `env:"NEUCORE_PLUGIN_SLACK_CHANNEL,noprefix"`
	UserAgent string `env:"NEUCORE_PLUGIN_SLACK_USER_AGENT,noprefix"`

	// InviteWaitHours is the minimum time between two invites for the same
	// character. Invites younger than this are reported as pending.
	InviteWaitHours      int `env:"NEUCORE_PLUGIN_SLACK_INVITE_WAIT_HOURS,noprefix"`
	NotifyTimeoutSeconds int `env:"NEUCORE_PLUGIN_SLACK_NOTIFY_TIMEOUT_SECONDS,noprefix"`

	Port      uint16 `env:"NEUCORE_PLUGIN_SLACK_PORT,noprefix"`
	JWTSecret string `env:"NEUCORE_PLUGIN_SLACK_JWT_SECRET,noprefix"`
	LogLevel  string `env:"LOG_LEVEL,noprefix"`
}

// Load reads the configuration from the environment and fills in defaults.
// It does not validate.
func Load() (*EnvConfig, error) {
	var c EnvConfig
	if err := env.ReadEnvPrefixed(Prefix, &c); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}
	c.InitDefaults()
	return &c, nil
}

func (c *EnvConfig) InitDefaults() {
	if c.InviteWaitHours == 0 {
		c.InviteWaitHours = DefaultInviteWaitHours
	}
	if c.NotifyTimeoutSeconds == 0 {
		c.NotifyTimeoutSeconds = DefaultNotifyTimeoutSeconds
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	d(&c.LogLevel, "info")
}

func (c *EnvConfig) Validate() error {
	if len(c.DBDSN) == 0 {
		return errors.New("NEUCORE_PLUGIN_SLACK_DB_DSN is required")
	}
	if c.InviteWaitHours < 0 {
		return errors.New("NEUCORE_PLUGIN_SLACK_INVITE_WAIT_HOURS cannot be negative")
	}
	if c.NotifyTimeoutSeconds < 0 {
		return errors.New("NEUCORE_PLUGIN_SLACK_NOTIFY_TIMEOUT_SECONDS cannot be negative")
	}
	return nil
}

// CanNotify reports whether enough is configured to post to Slack.
func (c *EnvConfig) CanNotify() bool {
	return len(c.Token) > 0 && len(c.Channel) > 0
}

func (c *EnvConfig) InviteWait() time.Duration {
	return time.Duration(c.InviteWaitHours) * time.Hour
}

func (c *EnvConfig) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutSeconds) * time.Second
}

func d(v *string, deflt string) {
	if v == nil {
		return
	}
	if len(*v) == 0 {
		*v = deflt
	}
}
