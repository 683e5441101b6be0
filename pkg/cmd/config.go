package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	cli "github.com/urfave/cli/v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by the leadflow binaries.
type Config struct {
	ServiceName  string
	DatabaseURL  string        `validate:"required"`
	EventBus     string        `validate:"omitempty,oneof=none gochannel kafka"`
	KafkaBrokers string        `validate:"required_if=EventBus kafka"`
	RedisURL     string        `validate:"omitempty,url"`
	LockTTL      time.Duration `validate:"min=0"`
	MailProvider string        `validate:"omitempty,oneof=http log"`
	MailEndpoint string        `validate:"required_if=MailProvider http,omitempty,url"`
	MailAPIKey   string
	MailFrom     string
	MailTimeout  time.Duration
	Concurrency  int           `validate:"min=1,max=100"`
	StaleAfter   time.Duration `validate:"min=0"`
	Activity     bool
	Tracing      bool
}

// Validate checks the configuration before anything is opened.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A claim younger than the longest send is never requeued.
	if c.StaleAfter != 0 && c.StaleAfter <= c.MailTimeout {
		return fmt.Errorf("%w: stale-after (%s) must be longer than mail-timeout (%s)",
			ErrInvalidConfig, c.StaleAfter, c.MailTimeout)
	}

	return nil
}

// Flags returns the flags every leadflow binary accepts.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence (postgres://... or a directory)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus for job transition events (none, gochannel, kafka)",
			Value:   "none",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for the invocation lock; empty disables locking",
			Sources: cli.EnvVars("REDIS_URL"),
		},
		&cli.DurationFlag{
			Name:    "lock-ttl",
			Usage:   "Expiry of the invocation lock",
			Value:   5 * time.Minute,
			Sources: cli.EnvVars("LOCK_TTL"),
		},
		&cli.StringFlag{
			Name:    "mail-provider",
			Usage:   "Mail transport (http, log)",
			Value:   "log",
			Sources: cli.EnvVars("MAIL_PROVIDER"),
		},
		&cli.StringFlag{
			Name:    "mail-endpoint",
			Usage:   "Send endpoint of the HTTP mail provider",
			Sources: cli.EnvVars("MAIL_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "mail-api-key",
			Usage:   "API key of the HTTP mail provider",
			Sources: cli.EnvVars("MAIL_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "mail-from",
			Usage:   "Sender used when an email node has none",
			Sources: cli.EnvVars("MAIL_FROM"),
		},
		&cli.DurationFlag{
			Name:    "mail-timeout",
			Usage:   "Timeout of one mail send",
			Value:   15 * time.Second,
			Sources: cli.EnvVars("MAIL_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Usage:   "Jobs of a batch processed at once",
			Value:   1,
			Sources: cli.EnvVars("CONCURRENCY"),
		},
		&cli.DurationFlag{
			Name:    "stale-after",
			Usage:   "Return jobs stuck in processing for longer than this to pending; 0 disables",
			Value:   15 * time.Minute,
			Sources: cli.EnvVars("STALE_AFTER"),
		},
		&cli.BoolFlag{
			Name:    "activity",
			Usage:   "Write the activity log",
			Value:   true,
			Sources: cli.EnvVars("ACTIVITY_ENABLED"),
		},
		&cli.BoolFlag{
			Name:    "otel",
			Usage:   "Export traces over OTLP/HTTP",
			Sources: cli.EnvVars("OTEL_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// ConfigFromCommand reads the flags declared by Flags.
func ConfigFromCommand(serviceName string, command *cli.Command) Config {
	return Config{
		ServiceName:  serviceName,
		DatabaseURL:  command.String("database-url"),
		EventBus:     command.String("event-bus"),
		KafkaBrokers: command.String("kafka-brokers"),
		RedisURL:     command.String("redis-url"),
		LockTTL:      command.Duration("lock-ttl"),
		MailProvider: command.String("mail-provider"),
		MailEndpoint: command.String("mail-endpoint"),
		MailAPIKey:   command.String("mail-api-key"),
		MailFrom:     command.String("mail-from"),
		MailTimeout:  command.Duration("mail-timeout"),
		Concurrency:  command.Int("concurrency"),
		StaleAfter:   command.Duration("stale-after"),
		Activity:     command.Bool("activity"),
		Tracing:      command.Bool("otel"),
	}
}
