package config

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.yaml.in/yaml/v3"

	"github.com/pfrederiksen/nyrr-watch/internal/storage"
	"github.com/pfrederiksen/nyrr-watch/internal/telegram"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Notification channels
const (
	ChannelTelegram = "telegram"
	ChannelDryRun   = "dryrun"
	ChannelTwitter  = "twitter"
)

const (
	// telegramHardLimit is the API's maximum message length
	telegramHardLimit = 4096
	// maxTitle keeps the header payload far below the smallest budget
	maxTitle = 64
)

// Config holds every setting of a deployment
type Config struct {
	Source   Source   `yaml:"source"`
	Table    Table    `yaml:"table"`
	Storage  Storage  `yaml:"storage"`
	Telegram Telegram `yaml:"telegram"`
	Twitter  Twitter  `yaml:"twitter"`
	Notify   Notify   `yaml:"notify"`
	Log      Log      `yaml:"log"`

	// Schedule is the cron expression used by watch
	Schedule string `yaml:"schedule" env:"SCHEDULE" env-default:"@every 30m"`
	// Timezone used when rendering capture times
	Timezone string `yaml:"timezone" env:"TIMEZONE" env-default:"America/New_York"`
}

type Source struct {
	URL     string        `yaml:"url" env:"TARGET_URL" env-default:"https://www.reddit.com/r/RunNYC/comments/1nyv8sr/nyrr_91_in_2026_faqs_megathread/"`
	Mode    string        `yaml:"mode" env:"SOURCE_MODE" env-default:"reddit"`
	Timeout time.Duration `yaml:"timeout" env:"SOURCE_TIMEOUT" env-default:"30s"`
}

type Table struct {
	Header string `yaml:"header" env:"TABLE_HEADER" env-default:"|Race|Date|Release Date|Notes|"`
}

type Storage struct {
	Driver        string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Key           string `yaml:"key" env:"STORAGE_KEY" env-default:"nyrr-races"`
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
	DataDir       string `yaml:"data_dir" env:"DATA_DIR" env-default:"~/.local/share/nyrr-watch"`

	Gist   Gist   `yaml:"gist"`
	SQLite SQLite `yaml:"sqlite"`
	Redis  Redis  `yaml:"redis"`
}

type Gist struct {
	ID    string `yaml:"id" env:"GIST_ID"`
	Token string `yaml:"token" env:"GITHUB_TOKEN"`
	File  string `yaml:"file" env:"GIST_FILE" env-default:"nyrr_races.json"`
}

type SQLite struct {
	Path        string        `yaml:"path" env:"SQLITE_PATH"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"SQLITE_BUSY_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Telegram struct {
	BotToken        string        `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID          string        `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	APIURL          string        `yaml:"api_url" env:"TELEGRAM_API_URL" env-default:"https://api.telegram.org"`
	Title           string        `yaml:"title" env:"TELEGRAM_TITLE" env-default:"NYRR UPDATE"`
	MaxMessageChars int           `yaml:"max_message_chars" env:"TELEGRAM_MAX_MESSAGE_CHARS" env-default:"4000"`
	SendInterval    time.Duration `yaml:"send_interval" env:"TELEGRAM_SEND_INTERVAL" env-default:"1s"`
}

type Twitter struct {
	APIKey       string `yaml:"api_key" env:"TWITTER_API_KEY"`
	APISecret    string `yaml:"api_secret" env:"TWITTER_API_SECRET"`
	AccessToken  string `yaml:"access_token" env:"TWITTER_ACCESS_TOKEN"`
	AccessSecret string `yaml:"access_secret" env:"TWITTER_ACCESS_SECRET"`
}

type Notify struct {
	Channels     []string `yaml:"channels" env:"NOTIFY_CHANNELS" env-separator:"," env-default:"telegram"`
	OnlyOnChange bool     `yaml:"only_on_change" env:"NOTIFY_ONLY_ON_CHANGE"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads the YAML file at path (or $CONFIG_PATH), then applies
// environment overrides and defaults. Without a file only the environment is read.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, "config file")
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}

	cfg.normalize()
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Source.Mode = strings.ToLower(strings.TrimSpace(c.Source.Mode))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))

	channels := c.Notify.Channels[:0]
	for _, ch := range c.Notify.Channels {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if ch != "" {
			channels = append(channels, ch)
		}
	}
	c.Notify.Channels = channels
}

// Validate checks enums, ranges and the credentials each selected backend needs
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case "reddit", "html", "text":
	default:
		return errors.Wrapf(ErrInvalid, "source.mode %q (want reddit, html or text)", c.Source.Mode)
	}
	if c.Source.URL == "" {
		return errors.Wrap(ErrInvalid, "source.url is required")
	}
	if c.Source.Timeout <= 0 {
		return errors.Wrap(ErrInvalid, "source.timeout must be positive")
	}

	switch c.Storage.Driver {
	case "file", "none":
	case "gist":
		if c.Storage.Gist.ID == "" || c.Storage.Gist.Token == "" {
			return errors.Wrap(ErrInvalid, "storage.gist.id and storage.gist.token are required for the gist driver")
		}
	case "sqlite", "sqlite3":
		if c.Storage.SQLite.Path == "" {
			return errors.Wrap(ErrInvalid, "storage.sqlite.path is required for the sqlite driver")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return errors.Wrap(ErrInvalid, "storage.redis.addr is required for the redis driver")
		}
	default:
		return errors.Wrapf(ErrInvalid, "storage.driver %q", c.Storage.Driver)
	}

	if len(c.Notify.Channels) == 0 {
		return errors.Wrap(ErrInvalid, "notify.channels must name at least one channel")
	}
	for _, ch := range c.Notify.Channels {
		switch ch {
		case ChannelTelegram:
			if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
				return errors.Wrap(ErrInvalid, "telegram.bot_token and telegram.chat_id are required")
			}
		case ChannelTwitter:
			t := c.Twitter
			if t.APIKey == "" || t.APISecret == "" || t.AccessToken == "" || t.AccessSecret == "" {
				return errors.Wrap(ErrInvalid, "twitter credentials are incomplete")
			}
		case ChannelDryRun:
		default:
			return errors.Wrapf(ErrInvalid, "notify channel %q", ch)
		}
	}

	if c.Telegram.MaxMessageChars < telegram.MinLimit || c.Telegram.MaxMessageChars > telegramHardLimit {
		return errors.Wrapf(ErrInvalid, "telegram.max_message_chars must be between %d and %d",
			telegram.MinLimit, telegramHardLimit)
	}
	if utf8.RuneCountInString(c.Telegram.Title) > maxTitle {
		return errors.Wrapf(ErrInvalid, "telegram.title must be at most %d characters", maxTitle)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(ErrInvalid, "timezone %q: %v", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return errors.Wrapf(ErrInvalid, "schedule %q: %v", c.Schedule, err)
	}

	return nil
}

// Location returns the configured time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StorageConfig maps the storage section onto storage.Config
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Driver:        c.Storage.Driver,
		Key:           c.Storage.Key,
		EncryptionKey: c.Storage.EncryptionKey,
		DataDir:       c.Storage.DataDir,
		GistID:        c.Storage.Gist.ID,
		GithubToken:   c.Storage.Gist.Token,
		GistFile:      c.Storage.Gist.File,
		Path:          c.Storage.SQLite.Path,
		BusyTimeout:   c.Storage.SQLite.BusyTimeout,
		RedisAddr:     c.Storage.Redis.Addr,
		RedisPassword: c.Storage.Redis.Password,
		RedisDB:       c.Storage.Redis.DB,
	}
}

// HasChannel reports whether the named notification channel is enabled
func (c *Config) HasChannel(name string) bool {
	for _, ch := range c.Notify.Channels {
		if ch == name {
			return true
		}
	}
	return false
}

const redactedValue = "********"

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redactedValue
}

// Redacted returns a copy with every secret masked
func (c Config) Redacted() Config {
	c.Storage.EncryptionKey = redact(c.Storage.EncryptionKey)
	c.Storage.Gist.Token = redact(c.Storage.Gist.Token)
	c.Storage.Redis.Password = redact(c.Storage.Redis.Password)
	c.Telegram.BotToken = redact(c.Telegram.BotToken)
	c.Twitter.APIKey = redact(c.Twitter.APIKey)
	c.Twitter.APISecret = redact(c.Twitter.APISecret)
	c.Twitter.AccessToken = redact(c.Twitter.AccessToken)
	c.Twitter.AccessSecret = redact(c.Twitter.AccessSecret)
	c.Notify.Channels = append([]string(nil), c.Notify.Channels...)
	return c
}

// YAML renders the configuration with secrets redacted
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, errors.Wrap(err, "encoding config")
	}
	return out, nil
}
