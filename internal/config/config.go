// Package config loads the ouvidoria configuration from a YAML file overlaid
// with OUVIDORIA_* environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/ouvidoria/pkg/report"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. The variable name is the
// upper-cased key path joined by underscores, e.g. OUVIDORIA_STORE_REDIS_ADDR.
const EnvPrefix = "OUVIDORIA"

// Transports.
const (
	TransportConsole = "console"
	TransportSlack   = "slack"
	TransportDiscord = "discord"
	TransportHTTP    = "http"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQL    = "sql"
)

// Config is the top-level configuration.
type Config struct {
	LogLevel   string            `mapstructure:"log_level"`
	Transport  string            `mapstructure:"transport"`
	Store      StoreConfig       `mapstructure:"store"`
	Encryption EncryptionConfig  `mapstructure:"encryption"`
	HTTP       HTTPConfig        `mapstructure:"http"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Slack      SlackConfig       `mapstructure:"slack"`
	Discord    DiscordConfig     `mapstructure:"discord"`
	Console    ConsoleConfig     `mapstructure:"console"`
	Report     report.Letterhead `mapstructure:"report"`
	Bot        BotConfig         `mapstructure:"bot"`
	Input      InputConfig       `mapstructure:"input"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	File   FileConfig  `mapstructure:"file"`
	Redis  RedisConfig `mapstructure:"redis"`
	SQL    SQLConfig   `mapstructure:"sql"`
}

// FileConfig holds settings for the JSON file store.
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig holds connection settings for the Redis store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// SQLConfig holds connection settings for the SQL store.
type SQLConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// EncryptionConfig enables encryption at rest when Key is set.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SlackConfig holds Slack Socket Mode credentials.
type SlackConfig struct {
	AppToken string `mapstructure:"app_token"`
	BotToken string `mapstructure:"bot_token"`
}

// DiscordConfig holds Discord credentials.
type DiscordConfig struct {
	BotToken string `mapstructure:"bot_token"`
}

// ConsoleConfig configures the local chat.
type ConsoleConfig struct {
	ConversantID string `mapstructure:"conversant_id"`
	Contact      string `mapstructure:"contact"`
	OutputDir    string `mapstructure:"output_dir"`
}

// BotConfig tunes message handling.
type BotConfig struct {
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

// InputConfig bounds inbound text.
type InputConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// Load reads the YAML file at path (optional when empty), applies environment
// overrides and returns a validated Config.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return Parse(data, os.LookupEnv)
}

// Parse decodes YAML bytes, overlays variables found by lookupEnv and returns
// a validated Config.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	raw, err := rawMap(&doc)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if lookupEnv != nil {
		overlayEnv(raw, lookupEnv)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// rawMap converts the document into the generic map mapstructure decodes.
// Scalars stay as their source text so values such as hex keys or ids with a
// leading zero reach string fields unchanged; weak typing converts the rest.
func rawMap(doc *yaml.Node) (map[string]interface{}, error) {
	if doc.Kind == 0 {
		return make(map[string]interface{}), nil
	}
	v := nodeValue(doc)
	if v == nil {
		return make(map[string]interface{}), nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("line %d: top level must be a mapping", doc.Line)
	}
	return m, nil
}

func nodeValue(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		items := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, nodeValue(c))
		}
		return items
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// overlayEnv sets every leaf key that has a matching environment variable.
func overlayEnv(raw map[string]interface{}, lookupEnv func(string) (string, bool)) {
	for _, path := range keyPaths(reflect.TypeOf(Config{}), nil) {
		name := EnvPrefix + "_" + strings.ToUpper(strings.Join(path, "_"))
		if v, ok := lookupEnv(name); ok {
			setPath(raw, path, v)
		}
	}
}

// keyPaths lists the mapstructure key path of every leaf field.
func keyPaths(t reflect.Type, prefix []string) [][]string {
	var paths [][]string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if tag == "" || tag == "-" {
			continue
		}
		path := append(append([]string(nil), prefix...), tag)
		if f.Type.Kind() == reflect.Struct {
			paths = append(paths, keyPaths(f.Type, path)...)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func setPath(m map[string]interface{}, path []string, v string) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// applyDefaults fills in default values.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Transport == "" {
		c.Transport = TransportConsole
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	if c.Store.File.Dir == "" {
		c.Store.File.Dir = ".ouvidoria/sessions"
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = "localhost:6379"
	}
	if c.Store.Redis.LockTTL == 0 {
		c.Store.Redis.LockTTL = 30 * time.Second
	}
	if c.Store.SQL.Driver == "" {
		c.Store.SQL.Driver = "sqlite"
	}
	if c.Store.SQL.DSN == "" && c.Store.SQL.Driver == "sqlite" {
		c.Store.SQL.DSN = "ouvidoria.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Console.OutputDir == "" {
		c.Console.OutputDir = "."
	}
	if c.Bot.SendTimeout == 0 {
		c.Bot.SendTimeout = 30 * time.Second
	}
	if len(c.Report.Addressee) == 0 {
		c.Report.Addressee = report.DefaultLetterhead.Addressee
	}
	if c.Report.ElectionNumber == "" {
		c.Report.ElectionNumber = report.DefaultLetterhead.ElectionNumber
	}
	if len(c.Report.Closing) == 0 {
		c.Report.Closing = report.DefaultLetterhead.Closing
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	switch c.Transport {
	case TransportConsole, TransportHTTP:
	case TransportSlack:
		if c.Slack.AppToken == "" {
			errs = append(errs, "slack.app_token is required for the slack transport")
		}
		if c.Slack.BotToken == "" {
			errs = append(errs, "slack.bot_token is required for the slack transport")
		}
	case TransportDiscord:
		if c.Discord.BotToken == "" {
			errs = append(errs, "discord.bot_token is required for the discord transport")
		}
	default:
		errs = append(errs, fmt.Sprintf("transport %q is not one of console, slack, discord, http", c.Transport))
	}

	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis:
	case StoreSQL:
		if c.Store.SQL.Driver != "sqlite" && c.Store.SQL.Driver != "mysql" {
			errs = append(errs, fmt.Sprintf("store.sql.driver %q is not one of sqlite, mysql", c.Store.SQL.Driver))
		}
		if c.Store.SQL.DSN == "" {
			errs = append(errs, "store.sql.dsn is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not one of memory, file, redis, sql", c.Store.Driver))
	}

	if c.Store.Redis.TTL < 0 {
		errs = append(errs, "store.redis.ttl must not be negative")
	}
	if c.Bot.SendTimeout < 0 {
		errs = append(errs, "bot.send_timeout must not be negative")
	}
	if c.Input.MaxSize < 0 {
		errs = append(errs, "input.max_size must not be negative")
	}
	if c.Encryption.Key == "" && len(c.Encryption.FallbackKeys) > 0 {
		errs = append(errs, "encryption.fallback_keys requires encryption.key")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
