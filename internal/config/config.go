package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/PabloGalante/justiceconnect/internal/domain"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
)

const envPrefix = "JC"

type Config struct {
	Mode Mode `mapstructure:"mode"`

	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Groq       GroqConfig       `mapstructure:"groq"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Vertex     VertexConfig     `mapstructure:"vertex"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Firestore  FirestoreConfig  `mapstructure:"firestore"`
	Identity   IdentityConfig   `mapstructure:"identity"`
	Supabase   SupabaseConfig   `mapstructure:"supabase"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Client     ClientConfig     `mapstructure:"client"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	BasePath        string        `mapstructure:"base_path"`
	ServiceName     string        `mapstructure:"service_name"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // groq, openrouter, gemini, mock
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GroqConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type OpenRouterConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type VertexConfig struct {
	Project  string `mapstructure:"project"`
	Location string `mapstructure:"location"`
}

type StorageConfig struct {
	Backend    string `mapstructure:"backend"` // memory, sqlite, firestore
	SQLitePath string `mapstructure:"sqlite_path"`
}

type FirestoreConfig struct {
	Project    string `mapstructure:"project"`
	Collection string `mapstructure:"collection"`
}

type IdentityConfig struct {
	Provider string `mapstructure:"provider"` // memory, supabase
}

type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
	AnonKey        string `mapstructure:"anon_key"`
	JWTSecret      string `mapstructure:"jwt_secret"`
}

type ChatConfig struct {
	VerifyOwner bool `mapstructure:"verify_owner"`
}

// ClientConfig is read by the terminal client.
type ClientConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Well-known variable names accepted next to the JC_ prefixed ones.
var aliases = map[string]string{
	"server.port":               "PORT",
	"groq.api_key":              "GROQ_API_KEY",
	"openrouter.api_key":        "OPENROUTER_API_KEY",
	"gemini.api_key":            "GEMINI_API_KEY",
	"supabase.url":              "SUPABASE_URL",
	"supabase.service_role_key": "SUPABASE_SERVICE_ROLE_KEY",
	"supabase.anon_key":         "SUPABASE_ANON_KEY",
	"supabase.jwt_secret":       "SUPABASE_JWT_SECRET",
}

// Load reads .env, an optional config file and the environment, in
// increasing order of precedence. path may be empty.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for key, alias := range aliases {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), alias); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	setModeDefaults(v, Mode(strings.ToLower(v.GetString("mode"))))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.base_path", "/make-server-a76efa1a")
	v.SetDefault("server.service_name", "JusticeConnect server")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("groq.api_key", "")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("openrouter.api_key", "")
	v.SetDefault("openrouter.model", "meta-llama/llama-3.3-70b-instruct")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("vertex.project", "")
	v.SetDefault("vertex.location", "us-central1")

	v.SetDefault("storage.sqlite_path", "data/justiceconnect.db")
	v.SetDefault("firestore.project", "")
	v.SetDefault("firestore.collection", "kv_store")

	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_role_key", "")
	v.SetDefault("supabase.anon_key", "")
	v.SetDefault("supabase.jwt_secret", "")

	v.SetDefault("chat.verify_owner", false)

	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.timeout", 90*time.Second)
}

// setModeDefaults picks the adapters a mode uses unless set explicitly.
func setModeDefaults(v *viper.Viper, mode Mode) {
	if mode == ModeCloud {
		v.SetDefault("llm.provider", "groq")
		v.SetDefault("identity.provider", "supabase")
		v.SetDefault("storage.backend", "sqlite")
		return
	}
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("identity.provider", "memory")
	v.SetDefault("storage.backend", "memory")
}

// Validate checks closed sets and the settings the chosen adapters need.
// A missing completion credential is reported per request, not here.
func (c *Config) Validate() error {
	if err := oneOf("mode", string(c.Mode), string(ModeLocal), string(ModeCloud)); err != nil {
		return err
	}
	if err := oneOf("llm.provider", c.LLM.Provider, "groq", "openrouter", "gemini", "mock"); err != nil {
		return err
	}
	if err := oneOf("storage.backend", c.Storage.Backend, "memory", "sqlite", "firestore"); err != nil {
		return err
	}
	if err := oneOf("identity.provider", c.Identity.Provider, "memory", "supabase"); err != nil {
		return err
	}
	if err := oneOf("log.format", c.Log.Format, "json", "text"); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return &domain.ConfigurationError{Setting: "storage.sqlite_path", Message: "storage.sqlite_path must be set for the sqlite backend"}
		}
	case "firestore":
		if c.Firestore.Project == "" {
			return &domain.ConfigurationError{Setting: "firestore.project", Message: "firestore.project must be set for the firestore backend"}
		}
	}

	if c.Identity.Provider == "supabase" {
		if c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "" {
			return &domain.ConfigurationError{
				Setting: "supabase.url",
				Message: "supabase.url and supabase.service_role_key must be set for the supabase identity provider",
			}
		}
	}

	if c.Server.Port == "" {
		return &domain.ConfigurationError{Setting: "server.port", Message: "server.port must be set"}
	}
	return nil
}

// ValidateClient checks only what the terminal client reads. Server-side
// adapter settings are left to Validate.
func (c *Config) ValidateClient() error {
	if err := oneOf("log.format", c.Log.Format, "json", "text"); err != nil {
		return err
	}
	u, err := url.Parse(c.Client.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &domain.ConfigurationError{
			Setting: "client.server_url",
			Message: fmt.Sprintf("client.server_url must be an http(s) URL, got %q", c.Client.ServerURL),
		}
	}
	if c.Client.Timeout <= 0 {
		return &domain.ConfigurationError{Setting: "client.timeout", Message: "client.timeout must be positive"}
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}

func oneOf(setting, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &domain.ConfigurationError{
		Setting: setting,
		Message: fmt.Sprintf("%s must be one of %s, got %q", setting, strings.Join(allowed, ", "), value),
	}
}
