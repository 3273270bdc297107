package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/dhcgn/llm-assist/llm"
	"github.com/dhcgn/llm-assist/model"
)

// Tool selects per-assistant defaults.
type Tool string

const (
	ToolDigest Tool = "digest"
	ToolChat   Tool = "chat"
	ToolNotes  Tool = "notes"
)

const (
	EnvEmail         = "EMAIL_ADDRESS"
	EnvEmailPassword = "EMAIL_PASSWORD"
	EnvGroqKey       = "GROQ_API_KEY"
	EnvLLMKey        = "LLM_API_KEY"
	EnvNotionKey     = "NOTION_API_KEY"
)

// Config captures every option the assistants need.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogDir   string `yaml:"log_dir"`

	Email              string `yaml:"email"`
	EmailPassword      string `yaml:"email_password"`
	IMAPHost           string `yaml:"imap_host"`
	IMAPPort           int    `yaml:"imap_port"`
	Mailbox            string `yaml:"mailbox"`
	UseTLS             bool   `yaml:"use_tls"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	SMTPHost           string `yaml:"smtp_host"`
	SMTPPort           int    `yaml:"smtp_port"`
	MboxPath           string `yaml:"mbox"`
	PreviewLength      int    `yaml:"preview_length"`
	Ellipsis           string `yaml:"ellipsis"`
	FetchBatch         int    `yaml:"fetch_batch"`

	LLMBaseURL  string  `yaml:"llm_base_url"`
	LLMAPIKey   string  `yaml:"llm_api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`

	NotionAPIKey string `yaml:"notion_api_key"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults(tool Tool) Config {
	cfg := Config{
		LogLevel:      "warn",
		IMAPHost:      "imap.gmail.com",
		IMAPPort:      993,
		Mailbox:       "INBOX",
		UseTLS:        true,
		SMTPHost:      "smtp.gmail.com",
		SMTPPort:      465,
		PreviewLength: 800,
		Ellipsis:      "...",
		FetchBatch:    50,
		LLMBaseURL:    llm.DefaultBaseURL,
		Model:         llm.DefaultMailModel,
		Temperature:   llm.DefaultMailTemperature,
	}
	if tool == ToolNotes {
		cfg.Model = llm.DefaultNotesModel
		cfg.Temperature = llm.DefaultNotesTemperature
	}
	return cfg
}

// RegisterFlags attaches the shared flags to the root command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("env-file", ".env", "Dotenv file loaded before reading the environment (ignored if missing)")
	flags.String("log-level", "warn", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (in addition to stderr)")

	flags.String("email", "", "Mail account address (falls back to "+EnvEmail+")")
	flags.String("email-password", "", "Mail account password (falls back to "+EnvEmailPassword+")")
	flags.String("imap-host", "imap.gmail.com", "IMAP server hostname")
	flags.Int("imap-port", 993, "IMAP server port")
	flags.String("mailbox", "INBOX", "Mailbox to read")
	flags.Bool("use-tls", true, "Use TLS for the IMAP connection")
	flags.Bool("insecure-skip-verify", false, "Skip TLS certificate verification (not recommended)")
	flags.String("smtp-host", "smtp.gmail.com", "SMTP submission hostname (implicit TLS)")
	flags.Int("smtp-port", 465, "SMTP submission port")
	flags.String("mbox", "", "Read mail from a local mbox file instead of IMAP")
	flags.Int("preview-length", 800, "Characters of body shown per search match (0 disables truncation)")
	flags.String("ellipsis", "...", "Marker appended to truncated previews")
	flags.Int("fetch-batch", 50, "Messages requested per fetch during keyword search")

	flags.String("llm-base-url", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	flags.String("llm-api-key", "", "Completion API key (falls back to "+EnvGroqKey+" or "+EnvLLMKey+")")
	flags.String("model", "", "Model name (default depends on the assistant)")
	flags.Float64("temperature", 0, "Sampling temperature (default depends on the assistant)")
	flags.String("notion-api-key", "", "Notion integration token (falls back to "+EnvNotionKey+")")
}

// LoadConfig merges defaults, the YAML file, the environment and the parsed
// flags, in increasing order of precedence, and validates the result.
func LoadConfig(cmd *cobra.Command, tool Tool) (Config, error) {
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(envFile, flags.Changed("env-file")); err != nil {
		return Config{}, err
	}

	cfg := Defaults(tool)

	path, err := flags.GetString("config")
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg, os.LookupEnv)

	if err := applyFlags(&cfg, flags); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// mergeFile overlays the values present in a YAML file onto cfg.
func mergeFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	set(&cfg.Email, EnvEmail)
	set(&cfg.EmailPassword, EnvEmailPassword)
	set(&cfg.LLMAPIKey, EnvGroqKey, EnvLLMKey)
	set(&cfg.NotionAPIKey, EnvNotionKey)
}

func applyFlags(cfg *Config, flags *pflag.FlagSet) error {
	var errs error
	str := func(name string, dst *string) {
		if !flags.Changed(name) {
			return
		}
		v, err := flags.GetString(name)
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		*dst = v
	}
	integer := func(name string, dst *int) {
		if !flags.Changed(name) {
			return
		}
		v, err := flags.GetInt(name)
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		*dst = v
	}
	boolean := func(name string, dst *bool) {
		if !flags.Changed(name) {
			return
		}
		v, err := flags.GetBool(name)
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		*dst = v
	}

	str("log-level", &cfg.LogLevel)
	str("log-dir", &cfg.LogDir)
	str("email", &cfg.Email)
	str("email-password", &cfg.EmailPassword)
	str("imap-host", &cfg.IMAPHost)
	integer("imap-port", &cfg.IMAPPort)
	str("mailbox", &cfg.Mailbox)
	boolean("use-tls", &cfg.UseTLS)
	boolean("insecure-skip-verify", &cfg.InsecureSkipVerify)
	str("smtp-host", &cfg.SMTPHost)
	integer("smtp-port", &cfg.SMTPPort)
	str("mbox", &cfg.MboxPath)
	integer("preview-length", &cfg.PreviewLength)
	str("ellipsis", &cfg.Ellipsis)
	integer("fetch-batch", &cfg.FetchBatch)
	str("llm-base-url", &cfg.LLMBaseURL)
	str("llm-api-key", &cfg.LLMAPIKey)
	str("model", &cfg.Model)
	str("notion-api-key", &cfg.NotionAPIKey)

	if flags.Changed("temperature") {
		v, err := flags.GetFloat64("temperature")
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			cfg.Temperature = v
		}
	}
	return errs
}

func validateConfig(cfg Config) error {
	var errs *multierror.Error

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid --log-level: %s", cfg.LogLevel))
	}
	if cfg.MboxPath == "" && cfg.IMAPHost == "" {
		errs = multierror.Append(errs, fmt.Errorf("--imap-host is required unless --mbox is set"))
	}
	if cfg.IMAPPort <= 0 || cfg.IMAPPort > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("--imap-port must be between 1 and 65535"))
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("--smtp-port must be between 1 and 65535"))
	}
	if cfg.PreviewLength < 0 {
		errs = multierror.Append(errs, fmt.Errorf("--preview-length must not be negative"))
	}
	if cfg.FetchBatch <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("--fetch-batch must be positive"))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = multierror.Append(errs, fmt.Errorf("--temperature must be between 0 and 2"))
	}
	if strings.TrimSpace(cfg.Model) == "" {
		errs = multierror.Append(errs, fmt.Errorf("--model must not be empty"))
	}

	return errs.ErrorOrNil()
}

// Credential names a secret an assistant needs at startup.
type Credential string

const (
	CredentialEmail         Credential = EnvEmail
	CredentialEmailPassword Credential = EnvEmailPassword
	CredentialLLM           Credential = EnvGroqKey
	CredentialNotion        Credential = EnvNotionKey
)

// Require returns a configuration error naming every missing credential.
func (c Config) Require(creds ...Credential) error {
	var missing []string
	for _, cred := range creds {
		var v string
		switch cred {
		case CredentialEmail:
			v = c.Email
		case CredentialEmailPassword:
			v = c.EmailPassword
		case CredentialLLM:
			v = c.LLMAPIKey
		case CredentialNotion:
			v = c.NotionAPIKey
		}
		if strings.TrimSpace(v) == "" {
			missing = append(missing, string(cred))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return model.NewError(model.KindConfiguration, "config", fmt.Errorf("%w: set %s", model.ErrMissingCredential, strings.Join(missing, ", ")))
}
