package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Mail transports.
const (
	TransportSMTP  = "smtp"
	TransportGmail = "gmail"
	TransportLog   = "log"
)

// DefaultEnvFile is read when present.
const DefaultEnvFile = ".env"

// Config is the complete runtime configuration.
type Config struct {
	Log       LogConfig
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Google    GoogleConfig
	Meeting   MeetingConfig
	Mail      MailConfig
	Admin     AdminConfig
	Sweep     SweepConfig
	Telemetry TelemetryConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type HTTPConfig struct {
	Addr              string
	MetricsAddr       string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

type DatabaseConfig struct {
	Path string
}

// GoogleConfig holds the OAuth client and calendar settings.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenPath    string
	CalendarID   string
	// Organizer is added to every event's attendees.
	Organizer string
}

// OAuthConfigured reports whether client credentials are present.
func (g GoogleConfig) OAuthConfigured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type MeetingConfig struct {
	TimeZone string
}

// MailConfig selects how notification emails are delivered.
type MailConfig struct {
	Transport string
	From      string
	Admins    []string
	Signature string
	SMTP      SMTPConfig
}

type SMTPConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	UseSSL             bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// AdminConfig protects the operator HTTP routes. Empty values leave them open.
type AdminConfig struct {
	Token     string
	JWTSecret string
}

// Enabled reports whether any admin credential is configured.
func (a AdminConfig) Enabled() bool {
	return a.Token != "" || a.JWTSecret != ""
}

// SweepConfig schedules the periodic retry of meetings without a link.
type SweepConfig struct {
	// Schedule is a standard five field cron expression. Empty disables the sweep.
	Schedule string
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	InstanceID      string
	MetricsExporter string
	TracingExporter string
	OTLPEndpoint    string
	OTLPInsecure    bool
	SamplingRate    float64
}

// Load reads configuration from the environment, after loading envFile if it
// exists. Variables already set in the environment take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.HTTP = HTTPConfig{
		Addr:              v.GetString("HTTP_ADDR"),
		MetricsAddr:       v.GetString("METRICS_ADDR"),
		ReadHeaderTimeout: parseDuration(v.GetString("HTTP_READ_HEADER_TIMEOUT"), 10*time.Second),
		WriteTimeout:      parseDuration(v.GetString("HTTP_WRITE_TIMEOUT"), 60*time.Second),
		ShutdownTimeout:   parseDuration(v.GetString("HTTP_SHUTDOWN_TIMEOUT"), 30*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Path: v.GetString("DATABASE_PATH"),
	}

	cfg.Google = GoogleConfig{
		ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  firstOf(splitAndTrim(v.GetString("GOOGLE_OAUTH_REDIRECT_URIS"))),
		TokenPath:    v.GetString("GOOGLE_TOKEN_PATH"),
		CalendarID:   v.GetString("GOOGLE_CALENDAR_ID"),
		Organizer:    v.GetString("ORGANIZER_EMAIL"),
	}
	if cfg.Google.Organizer == "" {
		cfg.Google.Organizer = v.GetString("EMAIL_HOST_USER")
	}

	cfg.Meeting = MeetingConfig{
		TimeZone: v.GetString("MEETING_TIME_ZONE"),
	}

	cfg.Mail = MailConfig{
		Transport: strings.ToLower(v.GetString("MAIL_TRANSPORT")),
		From:      v.GetString("DEFAULT_FROM_EMAIL"),
		Admins:    splitAndTrim(v.GetString("ADMIN_EMAILS")),
		Signature: v.GetString("MAIL_SIGNATURE"),
		SMTP: SMTPConfig{
			Host:               v.GetString("EMAIL_HOST"),
			Port:               v.GetInt("EMAIL_PORT"),
			Username:           v.GetString("EMAIL_HOST_USER"),
			Password:           v.GetString("EMAIL_HOST_PASSWORD"),
			UseTLS:             v.GetBool("EMAIL_USE_TLS"),
			UseSSL:             v.GetBool("EMAIL_USE_SSL"),
			InsecureSkipVerify: v.GetBool("EMAIL_SKIP_VERIFY"),
			Timeout:            parseDuration(v.GetString("EMAIL_TIMEOUT"), 30*time.Second),
		},
	}

	cfg.Admin = AdminConfig{
		Token:     v.GetString("ADMIN_TOKEN"),
		JWTSecret: v.GetString("ADMIN_JWT_SECRET"),
	}

	cfg.Sweep = SweepConfig{
		Schedule: strings.TrimSpace(v.GetString("LINK_SWEEP_SCHEDULE")),
	}

	cfg.Telemetry = TelemetryConfig{
		Enabled:         v.GetBool("INSTRUMENTATION_ENABLED"),
		ServiceName:     v.GetString("OTEL_SERVICE_NAME"),
		InstanceID:      v.GetString("OTEL_SERVICE_INSTANCE_ID"),
		MetricsExporter: strings.ToLower(v.GetString("METRICS_EXPORTER")),
		TracingExporter: strings.ToLower(v.GetString("TRACING_EXPORTER")),
		OTLPEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:    v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		SamplingRate:    v.GetFloat64("OTEL_TRACES_SAMPLER_ARG"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("METRICS_ADDR", ":9090")

	v.SetDefault("DATABASE_PATH", defaultDatabasePath())

	v.SetDefault("GOOGLE_OAUTH_REDIRECT_URIS", "http://localhost")
	v.SetDefault("GOOGLE_CALENDAR_ID", "primary")

	v.SetDefault("MEETING_TIME_ZONE", "Asia/Kolkata")

	v.SetDefault("MAIL_TRANSPORT", TransportLog)
	v.SetDefault("DEFAULT_FROM_EMAIL", "webmaster@localhost")
	v.SetDefault("MAIL_SIGNATURE", "The meetbook team")
	v.SetDefault("EMAIL_HOST", "localhost")
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("EMAIL_USE_TLS", true)
	v.SetDefault("EMAIL_USE_SSL", false)

	v.SetDefault("INSTRUMENTATION_ENABLED", true)
	v.SetDefault("OTEL_SERVICE_NAME", "meetbook")
	v.SetDefault("METRICS_EXPORTER", "prometheus")
	v.SetDefault("TRACING_EXPORTER", "none")
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 0.1)
}

// Validate reports configuration that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Meeting.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("MEETING_TIME_ZONE %q: %w", c.Meeting.TimeZone, err))
	}

	switch c.Mail.Transport {
	case TransportLog, TransportGmail:
	case TransportSMTP:
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, errors.New("EMAIL_HOST is required for the smtp transport"))
		}
		if c.Mail.SMTP.Port <= 0 || c.Mail.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("EMAIL_PORT %d is out of range", c.Mail.SMTP.Port))
		}
		if c.Mail.SMTP.UseTLS && c.Mail.SMTP.UseSSL {
			errs = append(errs, errors.New("EMAIL_USE_TLS and EMAIL_USE_SSL are mutually exclusive"))
		}
		if c.Mail.SMTP.Password != "" && c.Mail.SMTP.Username == "" {
			errs = append(errs, errors.New("EMAIL_HOST_PASSWORD requires EMAIL_HOST_USER"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_TRANSPORT %q (want smtp, gmail or log)", c.Mail.Transport))
	}

	if c.Mail.From == "" {
		errs = append(errs, errors.New("DEFAULT_FROM_EMAIL is required"))
	}

	if c.Sweep.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sweep.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("LINK_SWEEP_SCHEDULE %q: %w", c.Sweep.Schedule, err))
		}
	}

	return errors.Join(errs...)
}

// Location returns the meeting time zone, or UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Meeting.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SMTPSecurity maps the EMAIL_USE_TLS/EMAIL_USE_SSL switches to a security mode name.
func (s SMTPConfig) SMTPSecurity() string {
	switch {
	case s.UseSSL:
		return "tls"
	case s.UseTLS:
		return "starttls"
	default:
		return "none"
	}
}

func defaultDatabasePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "meetbook.db"
	}
	return filepath.Join(dir, "meetbook", "meetbook.db")
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
