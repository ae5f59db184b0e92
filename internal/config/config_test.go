package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Equal(t, ":9090", cfg.HTTP.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.Equal(t, "http://localhost", cfg.Google.RedirectURL)
	assert.Equal(t, "Asia/Kolkata", cfg.Meeting.TimeZone)
	assert.Equal(t, TransportLog, cfg.Mail.Transport)
	assert.Equal(t, 587, cfg.Mail.SMTP.Port)
	assert.True(t, cfg.Mail.SMTP.UseTLS)
	assert.NotEmpty(t, cfg.Database.Path)
	assert.False(t, cfg.Admin.Enabled())
	assert.Empty(t, cfg.Sweep.Schedule)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "meetbook", cfg.Telemetry.ServiceName)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricsExporter)
	assert.Equal(t, "none", cfg.Telemetry.TracingExporter)
	assert.InDelta(t, 0.1, cfg.Telemetry.SamplingRate, 1e-9)
}

func TestLoad_Telemetry(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "OTLP")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "otlp", cfg.Telemetry.MetricsExporter)
	assert.Equal(t, "stdout", cfg.Telemetry.TracingExporter)
	assert.Equal(t, "collector:4318", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
	assert.InDelta(t, 0.5, cfg.Telemetry.SamplingRate, 1e-9)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URIS", "http://localhost:8080/callback, http://localhost")
	t.Setenv("EMAIL_HOST_USER", "owner@example.com")
	t.Setenv("ADMIN_EMAILS", "a@example.com, ,b@example.com")
	t.Setenv("MAIL_TRANSPORT", "SMTP")
	t.Setenv("EMAIL_PORT", "465")
	t.Setenv("EMAIL_USE_TLS", "false")
	t.Setenv("EMAIL_USE_SSL", "true")
	t.Setenv("HTTP_WRITE_TIMEOUT", "15s")
	t.Setenv("ADMIN_TOKEN", "secret")
	t.Setenv("LINK_SWEEP_SCHEDULE", " */15 * * * * ")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Google.OAuthConfigured())
	assert.Equal(t, "http://localhost:8080/callback", cfg.Google.RedirectURL)
	assert.Equal(t, "owner@example.com", cfg.Google.Organizer, "organizer defaults to the mail user")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.Admins)
	assert.Equal(t, TransportSMTP, cfg.Mail.Transport)
	assert.Equal(t, 465, cfg.Mail.SMTP.Port)
	assert.Equal(t, "tls", cfg.Mail.SMTP.SMTPSecurity())
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout)
	assert.True(t, cfg.Admin.Enabled())
	assert.Equal(t, "*/15 * * * *", cfg.Sweep.Schedule)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MEETBOOK_TEST_ORGANIZER=file@example.com\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MEETBOOK_TEST_ORGANIZER") })

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file@example.com", os.Getenv("MEETBOOK_TEST_ORGANIZER"))
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad zone", func(c *Config) { c.Meeting.TimeZone = "Mars/Olympus" }, "MEETING_TIME_ZONE"},
		{"unknown transport", func(c *Config) { c.Mail.Transport = "pigeon" }, "unknown MAIL_TRANSPORT"},
		{"smtp without host", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.Host = ""
		}, "EMAIL_HOST is required"},
		{"smtp tls and ssl", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.UseSSL = true
		}, "mutually exclusive"},
		{"smtp bad port", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.Port = 0
		}, "out of range"},
		{"password without user", func(c *Config) {
			c.Mail.Transport = TransportSMTP
			c.Mail.SMTP.Username = ""
			c.Mail.SMTP.Password = "pw"
		}, "requires EMAIL_HOST_USER"},
		{"no from", func(c *Config) { c.Mail.From = "" }, "DEFAULT_FROM_EMAIL"},
		{"bad cron", func(c *Config) { c.Sweep.Schedule = "every day" }, "LINK_SWEEP_SCHEDULE"},
		{"good cron", func(c *Config) { c.Sweep.Schedule = "@hourly" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Meeting: MeetingConfig{TimeZone: "UTC"}}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Meeting.TimeZone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestSMTPSecurity(t *testing.T) {
	assert.Equal(t, "none", SMTPConfig{}.SMTPSecurity())
	assert.Equal(t, "starttls", SMTPConfig{UseTLS: true}.SMTPSecurity())
	assert.Equal(t, "tls", SMTPConfig{UseSSL: true, UseTLS: true}.SMTPSecurity())
}
