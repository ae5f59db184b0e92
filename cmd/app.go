package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/teemow/meetbook/internal/calendar"
	"github.com/teemow/meetbook/internal/config"
	"github.com/teemow/meetbook/internal/gmail"
	"github.com/teemow/meetbook/internal/google"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/notify"
	"github.com/teemow/meetbook/internal/scheduling"
	"github.com/teemow/meetbook/internal/storage/sqlite"
)

// app wires the configured components together.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	db         *sqlite.DB
	repo       *sqlite.MeetingRepo
	store      *google.FileCredentialStore
	linker     *scheduling.Linker
	dispatcher *notify.Dispatcher
	service    *scheduling.Service
	bulk       *scheduling.BulkAction
}

// newApp opens the database, applies migrations and builds the scheduling
// components. metrics may be nil.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*app, error) {
	db, err := sqlite.NewDB(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		db:      db,
		repo:    sqlite.NewMeetingRepo(db),
		store:   newCredentialStore(cfg, logger, metrics),
	}

	loc := cfg.Location()
	events, err := calendar.NewClient(
		calendar.WithCalendarID(cfg.Google.CalendarID),
		calendar.WithOrganizer(cfg.Google.Organizer),
		calendar.WithLocation(loc),
		calendar.WithLogger(logger),
		calendar.WithMetrics(metrics),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	sender, err := a.newSender()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.dispatcher = notify.NewDispatcher(sender, cfg.Mail.From,
		notify.WithAdmins(cfg.Mail.Admins...),
		notify.WithLocation(loc),
		notify.WithOrganizer(cfg.Google.Organizer),
		notify.WithSignature(cfg.Mail.Signature),
		notify.WithInviteDomain(inviteDomain(cfg.Mail.From)),
		notify.WithLogger(logger),
		notify.WithMetrics(metrics),
	)

	opts := []scheduling.Option{
		scheduling.WithLogger(logger),
		scheduling.WithMetrics(metrics),
	}
	a.linker = scheduling.NewLinker(a.store, events, opts...)
	a.service = scheduling.NewService(a.repo, a.linker, a.dispatcher, opts...)
	a.bulk = scheduling.NewBulkAction(a.repo, a.linker, a.dispatcher, opts...)

	logger.Debug("application initialized",
		"database", db.Path(),
		"token_path", a.store.Path(),
		"mail_transport", cfg.Mail.Transport,
		"oauth_configured", cfg.Google.OAuthConfigured())
	return a, nil
}

func (a *app) newSender() (notify.Sender, error) {
	switch a.cfg.Mail.Transport {
	case config.TransportSMTP:
		smtp := a.cfg.Mail.SMTP
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:               smtp.Host,
			Port:               smtp.Port,
			Username:           smtp.Username,
			Password:           smtp.Password,
			Security:           smtp.SMTPSecurity(),
			InsecureSkipVerify: smtp.InsecureSkipVerify,
			Timeout:            smtp.Timeout,
		}), nil
	case config.TransportGmail:
		client := gmail.NewClient(a.store,
			gmail.WithLogger(a.logger),
			gmail.WithMetrics(a.metrics))
		return notify.NewGmailSender(client), nil
	case config.TransportLog, "":
		return notify.NewLogSender(a.logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", a.cfg.Mail.Transport)
	}
}

func (a *app) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// newCredentialStore returns the file store for the Google token. Refreshes
// are only possible when the OAuth client is configured.
func newCredentialStore(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) *google.FileCredentialStore {
	path := cfg.Google.TokenPath
	if path == "" {
		path = google.DefaultTokenPath()
	}
	return google.NewFileCredentialStore(path, oauthConfig(cfg),
		google.WithLogger(logger),
		google.WithMetrics(metrics))
}

func oauthSettings(cfg *config.Config) google.OAuthSettings {
	return google.OAuthSettings{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}
}

var errOAuthNotConfigured = errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")

func oauthConfig(cfg *config.Config) *oauth2.Config {
	if !cfg.Google.OAuthConfigured() {
		return nil
	}
	return google.NewOAuthConfig(oauthSettings(cfg))
}

func inviteDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 {
		return strings.TrimRight(from[i+1:], ">")
	}
	return ""
}
