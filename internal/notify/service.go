package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/services/resend"
)

// Mailer sends a single email and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg resend.Message) (string, error)
}

// SummaryEmail carries everything needed to deliver one episode summary to
// one recipient.
type SummaryEmail struct {
	PodcastName     string
	EpisodeTitle    string
	Published       time.Time
	Recipient       string
	SummaryMarkdown string
}

// FailureEntry is one failed episode included in the consolidated report.
type FailureEntry struct {
	PodcastName  string
	EpisodeTitle string
	ErrorMessage string
	FailedAt     time.Time
}

// Service defines the email surface exposed to workflow components.
type Service interface {
	SendSummary(ctx context.Context, email SummaryEmail) (string, error)
	SendFailureReport(ctx context.Context, failures []FailureEntry) (string, error)
}

// NewService builds an email service backed by Resend when an API key is
// configured. Without a key a dry-run implementation is returned that logs
// instead of sending, so local runs never need provider credentials.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String("component", "notify"))

	if strings.TrimSpace(cfg.Email.APIKey) == "" {
		return &dryRunService{logger: logger}
	}

	timeout := time.Duration(cfg.Email.TimeoutSeconds) * time.Second
	mailer := resend.NewClient(cfg.Email.APIKey, resend.WithTimeout(timeout))
	return NewServiceWithMailer(cfg, mailer, logger)
}

// NewServiceWithMailer wires an explicit mailer, which tests use to observe
// outbound messages.
func NewServiceWithMailer(cfg *config.Config, mailer Mailer, logger *slog.Logger) Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &emailService{
		mailer:   mailer,
		sender:   cfg.Email.Sender,
		replyTo:  cfg.Email.ReplyTo,
		operator: cfg.Email.OperatorAddress,
		logger:   logger.With(logging.String("component", "notify")),
	}
}

type emailService struct {
	mailer   Mailer
	sender   string
	replyTo  string
	operator string
	logger   *slog.Logger
}

func (s *emailService) SendSummary(ctx context.Context, email SummaryEmail) (string, error) {
	recipient := strings.TrimSpace(email.Recipient)
	if recipient == "" {
		return "", services.Wrap(services.ErrValidation, "notify", "summary", "recipient required", nil)
	}

	htmlBody, err := summaryHTML(email)
	if err != nil {
		return "", err
	}

	id, err := s.mailer.Send(ctx, resend.Message{
		From:    s.sender,
		To:      []string{recipient},
		ReplyTo: s.replyTo,
		Subject: summarySubject(email),
		HTML:    htmlBody,
	})
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "summary email sent",
		logging.String("recipient", recipient),
		logging.String("email_id", id))
	return id, nil
}

func (s *emailService) SendFailureReport(ctx context.Context, failures []FailureEntry) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}
	operator := strings.TrimSpace(s.operator)
	if operator == "" {
		s.logger.WarnContext(ctx, "no operator address configured, skipping failure report",
			logging.Int("failures", len(failures)))
		return "", nil
	}

	id, err := s.mailer.Send(ctx, resend.Message{
		From:    s.sender,
		To:      []string{operator},
		ReplyTo: s.replyTo,
		Subject: failureSubject(len(failures)),
		HTML:    failureReportHTML(failures),
	})
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "failure report sent",
		logging.Int("failures", len(failures)),
		logging.String("email_id", id))
	return id, nil
}

func summarySubject(email SummaryEmail) string {
	podcast := strings.TrimSpace(email.PodcastName)
	title := strings.TrimSpace(email.EpisodeTitle)
	switch {
	case podcast == "":
		return title
	case title == "":
		return podcast
	default:
		return fmt.Sprintf("%s: %s", podcast, title)
	}
}

func failureSubject(count int) string {
	if count == 1 {
		return "Podsum: 1 episode failed"
	}
	return fmt.Sprintf("Podsum: %d episodes failed", count)
}

// dryRunService logs deliveries instead of sending them.
type dryRunService struct {
	logger *slog.Logger
}

func (s *dryRunService) SendSummary(ctx context.Context, email SummaryEmail) (string, error) {
	s.logger.InfoContext(ctx, "dry-run summary email",
		logging.String("recipient", email.Recipient),
		logging.String("subject", summarySubject(email)))
	return "dry-run", nil
}

func (s *dryRunService) SendFailureReport(ctx context.Context, failures []FailureEntry) (string, error) {
	if len(failures) == 0 {
		return "", nil
	}
	s.logger.InfoContext(ctx, "dry-run failure report",
		logging.Int("failures", len(failures)))
	return "dry-run", nil
}
