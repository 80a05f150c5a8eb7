package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"
)

// Notifier delivers the confirmation email for a registration.
type Notifier interface {
	SendConfirmation(ctx context.Context, reg Registration) error
}

var ErrMailDisabled = errors.New("mail disabled")

const (
	confirmationSubject = "Registration Confirmed - EHD Tour 2026"
	confirmationFrom    = "EHD Tour Registration"
)

type MailConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	BaseURL string
}

func (c MailConfig) Enabled() bool {
	return c.User != "" && c.Pass != ""
}

// Mailer sends confirmation emails through an SMTP relay.
type Mailer struct {
	cfg MailConfig
	log *slog.Logger
}

func NewMailer(cfg MailConfig, log *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendConfirmation returns ErrMailDisabled when mail credentials are not
// configured.
func (m *Mailer) SendConfirmation(ctx context.Context, reg Registration) error {
	if !m.cfg.Enabled() {
		return ErrMailDisabled
	}

	body, err := renderConfirmationEmail(m.cfg.BaseURL, reg)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(confirmationFrom, m.cfg.User); err != nil {
		return fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(reg.Email); err != nil {
		return fmt.Errorf("to address: %w", err)
	}
	msg.Subject(confirmationSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.Info("mail.sent", "registration_id", reg.ID, "to", reg.Email)
	return nil
}

/* ===================== TEMPLATE ===================== */

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: 'Arial', sans-serif; background-color: #0f1025; color: #ffffff; margin: 0; padding: 0; }
.container { max-width: 600px; margin: 0 auto; background-color: #1a1b3b; }
.header { padding: 20px; text-align: center; border-bottom: 2px solid #4fb7b3; }
.content { padding: 30px; }
.footer { background-color: #0f1025; padding: 20px; text-align: center; color: #8892b0; font-size: 12px; }
h1 { margin: 0; text-transform: uppercase; letter-spacing: 2px; }
h2 { color: #4fb7b3; margin-top: 0; }
p { line-height: 1.6; color: #cbd5e1; }
.details { background-color: rgba(79, 183, 179, 0.1); padding: 20px; border-radius: 8px; margin: 20px 0; border: 1px solid rgba(79, 183, 179, 0.3); }
.label { color: #4fb7b3; font-weight: bold; font-size: 12px; text-transform: uppercase; letter-spacing: 1px; }
.value { color: #ffffff; font-size: 16px; margin-bottom: 10px; display: block; }
.button { display: inline-block; padding: 12px 24px; background-color: #4fb7b3; color: #000000; text-decoration: none; font-weight: bold; border-radius: 6px; text-transform: uppercase; margin-top: 20px; }
</style>
</head>
<body>
<div class="container">
	<div class="header"><h1>EHD Tour 2026</h1></div>
	<div class="content">
		<h2>Registration Confirmed</h2>
		<p>Hi {{.ParentFirstName}},</p>
		<p>Thank you for registering <strong>{{.PlayerName}}</strong> for the EHD x RHC 2026 Spring Tour. We have successfully received your information.</p>
		<div class="details">
			<span class="label">Parent Name</span>
			<span class="value">{{.ParentFirstName}} {{.ParentLastName}}</span>
			<span class="label">Contact Email</span>
			<span class="value">{{.Email}}</span>
			<span class="label">Package</span>
			<span class="value">{{.Package}}</span>
			{{- if .PackageDetails}}
			<span class="label">Package Details</span>
			<span class="value">{{.PackageDetails}}</span>
			{{- end}}
			<span class="label">Player Name</span>
			<span class="value">{{.PlayerName}}</span>
			<span class="label">Level</span>
			<span class="value">{{.Level}}</span>
			<span class="label">Current League</span>
			<span class="value">{{.League}}</span>
			<span class="label">Team</span>
			<span class="value">{{.Team}}</span>
		</div>
		<p>Please confirm your email address by clicking the button below:</p>
		<a href="{{.ConfirmURL}}" class="button">Confirm Email</a>
	</div>
	<div class="footer"><p>&copy; 2026 EHD Tour. All rights reserved.</p></div>
</div>
</body>
</html>
`))

type confirmationView struct {
	ParentFirstName string
	ParentLastName  string
	Email           string
	Package         string
	PackageDetails  string
	PlayerName      string
	Level           string
	League          string
	Team            string
	ConfirmURL      string
}

func confirmationURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/confirm-email?token=" + url.QueryEscape(token)
}

func renderConfirmationEmail(baseURL string, reg Registration) (string, error) {
	v := confirmationView{
		ParentFirstName: reg.ParentFirstName,
		ParentLastName:  reg.ParentLastName,
		Email:           reg.Email,
		Package:         reg.PackageName,
		PlayerName:      reg.PlayerName,
		Level:           reg.Level,
		League:          reg.PlayerCurrentLeague,
		Team:            reg.Team,
		ConfirmURL:      confirmationURL(baseURL, reg.ConfirmationToken),
	}
	if v.Package == "" {
		v.Package = "Standard Package"
	}
	if reg.PackageName == packageCustom && reg.PackageOther != "" {
		v.PackageDetails = reg.PackageOther
	}
	if reg.Level == levelCustom {
		v.Level = fmt.Sprintf("%s (%s)", reg.Level, reg.LevelOther)
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}

/* ===================== DISPATCH ===================== */

// Dispatcher runs notifications detached from the request that triggered
// them. Failures are logged and counted, never retried.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	log      *slog.Logger
	metrics  *Metrics
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, log *slog.Logger, m *Metrics) *Dispatcher {
	return &Dispatcher{notifier: n, timeout: timeout, log: log, metrics: m}
}

func (d *Dispatcher) Dispatch(reg Registration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		err := d.notifier.SendConfirmation(ctx, reg)
		if errors.Is(err, ErrMailDisabled) {
			d.log.Info("mail.skipped", "reason", "email credentials not set", "registration_id", reg.ID)
			d.metrics.Emails.WithLabelValues("skipped").Inc()
			return
		}
		if err != nil {
			d.log.Error("mail.failed", "registration_id", reg.ID, "to", reg.Email, "err", err)
			d.metrics.Emails.WithLabelValues("failed").Inc()
			return
		}
		d.metrics.Emails.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until every dispatched notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
