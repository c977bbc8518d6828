// Package notify delivers backup failure reports via email and webhooks
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
)

// Service sends reports to all configured destinations
type Service struct {
	destinations []notify.Notifier
	fromEmail    string
	toEmail      []string
	webhooks     []string
}

// Params configure senders
type Params struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	SMTPTimeout  time.Duration
	FromEmail    string
	ToEmails     []string
	WebhookURLs  []string
	Timeout      time.Duration
}

// NewService makes notification service. Returns nil if no destinations set.
func NewService(p Params) *Service {
	if len(p.ToEmails) == 0 && len(p.WebhookURLs) == 0 {
		return nil
	}
	res := &Service{fromEmail: p.FromEmail, toEmail: p.ToEmails, webhooks: p.WebhookURLs}
	if len(p.ToEmails) > 0 {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        p.SMTPHost,
			Port:        p.SMTPPort,
			TLS:         p.SMTPTLS,
			Username:    p.SMTPUsername,
			Password:    p.SMTPPassword,
			TimeOut:     p.SMTPTimeout,
			ContentType: "text/plain",
		}))
	}
	if len(p.WebhookURLs) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{Timeout: p.Timeout}))
	}
	log.Printf("[INFO] notifications enabled, emails: %v, webhooks: %d", p.ToEmails, len(p.WebhookURLs))
	return res
}

// Send delivers subject and text to every destination, errors from all of them are combined
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	if len(s.toEmail) > 0 {
		q := url.Values{}
		q.Set("from", s.fromEmail)
		q.Set("subject", subj)
		dest := "mailto:" + strings.Join(s.toEmail, ",") + "?" + q.Encode()
		if err := notify.Send(ctx, s.destinations, dest, text); err != nil {
			errs = append(errs, err)
		}
	}
	for _, wh := range s.webhooks {
		if err := notify.Send(ctx, s.destinations, wh, subj+"\n\n"+text); err != nil {
			errs = append(errs, fmt.Errorf("webhook %s: %w", wh, err))
		}
	}
	return errors.Join(errs...)
}
