package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/DebasishBarai/remind-me/models"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridEndpoint = "/v3/mail/send"

// EmailNotifier sends payment confirmations through SendGrid.
type EmailNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewEmailNotifier returns a SendGrid notifier, or a notifier that only logs
// when no API key is configured.
func NewEmailNotifier(apiKey, from string, log zerolog.Logger) PaymentNotifier {
	if apiKey == "" {
		return logNotifier{log: log}
	}
	return newEmailNotifier(apiKey, from, "")
}

func newEmailNotifier(apiKey, from, host string) *EmailNotifier {
	var client *sendgrid.Client
	if host == "" {
		client = sendgrid.NewSendClient(apiKey)
	} else {
		req := sendgrid.GetRequest(apiKey, sendGridEndpoint, host)
		req.Method = http.MethodPost
		client = &sendgrid.Client{Request: req}
	}
	return &EmailNotifier{client: client, from: mail.NewEmail("RemindMe", from)}
}

func (n *EmailNotifier) PaymentConfirmed(ctx context.Context, user *models.User, tier models.Tier, orderID string) error {
	subject := fmt.Sprintf("Your RemindMe %s plan is active", planName(tier))
	body := fmt.Sprintf(`Hi %s,

Thanks for upgrading. Your account is now on the %s plan.

Order reference: %s

You can keep scheduling WhatsApp reminders at any time.

The RemindMe team`, displayName(user), planName(tier), orderID)

	to := mail.NewEmail(displayName(user), user.Email)
	message := mail.NewSingleEmail(n.from, subject, to, body, "")

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send confirmation: sendgrid status %d", resp.StatusCode)
	}
	return nil
}

type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) PaymentConfirmed(_ context.Context, user *models.User, tier models.Tier, orderID string) error {
	n.log.Info().Str("user_id", user.ID).Str("tier", string(tier)).Str("order_id", orderID).
		Msg("Email disabled, payment confirmation not sent")
	return nil
}

func planName(tier models.Tier) string {
	s := string(tier)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func displayName(user *models.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
