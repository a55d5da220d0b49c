package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/DebasishBarai/remind-me/apperr"
	"github.com/plutov/paypal/v4"
)

const (
	OrderStatusCompleted = "COMPLETED"

	brandName = "RemindMe"
)

type OrderLink struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method,omitempty"`
}

// Order is the processor's view of a checkout order.
type Order struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Links  []OrderLink `json:"links,omitempty"`
}

type OrderRequest struct {
	Amount      string
	Currency    string
	Description string
}

// OrderProcessor is the external two-phase payment API.
type OrderProcessor interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*Order, error)
}

type PayPalConfig struct {
	ClientID string
	Secret   string
	APIBase  string // paypal.APIBaseSandBox, paypal.APIBaseLive or a test server
	BaseURL  string // this site, used for return and cancel URLs
	Timeout  time.Duration
}

// PayPalProcessor talks to the PayPal Orders v2 API. Every call builds its
// own client and fetches a fresh client-credentials token.
type PayPalProcessor struct {
	cfg PayPalConfig
}

func NewPayPalProcessor(cfg PayPalConfig) *PayPalProcessor {
	if cfg.APIBase == "" {
		cfg.APIBase = paypal.APIBaseSandBox
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PayPalProcessor{cfg: cfg}
}

// APIBaseForMode maps PAYPAL_MODE to the matching API host.
func APIBaseForMode(mode string) string {
	if mode == "live" {
		return paypal.APIBaseLive
	}
	return paypal.APIBaseSandBox
}

func (p *PayPalProcessor) client(ctx context.Context, op string) (*paypal.Client, error) {
	c, err := paypal.NewClient(p.cfg.ClientID, p.cfg.Secret, p.cfg.APIBase)
	if err != nil {
		return nil, apperr.Upstream(op, "Payment processor unavailable", err)
	}
	c.SetHTTPClient(&http.Client{Timeout: p.cfg.Timeout})
	if _, err := c.GetAccessToken(ctx); err != nil {
		return nil, apperr.Upstream(op, processorMessage(err, "Failed to authenticate with payment processor"), err)
	}
	return c, nil
}

func (p *PayPalProcessor) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	const op = "paypal.create_order"
	c, err := p.client(ctx, op)
	if err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount,
		},
		Description: req.Description,
	}}
	appCtx := &paypal.ApplicationContext{
		BrandName:  brandName,
		UserAction: paypal.UserActionPayNow,
		ReturnURL:  p.cfg.BaseURL + "/payment/success",
		CancelURL:  p.cfg.BaseURL + "/payment/cancel",
	}

	order, err := c.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, apperr.Upstream(op, processorMessage(err, "Failed to create PayPal order"), err)
	}

	out := &Order{ID: order.ID, Status: order.Status}
	for _, link := range order.Links {
		out.Links = append(out.Links, OrderLink{Href: link.Href, Rel: link.Rel, Method: link.Method})
	}
	return out, nil
}

func (p *PayPalProcessor) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	const op = "paypal.capture_order"
	c, err := p.client(ctx, op)
	if err != nil {
		return nil, err
	}

	resp, err := c.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, apperr.Upstream(op, processorMessage(err, "Payment verification failed"), err)
	}
	return &Order{ID: resp.ID, Status: resp.Status}, nil
}

// processorMessage surfaces PayPal's own error text when it sent one.
func processorMessage(err error, fallback string) string {
	var ppErr *paypal.ErrorResponse
	if errors.As(err, &ppErr) && ppErr.Message != "" {
		return ppErr.Message
	}
	return fallback
}
