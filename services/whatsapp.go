package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

var ErrDeviceNotLinked = errors.New("whatsapp device is not linked")

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

// WhatsAppSender sends reminders from a linked WhatsApp device. The device
// session is kept in its own store, separate from application data.
type WhatsAppSender struct {
	client *whatsmeow.Client
	log    zerolog.Logger
}

// NewWhatsAppSender opens the device store. For SQLite the DSN must enable
// foreign keys, e.g. "file:whatsapp.db?_pragma=foreign_keys(1)".
func NewWhatsAppSender(ctx context.Context, dialect, dsn string, log zerolog.Logger) (*WhatsAppSender, error) {
	container, err := sqlstore.New(ctx, dialect, dsn, waLog.Stdout("Database", "WARN", true))
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}

	s := &WhatsAppSender{
		client: whatsmeow.NewClient(device, waLog.Stdout("Client", "WARN", true)),
		log:    log.With().Str("component", "whatsapp").Logger(),
	}
	s.client.AddEventHandler(s.handleEvent)
	return s, nil
}

func (s *WhatsAppSender) handleEvent(evt interface{}) {
	switch evt.(type) {
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Warn().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Error().Msg("WhatsApp device logged out, relink required")
	}
}

func (s *WhatsAppSender) Linked() bool {
	return s.client.Store.ID != nil
}

// Connect opens the websocket for a linked device.
func (s *WhatsAppSender) Connect() error {
	if !s.Linked() {
		return ErrDeviceNotLinked
	}
	if s.client.IsConnected() {
		return nil
	}
	return s.client.Connect()
}

// Pair links this server as a companion device of phone and returns the
// pairing code to enter on the phone. It waits up to timeout for the phone
// to confirm.
func (s *WhatsAppSender) Pair(ctx context.Context, phone string, timeout time.Duration, onCode func(code string)) error {
	if s.Linked() {
		return nil
	}
	done := make(chan struct{}, 1)
	handlerID := s.client.AddEventHandler(func(evt interface{}) {
		if _, ok := evt.(*events.PairSuccess); ok {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer s.client.RemoveEventHandler(handlerID)

	if !s.client.IsConnected() {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}
	code, err := s.client.PairPhone(ctx, digitsOnly(phone), true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		return fmt.Errorf("pair phone: %w", err)
	}
	onCode(code)

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timed out waiting for the phone to confirm pairing")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WhatsAppSender) Send(ctx context.Context, phone, text string) error {
	if err := s.Connect(); err != nil {
		return err
	}
	number := digitsOnly(phone)
	if number == "" {
		return fmt.Errorf("invalid phone number %q", phone)
	}
	jid := types.NewJID(number, types.DefaultUserServer)
	_, err := s.client.SendMessage(ctx, jid, &waProto.Message{Conversation: proto.String(text)})
	if err != nil {
		return fmt.Errorf("send to %s: %w", number, err)
	}
	return nil
}

func (s *WhatsAppSender) Close() {
	s.client.Disconnect()
}

// digitsOnly turns "+1 (555) 123-4567" into "15551234567".
func digitsOnly(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}
