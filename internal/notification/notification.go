package notification

import (
	"context"
	"log/slog"
)

// Notification kinds emitted by the portal.
const (
	KindAccountRegistered = "account_registered"
	KindPasswordChanged   = "password_changed"
	KindSignedIn          = "signed_in"
	KindMerchantCreated   = "merchant_created"
)

// Message describes a notification payload. UserID is empty before the user
// has an account.
type Message struct {
	Kind        string
	UserID      string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger instead of delivering them.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("user_id", message.UserID),
		slog.String("destination", message.Destination),
	)
	return nil
}

// GatedNotifier forwards a message only when the user has the email channel
// enabled for the option bound to its kind. Kinds without an option and
// messages without a user are always forwarded. Password changes happen
// signed out, before a user id is known, so they are never gated.
type GatedNotifier struct {
	next   Notifier
	prefs  *Service
	logger *slog.Logger
}

func NewGatedNotifier(next Notifier, prefs *Service, logger *slog.Logger) *GatedNotifier {
	return &GatedNotifier{next: next, prefs: prefs, logger: logger}
}

var kindOptions = map[string]Option{
	KindSignedIn:        {Category: CategoryAccount, Name: "Authorization"},
	KindMerchantCreated: {Category: CategoryBusiness, Name: "Create merchant"},
}

func (g *GatedNotifier) Send(ctx context.Context, message Message) error {
	opt, gated := kindOptions[message.Kind]
	if gated && message.UserID != "" {
		settings, err := g.prefs.Get(ctx, message.UserID)
		if err != nil {
			g.logger.Warn("load notification preferences", slog.String("user_id", message.UserID), slog.Any("error", err))
			return err
		}
		if !settings[opt.Category][opt.Name].Email {
			return nil
		}
	}
	return g.next.Send(ctx, message)
}
