// Package notify delivers best-effort push notifications about reservation
// lifecycle changes. Delivery failures never surface to the caller of a
// successful transition; they are logged and counted.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"reservio/internal/events"
	"reservio/internal/metrics"
)

// Sender delivers one message to one user. Implementations own the
// transport (Telegram, web push, ...).
type Sender interface {
	Send(ctx context.Context, userID, title, message string) error
}

// Config tunes the dispatcher.
type Config struct {
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	SendTimeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RatePerSecond: 20,
		Burst:         30,
		MaxRetries:    3,
		SendTimeout:   30 * time.Second,
	}
}

// Dispatcher fans reservation events out to the sender, rate limited, with
// bounded retries. Sends run asynchronously relative to the transaction
// that produced the event.
type Dispatcher struct {
	sender  Sender
	config  Config
	limiter *rate.Limiter
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher around sender.
func NewDispatcher(sender Sender, config Config, logger zerolog.Logger) *Dispatcher {
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 20
	}
	if config.Burst <= 0 {
		config.Burst = 30
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 30 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst),
		logger:  logger.With().Str("component", "notify").Logger(),
	}
}

// Bind subscribes the dispatcher to the reservation lifecycle events.
func (d *Dispatcher) Bind(bus *events.EventBus) {
	for _, t := range []string{
		events.TypeReservationCreated,
		events.TypeReservationConfirmed,
		events.TypeReservationCancelled,
		events.TypeReservationCompleted,
	} {
		bus.Subscribe(t, d.handleEvent)
	}
}

// Close waits for in-flight sends to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

func (d *Dispatcher) handleEvent(event events.Event) error {
	var payload events.ReservationEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		d.logger.Warn().Err(err).Str("type", event.Type).Msg("malformed event payload")
		return nil
	}

	title, message := composeMessage(event.Type, payload)
	d.Notify(payload.CustomerID, title, message)
	return nil
}

// Notify sends fire-and-forget; it returns immediately.
func (d *Dispatcher) Notify(userID, title, message string) {
	if d == nil || d.sender == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
		defer cancel()
		d.send(ctx, userID, title, message)
	}()
}

func (d *Dispatcher) send(ctx context.Context, userID, title, message string) {
	if err := d.limiter.Wait(ctx); err != nil {
		d.logger.Warn().Err(err).Str("user_id", userID).Msg("rate limiter wait aborted")
		metrics.IncNotificationFailure()
		return
	}

	var lastErr error
	for attempt := 0; attempt < d.config.MaxRetries; attempt++ {
		if lastErr = d.sender.Send(ctx, userID, title, message); lastErr == nil {
			return
		}
		select {
		case <-time.After(time.Duration(attempt+1) * time.Second):
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = d.config.MaxRetries
		}
	}

	// Best effort only: log and count, never propagate.
	d.logger.Warn().Err(lastErr).
		Str("user_id", userID).
		Str("title", title).
		Msg("notification dropped after retries")
	metrics.IncNotificationFailure()
}

func composeMessage(eventType string, p events.ReservationEvent) (title, message string) {
	when := fmt.Sprintf("%s, %s - %s",
		p.StartTime.Format("02 Jan 2006"),
		p.StartTime.Format("15:04"),
		p.EndTime.Format("15:04"),
	)

	switch eventType {
	case events.TypeReservationCreated:
		return "Reservation received",
			fmt.Sprintf("Your reservation at %s for %s is pending confirmation.", p.BusinessName, when)
	case events.TypeReservationConfirmed:
		return "Reservation confirmed",
			fmt.Sprintf("Your reservation at %s for %s has been confirmed.", p.BusinessName, when)
	case events.TypeReservationCancelled:
		msg := fmt.Sprintf("Your reservation at %s for %s has been cancelled.", p.BusinessName, when)
		if p.Reason != "" {
			msg += fmt.Sprintf(" Reason: %s", p.Reason)
		}
		return "Reservation cancelled", msg
	case events.TypeReservationCompleted:
		return "Reservation completed",
			fmt.Sprintf("Your reservation at %s for %s is complete. Thank you!", p.BusinessName, when)
	}
	return "Reservation update", fmt.Sprintf("Your reservation at %s for %s changed to %s.", p.BusinessName, when, p.Status)
}
