package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"printbay/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeWalletCreated   EventType = "wallet_created"
	EventTypeBoostCreated    EventType = "boost_created"
	EventTypePaymentCredited EventType = "payment_credited"
	EventTypeWalletAdjusted  EventType = "wallet_adjusted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed ledger balance change
type BalanceChangeEvent struct {
	UserID          int64
	Currency        models.Currency
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	TransactionID   int64
	TransactionType models.TransactionType
	ChangeAmount    decimal.Decimal
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// WalletCreatedEvent represents a wallet auto-vivified on first touch
type WalletCreatedEvent struct {
	UserID int64
}

func (e WalletCreatedEvent) Type() EventType {
	return EventTypeWalletCreated
}

// BoostCreatedEvent represents a vote or paid boost applied to a post
type BoostCreatedEvent struct {
	BoostID     int64
	PostID      int64
	BoosterID   int64
	CreatorID   int64
	BoostType   models.BoostType
	BoostPoints int64
}

func (e BoostCreatedEvent) Type() EventType {
	return EventTypeBoostCreated
}

// PaymentCreditedEvent represents an external payment credited to a wallet
type PaymentCreditedEvent struct {
	PaymentID string
	UserID    int64
	ITCAmount decimal.Decimal
}

func (e PaymentCreditedEvent) Type() EventType {
	return EventTypePaymentCredited
}

// WalletAdjustedEvent represents an administrative wallet adjustment
type WalletAdjustedEvent struct {
	AdminID  int64
	UserID   int64
	Currency models.Currency
	Delta    decimal.Decimal
	Reason   string
}

func (e WalletAdjustedEvent) Type() EventType {
	return EventTypeWalletAdjusted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the caller
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction context that produced them
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
