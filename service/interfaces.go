package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"printbay/events"
	"printbay/models"
)

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByUserID retrieves a wallet by user id, or nil if none exists yet
	GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error)

	// EnsureExists creates a zero-balance wallet if the user has none.
	// Returns true when a new row was created.
	EnsureExists(ctx context.Context, userID int64) (bool, error)

	// ApplyDelta atomically adds amount (which may be negative) to the
	// user's balance in the given currency and returns the new balance.
	// The update is conditional: a debit that would take the balance below
	// zero changes nothing and returns ErrInsufficientBalance.
	ApplyDelta(ctx context.Context, userID int64, currency models.Currency, amount decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines the interface for the append-only transaction log
type TransactionRepository interface {
	// Record appends a new transaction entry
	Record(ctx context.Context, txn *models.Transaction) error

	// GetByUser returns a page of transactions plus the unpaged total count
	GetByUser(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error)

	// ExistsForRelated reports whether a transaction of the given type
	// already references the given related entity (idempotency lookups)
	ExistsForRelated(ctx context.Context, txType models.TransactionType, relatedType models.RelatedType, relatedID string) (bool, error)

	// FindUnreconciledBoostDebits returns boost debits created before
	// olderThan with no boost row and no refund referencing them
	FindUnreconciledBoostDebits(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error)

	// SumAmounts returns the signed sum of all transaction amounts for a
	// (user, currency); checked against the wallet balance to verify
	// ledger conservation
	SumAmounts(ctx context.Context, userID int64, currency models.Currency) (decimal.Decimal, error)
}

// CommunityPostRepository defines the interface for community post data access
type CommunityPostRepository interface {
	// Create creates a new post
	Create(ctx context.Context, post *models.CommunityPost) error

	// GetByID retrieves a post, or nil if none exists
	GetByID(ctx context.Context, id int64) (*models.CommunityPost, error)

	// AddBoostCounters atomically adjusts a post's boost score and free
	// vote count
	AddBoostCounters(ctx context.Context, postID int64, scoreDelta, voteDelta int64) error

	// ListFeed returns a page of posts ordered by the given sort
	ListFeed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.CommunityPost, error)
}

// CommunityBoostRepository defines the interface for boost data access
type CommunityBoostRepository interface {
	// Create creates a new boost row
	Create(ctx context.Context, boost *models.CommunityBoost) error

	// GetActiveFreeVote returns the active free-vote boost for (post, user),
	// or nil if there is none
	GetActiveFreeVote(ctx context.Context, postID, userID int64) (*models.CommunityBoost, error)

	// Deactivate marks a boost removed; the row is kept for audit
	Deactivate(ctx context.Context, boostID int64) error
}

// BoostEarningRepository defines the interface for creator earning records
type BoostEarningRepository interface {
	// Record creates a new earning row tying a boost to its crediting transaction
	Record(ctx context.Context, earning *models.CommunityBoostEarning) error

	// TopCreators aggregates earnings per creator since the given time
	// (nil for all time), ordered by ITC earned descending
	TopCreators(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error)
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// CreateFromPayment inserts an order keyed by its external payment id.
	// Returns false without error when an order for that payment already
	// exists (idempotent insert).
	CreateFromPayment(ctx context.Context, order *models.Order) (bool, error)

	// GetByPaymentID retrieves an order by payment id, or nil if none exists
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)

	// UpdateStatus moves a still-pending order to the given status.
	// Settled orders are left untouched, so replays are harmless.
	UpdateStatus(ctx context.Context, paymentID string, status models.OrderStatus) error

	// LifetimeSpend returns the sum of the user's paid order totals
	LifetimeSpend(ctx context.Context, userID int64) (decimal.Decimal, error)

	// CountPaidByUser returns the number of paid orders for a user
	CountPaidByUser(ctx context.Context, userID int64) (int64, error)
}

// AuditLogRepository defines the interface for best-effort audit records
type AuditLogRepository interface {
	// Record creates a new audit entry
	Record(ctx context.Context, entry *models.AuditEntry) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	WalletRepository() WalletRepository
	TransactionRepository() TransactionRepository
	CommunityPostRepository() CommunityPostRepository
	CommunityBoostRepository() CommunityBoostRepository
	BoostEarningRepository() BoostEarningRepository
	OrderRepository() OrderRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// DeltaRequest describes one ledger balance change.
type DeltaRequest struct {
	UserID      int64
	Currency    models.Currency
	Amount      decimal.Decimal
	Type        models.TransactionType
	Description string
	Related     *models.RelatedEntity
	Metadata    map[string]any
}

// LedgerService is the only component permitted to mutate wallet balances.
type LedgerService interface {
	// ApplyDelta atomically applies one balance change and appends the
	// matching transaction. On failure nothing is mutated.
	ApplyDelta(ctx context.Context, req DeltaRequest) (*models.Transaction, error)

	// GetWallet returns the user's wallet; unknown users get a zero-balance view
	GetWallet(ctx context.Context, userID int64) (*models.Wallet, error)

	// GetTransactionHistory returns a page of the user's ledger entries
	GetTransactionHistory(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error)

	// AdminAdjust applies an administrative delta; always audited
	AdminAdjust(ctx context.Context, adminID, userID int64, currency models.Currency, delta decimal.Decimal, reason string) (*models.Transaction, error)
}

// RewardService orchestrates the pure reward policy against the ledger.
type RewardService interface {
	// CreditOrderReward computes and credits the points and ITC earned by
	// a completed order
	CreditOrderReward(ctx context.Context, userID int64, orderID string, orderTotal decimal.Decimal) (*models.RewardCalculation, error)

	// CreditReferralReward credits a referral reward to the referrer
	CreditReferralReward(ctx context.Context, referrerID int64, kind models.ReferralKind, purchaseAmount decimal.Decimal) (*models.Transaction, error)

	// CreditMilestoneReward credits a milestone reward
	CreditMilestoneReward(ctx context.Context, userID int64, kind models.MilestoneKind) (*models.Transaction, error)
}

// PaidBoostResult is returned after a successful paid boost.
type PaidBoostResult struct {
	BoostID     int64
	BoostPoints int64
	NewBalance  decimal.Decimal
}

// BoostService applies the ledger to the community boost economy.
type BoostService interface {
	// CreatePost publishes a design into the community feed
	CreatePost(ctx context.Context, creatorID int64, title string) (*models.CommunityPost, error)

	// ToggleFreeVote toggles the caller's free vote on a post. Returns the
	// resulting vote state.
	ToggleFreeVote(ctx context.Context, userID, postID int64) (bool, error)

	// CreatePaidBoost debits the booster and boosts the post
	CreatePaidBoost(ctx context.Context, userID, postID int64, itcAmount decimal.Decimal) (*PaidBoostResult, error)

	// ListFeed returns a page of the community feed
	ListFeed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.CommunityPost, error)

	// Leaderboard returns the top-earning creators for a period
	Leaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int) ([]*models.LeaderboardEntry, error)
}

// ReconciliationService compensates boost debits whose boost was never
// recorded, such as after a crash between the committed debit and the
// boost transaction.
type ReconciliationService interface {
	// SweepOrphanedBoostDebits refunds orphaned boost debits created
	// before olderThan and returns the number refunded
	SweepOrphanedBoostDebits(ctx context.Context, olderThan time.Time) (int, error)
}

// PaymentIntakeService turns payment-processor events into ledger credits.
type PaymentIntakeService interface {
	// HandlePaymentSucceeded credits the purchased ITC for a completed
	// payment. Idempotent per payment id: replays are no-ops.
	HandlePaymentSucceeded(ctx context.Context, event models.PaymentEvent) error
}

// CheckoutSession is a payment-processor session for an ITC purchase.
type CheckoutSession struct {
	OrderID     string
	PaymentID   string
	Token       string
	RedirectURL string
}

// CheckoutService initiates ITC purchases with the payment processor.
type CheckoutService interface {
	CreateITCCheckout(ctx context.Context, userID int64, itcAmount decimal.Decimal) (*CheckoutSession, error)
}

// AuditSink records administrative wallet actions and errors, best effort.
// Failures are swallowed; they never affect the primary operation.
type AuditSink interface {
	LogWalletAction(ctx context.Context, actorID, targetUserID int64, action models.AuditAction, detail map[string]any)
	LogWalletError(ctx context.Context, actorID, targetUserID int64, opErr error, detail map[string]any)
}
