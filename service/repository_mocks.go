package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"printbay/events"
	"printbay/models"
)

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) EnsureExists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, userID int64, currency models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, currency, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ExistsForRelated(ctx context.Context, txType models.TransactionType, relatedType models.RelatedType, relatedID string) (bool, error) {
	args := m.Called(ctx, txType, relatedType, relatedID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) FindUnreconciledBoostDebits(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SumAmounts(ctx context.Context, userID int64, currency models.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockCommunityPostRepository is a mock implementation of CommunityPostRepository
type MockCommunityPostRepository struct {
	mock.Mock
}

func (m *MockCommunityPostRepository) Create(ctx context.Context, post *models.CommunityPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockCommunityPostRepository) GetByID(ctx context.Context, id int64) (*models.CommunityPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommunityPost), args.Error(1)
}

func (m *MockCommunityPostRepository) AddBoostCounters(ctx context.Context, postID int64, scoreDelta, voteDelta int64) error {
	args := m.Called(ctx, postID, scoreDelta, voteDelta)
	return args.Error(0)
}

func (m *MockCommunityPostRepository) ListFeed(ctx context.Context, sort models.FeedSort, limit, offset int) ([]*models.CommunityPost, error) {
	args := m.Called(ctx, sort, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommunityPost), args.Error(1)
}

// MockCommunityBoostRepository is a mock implementation of CommunityBoostRepository
type MockCommunityBoostRepository struct {
	mock.Mock
}

func (m *MockCommunityBoostRepository) Create(ctx context.Context, boost *models.CommunityBoost) error {
	args := m.Called(ctx, boost)
	return args.Error(0)
}

func (m *MockCommunityBoostRepository) GetActiveFreeVote(ctx context.Context, postID, userID int64) (*models.CommunityBoost, error) {
	args := m.Called(ctx, postID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommunityBoost), args.Error(1)
}

func (m *MockCommunityBoostRepository) Deactivate(ctx context.Context, boostID int64) error {
	args := m.Called(ctx, boostID)
	return args.Error(0)
}

// MockBoostEarningRepository is a mock implementation of BoostEarningRepository
type MockBoostEarningRepository struct {
	mock.Mock
}

func (m *MockBoostEarningRepository) Record(ctx context.Context, earning *models.CommunityBoostEarning) error {
	args := m.Called(ctx, earning)
	return args.Error(0)
}

func (m *MockBoostEarningRepository) TopCreators(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateFromPayment(ctx context.Context, order *models.Order) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, paymentID string, status models.OrderStatus) error {
	args := m.Called(ctx, paymentID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) LifetimeSpend(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderRepository) CountPaidByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogRepository is a mock implementation of AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Record(ctx context.Context, entry *models.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// RecordingEventPublisher captures published events for assertions
type RecordingEventPublisher struct {
	Events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and
// Rollback are mocked; repository getters return whatever SetRepositories
// installed, and EventBus records into a RecordingEventPublisher.
type MockUnitOfWork struct {
	mock.Mock
	walletRepo  WalletRepository
	txnRepo     TransactionRepository
	postRepo    CommunityPostRepository
	boostRepo   CommunityBoostRepository
	earningRepo BoostEarningRepository
	orderRepo   OrderRepository
	eventBus    *RecordingEventPublisher
}

// SetRepositories installs the repositories the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	wallet WalletRepository,
	txn TransactionRepository,
	post CommunityPostRepository,
	boost CommunityBoostRepository,
	earning BoostEarningRepository,
	order OrderRepository,
) {
	m.walletRepo = wallet
	m.txnRepo = txn
	m.postRepo = post
	m.boostRepo = boost
	m.earningRepo = earning
	m.orderRepo = order
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) WalletRepository() WalletRepository {
	return m.walletRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.txnRepo
}

func (m *MockUnitOfWork) CommunityPostRepository() CommunityPostRepository {
	return m.postRepo
}

func (m *MockUnitOfWork) CommunityBoostRepository() CommunityBoostRepository {
	return m.boostRepo
}

func (m *MockUnitOfWork) BoostEarningRepository() BoostEarningRepository {
	return m.earningRepo
}

func (m *MockUnitOfWork) OrderRepository() OrderRepository {
	return m.orderRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &RecordingEventPublisher{}
	}
	return m.eventBus
}

// PublishedEvents returns the events published through this unit of work
func (m *MockUnitOfWork) PublishedEvents() []events.Event {
	if m.eventBus == nil {
		return nil
	}
	return m.eventBus.Events
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) ApplyDelta(ctx context.Context, req DeltaRequest) (*models.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockLedgerService) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockLedgerService) GetTransactionHistory(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerService) AdminAdjust(ctx context.Context, adminID, userID int64, currency models.Currency, delta decimal.Decimal, reason string) (*models.Transaction, error) {
	args := m.Called(ctx, adminID, userID, currency, delta, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
