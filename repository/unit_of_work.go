package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"printbay/database"
	"printbay/events"
	"printbay/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	walletRepo       service.WalletRepository
	transactionRepo  service.TransactionRepository
	postRepo         service.CommunityPostRepository
	boostRepo        service.CommunityBoostRepository
	earningRepo      service.BoostEarningRepository
	orderRepo        service.OrderRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.walletRepo = newWalletRepositoryWithTx(tx)
	u.transactionRepo = newTransactionRepositoryWithTx(tx)
	u.postRepo = newCommunityPostRepositoryWithTx(tx)
	u.boostRepo = newCommunityBoostRepositoryWithTx(tx)
	u.earningRepo = newBoostEarningRepositoryWithTx(tx)
	u.orderRepo = newOrderRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() service.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// TransactionRepository returns the transaction repository for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// CommunityPostRepository returns the community post repository for this unit of work
func (u *unitOfWork) CommunityPostRepository() service.CommunityPostRepository {
	if u.postRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.postRepo
}

// CommunityBoostRepository returns the community boost repository for this unit of work
func (u *unitOfWork) CommunityBoostRepository() service.CommunityBoostRepository {
	if u.boostRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.boostRepo
}

// BoostEarningRepository returns the boost earning repository for this unit of work
func (u *unitOfWork) BoostEarningRepository() service.BoostEarningRepository {
	if u.earningRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.earningRepo
}

// OrderRepository returns the order repository for this unit of work
func (u *unitOfWork) OrderRepository() service.OrderRepository {
	if u.orderRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.orderRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
