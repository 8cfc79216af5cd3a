package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"printbay/database"
	"printbay/models"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a new transaction entry
func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	metadataJSON, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transactions
		(user_id, currency, amount, type, balance_before, balance_after, description, related_entity_type, related_entity_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.Currency,
		txn.Amount,
		txn.Type,
		txn.BalanceBefore,
		txn.BalanceAfter,
		txn.Description,
		txn.RelatedEntityType,
		txn.RelatedEntityID,
		metadataJSON,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for user %d: %w", txn.UserID, err)
	}

	return nil
}

// GetByUser returns a page of transactions plus the unpaged total count
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, filter models.HistoryFilter) ([]*models.Transaction, int64, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if filter.Currency != nil {
		args = append(args, *filter.Currency)
		where += fmt.Sprintf(" AND currency = $%d", len(args))
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		where += fmt.Sprintf(" AND type = ANY($%d)", len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions " + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for user %d: %w", userID, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	query := `
		SELECT id, user_id, currency, amount, type, balance_before, balance_after,
		       description, related_entity_type, related_entity_id, metadata, created_at
		FROM transactions ` + where + `
		ORDER BY id DESC` + limitClause

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var metadataJSON []byte

		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Currency,
			&txn.Amount,
			&txn.Type,
			&txn.BalanceBefore,
			&txn.BalanceAfter,
			&txn.Description,
			&txn.RelatedEntityType,
			&txn.RelatedEntityID,
			&metadataJSON,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, total, nil
}

// ExistsForRelated reports whether a transaction of the given type already
// references the given related entity
func (r *TransactionRepository) ExistsForRelated(ctx context.Context, txType models.TransactionType, relatedType models.RelatedType, relatedID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE type = $1 AND related_entity_type = $2 AND related_entity_id = $3
		)
	`

	var exists bool
	err := r.q.QueryRow(ctx, query, txType, relatedType, relatedID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence for %s %s: %w", relatedType, relatedID, err)
	}

	return exists, nil
}

// FindUnreconciledBoostDebits returns committed boost debits that have
// neither a boost row pointing back at them nor a refund referencing them.
// Such debits are crash leftovers: the booster paid but nothing was boosted.
// Debits newer than olderThan are skipped so in-flight boosts are left alone.
func (r *TransactionRepository) FindUnreconciledBoostDebits(ctx context.Context, olderThan time.Time, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.currency, t.amount, t.type, t.balance_before, t.balance_after,
		       t.description, t.related_entity_type, t.related_entity_id, t.metadata, t.created_at
		FROM transactions t
		WHERE t.type = $1
		  AND t.created_at < $2
		  AND NOT EXISTS (
		      SELECT 1 FROM community_boosts b WHERE b.debit_transaction_id = t.id
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM transactions r
		      WHERE r.type = $3 AND r.related_entity_type = $4 AND r.related_entity_id = t.id::text
		  )
		ORDER BY t.id
		LIMIT $5
	`

	rows, err := r.q.Query(ctx, query,
		models.TransactionTypeBoostSpent,
		olderThan,
		models.TransactionTypeRefund,
		models.RelatedTypeTransaction,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find unreconciled boost debits: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var metadataJSON []byte

		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Currency,
			&txn.Amount,
			&txn.Type,
			&txn.BalanceBefore,
			&txn.BalanceAfter,
			&txn.Description,
			&txn.RelatedEntityType,
			&txn.RelatedEntityID,
			&metadataJSON,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boost debit: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal boost debit metadata: %w", err)
			}
		}

		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boost debits: %w", err)
	}

	return txns, nil
}

// SumAmounts returns the signed sum of all transaction amounts for a (user, currency)
func (r *TransactionRepository) SumAmounts(ctx context.Context, userID int64, currency models.Currency) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND currency = $2
	`

	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, query, userID, currency).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions for user %d: %w", userID, err)
	}

	return sum, nil
}
