package models

import "time"

// AuditAction names an administrative wallet action.
type AuditAction string

const (
	AuditActionAdjustWallet AuditAction = "adjust_wallet"
	AuditActionWalletError  AuditAction = "wallet_error"
)

// AuditEntry is a best-effort record of an administrative wallet action or
// error. Audit completeness is advisory: failing to write one never fails
// the ledger operation it describes.
type AuditEntry struct {
	ID           int64          `db:"id"`
	ActorID      int64          `db:"actor_id"`
	TargetUserID int64          `db:"target_user_id"`
	Action       AuditAction    `db:"action"`
	Detail       map[string]any `db:"detail"`
	CreatedAt    time.Time      `db:"created_at"`
}
