package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"printbay/models"
)

type auditSink struct {
	repo AuditLogRepository
}

// NewAuditSink creates an audit sink over the audit log repository.
// Writes are best effort: a failed audit write is logged and swallowed so
// it can never fail the ledger operation it describes.
func NewAuditSink(repo AuditLogRepository) AuditSink {
	return &auditSink{repo: repo}
}

func (s *auditSink) LogWalletAction(ctx context.Context, actorID, targetUserID int64, action models.AuditAction, detail map[string]any) {
	entry := &models.AuditEntry{
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       action,
		Detail:       detail,
	}

	if err := s.repo.Record(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"actorID":      actorID,
			"targetUserID": targetUserID,
			"action":       action,
		}).WithError(err).Warn("Failed to write audit entry")
	}
}

func (s *auditSink) LogWalletError(ctx context.Context, actorID, targetUserID int64, opErr error, detail map[string]any) {
	if detail == nil {
		detail = map[string]any{}
	}
	if opErr != nil {
		detail["error"] = opErr.Error()
	}

	entry := &models.AuditEntry{
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       models.AuditActionWalletError,
		Detail:       detail,
	}

	if err := s.repo.Record(ctx, entry); err != nil {
		log.WithFields(log.Fields{
			"actorID":      actorID,
			"targetUserID": targetUserID,
		}).WithError(err).Warn("Failed to write audit error entry")
	}
}
