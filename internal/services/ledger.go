package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/models"
)

//go:generate mockgen -source=ledger.go -destination=ledger_mock_test.go -package=services

const defaultFailureReason = "transaction failed"

// TransactionRepository persists ledger records.
type TransactionRepository interface {
	Insert(ctx context.Context, rec *models.TransactionRecord) error
	Finalize(ctx context.Context, id uuid.UUID, status models.TransactionStatus, txHash, reason string) (*models.TransactionRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error)
	GetByHash(ctx context.Context, txHash string) (*models.TransactionRecord, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Ledger records every transfer attempt and its final outcome.
type Ledger struct {
	repo        TransactionRepository
	kafkaWriter KafkaWriter
	now         func() time.Time
}

// NewLedger creates a Ledger. kafkaWriter may be nil.
func NewLedger(repo TransactionRepository, kafkaWriter KafkaWriter) *Ledger {
	return &Ledger{
		repo:        repo,
		kafkaWriter: kafkaWriter,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordPending stores a PENDING record for a transfer about to be submitted.
func (l *Ledger) RecordPending(ctx context.Context, d models.TransferDescriptor) (*models.TransactionRecord, error) {
	rec := models.NewPendingRecord(d, l.now())
	if err := l.repo.Insert(ctx, rec); err != nil {
		logger.Log.Errorw("failed to record pending transaction", "from", d.FromAddress, "kind", d.Kind, "error", err)
		return nil, err
	}
	return rec, nil
}

// Finalize moves rec to COMPLETED or FAILED according to out. A record is finalized at most once.
func (l *Ledger) Finalize(ctx context.Context, rec *models.TransactionRecord, out models.Outcome) (*models.TransactionRecord, error) {
	status, hash, reason := models.TransactionStatusCompleted, out.TxHash, ""
	if !out.Success || out.TxHash == "" {
		status, hash, reason = models.TransactionStatusFailed, "", out.Error
		if reason == "" {
			reason = defaultFailureReason
		}
	}

	updated, err := l.repo.Finalize(ctx, rec.TransactionID, status, hash, reason)
	if err != nil {
		logger.Log.Errorw("failed to finalize transaction", "transaction_id", rec.TransactionID, "status", status, "error", err)
		return nil, err
	}
	if updated == nil {
		current, err := l.repo.GetByID(ctx, rec.TransactionID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrTransactionNotFound
		}
		return nil, ErrTransactionFinalized
	}

	logger.Log.Infow("transaction finalized",
		"transaction_id", updated.TransactionID,
		"status", updated.Status,
		"hash", updated.TransactionHash,
	)
	l.publish(ctx, updated)
	return updated, nil
}

// Get returns the record with id.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*models.TransactionRecord, error) {
	rec, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrTransactionNotFound
	}
	return rec, nil
}

// GetByHash returns the record carrying the on-chain hash.
func (l *Ledger) GetByHash(ctx context.Context, txHash string) (*models.TransactionRecord, error) {
	rec, err := l.repo.GetByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrTransactionNotFound
	}
	return rec, nil
}

// publish sends a finalized record to Kafka. Failures are logged only.
func (l *Ledger) publish(ctx context.Context, rec *models.TransactionRecord) {
	if l.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "transaction_id", rec.TransactionID)
		return
	}

	data, err := json.Marshal(models.NewTransactionEvent(rec))
	if err != nil {
		logger.Log.Errorw("failed to marshal transaction for Kafka", "transaction_id", rec.TransactionID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(rec.TransactionID.String()),
		Value: data,
	}
	if err := l.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish transaction to Kafka", "transaction_id", rec.TransactionID, "error", err)
		return
	}
	logger.Log.Infow("transaction published to Kafka", "transaction_id", rec.TransactionID, "status", rec.Status)
}
