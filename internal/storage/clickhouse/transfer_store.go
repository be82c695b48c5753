package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solana-holder-flow/internal/domain"
	"solana-holder-flow/internal/storage"
)

// TransferStore implements storage.TransferStore on a ReplacingMergeTree table.
// ClickHouse does not enforce keys, so inserts check existence first and
// reads use FINAL to collapse any rows that raced past the check.
type TransferStore struct {
	conn *Conn
}

// NewTransferStore creates a new TransferStore.
func NewTransferStore(conn *Conn) *TransferStore {
	return &TransferStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransferStore = (*TransferStore)(nil)

// InsertIfAbsent stores e unless its transfer_id exists.
func (s *TransferStore) InsertIfAbsent(ctx context.Context, e *domain.TransferEvent) (inserted bool, err error) {
	if err := storage.ValidateTransfer(e); err != nil {
		return false, err
	}

	start := time.Now()
	defer func() { observe("insert_transfer", start, err) }()

	exists, err := s.exists(ctx, e.TransferID)
	if err != nil {
		return false, fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return false, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transfers (
			transfer_id, wallet_address, amount, direction, protocol,
			timestamp, tx_signature, instruction_index, slot
		)
	`)
	if err != nil {
		return false, fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		e.TransferID, e.WalletAddress, e.Amount, string(e.Direction), e.Protocol,
		e.Timestamp.UTC(), e.TxSignature, uint32(e.InstructionIndex), uint64(e.Slot),
	)
	if err != nil {
		return false, fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return false, fmt.Errorf("send batch: %w", err)
	}
	return true, nil
}

// List returns matching transfers ordered by timestamp DESC, then transfer_id.
func (s *TransferStore) List(ctx context.Context, f domain.TransferFilter) (out []*domain.TransferEvent, err error) {
	start := time.Now()
	defer func() { observe("list_transfers", start, err) }()

	where, args := whereClause(f)
	query := `
		SELECT transfer_id, wallet_address, amount, direction, protocol,
			timestamp, tx_signature, instruction_index, slot
		FROM transfers FINAL` + where + `
		ORDER BY timestamp DESC, transfer_id ASC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	out = make([]*domain.TransferEvent, 0)
	for rows.Next() {
		var (
			e         domain.TransferEvent
			amount    decimal.Decimal
			direction string
			index     uint32
			slot      uint64
		)
		if err := rows.Scan(
			&e.TransferID, &e.WalletAddress, &amount, &direction, &e.Protocol,
			&e.Timestamp, &e.TxSignature, &index, &slot,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		e.Amount = amount
		e.Direction = domain.Direction(direction)
		e.InstructionIndex = int(index)
		e.Slot = int64(slot)
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, &e)
	}
	return out, rows.Err()
}

// Count returns the number of matching transfers.
func (s *TransferStore) Count(ctx context.Context, f domain.TransferFilter) (n int64, err error) {
	start := time.Now()
	defer func() { observe("count_transfers", start, err) }()

	where, args := whereClause(f)
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM transfers FINAL`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transfers: %w", err)
	}
	return int64(count), nil
}

func (s *TransferStore) exists(ctx context.Context, transferID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM transfers WHERE transfer_id = ?`, transferID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func whereClause(f domain.TransferFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Wallet != "" {
		conds = append(conds, "wallet_address = ?")
		args = append(args, f.Wallet)
	}
	if f.Direction != "" {
		conds = append(conds, "direction = ?")
		args = append(args, string(f.Direction))
	}
	if f.From != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, f.To.UTC())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "\n\t\tWHERE " + strings.Join(conds, " AND "), args
}
