package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/postgres/generated"
	"github.com/iho/farmledger/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
	}
}

// Create appends an entry. A second entry for the same kind, account and
// event id violates ledger_entries_event_uidx and is reported as
// domain.ErrDuplicateEvent.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	metadata, err := marshalMetadata(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode entry metadata: %w", err)
	}

	err = txQueries(tx).CreateEntry(ctx, generated.CreateEntryParams{
		ID:                entry.ID,
		AccountID:         entry.AccountID,
		Kind:              string(entry.Kind),
		Status:            string(entry.Status),
		Currency:          string(entry.Currency),
		Amount:            decimalToNumeric(entry.Amount),
		BalanceAfter:      nullDecimalToNumeric(entry.BalanceAfter),
		Description:       entry.Description,
		Metadata:          metadata,
		ExternalReference: stringPtrToText(entry.ExternalReference),
		EventID:           stringPtrToText(entry.EventID),
		AccountVersion:    entry.AccountVersion,
		CreatedAt:         timeToPgTimestamptz(entry.CreatedAt),
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s entry for account %s", domain.ErrDuplicateEvent, entry.Kind, entry.AccountID)
	}

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	return entryOrNotFound(row, err)
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	row, err := txQueries(tx).GetEntryByIDForUpdate(ctx, id)
	return entryOrNotFound(row, err)
}

// GetByExternalReferenceTx locks the entry of kind carrying ref.
func (r *EntryRepository) GetByExternalReferenceTx(ctx context.Context, tx usecase.Transaction, kind domain.EntryKind, ref string) (*domain.LedgerEntry, error) {
	row, err := txQueries(tx).GetEntryByExternalReferenceForUpdate(ctx, generated.GetEntryByExternalReferenceForUpdateParams{
		Kind:              string(kind),
		ExternalReference: stringToText(ref),
	})
	return entryOrNotFound(row, err)
}

// UpdateStatus finalizes a pending entry.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	n, err := txQueries(tx).UpdateEntryStatus(ctx, generated.UpdateEntryStatusParams{
		ID:             entry.ID,
		Status:         string(entry.Status),
		BalanceAfter:   nullDecimalToNumeric(entry.BalanceAfter),
		AccountVersion: entry.AccountVersion,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidEntryTransition
	}

	return nil
}

// ListByAccount lists entries of an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	return rowsToEntries(rows, err)
}

// ListByKind lists entries of a kind, newest first.
func (r *EntryRepository) ListByKind(ctx context.Context, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByKind(ctx, generated.ListEntriesByKindParams{
		Kind:   string(kind),
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	return rowsToEntries(rows, err)
}

// ListByExternalReference lists every entry carrying ref.
func (r *EntryRepository) ListByExternalReference(ctx context.Context, ref string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByExternalReference(ctx, stringToText(ref))
	return rowsToEntries(rows, err)
}

// ListByEventID lists the entries of an event together with the commissions
// derived from it.
func (r *EntryRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListEntriesByEventID(ctx, stringToText(eventID))
	return rowsToEntries(rows, err)
}

// SumCompletedTx sums completed entries per currency inside tx.
func (r *EntryRepository) SumCompletedTx(ctx context.Context, tx usecase.Transaction, accountID string) (map[domain.Currency]decimal.Decimal, error) {
	rows, err := txQueries(tx).SumCompletedEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	sums := make(map[domain.Currency]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[domain.Currency(row.Currency)] = numericToDecimal(row.Total)
	}

	return sums, nil
}

func entryOrNotFound(row generated.LedgerEntry, err error) (*domain.LedgerEntry, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return rowToEntry(row), nil
}

func rowsToEntries(rows []generated.LedgerEntry, err error) ([]*domain.LedgerEntry, error) {
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:                row.ID,
		AccountID:         row.AccountID,
		Kind:              domain.EntryKind(row.Kind),
		Status:            domain.EntryStatus(row.Status),
		Currency:          domain.Currency(row.Currency),
		Amount:            numericToDecimal(row.Amount),
		BalanceAfter:      numericToNullDecimal(row.BalanceAfter),
		Description:       row.Description,
		Metadata:          unmarshalMetadata(row.Metadata),
		ExternalReference: textToStringPtr(row.ExternalReference),
		EventID:           textToStringPtr(row.EventID),
		AccountVersion:    row.AccountVersion,
		CreatedAt:         row.CreatedAt.Time,
	}
}
