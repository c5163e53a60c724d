package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/piwi3910/GlassCut/internal/model"
)

// First quote number handed out on an empty database is firstQuoteNumber+1.
const firstQuoteNumber = 1000

var (
	// ErrNoChanges is returned when a new version would be identical to the
	// latest saved one.
	ErrNoChanges = errors.New("no changes since the previous version")
	// ErrQuoteNotFound is returned for unknown quote ids or numbers.
	ErrQuoteNotFound = errors.New("quote not found")
)

// QuoteRecord is a priced job as saved. QuoteNumber 0 asks for a new number;
// a known number saves the next version of that quote.
type QuoteRecord struct {
	ID          int64                 `json:"id"`
	QuoteNumber int                   `json:"quote_number"`
	Version     int                   `json:"version"`
	Customer    string                `json:"customer"`
	JobName     string                `json:"job_name"`
	CreatedBy   string                `json:"created_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	Specs       []model.GlassItemSpec `json:"specs"`
	Job         model.JobQuote        `json:"job"`
}

// QuoteSummary is one row of the quote history.
type QuoteSummary struct {
	ID          int64           `json:"id"`
	QuoteNumber int             `json:"quote_number"`
	Version     int             `json:"version"`
	Customer    string          `json:"customer"`
	JobName     string          `json:"job_name"`
	Items       int             `json:"items"`
	Total       decimal.Decimal `json:"total"`
	QuotePrice  decimal.Decimal `json:"quote_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SaveQuote stores rec and returns it with ID, QuoteNumber, Version and
// CreatedAt filled in. Saving an existing number whose latest version has the
// same customer, job name and quote price fails with ErrNoChanges.
func (s *Store) SaveQuote(ctx context.Context, rec QuoteRecord) (QuoteRecord, error) {
	if len(rec.Specs) != len(rec.Job.Items) {
		return QuoteRecord{}, fmt.Errorf("quote has %d specs but %d priced items", len(rec.Specs), len(rec.Job.Items))
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if rec.QuoteNumber == 0 {
			err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(quote_number), ?) + 1 FROM quotes", firstQuoteNumber).
				Scan(&rec.QuoteNumber)
			if err != nil {
				return fmt.Errorf("failed to allocate quote number: %w", err)
			}
			rec.Version = 1
		} else {
			var (
				lastCustomer, lastJob string
				lastPrice             decimal.Decimal
			)
			err := tx.QueryRowContext(ctx, `SELECT customer_name, job_name, quote_price FROM quotes
				WHERE quote_number = ? ORDER BY version DESC LIMIT 1`, rec.QuoteNumber).
				Scan(&lastCustomer, &lastJob, &lastPrice)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("quote %d: %w", rec.QuoteNumber, ErrQuoteNotFound)
			}
			if err != nil {
				return fmt.Errorf("failed to load latest version of quote %d: %w", rec.QuoteNumber, err)
			}
			if lastCustomer == rec.Customer && lastJob == rec.JobName && lastPrice.Equal(rec.Job.QuotePrice) {
				return fmt.Errorf("quote %d: %w", rec.QuoteNumber, ErrNoChanges)
			}
			if err := tx.QueryRowContext(ctx, "SELECT MAX(version) + 1 FROM quotes WHERE quote_number = ?", rec.QuoteNumber).
				Scan(&rec.Version); err != nil {
				return fmt.Errorf("failed to allocate version: %w", err)
			}
		}

		rec.CreatedAt = s.now()
		res, err := tx.ExecContext(ctx, `INSERT INTO quotes
			(quote_number, version, customer_name, job_name, total, margin_divisor, quote_price, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.QuoteNumber, rec.Version, rec.Customer, rec.JobName,
			rec.Job.Total, rec.Job.MarginDivisor, rec.Job.QuotePrice, rec.CreatedBy, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert quote: %w", err)
		}
		if rec.ID, err = res.LastInsertId(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO quote_items
			(quote_id, position, label, quantity, per_unit_total, total, spec_json, breakdown_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, item := range rec.Job.Items {
			specJSON, err := json.Marshal(rec.Specs[i])
			if err != nil {
				return fmt.Errorf("failed to encode item %d: %w", i+1, err)
			}
			breakdownJSON, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to encode item %d: %w", i+1, err)
			}
			if _, err := stmt.ExecContext(ctx, rec.ID, i, item.Label, item.Quantity,
				item.PerUnitTotal, item.Total, string(specJSON), string(breakdownJSON)); err != nil {
				return fmt.Errorf("failed to insert item %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return QuoteRecord{}, err
	}
	return rec, nil
}

// ListQuotes returns every saved version, newest quote first.
func (s *Store) ListQuotes(ctx context.Context) ([]QuoteSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT q.id, q.quote_number, q.version, q.customer_name, q.job_name,
			(SELECT count(*) FROM quote_items i WHERE i.quote_id = q.id), q.total, q.quote_price, q.created_at
		FROM quotes q ORDER BY q.quote_number DESC, q.version DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	quotes := []QuoteSummary{}
	for rows.Next() {
		var q QuoteSummary
		if err := rows.Scan(&q.ID, &q.QuoteNumber, &q.Version, &q.Customer, &q.JobName,
			&q.Items, &q.Total, &q.QuotePrice, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// LoadQuote returns one saved version by its row id.
func (s *Store) LoadQuote(ctx context.Context, id int64) (QuoteRecord, error) {
	rec := QuoteRecord{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT quote_number, version, customer_name, job_name, total,
		margin_divisor, quote_price, created_by, created_at FROM quotes WHERE id = ?`, id).
		Scan(&rec.QuoteNumber, &rec.Version, &rec.Customer, &rec.JobName, &rec.Job.Total,
			&rec.Job.MarginDivisor, &rec.Job.QuotePrice, &rec.CreatedBy, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return QuoteRecord{}, fmt.Errorf("quote id %d: %w", id, ErrQuoteNotFound)
	}
	if err != nil {
		return QuoteRecord{}, fmt.Errorf("failed to load quote %d: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT spec_json, breakdown_json FROM quote_items
		WHERE quote_id = ? ORDER BY position`, id)
	if err != nil {
		return QuoteRecord{}, fmt.Errorf("failed to query quote items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var specJSON, breakdownJSON string
		if err := rows.Scan(&specJSON, &breakdownJSON); err != nil {
			return QuoteRecord{}, fmt.Errorf("failed to scan quote item: %w", err)
		}
		var spec model.GlassItemSpec
		if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
			return QuoteRecord{}, fmt.Errorf("failed to decode quote item: %w", err)
		}
		var item model.QuoteBreakdown
		if err := json.Unmarshal([]byte(breakdownJSON), &item); err != nil {
			return QuoteRecord{}, fmt.Errorf("failed to decode quote item: %w", err)
		}
		rec.Specs = append(rec.Specs, spec)
		rec.Job.Items = append(rec.Job.Items, item)
	}
	return rec, rows.Err()
}

// LatestQuote returns the newest version saved under quoteNumber.
func (s *Store) LatestQuote(ctx context.Context, quoteNumber int) (QuoteRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM quotes WHERE quote_number = ?
		ORDER BY version DESC LIMIT 1`, quoteNumber).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return QuoteRecord{}, fmt.Errorf("quote %d: %w", quoteNumber, ErrQuoteNotFound)
	}
	if err != nil {
		return QuoteRecord{}, err
	}
	return s.LoadQuote(ctx, id)
}
