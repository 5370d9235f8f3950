package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
	"lof-premium-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

type HistoryStore struct {
	db  *DB
	now func() time.Time
}

var _ application.HistoryStore = (*HistoryStore)(nil)

func NewHistoryStore(db *DB) *HistoryStore { return &HistoryStore{db: db, now: time.Now} }

const upsertPoint = `
INSERT INTO premium_history (instrument_id, display_name, record_date, premium_rate,
                             last_price, reference_value, traded_volume, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (instrument_id, record_date) DO UPDATE SET
    display_name=excluded.display_name,
    premium_rate=excluded.premium_rate,
    last_price=excluded.last_price,
    reference_value=excluded.reference_value,
    traded_volume=excluded.traded_volume,
    recorded_at=excluded.recorded_at`

// UpsertDaily writes the batch in one transaction. SQLite rolls back only the failing
// statement, so a bad row is skipped without losing the others.
func (s *HistoryStore) UpsertDaily(ctx context.Context, records []domain.InstrumentSnapshot, asOf time.Time) (int, error) {
	date := domain.DateOf(asOf).Format(domain.DateLayout)
	log := logx.WithFields(ctx).With(
		zap.String("repo", "premium_history"),
		zap.String("operation", "UpsertDaily"),
		zap.String("date", date),
	)

	tx, err := s.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, upsertPoint)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	recordedAt := s.now().UTC().Format(time.RFC3339Nano)
	written := 0
	for _, r := range records {
		if !domain.ValidateInstrumentID(r.InstrumentID) {
			log.Warn("history.row_skipped", zap.String("instrument_id", r.InstrumentID), zap.Error(domain.ErrInvalidInstrument))
			continue
		}
		_, err := stmt.ExecContext(ctx, r.InstrumentID, r.DisplayName, date, r.PremiumRate,
			r.LastPrice, r.ReferenceValue, r.TradedVolume, recordedAt)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			log.Warn("history.row_skipped", zap.String("instrument_id", r.InstrumentID), zap.Error(err))
			continue
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	log.Info("sql.exec_success", zap.Int("written", written), zap.Int("records", len(records)))
	return written, nil
}

func (s *HistoryStore) History(ctx context.Context, instrumentID string, lookbackDays int) ([]domain.HistoryPoint, error) {
	out := make([]domain.HistoryPoint, 0)
	if lookbackDays <= 0 {
		return out, nil
	}
	rows, err := s.db.SQL.QueryContext(ctx, `
SELECT instrument_id, display_name, record_date, premium_rate, last_price,
       reference_value, traded_volume, recorded_at
FROM premium_history
WHERE instrument_id = ?
ORDER BY record_date DESC
LIMIT ?`, instrumentID, lookbackDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p                domain.HistoryPoint
			date, recordedAt string
		)
		if err := rows.Scan(&p.InstrumentID, &p.DisplayName, &date, &p.PremiumRate, &p.LastPrice,
			&p.ReferenceValue, &p.TradedVolume, &recordedAt); err != nil {
			return nil, err
		}
		if p.RecordDate, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("bad record_date %q: %w", date, err)
		}
		p.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

func (s *HistoryStore) LatestRecordedDate(ctx context.Context) (time.Time, bool, error) {
	var latest sql.NullString
	if err := s.db.SQL.QueryRowContext(ctx, `SELECT MAX(record_date) FROM premium_history`).Scan(&latest); err != nil {
		return time.Time{}, false, err
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	d, err := domain.ParseDate(latest.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad record_date %q: %w", latest.String, err)
	}
	return d, true, nil
}

func (s *HistoryStore) NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error) {
	latest, ok, err := s.LatestRecordedDate(ctx)
	if err != nil {
		return false, err
	}
	return application.NeedsRecording(latest, ok, today), nil
}
