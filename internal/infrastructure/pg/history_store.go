package pg

import (
	"context"
	"fmt"
	"slices"
	"time"

	"lof-premium-service/internal/application"
	"lof-premium-service/internal/domain"
	"lof-premium-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HistoryStore struct {
	db  *DB
	now func() time.Time
}

var _ application.HistoryStore = (*HistoryStore)(nil)

func NewHistoryStore(db *DB) *HistoryStore { return &HistoryStore{db: db, now: time.Now} }

const upsertPoint = `
        INSERT INTO premium_history(instrument_id, display_name, record_date, premium_rate,
                                    last_price, reference_value, traded_volume, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (instrument_id, record_date) DO UPDATE
          SET display_name=EXCLUDED.display_name,
              premium_rate=EXCLUDED.premium_rate,
              last_price=EXCLUDED.last_price,
              reference_value=EXCLUDED.reference_value,
              traded_volume=EXCLUDED.traded_volume,
              recorded_at=EXCLUDED.recorded_at`

// UpsertDaily writes every record under asOf's date. It joins the unit of work found in ctx
// or opens its own transaction. Each row runs in a savepoint so one bad row only skips itself.
func (s *HistoryStore) UpsertDaily(ctx context.Context, records []domain.InstrumentSnapshot, asOf time.Time) (int, error) {
	log := logx.WithFields(ctx).With(
		zap.String("repo", "premium_history"),
		zap.String("operation", "UpsertDaily"),
		zap.String("date", domain.DateOf(asOf).Format(domain.DateLayout)),
		zap.Int("records", len(records)),
	)

	tx := txFromCtx(ctx)
	own := tx == nil
	if own {
		var err error
		tx, err = s.db.Pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			log.Error("sql.begin_failed", zap.Error(err))
			return 0, fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()
	}

	recordedAt := s.now().UTC()
	date := domain.DateOf(asOf)
	written := 0
	for _, r := range records {
		if !domain.ValidateInstrumentID(r.InstrumentID) {
			log.Warn("history.row_skipped", zap.String("instrument_id", r.InstrumentID), zap.Error(domain.ErrInvalidInstrument))
			continue
		}
		if err := s.upsertRow(ctx, tx, domain.PointFromSnapshot(r, date, recordedAt)); err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			log.Warn("history.row_skipped", zap.String("instrument_id", r.InstrumentID), zap.Error(err))
			continue
		}
		written++
	}

	if own {
		if err := tx.Commit(ctx); err != nil {
			log.Error("sql.commit_failed", zap.Error(err))
			return 0, fmt.Errorf("commit: %w", err)
		}
	}
	log.Info("sql.exec_success", zap.Int("written", written))
	return written, nil
}

func (s *HistoryStore) upsertRow(ctx context.Context, tx pgx.Tx, p domain.HistoryPoint) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	_, err = sp.Exec(ctx, upsertPoint,
		p.InstrumentID, p.DisplayName, p.RecordDate, p.PremiumRate,
		p.LastPrice, p.ReferenceValue, p.TradedVolume, p.RecordedAt)
	if err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

func (s *HistoryStore) History(ctx context.Context, instrumentID string, lookbackDays int) ([]domain.HistoryPoint, error) {
	out := make([]domain.HistoryPoint, 0)
	if lookbackDays <= 0 {
		return out, nil
	}
	const q = `
        SELECT instrument_id, display_name, record_date, premium_rate::float8,
               last_price::float8, reference_value::float8, traded_volume::float8, recorded_at
        FROM premium_history
        WHERE instrument_id=$1
        ORDER BY record_date DESC
        LIMIT $2`
	rows, err := s.conn(ctx).Query(ctx, q, instrumentID, lookbackDays)
	if err != nil {
		logx.WithFields(ctx).Error("sql.query_failed",
			zap.String("repo", "premium_history"),
			zap.String("operation", "History"),
			zap.String("instrument_id", instrumentID),
			zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.HistoryPoint
		if err := rows.Scan(&p.InstrumentID, &p.DisplayName, &p.RecordDate, &p.PremiumRate,
			&p.LastPrice, &p.ReferenceValue, &p.TradedVolume, &p.RecordedAt); err != nil {
			return nil, err
		}
		p.RecordDate = domain.DateOf(p.RecordDate)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// newest first from the query; callers get chronological order
	slices.Reverse(out)
	return out, nil
}

func (s *HistoryStore) LatestRecordedDate(ctx context.Context) (time.Time, bool, error) {
	var latest *time.Time
	if err := s.conn(ctx).QueryRow(ctx, `SELECT MAX(record_date) FROM premium_history`).Scan(&latest); err != nil {
		return time.Time{}, false, err
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return domain.DateOf(*latest), true, nil
}

func (s *HistoryStore) NeedsRecordingToday(ctx context.Context, today time.Time) (bool, error) {
	latest, ok, err := s.LatestRecordedDate(ctx)
	if err != nil {
		return false, err
	}
	return application.NeedsRecording(latest, ok, today), nil
}

func (s *HistoryStore) conn(ctx context.Context) querier {
	if tx := txFromCtx(ctx); tx != nil {
		return tx
	}
	return s.db.Pool
}
