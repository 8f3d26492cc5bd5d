package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
	"github.com/HuyPham171-hub/goldsight-web/pkg/database"
)

// Repository PostgreSQL 기반 원천 시계열 조회 + 예측/평가 결과 저장소
// contracts.HistoryProvider, contracts.ForecastStore 구현
type Repository struct {
	db *database.DB
}

// NewRepository 새 저장소 생성
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

var (
	_ contracts.HistoryProvider = (*Repository)(nil)
	_ contracts.ForecastStore   = (*Repository)(nil)
)

// LoadObservations 기간 내 피처 관측값을 (source, frequency) 단위 시계열로 조회
func (r *Repository) LoadObservations(ctx context.Context, features []string, from, to time.Time) ([]contracts.SourceSeries, error) {
	query := `
		SELECT source, frequency, feature, obs_date, value
		FROM market.observations
		WHERE feature = ANY($1) AND obs_date BETWEEN $2 AND $3
		ORDER BY source, frequency, feature, obs_date`

	rows, err := r.db.Pool.Query(ctx, query, features, from, to)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var (
		out []contracts.SourceSeries
		cur *contracts.SourceSeries
	)
	for rows.Next() {
		var (
			source, frequency string
			obs               contracts.Observation
		)
		if err := rows.Scan(&source, &frequency, &obs.Feature, &obs.Date, &obs.Value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if cur == nil || cur.Source != source || string(cur.Frequency) != frequency {
			out = append(out, contracts.SourceSeries{Source: source, Frequency: contracts.Frequency(frequency)})
			cur = &out[len(out)-1]
		}
		cur.Observations = append(cur.Observations, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return out, nil
}

// SaveObservations 원천 관측값 일괄 upsert (CSV 적재용)
func (r *Repository) SaveObservations(ctx context.Context, series []contracts.SourceSeries) (int, error) {
	query := `
		INSERT INTO market.observations (feature, obs_date, source, frequency, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (feature, obs_date) DO UPDATE SET
			source = EXCLUDED.source,
			frequency = EXCLUDED.frequency,
			value = EXCLUDED.value,
			updated_at = NOW()`

	batch := &pgx.Batch{}
	for _, s := range series {
		for _, obs := range s.Observations {
			batch.Queue(query, obs.Feature, obs.Date, s.Source, string(s.Frequency), obs.Value)
		}
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert observation %d: %w", i, err)
		}
	}

	return batch.Len(), nil
}

// SaveForecast 예측 실행과 시점별 결과를 한 트랜잭션으로 저장
func (r *Repository) SaveForecast(ctx context.Context, result *contracts.ForecastResult) error {
	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", result.RunID, err)
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO forecast.runs
				(run_id, model_id, target, horizon, generated_at, last_observed, last_value,
				 exogenous_policy, band_method, band_approximate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, result.ModelID, result.Target, int(result.Horizon), result.GeneratedAt,
			result.LastObserved, result.LastValue, result.ExogenousPolicy,
			result.BandMethod, result.BandApproximate,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range result.Points {
			batch.Queue(`
				INSERT INTO forecast.points (run_id, step, target_date, value, lower_bound, upper_bound)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				runID, p.Step, p.Date, p.Value, p.Lower, p.Upper)
		}

		br := tx.SendBatch(ctx, batch)
		for range result.Points {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert point: %w", err)
			}
		}
		return br.Close()
	})
}

// GetLatestForecast 모델/기간별 가장 최근 예측 조회
func (r *Repository) GetLatestForecast(ctx context.Context, modelID string, horizon contracts.Horizon) (*contracts.ForecastResult, error) {
	query := `
		SELECT run_id::text, model_id, target, horizon, generated_at, last_observed, last_value,
			   exogenous_policy, band_method, band_approximate
		FROM forecast.runs
		WHERE model_id = $1 AND horizon = $2
		ORDER BY generated_at DESC
		LIMIT 1`

	var (
		res contracts.ForecastResult
		hz  int
	)
	err := r.db.Pool.QueryRow(ctx, query, modelID, int(horizon)).Scan(
		&res.RunID, &res.ModelID, &res.Target, &hz, &res.GeneratedAt, &res.LastObserved,
		&res.LastValue, &res.ExogenousPolicy, &res.BandMethod, &res.BandApproximate,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: forecast %s/%s", contracts.ErrNoResult, modelID, horizon)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	res.Horizon = contracts.Horizon(hz)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT step, target_date, value, lower_bound, upper_bound
		FROM forecast.points
		WHERE run_id = $1::uuid
		ORDER BY step`, res.RunID)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p contracts.ForecastPoint
		if err := rows.Scan(&p.Step, &p.Date, &p.Value, &p.Lower, &p.Upper); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		res.Points = append(res.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}

	return &res, nil
}

// SaveEvaluation 평가 리포트 저장 (이력 유지, upsert 아님)
func (r *Repository) SaveEvaluation(ctx context.Context, report contracts.EvaluationReport) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO forecast.evaluations
			(model_id, samples, r_squared, rmse, mae, residual_std, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		report.ModelID, report.Samples, report.RSquared, report.RMSE,
		report.MAE, report.ResidualStd, report.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetLatestEvaluation 모델의 가장 최근 평가 조회
func (r *Repository) GetLatestEvaluation(ctx context.Context, modelID string) (*contracts.EvaluationReport, error) {
	query := `
		SELECT model_id, samples, r_squared, rmse, mae, residual_std, evaluated_at
		FROM forecast.evaluations
		WHERE model_id = $1
		ORDER BY evaluated_at DESC
		LIMIT 1`

	var e contracts.EvaluationReport
	err := r.db.Pool.QueryRow(ctx, query, modelID).Scan(
		&e.ModelID, &e.Samples, &e.RSquared, &e.RMSE, &e.MAE, &e.ResidualStd, &e.EvaluatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: evaluation %s", contracts.ErrNoResult, modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest evaluation: %w", err)
	}

	return &e, nil
}
