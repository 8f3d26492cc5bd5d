package forecast

// Schema 예측 파이프라인 테이블 DDL
// ⭐ SSOT: market.observations는 외부 수집 시스템이 채우고, forecast.* 는 이 서비스만 기록
// 모든 문은 재실행 가능 (db migrate)
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS market`,
	`CREATE SCHEMA IF NOT EXISTS forecast`,

	`CREATE TABLE IF NOT EXISTS market.observations (
		feature    TEXT             NOT NULL,
		obs_date   DATE             NOT NULL,
		source     TEXT             NOT NULL,
		frequency  TEXT             NOT NULL DEFAULT 'daily',
		value      DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (feature, obs_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_date ON market.observations (obs_date)`,

	`CREATE TABLE IF NOT EXISTS forecast.runs (
		run_id           UUID             PRIMARY KEY,
		model_id         TEXT             NOT NULL,
		target           TEXT             NOT NULL,
		horizon          INT              NOT NULL,
		generated_at     TIMESTAMPTZ      NOT NULL,
		last_observed    DATE             NOT NULL,
		last_value       DOUBLE PRECISION NOT NULL,
		exogenous_policy TEXT             NOT NULL,
		band_method      TEXT             NOT NULL,
		band_approximate BOOLEAN          NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_model_horizon ON forecast.runs (model_id, horizon, generated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS forecast.points (
		run_id      UUID             NOT NULL REFERENCES forecast.runs (run_id) ON DELETE CASCADE,
		step        INT              NOT NULL,
		target_date DATE             NOT NULL,
		value       DOUBLE PRECISION NOT NULL,
		lower_bound DOUBLE PRECISION NOT NULL,
		upper_bound DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, step)
	)`,

	`CREATE TABLE IF NOT EXISTS forecast.evaluations (
		id           BIGSERIAL        PRIMARY KEY,
		model_id     TEXT             NOT NULL,
		samples      INT              NOT NULL,
		r_squared    DOUBLE PRECISION NOT NULL,
		rmse         DOUBLE PRECISION NOT NULL,
		mae          DOUBLE PRECISION NOT NULL,
		residual_std DOUBLE PRECISION NOT NULL,
		evaluated_at TIMESTAMPTZ      NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_evaluations_model ON forecast.evaluations (model_id, evaluated_at DESC)`,
}
