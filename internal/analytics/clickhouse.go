package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Service records enrichment activity for offline analysis.
// Implementations must treat recording as best-effort; callers ignore
// failures beyond logging them.
type Service interface {
	// RecordPass records one completed enrichment pass.
	RecordPass(ctx context.Context, rec PassRecord) error
}

// PassRecord mirrors a row in the enrichment_passes table.
type PassRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	PassID        string    `json:"pass_id"`
	UserID        string    `json:"user_id"`
	Pass          string    `json:"pass"`
	Bidders       int       `json:"bidders"`
	ACCohorts     int       `json:"ac_cohorts"`
	SSPCohorts    int       `json:"ssp_cohorts"`
	CustomCohorts int       `json:"custom_cohorts"`
	TopicVersions int       `json:"topic_versions"`
	DurationMS    int64     `json:"duration_ms"`
}

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB *sql.DB
}

var _ Service = (*Analytics)(nil)

// InitClickHouse connects to ClickHouse and ensures the
// enrichment_passes table exists.
func InitClickHouse(dsn string) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS enrichment_passes (
	timestamp DateTime64(3),
	pass_id String,
	user_id String,
	pass LowCardinality(String),
	bidders UInt16,
	ac_cohorts UInt32,
	ssp_cohorts UInt32,
	custom_cohorts UInt32,
	topic_versions UInt16,
	duration_ms Int64
) ENGINE = MergeTree()
ORDER BY (timestamp, pass_id)`
	if _, err := db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("create enrichment_passes table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: db}, nil
}

// RecordPass inserts one pass row.
func (a *Analytics) RecordPass(ctx context.Context, rec PassRecord) error {
	const q = `
INSERT INTO enrichment_passes
	(timestamp, pass_id, user_id, pass, bidders, ac_cohorts, ssp_cohorts, custom_cohorts, topic_versions, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := a.DB.ExecContext(ctx, q,
		rec.Timestamp,
		rec.PassID,
		rec.UserID,
		rec.Pass,
		rec.Bidders,
		rec.ACCohorts,
		rec.SSPCohorts,
		rec.CustomCohorts,
		rec.TopicVersions,
		rec.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("insert enrichment pass: %w", err)
	}
	return nil
}

// Close shuts down the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
