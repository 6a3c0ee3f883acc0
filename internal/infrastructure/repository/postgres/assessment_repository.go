package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
)

const priorClaimsLimit = 50

type AssessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AssessmentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS claim_assessments (
	reference TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	catalog_version TEXT NOT NULL,
	eligibility TEXT NOT NULL,
	fraud_risk_level TEXT NOT NULL,
	straight_through BOOLEAN NOT NULL DEFAULT FALSE,
	vin TEXT NOT NULL DEFAULT '',
	registration_number TEXT NOT NULL DEFAULT '',
	incident_date TEXT NOT NULL DEFAULT '',
	parts JSONB NOT NULL DEFAULT '[]'::jsonb,
	odometer DOUBLE PRECISION,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claim_assessments_vin ON claim_assessments(vin) WHERE vin <> '';
CREATE INDEX IF NOT EXISTS idx_claim_assessments_registration ON claim_assessments(registration_number) WHERE registration_number <> '';
CREATE INDEX IF NOT EXISTS idx_claim_assessments_created_at ON claim_assessments(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save upserts by claim reference; a resubmitted FNOL replaces the earlier
// assessment but keeps its creation time.
func (r *AssessmentRepository) Save(ctx context.Context, record domain.AssessmentRecord) error {
	a := record.Assessment
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	parts := record.Parts
	if parts == nil {
		parts = []string{}
	}
	partsJSON, err := json.Marshal(parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO claim_assessments (
	reference, fingerprint, catalog_version, eligibility, fraud_risk_level, straight_through,
	vin, registration_number, incident_date, parts, odometer, payload, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
ON CONFLICT (reference) DO UPDATE SET
	fingerprint = EXCLUDED.fingerprint,
	catalog_version = EXCLUDED.catalog_version,
	eligibility = EXCLUDED.eligibility,
	fraud_risk_level = EXCLUDED.fraud_risk_level,
	straight_through = EXCLUDED.straight_through,
	vin = EXCLUDED.vin,
	registration_number = EXCLUDED.registration_number,
	incident_date = EXCLUDED.incident_date,
	parts = EXCLUDED.parts,
	odometer = EXCLUDED.odometer,
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at
`,
		a.ClaimReferenceID, a.Fingerprint, a.CatalogVersion, string(a.Eligibility), string(a.FraudRiskLevel), a.StraightThrough,
		record.VIN, record.RegistrationNumber, record.IncidentDate, partsJSON, nullableFloat(record.Odometer), payload, createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert assessment: %w", err)
	}
	return nil
}

func (r *AssessmentRepository) GetByReference(ctx context.Context, reference string) (*domain.ClaimAssessment, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT payload
FROM claim_assessments
WHERE reference = $1
`, reference)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrAssessmentNotFound, "get assessment", fmt.Errorf("reference %s", reference))
		}
		return nil, fmt.Errorf("scan assessment: %w", err)
	}

	var a domain.ClaimAssessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return &a, nil
}

// ListPriorClaims returns the most recent assessments on the same vehicle,
// matched by VIN or registration number.
func (r *AssessmentRepository) ListPriorClaims(ctx context.Context, vin, registrationNumber string) ([]domain.PriorClaim, error) {
	if vin == "" && registrationNumber == "" {
		return []domain.PriorClaim{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT reference, incident_date, parts, odometer
FROM claim_assessments
WHERE ($1 <> '' AND vin = $1) OR ($2 <> '' AND registration_number = $2)
ORDER BY created_at DESC
LIMIT $3
`, vin, registrationNumber, priorClaimsLimit)
	if err != nil {
		return nil, fmt.Errorf("query prior claims: %w", err)
	}
	defer rows.Close()

	claims := make([]domain.PriorClaim, 0)
	for rows.Next() {
		var (
			claim    domain.PriorClaim
			partsRaw []byte
			odometer sql.NullFloat64
		)
		if err := rows.Scan(&claim.ClaimReferenceID, &claim.IncidentDate, &partsRaw, &odometer); err != nil {
			return nil, fmt.Errorf("scan prior claim: %w", err)
		}
		if err := json.Unmarshal(partsRaw, &claim.Parts); err != nil {
			return nil, fmt.Errorf("unmarshal prior claim parts: %w", err)
		}
		if odometer.Valid {
			v := odometer.Float64
			claim.Odometer = &v
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prior claims: %w", err)
	}
	return claims, nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
