package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"internscout-engine/internal/domain"
)

// Postgres is the shared-deployment backend. Same contract as SQLite; the
// atomic conditional insert rides on ON CONFLICT DO NOTHING.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			name_key    TEXT NOT NULL UNIQUE,
			domain      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS postings (
			id                   BIGSERIAL PRIMARY KEY,
			company_id           BIGINT NOT NULL REFERENCES companies(id),
			title                TEXT NOT NULL,
			exact_role           TEXT NOT NULL DEFAULT '',
			normalized_role      TEXT NOT NULL DEFAULT 'unknown',
			relevant_majors      JSONB NOT NULL DEFAULT '[]',
			skills               JSONB NOT NULL DEFAULT '[]',
			eligibility_years    JSONB NOT NULL DEFAULT '[]',
			work_type            TEXT NOT NULL DEFAULT 'unknown',
			pay_rate_min         DOUBLE PRECISION NOT NULL DEFAULT 0,
			pay_rate_max         DOUBLE PRECISION NOT NULL DEFAULT 0,
			pay_currency         TEXT NOT NULL DEFAULT '',
			pay_type             TEXT NOT NULL DEFAULT '',
			location             TEXT NOT NULL DEFAULT '',
			is_remote            BOOLEAN NOT NULL DEFAULT FALSE,
			is_program_specific  BOOLEAN NOT NULL DEFAULT FALSE,
			internship_cycle     TEXT NOT NULL DEFAULT '',
			description          TEXT NOT NULL DEFAULT '',
			application_url      TEXT NOT NULL,
			posted_at            TIMESTAMPTZ NOT NULL,
			application_deadline TIMESTAMPTZ,
			content_hash         TEXT NOT NULL UNIQUE,
			source               TEXT NOT NULL DEFAULT '',
			is_active            BOOLEAN NOT NULL DEFAULT TRUE,
			validation           JSONB,
			last_checked_at      TIMESTAMPTZ,
			created_at           TIMESTAMPTZ NOT NULL,
			updated_at           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_company ON postings(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_checked ON postings(last_checked_at)`,
	}
	for _, q := range stmts {
		if _, err := p.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("store: migrate postgres: %w", err)
		}
	}
	return nil
}

func (p *Postgres) EnsureCompany(ctx context.Context, c domain.Company) (int64, error) {
	if c.Domain != "" {
		var id int64
		err := p.pool.QueryRow(ctx,
			`SELECT id FROM companies WHERE domain = $1 LIMIT 1`, c.Domain).Scan(&id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("store: lookup company by domain: %w", err)
		}
	}

	key := companyKey(c.Name)
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO companies (name, name_key, domain, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name_key) DO UPDATE
			SET domain = CASE WHEN companies.domain = '' THEN EXCLUDED.domain ELSE companies.domain END
		RETURNING id`,
		c.Name, key, c.Domain, c.Description, time.Now().UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: ensure company: %w", err)
	}
	return id, nil
}

func (p *Postgres) InsertPostingIfAbsent(ctx context.Context, companyID int64, post domain.NormalizedPosting) (int64, bool, error) {
	now := time.Now().UTC()
	var id int64
	err := p.pool.QueryRow(ctx, `
		INSERT INTO postings (
			company_id, title, exact_role, normalized_role, relevant_majors,
			skills, eligibility_years, work_type,
			pay_rate_min, pay_rate_max, pay_currency, pay_type,
			location, is_remote, is_program_specific, internship_cycle,
			description, application_url, posted_at, application_deadline,
			content_hash, source, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`,
		companyID, post.Title, post.ExactRole, string(post.NormalizedRole), jsonSet(post.RelevantMajors),
		jsonSet(post.Skills), jsonSet(post.EligibilityYears), string(post.WorkType),
		post.PayRateMin, post.PayRateMax, post.PayCurrency, post.PayType,
		post.Location, post.IsRemote, post.IsProgramSpecific, post.InternshipCycle,
		post.Description, post.ApplicationURL, post.PostedAt.UTC(), post.ApplicationDeadline,
		post.ContentHash, post.Source, now, now).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("store: insert posting: %w", err)
	}

	if err := p.pool.QueryRow(ctx,
		`SELECT id FROM postings WHERE content_hash = $1`, post.ContentHash).Scan(&id); err != nil {
		return 0, false, fmt.Errorf("store: lookup existing posting: %w", err)
	}
	return id, false, nil
}

func (p *Postgres) UpdatePosting(ctx context.Context, id int64, post domain.NormalizedPosting) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE postings SET
			title = $1, exact_role = $2, normalized_role = $3, relevant_majors = $4,
			skills = $5, eligibility_years = $6, work_type = $7,
			pay_rate_min = $8, pay_rate_max = $9, pay_currency = $10, pay_type = $11,
			location = $12, is_remote = $13, is_program_specific = $14, internship_cycle = $15,
			description = $16, application_url = $17, application_deadline = $18,
			source = $19, updated_at = $20
		WHERE id = $21`,
		post.Title, post.ExactRole, string(post.NormalizedRole), jsonSet(post.RelevantMajors),
		jsonSet(post.Skills), jsonSet(post.EligibilityYears), string(post.WorkType),
		post.PayRateMin, post.PayRateMax, post.PayCurrency, post.PayType,
		post.Location, post.IsRemote, post.IsProgramSpecific, post.InternshipCycle,
		post.Description, post.ApplicationURL, post.ApplicationDeadline,
		post.Source, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update posting %d: %w", id, err)
	}
	return nil
}

func (p *Postgres) GetPostingByHash(ctx context.Context, hash string) (*StoredPosting, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT p.id, p.company_id, p.title, p.exact_role, p.normalized_role,
			p.relevant_majors, p.skills, p.eligibility_years, p.work_type,
			p.pay_rate_min, p.pay_rate_max, p.pay_currency, p.pay_type,
			p.location, p.is_remote, p.is_program_specific, p.internship_cycle,
			p.description, p.application_url, p.posted_at, p.application_deadline,
			p.content_hash, p.source, p.is_active, p.last_checked_at,
			c.name, c.domain
		FROM postings p JOIN companies c ON c.id = p.company_id
		WHERE p.content_hash = $1`, hash)

	var (
		sp                    StoredPosting
		majors, skills, years []byte
		role, workType        string
	)
	err := row.Scan(&sp.ID, &sp.CompanyID, &sp.Posting.Title, &sp.Posting.ExactRole, &role,
		&majors, &skills, &years, &workType,
		&sp.Posting.PayRateMin, &sp.Posting.PayRateMax, &sp.Posting.PayCurrency, &sp.Posting.PayType,
		&sp.Posting.Location, &sp.Posting.IsRemote, &sp.Posting.IsProgramSpecific, &sp.Posting.InternshipCycle,
		&sp.Posting.Description, &sp.Posting.ApplicationURL, &sp.Posting.PostedAt, &sp.Posting.ApplicationDeadline,
		&sp.Posting.ContentHash, &sp.Posting.Source, &sp.IsActive, &sp.LastCheckedAt,
		&sp.Posting.Company.Name, &sp.Posting.Company.Domain)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get posting by hash: %w", err)
	}
	sp.Posting.NormalizedRole = domain.Role(role)
	sp.Posting.WorkType = domain.WorkType(workType)
	sp.Posting.Company.ID = sp.CompanyID
	_ = json.Unmarshal(majors, &sp.Posting.RelevantMajors)
	_ = json.Unmarshal(skills, &sp.Posting.Skills)
	_ = json.Unmarshal(years, &sp.Posting.EligibilityYears)
	return &sp, nil
}

func (p *Postgres) ListValidationCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, application_url FROM postings
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.URL); err != nil {
			return nil, fmt.Errorf("store: scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateValidation(ctx context.Context, id int64, rec domain.ValidationRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal validation: %w", err)
	}
	checked := rec.CheckedAt.UTC()

	if active, known := rec.ActiveKnown(); known {
		_, err = p.pool.Exec(ctx,
			`UPDATE postings SET validation = $1, last_checked_at = $2, is_active = $3 WHERE id = $4`,
			blob, checked, active, id)
	} else {
		_, err = p.pool.Exec(ctx,
			`UPDATE postings SET validation = $1, last_checked_at = $2 WHERE id = $3`,
			blob, checked, id)
	}
	if err != nil {
		return fmt.Errorf("store: update validation %d: %w", id, err)
	}
	return nil
}

func (p *Postgres) DeletePostingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM postings WHERE is_active = FALSE AND updated_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: delete old postings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
