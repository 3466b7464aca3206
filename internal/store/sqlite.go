package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"internscout-engine/internal/domain"
)

const schemaVersion = 1

// SQLite is the default single-node backend. One writer connection plus a
// busy_timeout keeps concurrent goroutines serialized without SQLITE_BUSY
// surfacing; the flock guards against a second process on the same file.
type SQLite struct {
	db   *sql.DB
	lock *flock.Flock
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	lock := flock.New(path + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, 250*time.Millisecond)
	if err != nil || !ok {
		return nil, fmt.Errorf("store: database %s is locked by another process", path)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, lock: lock}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	var ver int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&ver); err != nil {
		return fmt.Errorf("store: read user_version: %w", err)
	}
	if ver >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin migrate: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT NOT NULL,
			name_key    TEXT NOT NULL,
			domain      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_name_key ON companies(name_key)`,
		`CREATE TABLE IF NOT EXISTS postings (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			company_id           INTEGER NOT NULL REFERENCES companies(id),
			title                TEXT NOT NULL,
			exact_role           TEXT NOT NULL DEFAULT '',
			normalized_role      TEXT NOT NULL DEFAULT 'unknown',
			relevant_majors      TEXT NOT NULL DEFAULT '[]',
			skills               TEXT NOT NULL DEFAULT '[]',
			eligibility_years    TEXT NOT NULL DEFAULT '[]',
			work_type            TEXT NOT NULL DEFAULT 'unknown',
			pay_rate_min         REAL NOT NULL DEFAULT 0,
			pay_rate_max         REAL NOT NULL DEFAULT 0,
			pay_currency         TEXT NOT NULL DEFAULT '',
			pay_type             TEXT NOT NULL DEFAULT '',
			location             TEXT NOT NULL DEFAULT '',
			is_remote            INTEGER NOT NULL DEFAULT 0,
			is_program_specific  INTEGER NOT NULL DEFAULT 0,
			internship_cycle     TEXT NOT NULL DEFAULT '',
			description          TEXT NOT NULL DEFAULT '',
			application_url      TEXT NOT NULL,
			posted_at            TEXT NOT NULL,
			application_deadline TEXT,
			content_hash         TEXT NOT NULL,
			source               TEXT NOT NULL DEFAULT '',
			is_active            INTEGER NOT NULL DEFAULT 1,
			validation           TEXT,
			last_checked_at      TEXT,
			created_at           TEXT NOT NULL,
			updated_at           TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_content_hash ON postings(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_company ON postings(company_id)`,
		`CREATE INDEX IF NOT EXISTS idx_postings_checked ON postings(last_checked_at)`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return tx.Commit()
}

// EnsureCompany resolves a company row, preferring a domain match over a
// normalized-name match, creating the row when neither exists. The unique
// name_key index makes concurrent first-inserts converge on one row.
func (s *SQLite) EnsureCompany(ctx context.Context, c domain.Company) (int64, error) {
	if c.Domain != "" {
		var id int64
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM companies WHERE domain = ? LIMIT 1`, c.Domain).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("store: lookup company by domain: %w", err)
		}
	}

	key := companyKey(c.Name)
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO companies (name, name_key, domain, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.Name, key, c.Domain, c.Description, now); err != nil {
		return 0, fmt.Errorf("store: insert company: %w", err)
	}

	var id int64
	var dom string
	if err := s.db.QueryRowContext(ctx,
		`SELECT id, domain FROM companies WHERE name_key = ?`, key).Scan(&id, &dom); err != nil {
		return 0, fmt.Errorf("store: lookup company: %w", err)
	}
	if dom == "" && c.Domain != "" {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE companies SET domain = ? WHERE id = ?`, c.Domain, id); err != nil {
			return 0, fmt.Errorf("store: backfill company domain: %w", err)
		}
	}
	return id, nil
}

// InsertPostingIfAbsent inserts p unless a posting with the same content hash
// already exists. INSERT OR IGNORE against the unique hash index makes the
// check-and-insert a single atomic statement; changes() disambiguates the
// outcome on the same connection.
func (s *SQLite) InsertPostingIfAbsent(ctx context.Context, companyID int64, p domain.NormalizedPosting) (int64, bool, error) {
	// The insert and the changes() read must share a connection, otherwise a
	// concurrent writer can slip a statement in between.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("store: begin insert: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO postings (
			company_id, title, exact_role, normalized_role, relevant_majors,
			skills, eligibility_years, work_type,
			pay_rate_min, pay_rate_max, pay_currency, pay_type,
			location, is_remote, is_program_specific, internship_cycle,
			description, application_url, posted_at, application_deadline,
			content_hash, source, created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		companyID, p.Title, p.ExactRole, string(p.NormalizedRole), jsonSet(p.RelevantMajors),
		jsonSet(p.Skills), jsonSet(p.EligibilityYears), string(p.WorkType),
		p.PayRateMin, p.PayRateMax, p.PayCurrency, p.PayType,
		p.Location, boolInt(p.IsRemote), boolInt(p.IsProgramSpecific), p.InternshipCycle,
		p.Description, p.ApplicationURL, p.PostedAt.UTC().Format(time.RFC3339), timePtr(p.ApplicationDeadline),
		p.ContentHash, p.Source, now, now)
	if err != nil {
		return 0, false, fmt.Errorf("store: insert posting: %w", err)
	}

	var changes int64
	if err := tx.QueryRowContext(ctx, "SELECT changes()").Scan(&changes); err != nil {
		return 0, false, fmt.Errorf("store: read changes: %w", err)
	}

	var (
		id       int64
		inserted bool
	)
	if changes > 0 {
		id, err = res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("store: last insert id: %w", err)
		}
		inserted = true
	} else {
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM postings WHERE content_hash = ?`, p.ContentHash).Scan(&id); err != nil {
			return 0, false, fmt.Errorf("store: lookup existing posting: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("store: commit insert: %w", err)
	}
	return id, inserted, nil
}

// UpdatePosting rewrites the mutable columns of an existing posting.
func (s *SQLite) UpdatePosting(ctx context.Context, id int64, p domain.NormalizedPosting) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE postings SET
			title = ?, exact_role = ?, normalized_role = ?, relevant_majors = ?,
			skills = ?, eligibility_years = ?, work_type = ?,
			pay_rate_min = ?, pay_rate_max = ?, pay_currency = ?, pay_type = ?,
			location = ?, is_remote = ?, is_program_specific = ?, internship_cycle = ?,
			description = ?, application_url = ?, application_deadline = ?,
			source = ?, updated_at = ?
		WHERE id = ?`,
		p.Title, p.ExactRole, string(p.NormalizedRole), jsonSet(p.RelevantMajors),
		jsonSet(p.Skills), jsonSet(p.EligibilityYears), string(p.WorkType),
		p.PayRateMin, p.PayRateMax, p.PayCurrency, p.PayType,
		p.Location, boolInt(p.IsRemote), boolInt(p.IsProgramSpecific), p.InternshipCycle,
		p.Description, p.ApplicationURL, timePtr(p.ApplicationDeadline),
		p.Source, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("store: update posting %d: %w", id, err)
	}
	return nil
}

// GetPostingByHash returns the stored posting with the given content hash, or
// (nil, nil) when none exists.
func (s *SQLite) GetPostingByHash(ctx context.Context, hash string) (*StoredPosting, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.company_id, p.title, p.exact_role, p.normalized_role,
			p.relevant_majors, p.skills, p.eligibility_years, p.work_type,
			p.pay_rate_min, p.pay_rate_max, p.pay_currency, p.pay_type,
			p.location, p.is_remote, p.is_program_specific, p.internship_cycle,
			p.description, p.application_url, p.posted_at, p.application_deadline,
			p.content_hash, p.source, p.is_active, p.last_checked_at,
			c.name, c.domain
		FROM postings p JOIN companies c ON c.id = p.company_id
		WHERE p.content_hash = ?`, hash)

	var (
		sp                      StoredPosting
		majors, skills, years   string
		role, workType          string
		remote, program, active int
		postedAt                string
		deadline, lastChecked   sql.NullString
	)
	err := row.Scan(&sp.ID, &sp.CompanyID, &sp.Posting.Title, &sp.Posting.ExactRole, &role,
		&majors, &skills, &years, &workType,
		&sp.Posting.PayRateMin, &sp.Posting.PayRateMax, &sp.Posting.PayCurrency, &sp.Posting.PayType,
		&sp.Posting.Location, &remote, &program, &sp.Posting.InternshipCycle,
		&sp.Posting.Description, &sp.Posting.ApplicationURL, &postedAt, &deadline,
		&sp.Posting.ContentHash, &sp.Posting.Source, &active, &lastChecked,
		&sp.Posting.Company.Name, &sp.Posting.Company.Domain)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get posting by hash: %w", err)
	}

	sp.Posting.NormalizedRole = domain.Role(role)
	sp.Posting.WorkType = domain.WorkType(workType)
	sp.Posting.Company.ID = sp.CompanyID
	sp.Posting.IsRemote = remote != 0
	sp.Posting.IsProgramSpecific = program != 0
	sp.IsActive = active != 0
	_ = json.Unmarshal([]byte(majors), &sp.Posting.RelevantMajors)
	_ = json.Unmarshal([]byte(skills), &sp.Posting.Skills)
	_ = json.Unmarshal([]byte(years), &sp.Posting.EligibilityYears)
	if t, err := time.Parse(time.RFC3339, postedAt); err == nil {
		sp.Posting.PostedAt = t
	}
	if deadline.Valid {
		if t, err := time.Parse(time.RFC3339, deadline.String); err == nil {
			sp.Posting.ApplicationDeadline = &t
		}
	}
	if lastChecked.Valid {
		if t, err := time.Parse(time.RFC3339, lastChecked.String); err == nil {
			sp.LastCheckedAt = &t
		}
	}
	return &sp, nil
}

// ListValidationCandidates returns postings ordered never-checked first, then
// by staleness of the last check.
func (s *SQLite) ListValidationCandidates(ctx context.Context, limit int) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_url FROM postings
		ORDER BY last_checked_at IS NOT NULL, last_checked_at ASC
		LIMIT ?`, limit)
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

// UpdateValidation overwrites the posting's validation record. is_active only
// moves on conclusive outcomes; maybe_valid keeps the previous flag.
func (s *SQLite) UpdateValidation(ctx context.Context, id int64, rec domain.ValidationRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal validation: %w", err)
	}
	checked := rec.CheckedAt.UTC().Format(time.RFC3339)

	if active, known := rec.ActiveKnown(); known {
		_, err = s.db.ExecContext(ctx,
			`UPDATE postings SET validation = ?, last_checked_at = ?, is_active = ? WHERE id = ?`,
			string(blob), checked, boolInt(active), id)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE postings SET validation = ?, last_checked_at = ? WHERE id = ?`,
			string(blob), checked, id)
	}
	if err != nil {
		return fmt.Errorf("store: update validation %d: %w", id, err)
	}
	return nil
}

// DeletePostingsOlderThan removes inactive postings last touched before cutoff.
func (s *SQLite) DeletePostingsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM postings WHERE is_active = 0 AND updated_at < ?`,
		cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("store: delete old postings: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLite) Close() error {
	err := s.db.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func jsonSet[T any](v []T) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
