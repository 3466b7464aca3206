package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/normalize"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPosting(company, title, location string) domain.NormalizedPosting {
	return domain.NormalizedPosting{
		Title:            title,
		Company:          domain.Company{Name: company},
		ExactRole:        title,
		NormalizedRole:   domain.RoleSoftware,
		RelevantMajors:   []domain.Major{domain.MajorComputerScience},
		Skills:           []string{"python", "sql"},
		EligibilityYears: []domain.EligibilityYear{domain.YearJunior},
		WorkType:         domain.WorkTypePaid,
		PayRateMin:       45,
		PayRateMax:       55,
		PayCurrency:      "USD",
		PayType:          "hourly",
		Location:         location,
		Description:      "a description",
		ApplicationURL:   "https://jobs.example.com/1",
		PostedAt:         time.Now().UTC().Truncate(time.Second),
		ContentHash:      normalize.ContentHash(company, title, location),
		Source:           "test",
	}
}

func TestInsertPostingIfAbsentIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	p := testPosting("Acme", "SWE Intern", "Remote")
	id1, inserted, err := s.InsertPostingIfAbsent(ctx, companyID, p)
	require.NoError(t, err)
	assert.True(t, inserted)

	id2, inserted, err := s.InsertPostingIfAbsent(ctx, companyID, p)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id1, id2)
}

func TestConcurrentInsertSameHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	p := testPosting("Acme", "SWE Intern", "Remote")

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		ids      = make(map[int64]bool)
		errs     []error
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			id, ok, err := s.InsertPostingIfAbsent(ctx, companyID, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				inserted++
			}
			ids[id] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, inserted, "exactly one writer wins")
	assert.Len(t, ids, 1, "all writers resolve to the same row")
}

func TestEnsureCompanyDedup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.EnsureCompany(ctx, domain.Company{Name: "Google Inc."})
	require.NoError(t, err)
	id2, err := s.EnsureCompany(ctx, domain.Company{Name: "Google"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "suffix variants resolve to one row")

	id3, err := s.EnsureCompany(ctx, domain.Company{Name: "Initech"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestEnsureCompanyDomainMatchWinsOverName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.EnsureCompany(ctx, domain.Company{Name: "Google", Domain: "google.com"})
	require.NoError(t, err)

	// Different display name, same domain: same employer.
	id2, err := s.EnsureCompany(ctx, domain.Company{Name: "Google LLC Careers", Domain: "google.com"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestGetPostingByHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.GetPostingByHash(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got, "absent hash yields nil, nil")

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme", Domain: "acme.com"})
	require.NoError(t, err)

	p := testPosting("Acme", "SWE Intern", "Austin, TX")
	id, _, err := s.InsertPostingIfAbsent(ctx, companyID, p)
	require.NoError(t, err)

	got, err = s.GetPostingByHash(ctx, p.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, companyID, got.CompanyID)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.LastCheckedAt)
	assert.Equal(t, p.Title, got.Posting.Title)
	assert.Equal(t, "Acme", got.Posting.Company.Name)
	assert.Equal(t, "acme.com", got.Posting.Company.Domain)
	assert.Equal(t, p.Skills, got.Posting.Skills)
	assert.Equal(t, p.EligibilityYears, got.Posting.EligibilityYears)
	assert.Equal(t, p.PayRateMin, got.Posting.PayRateMin)
	assert.True(t, p.PostedAt.Equal(got.Posting.PostedAt))
}

func TestUpdatePosting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	p := testPosting("Acme", "SWE Intern", "Remote")
	id, _, err := s.InsertPostingIfAbsent(ctx, companyID, p)
	require.NoError(t, err)

	p.Description = "updated description"
	p.PayRateMax = 60
	require.NoError(t, s.UpdatePosting(ctx, id, p))

	got, err := s.GetPostingByHash(ctx, p.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "updated description", got.Posting.Description)
	assert.Equal(t, 60.0, got.Posting.PayRateMax)
}

func TestUpdateValidationFlipsActive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	p := testPosting("Acme", "SWE Intern", "Remote")
	id, _, err := s.InsertPostingIfAbsent(ctx, companyID, p)
	require.NoError(t, err)

	dead := domain.ValidationRecord{Status: domain.StatusDead, HTTPCode: 404, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateValidation(ctx, id, dead))

	got, err := s.GetPostingByHash(ctx, p.ContentHash)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.LastCheckedAt)

	// Inconclusive outcome keeps the stored flag.
	maybe := domain.ValidationRecord{Status: domain.StatusMaybeValid, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateValidation(ctx, id, maybe))
	got, err = s.GetPostingByHash(ctx, p.ContentHash)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "maybe_valid must not resurrect a dead posting")

	ok := domain.ValidationRecord{Status: domain.StatusOK, HTTPCode: 200, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateValidation(ctx, id, ok))
	got, err = s.GetPostingByHash(ctx, p.ContentHash)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestListValidationCandidatesNeverCheckedFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	a := testPosting("Acme", "SWE Intern", "Remote")
	idA, _, err := s.InsertPostingIfAbsent(ctx, companyID, a)
	require.NoError(t, err)

	b := testPosting("Acme", "Data Intern", "Remote")
	idB, _, err := s.InsertPostingIfAbsent(ctx, companyID, b)
	require.NoError(t, err)

	// Mark A checked; B has never been checked and must come first.
	rec := domain.ValidationRecord{Status: domain.StatusOK, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateValidation(ctx, idA, rec))

	cands, err := s.ListValidationCandidates(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, idB, cands[0].ID)
	assert.Equal(t, idA, cands[1].ID)

	cands, err = s.ListValidationCandidates(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, idB, cands[0].ID)
}

func TestDeletePostingsOlderThan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	companyID, err := s.EnsureCompany(ctx, domain.Company{Name: "Acme"})
	require.NoError(t, err)

	active := testPosting("Acme", "SWE Intern", "Remote")
	_, _, err = s.InsertPostingIfAbsent(ctx, companyID, active)
	require.NoError(t, err)

	inactive := testPosting("Acme", "Data Intern", "Remote")
	id, _, err := s.InsertPostingIfAbsent(ctx, companyID, inactive)
	require.NoError(t, err)
	dead := domain.ValidationRecord{Status: domain.StatusDead, CheckedAt: time.Now().UTC()}
	require.NoError(t, s.UpdateValidation(ctx, id, dead))

	n, err := s.DeletePostingsOlderThan(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "only inactive rows are swept")

	got, err := s.GetPostingByHash(ctx, active.ContentHash)
	require.NoError(t, err)
	assert.NotNil(t, got, "active posting survives cleanup")
}
