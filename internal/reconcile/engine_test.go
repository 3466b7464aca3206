package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"internscout-engine/internal/domain"
	"internscout-engine/internal/normalize"
	"internscout-engine/internal/store"
)

type fakeRepo struct {
	mu        sync.Mutex
	companies map[string]int64
	postings  map[string]*store.StoredPosting
	nextID    int64

	companyCalls int
	failInsert   bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		companies: make(map[string]int64),
		postings:  make(map[string]*store.StoredPosting),
	}
}

func (f *fakeRepo) EnsureCompany(_ context.Context, c domain.Company) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.companyCalls++
	if id, ok := f.companies[c.Name]; ok {
		return id, nil
	}
	f.nextID++
	f.companies[c.Name] = f.nextID
	return f.nextID, nil
}

func (f *fakeRepo) InsertPostingIfAbsent(_ context.Context, companyID int64, p domain.NormalizedPosting) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return 0, false, errors.New("disk full")
	}
	if sp, ok := f.postings[p.ContentHash]; ok {
		return sp.ID, false, nil
	}
	f.nextID++
	f.postings[p.ContentHash] = &store.StoredPosting{ID: f.nextID, CompanyID: companyID, Posting: p, IsActive: true}
	return f.nextID, true, nil
}

func (f *fakeRepo) UpdatePosting(_ context.Context, id int64, p domain.NormalizedPosting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.postings {
		if sp.ID == id {
			sp.Posting = p
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeRepo) GetPostingByHash(_ context.Context, hash string) (*store.StoredPosting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sp, ok := f.postings[hash]
	if !ok {
		return nil, nil
	}
	cp := *sp
	return &cp, nil
}

func (f *fakeRepo) ListValidationCandidates(context.Context, int) ([]store.Candidate, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateValidation(context.Context, int64, domain.ValidationRecord) error {
	return nil
}
func (f *fakeRepo) DeletePostingsOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeRepo) Close() error { return nil }

func posting(company, title, desc string) domain.NormalizedPosting {
	return domain.NormalizedPosting{
		Title:          title,
		Company:        domain.Company{Name: company},
		Description:    desc,
		ApplicationURL: "https://jobs.example.com/1",
		PostedAt:       time.Now().UTC(),
		ContentHash:    normalize.ContentHash(company, title, "Remote"),
		Source:         "test",
	}
}

func TestReconcileInsertThenSkip(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())
	p := posting("Acme", "SWE Intern", "desc")

	out, err := e.Reconcile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	out, err = e.Reconcile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out, "identical posting reconciles to a skip")
	assert.Len(t, repo.postings, 1)
}

func TestReconcileUpdateOnChangedFields(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())

	_, err := e.Reconcile(context.Background(), posting("Acme", "SWE Intern", "old description"))
	require.NoError(t, err)

	changed := posting("Acme", "SWE Intern", "new description")
	out, err := e.Reconcile(context.Background(), changed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out)

	sp, err := repo.GetPostingByHash(context.Background(), changed.ContentHash)
	require.NoError(t, err)
	require.NotNil(t, sp)
	assert.Equal(t, "new description", sp.Posting.Description)
}

func TestReconcileSkipDuplicatesNeverUpdates(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())
	e.SkipDuplicates = true

	_, err := e.Reconcile(context.Background(), posting("Acme", "SWE Intern", "old"))
	require.NoError(t, err)

	out, err := e.Reconcile(context.Background(), posting("Acme", "SWE Intern", "new"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, out)
}

func TestReconcileDryRunDoesNotWrite(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())
	e.DryRun = true

	out, err := e.Reconcile(context.Background(), posting("Acme", "SWE Intern", "desc"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)
	assert.Empty(t, repo.postings)
	assert.Empty(t, repo.companies, "dry run must not create companies either")
}

func TestReconcileWrapsStoreErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.failInsert = true
	e := New(repo, zap.NewNop())

	p := posting("Acme", "SWE Intern", "desc")
	_, err := e.Reconcile(context.Background(), p)
	require.Error(t, err)

	var rerr *domain.ReconciliationError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, p.ContentHash, rerr.ContentHash)
}

func TestReconcileCachesCompanyLookups(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())

	for i := 0; i < 3; i++ {
		p := posting("Acme", "SWE Intern", "desc")
		p.ContentHash = normalize.ContentHash("Acme", "SWE Intern", "Remote")
		_, err := e.Reconcile(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, repo.companyCalls, "same company resolved once per run")
}

func TestReconcileHashEquivalentProvidersCollide(t *testing.T) {
	repo := newFakeRepo()
	e := New(repo, zap.NewNop())

	a := posting("Google Inc.", "SWE Intern - Summer 2026", "")
	a.ContentHash = normalize.ContentHash("Google Inc.", "SWE Intern - Summer 2026", "Remote")
	b := posting("Google", "swe intern", "")
	b.ContentHash = normalize.ContentHash("Google", "swe intern", "Remote")
	require.Equal(t, a.ContentHash, b.ContentHash)

	out, err := e.Reconcile(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, out)

	out, err = e.Reconcile(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, out, "second provider refreshes the row instead of duplicating it")
	assert.Len(t, repo.postings, 1)
}
