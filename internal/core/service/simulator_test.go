package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/till-simulator/internal/adapter/parser"
	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/port"
)

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	stock          map[string]domain.Stock
	idempotencySet map[string]bool
	saveErr        error
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		stock:          make(map[string]domain.Stock),
		idempotencySet: make(map[string]bool),
	}
}

func (m *mockCacheRepo) SaveStock(ctx context.Context, runID string, stock domain.Stock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stock[runID] = stock.Clone()
	return nil
}

func (m *mockCacheRepo) GetStock(ctx context.Context, runID string) (domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[runID], nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

// Mock DatabaseRepository
type mockJournalRepo struct {
	mu       sync.Mutex
	entries  []domain.JournalEntry
	finished map[string]int
	failSeq  int
}

func newMockJournalRepo() *mockJournalRepo {
	return &mockJournalRepo{finished: make(map[string]int)}
}

func (m *mockJournalRepo) SaveRecord(ctx context.Context, entry domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.Sequence == m.failSeq {
		return errors.New("connection reset")
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournalRepo) FinishRun(ctx context.Context, runID string, finalTotal int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[runID] = finalTotal
	return nil
}

func (m *mockJournalRepo) ListRecords(ctx context.Context, runID string) ([]domain.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SummaryRecord
	for _, e := range m.entries {
		if e.RunID == runID {
			out = append(out, e.Record)
		}
	}
	return out, nil
}

const sampleInput = `Tin of beans R120, R100-R50
Cheese R50, R20-R20
Bread R12; Milk R26, R50-R20-R5
`

func newTestSimulator(t *testing.T, cache *mockCacheRepo, db *mockJournalRepo) *Simulator {
	t.Helper()
	var (
		cacheRepo port.CacheRepository
		dbRepo    port.DatabaseRepository
		journal   *JournalWorker
	)
	if cache != nil {
		cacheRepo = cache
	}
	if db != nil {
		dbRepo = db
	}
	if cacheRepo != nil || dbRepo != nil {
		journal = NewJournalWorker(dbRepo, cacheRepo, zap.NewNop())
	}
	sim, err := NewSimulator(domain.DefaultSeed, parser.New(""), cacheRepo, journal, zap.NewNop(), nil)
	require.NoError(t, err)
	return sim
}

func TestSimulate_Success(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)

	rep, err := sim.Simulate(context.Background(), SimulateRequest{Input: sampleInput})
	require.NoError(t, err)

	require.Len(t, rep.Records, 3)
	assert.Equal(t, 708, rep.FinalTotal)
	assert.Equal(t, domain.OutcomeUnderpaid, rep.Records[1].Outcome)
	assert.Empty(t, rep.Rejected)
}

func TestSimulate_IndependentTills(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)

	first, err := sim.Simulate(context.Background(), SimulateRequest{Input: sampleInput})
	require.NoError(t, err)
	second, err := sim.Simulate(context.Background(), SimulateRequest{Input: sampleInput})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.FinalStock, second.FinalStock)
}

func TestSimulate_Malformed(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)

	_, err := sim.Simulate(context.Background(), SimulateRequest{Input: "Bread R12\n"})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestSimulate_RejectsOverflowingAmounts(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)

	_, err := sim.Simulate(context.Background(), SimulateRequest{Input: "A R9223372036854775807; B R1, R1\n"})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)

	rep, err := sim.Simulate(context.Background(), SimulateRequest{
		Input:   "A R9223372036854775807; B R1, R1\nBread R12, R20\n",
		Lenient: true,
	})
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 512, rep.FinalTotal)
}

func TestSimulate_LongLineIsParsed(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)
	long := strings.Repeat("Gum R1;", 9999) + "Gum R1, R10000"

	rep, err := sim.Simulate(context.Background(), SimulateRequest{
		Input:   long + "\nMilk Rx, R20\n",
		Lenient: true,
	})
	require.NoError(t, err)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, domain.OutcomeNoChange, rep.Records[0].Outcome)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 2, rep.Rejected[0].Line)
}

func TestSimulate_LenientReportsRejectedLines(t *testing.T) {
	sim := newTestSimulator(t, nil, nil)

	rep, err := sim.Simulate(context.Background(), SimulateRequest{
		Input:   "Bread R12, R20\nMilk Rx, R20\n",
		Lenient: true,
	})
	require.NoError(t, err)

	require.Len(t, rep.Records, 1)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, 2, rep.Rejected[0].Line)
	assert.Equal(t, "Milk Rx, R20", rep.Rejected[0].Text)
}

func TestSimulate_DuplicateRequest(t *testing.T) {
	cache := newMockCacheRepo()
	sim := newTestSimulator(t, cache, nil)

	_, err := sim.Simulate(context.Background(), SimulateRequest{RequestID: "req-1", Input: sampleInput})
	require.NoError(t, err)

	_, err = sim.Simulate(context.Background(), SimulateRequest{RequestID: "req-1", Input: sampleInput})
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSimulate_JournalsEveryRecord(t *testing.T) {
	cache := newMockCacheRepo()
	db := newMockJournalRepo()
	sim := newTestSimulator(t, cache, db)

	rep, err := sim.Simulate(context.Background(), SimulateRequest{RequestID: "req-2", Input: sampleInput})
	require.NoError(t, err)

	records, err := db.ListRecords(context.Background(), rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.Records, records)
	assert.Equal(t, 708, db.finished[rep.RunID])

	mirrored, err := cache.GetStock(context.Background(), rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.FinalStock, mirrored)
}

func TestSimulate_JournalFailureDoesNotFailRun(t *testing.T) {
	db := newMockJournalRepo()
	db.failSeq = 2
	sim := newTestSimulator(t, nil, db)

	rep, err := sim.Simulate(context.Background(), SimulateRequest{Input: sampleInput})
	require.NoError(t, err)

	records, _ := db.ListRecords(context.Background(), rep.RunID)
	assert.Len(t, records, 2)
	assert.Len(t, rep.Records, 3)
}

func TestNewSimulator_InvalidSeed(t *testing.T) {
	_, err := NewSimulator(domain.Seed{{Denomination: -5, Count: 1}}, parser.New(""), nil, nil, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDenomination)
}
