package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
	"github.com/Rrens/parley/internal/repository/sqlstore"
)

func openStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), config.LocalConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "parley.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newNegotiation(t *testing.T, e *negotiation.Engine, campaignID uuid.UUID) *domain.Negotiation {
	t.Helper()
	s, err := e.Create(negotiation.CreateInput{
		Name:        "Bridge toll",
		NPCName:     "Old Mag",
		Interest:    2,
		Patience:    3,
		PatienceCap: 5,
		Motivations: []negotiation.MotivationSeed{{Type: negotiation.MotivationWealth, Description: "coin"}},
		Pitfalls:    []negotiation.PitfallSeed{{Description: "The flood"}},
	})
	require.NoError(t, err)
	return &domain.Negotiation{CampaignID: campaignID, Session: *s}
}

func TestNegotiationLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Negotiations()
	e := negotiation.NewEngine()
	campaignID := uuid.New()

	n := newNegotiation(t, e, campaignID)
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, e.Start(&n.Session))
	require.NoError(t, e.RevealMotivation(&n.Session, negotiation.MotivationWealth))
	wealth := negotiation.MotivationWealth
	_, err := e.ApplyArgument(&n.Session, negotiation.ArgumentInput{
		Tier: 2, Description: "A purse of silver", MotivationType: &wealth, InterestChange: 2,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, n, 0))

	loaded, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, campaignID, loaded.CampaignID)
	assert.Equal(t, n.Counters, loaded.Counters)
	assert.Equal(t, n.Opening, loaded.Opening)
	assert.Equal(t, n.Traits, loaded.Traits)
	require.Len(t, loaded.Arguments, 1)
	assert.Equal(t, n.Arguments[0], loaded.Arguments[0])
	assert.NoError(t, loaded.Validate())

	_, err = e.Complete(&loaded.Session)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded, 1))

	err = repo.Save(ctx, loaded, 1)
	assert.ErrorIs(t, err, domain.ErrNegotiationFinalized)
	assert.ErrorIs(t, repo.Delete(ctx, loaded.ID), domain.ErrNegotiationFinalized)

	final, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Outcome)
	assert.Equal(t, negotiation.OutcomeMajorFavor, *final.Outcome)
	assert.Equal(t, loaded.CompletedAt, final.CompletedAt)
	assert.NoError(t, final.Validate())
}

func TestGetByIDMissing(t *testing.T) {
	n, err := openStore(t).Negotiations().GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Negotiations()
	e := negotiation.NewEngine()
	campaignID := uuid.New()

	first := newNegotiation(t, e, campaignID)
	second := newNegotiation(t, e, campaignID)
	other := newNegotiation(t, e, uuid.New())
	for _, n := range []*domain.Negotiation{first, second, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	list, err := repo.ListByCampaign(ctx, campaignID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, repo.Delete(ctx, first.ID))
	list, err = repo.ListByCampaign(ctx, campaignID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func TestHistoryAppendIsOncePerNegotiation(t *testing.T) {
	ctx := context.Background()
	history := openStore(t).History()
	e := negotiation.NewEngine()
	campaignID := uuid.New()

	n := newNegotiation(t, e, campaignID)
	require.NoError(t, e.Start(&n.Session))
	_, err := e.Complete(&n.Session)
	require.NoError(t, err)

	entry := domain.NewHistoryEntry(uuid.NewString(), n)
	require.NoError(t, history.Append(ctx, entry))
	require.NoError(t, history.Append(ctx, domain.NewHistoryEntry(uuid.NewString(), n)))

	entries, err := history.ListByCampaign(ctx, campaignID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, negotiation.OutcomeMinorFavor, entries[0].Outcome)
	assert.Equal(t, n.ID, entries[0].NegotiationID)
}

func TestConcurrentArgumentsConflict(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Negotiations()
	e := negotiation.NewEngine()

	n := newNegotiation(t, e, uuid.New())
	require.NoError(t, e.Start(&n.Session))
	require.NoError(t, repo.Create(ctx, n))

	first, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)

	for _, s := range []*domain.Negotiation{first, second} {
		_, err := e.ApplyArgument(&s.Session, negotiation.ArgumentInput{Tier: 1, InterestChange: 1})
		require.NoError(t, err)
	}

	require.NoError(t, repo.Save(ctx, first, 0))
	assert.ErrorIs(t, repo.Save(ctx, second, 0), domain.ErrNegotiationConflict)

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Arguments, 1)
	assert.Equal(t, first.Counters, stored.Counters)

	assert.ErrorIs(t, repo.Create(ctx, n), domain.ErrNegotiationConflict)
}

func TestStaleSaveWithoutArgumentsConflicts(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Negotiations()
	e := negotiation.NewEngine()

	n := newNegotiation(t, e, uuid.New())
	require.NoError(t, e.Start(&n.Session))
	require.NoError(t, repo.Create(ctx, n))

	fresh, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	stale, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)

	_, err = e.ApplyArgument(&fresh.Session, negotiation.ArgumentInput{Tier: 2, InterestChange: 2})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, fresh, 0))
	assert.Equal(t, 1, fresh.Version)

	// completing from the old read would resolve the outcome from stale interest
	_, err = e.Complete(&stale.Session)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Save(ctx, stale, 0), domain.ErrNegotiationConflict)

	require.NoError(t, e.RevealPitfall(&fresh.Session, 0))
	require.NoError(t, repo.Save(ctx, fresh, 1))

	stored, err := repo.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, negotiation.StatusActive, stored.Status)
	assert.Equal(t, 4, stored.Counters.Interest)
	assert.True(t, stored.Traits.Pitfalls[0].IsKnown)
	assert.NoError(t, stored.Validate())
}

func TestImportWritesNegotiationAndHistoryTogether(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	e := negotiation.NewEngine()
	campaignID := uuid.New()

	n := newNegotiation(t, e, campaignID)
	require.NoError(t, e.Start(&n.Session))
	_, err := e.Complete(&n.Session)
	require.NoError(t, err)

	require.NoError(t, store.Negotiations().Import(ctx, n, domain.NewHistoryEntry(uuid.NewString(), n)))

	entries, err := store.History().ListByCampaign(ctx, campaignID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, n.ID, entries[0].NegotiationID)

	other := newNegotiation(t, e, uuid.New())
	other.ID = n.ID
	require.NoError(t, e.Start(&other.Session))
	_, err = e.Complete(&other.Session)
	require.NoError(t, err)

	err = store.Negotiations().Import(ctx, other, domain.NewHistoryEntry(uuid.NewString(), other))
	assert.ErrorIs(t, err, domain.ErrNegotiationConflict)

	entries, err = store.History().ListByCampaign(ctx, other.CampaignID, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
