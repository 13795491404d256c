package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/parley/internal/config"
	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/llm"
	"github.com/Rrens/parley/internal/negotiation"
)

const (
	defaultListLimit        = 50
	suggestionArgumentCount = 10
)

// CredentialSource resolves a user's own provider settings
type CredentialSource interface {
	ProviderConfig(ctx context.Context, userID uuid.UUID, provider string) (map[string]any, error)
}

// NegotiationService drives negotiation sessions through the engine and
// persists every accepted operation
type NegotiationService struct {
	engine       *negotiation.Engine
	campaignRepo domain.CampaignRepository
	repo         domain.NegotiationRepository
	historyRepo  domain.HistoryRepository
	cache        domain.NegotiationCache
	llmRouter    *llm.Router
	credentials  CredentialSource
	cfg          config.NegotiationConfig
}

// NewNegotiationService creates a new negotiation service. cache, llmRouter
// and credentials may be nil.
func NewNegotiationService(
	engine *negotiation.Engine,
	campaignRepo domain.CampaignRepository,
	repo domain.NegotiationRepository,
	historyRepo domain.HistoryRepository,
	cache domain.NegotiationCache,
	llmRouter *llm.Router,
	credentials CredentialSource,
	cfg config.NegotiationConfig,
) *NegotiationService {
	return &NegotiationService{
		engine:       engine,
		campaignRepo: campaignRepo,
		repo:         repo,
		historyRepo:  historyRepo,
		cache:        cache,
		llmRouter:    llmRouter,
		credentials:  credentials,
		cfg:          cfg,
	}
}

// Create authors a new negotiation in the preparing state
func (s *NegotiationService) Create(ctx context.Context, userID, campaignID uuid.UUID, input domain.NegotiationCreate) (*domain.Negotiation, error) {
	if _, err := requireRunner(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	session, err := s.engine.Create(s.createInput(input))
	if err != nil {
		return nil, err
	}

	n := &domain.Negotiation{
		CampaignID: campaignID,
		CreatedBy:  &userID,
		Session:    *session,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create negotiation: %w", err)
	}

	log.Info().
		Str("negotiation_id", n.ID).
		Str("campaign_id", campaignID.String()).
		Str("npc", n.NPCName).
		Msg("negotiation created")

	return n, nil
}

func (s *NegotiationService) createInput(input domain.NegotiationCreate) negotiation.CreateInput {
	in := negotiation.CreateInput{
		Name:        input.Name,
		Description: input.Description,
		NPCName:     input.NPCName,
		Interest:    intOr(input.Interest, s.cfg.DefaultInterest),
		Patience:    intOr(input.Patience, s.cfg.DefaultPatience),
		PatienceCap: intOr(input.PatienceCap, s.cfg.DefaultPatienceCap),
	}
	for _, m := range input.Motivations {
		in.Motivations = append(in.Motivations, negotiation.MotivationSeed{
			Type:        negotiation.MotivationType(m.Type),
			Description: m.Description,
			Known:       m.Known,
		})
	}
	for _, p := range input.Pitfalls {
		in.Pitfalls = append(in.Pitfalls, negotiation.PitfallSeed{
			Description: p.Description,
			Known:       p.Known,
		})
	}
	return in
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

// Get returns a negotiation. Players only see revealed traits.
func (s *NegotiationService) Get(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error) {
	member, err := requireMember(ctx, s.campaignRepo, campaignID, userID)
	if err != nil {
		return nil, err
	}

	n, err := s.load(ctx, campaignID, id, true)
	if err != nil {
		return nil, err
	}

	if !domain.CanRun(member.Role) {
		return playerView(n), nil
	}
	return n, nil
}

// List returns the negotiations of a campaign, newest first
func (s *NegotiationService) List(ctx context.Context, userID, campaignID uuid.UUID, limit, offset int) ([]domain.Negotiation, error) {
	member, err := requireMember(ctx, s.campaignRepo, campaignID, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListByCampaign(ctx, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}

	if !domain.CanRun(member.Role) {
		for i := range items {
			items[i] = *playerView(&items[i])
		}
	}
	return items, nil
}

// Start moves a negotiation from preparing to active
func (s *NegotiationService) Start(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error) {
	return s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		return s.engine.Start(&n.Session)
	})
}

// RevealMotivation marks a motivation as known to the party
func (s *NegotiationService) RevealMotivation(ctx context.Context, userID, campaignID uuid.UUID, id, motivationType string) (*domain.Negotiation, error) {
	mt := negotiation.MotivationType(strings.ToLower(strings.TrimSpace(motivationType)))
	return s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		return s.engine.RevealMotivation(&n.Session, mt)
	})
}

// RevealPitfall marks the pitfall at index as known to the party
func (s *NegotiationService) RevealPitfall(ctx context.Context, userID, campaignID uuid.UUID, id string, index int) (*domain.Negotiation, error) {
	return s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		return s.engine.RevealPitfall(&n.Session, index)
	})
}

// RevealPitfallByDescription marks the pitfall matching description as known
func (s *NegotiationService) RevealPitfallByDescription(ctx context.Context, userID, campaignID uuid.UUID, id, description string) (*domain.Negotiation, error) {
	return s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		return s.engine.RevealPitfallByDescription(&n.Session, description)
	})
}

// ApplyArgument records an argument made at the table
func (s *NegotiationService) ApplyArgument(ctx context.Context, userID, campaignID uuid.UUID, id string, input domain.ArgumentCreate) (*domain.ArgumentApplied, error) {
	in := negotiation.ArgumentInput{
		Tier:           input.Tier,
		Description:    input.Description,
		InterestChange: input.InterestChange,
		PatienceChange: input.PatienceChange,
	}
	if mt := strings.ToLower(strings.TrimSpace(input.MotivationType)); mt != "" {
		t := negotiation.MotivationType(mt)
		in.MotivationType = &t
	}

	var result *negotiation.ArgumentResult
	n, err := s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		var err error
		result, err = s.engine.ApplyArgument(&n.Session, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.ArgumentApplied{
		Argument:          result.Argument,
		Counters:          result.Counters,
		PatienceExhausted: result.PatienceExhausted,
		Completed:         result.Completed,
		Outcome:           n.Outcome,
	}, nil
}

// Complete ends an active negotiation and resolves its outcome
func (s *NegotiationService) Complete(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.Negotiation, error) {
	return s.mutate(ctx, userID, campaignID, id, func(n *domain.Negotiation) error {
		_, err := s.engine.Complete(&n.Session)
		return err
	})
}

// Delete removes a negotiation that has not been completed
func (s *NegotiationService) Delete(ctx context.Context, userID, campaignID uuid.UUID, id string) error {
	if _, err := requireRunner(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return err
	}

	n, err := s.load(ctx, campaignID, id, false)
	if err != nil {
		return err
	}
	if n.IsCompleted() {
		return domain.ErrNegotiationFinalized
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNegotiationFinalized) {
			return err
		}
		return fmt.Errorf("failed to delete negotiation: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// Traits returns the known and concealed trait projection. Players receive
// only counts for concealed traits.
func (s *NegotiationService) Traits(ctx context.Context, userID, campaignID uuid.UUID, id string) (*domain.TraitView, error) {
	if _, err := requireMember(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	n, err := s.load(ctx, campaignID, id, true)
	if err != nil {
		return nil, err
	}

	return &domain.TraitView{
		KnownMotivations:     nonNil(n.Traits.KnownMotivations()),
		ConcealedMotivations: len(n.Traits.ConcealedMotivations()),
		KnownPitfalls:        nonNil(n.Traits.KnownPitfalls()),
		ConcealedPitfalls:    len(n.Traits.ConcealedPitfalls()),
	}, nil
}

// Suggest asks a content provider for arguments the party could make next.
// Suggestions are advisory and never applied.
func (s *NegotiationService) Suggest(ctx context.Context, userID, campaignID uuid.UUID, id string, input domain.SuggestionRequest) (*llm.Response, error) {
	if s.llmRouter == nil {
		return nil, llm.ErrProviderNotConfigured
	}
	if _, err := requireRunner(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	n, err := s.load(ctx, campaignID, id, true)
	if err != nil {
		return nil, err
	}
	if n.IsCompleted() {
		return nil, fmt.Errorf("negotiation %s is completed: %w", id, negotiation.ErrInvalidState)
	}

	providerName := input.Provider
	if providerName == "" {
		providerName = s.llmRouter.DefaultProvider()
	}

	var userConfig map[string]any
	if s.credentials != nil {
		userConfig, err = s.credentials.ProviderConfig(ctx, userID, providerName)
		if err != nil {
			log.Warn().Err(err).Str("provider", providerName).Msg("ignoring user provider settings")
			userConfig = nil
		}
	}

	count := input.Count
	if count <= 0 {
		count = s.cfg.SuggestionCount
	}

	req := SuggestionContext(n, count, input.Hint)
	resp, err := s.llmRouter.Suggest(ctx, providerName, userConfig, req, input.Model)
	if err != nil {
		if errors.Is(err, llm.ErrUnknownProvider) || errors.Is(err, llm.ErrProviderNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	known := make([]string, 0, len(req.KnownMotivations))
	for _, m := range req.KnownMotivations {
		known = append(known, m.Type)
	}
	resp.Suggestions = llm.Normalize(resp.Suggestions, known, count)

	log.Info().
		Str("negotiation_id", n.ID).
		Str("provider", resp.Provider).
		Str("model", resp.Model).
		Int("suggestions", len(resp.Suggestions)).
		Int("tokens_used", resp.TokensUsed).
		Int64("latency_ms", resp.LatencyMs).
		Msg("suggestions generated")

	return resp, nil
}

// SuggestionContext builds the model request for a negotiation. Concealed
// traits are passed only as counts.
func SuggestionContext(n *domain.Negotiation, count int, hint string) llm.Request {
	req := llm.Request{
		SessionName:          n.Name,
		Description:          n.Description,
		NPCName:              n.NPCName,
		Interest:             n.Counters.Interest,
		Patience:             n.Counters.Patience,
		PatienceCap:          n.Counters.PatienceCap,
		ConcealedMotivations: len(n.Traits.ConcealedMotivations()),
		ConcealedPitfalls:    len(n.Traits.ConcealedPitfalls()),
		Count:                count,
		Hint:                 hint,
	}
	for _, m := range n.Traits.KnownMotivations() {
		req.KnownMotivations = append(req.KnownMotivations, llm.Trait{
			Type:        string(m.Type),
			Description: m.Description,
			TimesUsed:   m.TimesUsed,
		})
	}
	for _, p := range n.Traits.KnownPitfalls() {
		req.KnownPitfalls = append(req.KnownPitfalls, p.Description)
	}

	args := n.Arguments
	if len(args) > suggestionArgumentCount {
		args = args[len(args)-suggestionArgumentCount:]
	}
	for _, a := range args {
		past := llm.PastArgument{
			Tier:           a.Tier,
			Description:    a.Description,
			InterestChange: a.InterestChange,
			PatienceChange: a.PatienceChange,
		}
		// Arguments against a still-concealed motivation would leak it.
		if a.MotivationType != nil {
			if m, ok := n.Traits.Motivation(*a.MotivationType); ok && m.IsKnown {
				past.MotivationType = string(*a.MotivationType)
			}
		}
		req.RecentArguments = append(req.RecentArguments, past)
	}
	return req
}

// mutate loads the stored negotiation, applies fn and persists the result.
// A rejected fn leaves storage untouched.
func (s *NegotiationService) mutate(ctx context.Context, userID, campaignID uuid.UUID, id string, fn func(n *domain.Negotiation) error) (*domain.Negotiation, error) {
	if _, err := requireRunner(ctx, s.campaignRepo, campaignID, userID); err != nil {
		return nil, err
	}

	n, err := s.load(ctx, campaignID, id, false)
	if err != nil {
		return nil, err
	}

	persisted := len(n.Arguments)
	wasCompleted := n.IsCompleted()

	if err := fn(n); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, n, persisted); err != nil {
		s.invalidate(ctx, id)
		if errors.Is(err, domain.ErrNegotiationFinalized) || errors.Is(err, domain.ErrNegotiationConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save negotiation: %w", err)
	}
	s.invalidate(ctx, id)

	if !wasCompleted && n.IsCompleted() {
		s.recordHistory(ctx, n)
	}

	return n, nil
}

func (s *NegotiationService) recordHistory(ctx context.Context, n *domain.Negotiation) {
	entry := domain.NewHistoryEntry(uuid.NewString(), n)
	if err := s.historyRepo.Append(ctx, entry); err != nil {
		log.Error().Err(err).Str("negotiation_id", n.ID).Msg("failed to append narrative history")
		return
	}

	log.Info().
		Str("negotiation_id", n.ID).
		Str("campaign_id", n.CampaignID.String()).
		Str("outcome", string(entry.Outcome)).
		Int("final_interest", entry.FinalInterest).
		Msg("negotiation completed")
}

// load reads a negotiation scoped to campaignID. Writes bypass the cache.
func (s *NegotiationService) load(ctx context.Context, campaignID uuid.UUID, id string, useCache bool) (*domain.Negotiation, error) {
	var n *domain.Negotiation

	if useCache && s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("negotiation_id", id).Msg("negotiation cache read failed")
		}
		n = cached
	}

	if n == nil {
		var err error
		n, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get negotiation: %w", err)
		}
		if n != nil && useCache && s.cache != nil {
			if err := s.cache.Set(ctx, n, s.cacheTTL()); err != nil {
				log.Warn().Err(err).Str("negotiation_id", id).Msg("negotiation cache write failed")
			}
		}
	}

	if n == nil || n.CampaignID != campaignID {
		return nil, ErrNegotiationNotFound
	}
	return n, nil
}

func (s *NegotiationService) cacheTTL() time.Duration {
	if s.cfg.CacheTTL > 0 {
		return s.cfg.CacheTTL
	}
	return 10 * time.Minute
}

func (s *NegotiationService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Warn().Err(err).Str("negotiation_id", id).Msg("negotiation cache invalidation failed")
	}
}

// playerView hides concealed traits from a copy of n
func playerView(n *domain.Negotiation) *domain.Negotiation {
	view := &domain.Negotiation{
		CampaignID: n.CampaignID,
		CreatedBy:  n.CreatedBy,
		Session:    *n.Session.Clone(),
	}
	view.Traits.Motivations = nonNil(view.Traits.KnownMotivations())
	view.Traits.Pitfalls = nonNil(view.Traits.KnownPitfalls())
	return view
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
