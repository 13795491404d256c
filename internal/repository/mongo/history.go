package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Rrens/parley/internal/domain"
	"github.com/Rrens/parley/internal/negotiation"
)

type historyDocument struct {
	ID             string    `bson:"_id"`
	CampaignID     string    `bson:"campaign_id"`
	NegotiationID  string    `bson:"negotiation_id"`
	Name           string    `bson:"name"`
	NPCName        string    `bson:"npc_name"`
	Description    string    `bson:"description,omitempty"`
	Outcome        string    `bson:"outcome"`
	FinalInterest  int       `bson:"final_interest"`
	FinalPatience  int       `bson:"final_patience"`
	ArgumentCount  int       `bson:"argument_count"`
	RevealedTraits []string  `bson:"revealed_traits,omitempty"`
	OccurredAt     time.Time `bson:"occurred_at"`
}

func toDocument(e *domain.HistoryEntry) historyDocument {
	return historyDocument{
		ID:             e.ID,
		CampaignID:     e.CampaignID.String(),
		NegotiationID:  e.NegotiationID,
		Name:           e.Name,
		NPCName:        e.NPCName,
		Description:    e.Description,
		Outcome:        string(e.Outcome),
		FinalInterest:  e.FinalInterest,
		FinalPatience:  e.FinalPatience,
		ArgumentCount:  e.ArgumentCount,
		RevealedTraits: e.RevealedTraits,
		OccurredAt:     e.OccurredAt.UTC(),
	}
}

func (d historyDocument) toEntry() (domain.HistoryEntry, error) {
	campaignID, err := uuid.Parse(d.CampaignID)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("invalid campaign id %q: %w", d.CampaignID, err)
	}
	return domain.HistoryEntry{
		ID:             d.ID,
		CampaignID:     campaignID,
		NegotiationID:  d.NegotiationID,
		Name:           d.Name,
		NPCName:        d.NPCName,
		Description:    d.Description,
		Outcome:        negotiation.Outcome(d.Outcome),
		FinalInterest:  d.FinalInterest,
		FinalPatience:  d.FinalPatience,
		ArgumentCount:  d.ArgumentCount,
		RevealedTraits: d.RevealedTraits,
		OccurredAt:     d.OccurredAt,
	}, nil
}

// HistoryRepository keeps the campaign chronicle in a MongoDB collection
type HistoryRepository struct {
	coll *mongo.Collection
}

// NewHistoryRepository creates a history repository on the named collection
func NewHistoryRepository(c *Client, collection string) *HistoryRepository {
	return &HistoryRepository{coll: c.db.Collection(collection)}
}

// EnsureIndexes creates the lookup and uniqueness indexes
func (r *HistoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "negotiation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "occurred_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create history indexes: %w", err)
	}
	return nil
}

// Append records a finished negotiation. Recording the same negotiation
// twice keeps the first entry.
func (r *HistoryRepository) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	doc := toDocument(entry)
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"negotiation_id": doc.NegotiationID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// ListByCampaign retrieves the chronicle of a campaign, newest first
func (r *HistoryRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"campaign_id": campaignID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []domain.HistoryEntry{}
	for cursor.Next(ctx) {
		var doc historyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode history: %w", err)
		}
		entry, err := doc.toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, cursor.Err()
}
