// Package store persists campaigns in MongoDB. The donation credit path pairs
// a unique-index insert into applied_references with the counter increment in
// a single session transaction, which is what makes crediting idempotent
// across concurrent service instances.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aidbridge/aidbridge/internal/campaign"
	"github.com/aidbridge/aidbridge/internal/money"
)

const (
	colCampaigns  = "campaigns"
	colReferences = "applied_references"
)

type Store struct {
	campaigns  *mongo.Collection
	references *mongo.Collection
	client     *mongo.Client
}

func New(db *mongo.Database) *Store {
	return &Store{
		campaigns:  db.Collection(colCampaigns),
		references: db.Collection(colReferences),
		client:     db.Client(),
	}
}

// EnsureIndexes creates the unique reference index that backs idempotent
// crediting, plus the listing sort index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.references.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "reference", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating reference index: %w", err)
	}

	_, err = s.campaigns.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating campaign index: %w", err)
	}

	return nil
}

type campaignDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Category    string        `bson:"category"`
	Status      string        `bson:"status"`
	TargetUnits int64         `bson:"targetAmount"`
	RaisedUnits int64         `bson:"raisedAmount"`
	AssetCode   string        `bson:"assetCode"`
	AssetIssuer string        `bson:"assetIssuer"`
	DonorCount  int64         `bson:"donorCount"`
	NGOWallet   string        `bson:"ngoWallet"`
	Location    string        `bson:"location,omitempty"`
	StartDate   time.Time     `bson:"startDate"`
	EndDate     time.Time     `bson:"endDate"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   *time.Time    `bson:"updatedAt,omitempty"`
}

// appliedRefDoc is the durable record preventing double-crediting: one
// document per ledger reference, ever.
type appliedRefDoc struct {
	Reference  string    `bson:"reference"`
	TargetKind string    `bson:"targetKind"`
	TargetID   string    `bson:"targetId"`
	Units      int64     `bson:"units"`
	AssetCode  string    `bson:"assetCode"`
	AppliedAt  time.Time `bson:"appliedAt"`
}

func toDoc(c *campaign.Campaign) *campaignDoc {
	return &campaignDoc{
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Status:      string(c.Status),
		TargetUnits: c.Target.Units,
		RaisedUnits: c.Raised.Units,
		AssetCode:   c.Target.Asset.Code,
		AssetIssuer: c.Target.Asset.Issuer,
		DonorCount:  c.DonorCount,
		NGOWallet:   c.NGOWallet,
		Location:    c.Location,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromDoc(d *campaignDoc) *campaign.Campaign {
	asset := money.Asset{Code: d.AssetCode, Issuer: d.AssetIssuer}

	return &campaign.Campaign{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Status:      campaign.Status(d.Status),
		Target:      money.Amount{Units: d.TargetUnits, Asset: asset},
		Raised:      money.Amount{Units: d.RaisedUnits, Asset: asset},
		DonorCount:  d.DonorCount,
		NGOWallet:   d.NGOWallet,
		Location:    d.Location,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	doc := toDoc(c)
	doc.CreatedAt = time.Now().UTC()

	res, err := s.campaigns.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("creating campaign: %w", err)
	}

	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("creating campaign: unexpected inserted id type %T", res.InsertedID)
	}

	c.ID = id.Hex()
	c.CreatedAt = doc.CreatedAt

	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, campaign.ErrNotFound
	}

	var doc campaignDoc
	if err := s.campaigns.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, campaign.ErrNotFound
		}

		return nil, fmt.Errorf("getting campaign: %w", err)
	}

	return fromDoc(&doc), nil
}

func (s *Store) ListCampaigns(ctx context.Context, filter campaign.ListFilter) ([]*campaign.Campaign, int64, error) {
	query := bson.M{}

	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	if filter.NGOWallet != "" {
		query["ngoWallet"] = filter.NGOWallet
	}

	if filter.Search != "" {
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(filter.Limit).
		SetSkip(filter.Skip)

	cursor, err := s.campaigns.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing campaigns: %w", err)
	}

	var docs []campaignDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decoding campaigns: %w", err)
	}

	total, err := s.campaigns.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting campaigns: %w", err)
	}

	campaigns := make([]*campaign.Campaign, len(docs))
	for i := range docs {
		campaigns[i] = fromDoc(&docs[i])
	}

	return campaigns, total, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status campaign.Status) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return campaign.ErrNotFound
	}

	res, err := s.campaigns.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if res.MatchedCount == 0 {
		return campaign.ErrNotFound
	}

	return nil
}

// CreditDonation records the reference and increments raisedAmount/donorCount
// in one transaction. A duplicate reference aborts the transaction before any
// counter changes, so partial application is never observable.
func (s *Store) CreditDonation(ctx context.Context, id, reference string, amount money.Amount) (campaign.CreditResult, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", campaign.ErrNotFound
	}

	session, err := s.client.StartSession()
	if err != nil {
		return "", fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		_, err := s.references.InsertOne(ctx, appliedRefDoc{
			Reference:  reference,
			TargetKind: "campaign",
			TargetID:   id,
			Units:      amount.Units,
			AssetCode:  amount.Asset.Code,
			AppliedAt:  time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		res, err := s.campaigns.UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{
				"$inc": bson.M{"raisedAmount": amount.Units, "donorCount": 1},
				"$set": bson.M{"updatedAt": time.Now().UTC()},
			},
		)
		if err != nil {
			return nil, err
		}

		if res.MatchedCount == 0 {
			return nil, campaign.ErrNotFound
		}

		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return campaign.CreditAlreadyApplied, nil
		}

		if errors.Is(err, campaign.ErrNotFound) {
			return "", campaign.ErrNotFound
		}

		return "", fmt.Errorf("crediting donation: %w", err)
	}

	return campaign.CreditApplied, nil
}
