// Package store persists merchants in MongoDB. Settlement shares the
// applied_references collection with the campaign store, so a single ledger
// reference can credit at most one target of either kind.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/aidbridge/aidbridge/internal/merchant"
	"github.com/aidbridge/aidbridge/internal/money"
)

const (
	colMerchants  = "merchants"
	colReferences = "applied_references"
)

type Store struct {
	merchants  *mongo.Collection
	references *mongo.Collection
	client     *mongo.Client
	asset      money.Asset
}

func New(db *mongo.Database, asset money.Asset) *Store {
	return &Store{
		merchants:  db.Collection(colMerchants),
		references: db.Collection(colReferences),
		client:     db.Client(),
		asset:      asset,
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.merchants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating merchant index: %w", err)
	}

	return nil
}

type merchantDoc struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Name          string        `bson:"name"`
	Category      string        `bson:"category"`
	WalletAddress string        `bson:"walletAddress"`
	Email         string        `bson:"email,omitempty"`
	Phone         string        `bson:"phone,omitempty"`
	Verified      bool          `bson:"verified"`
	TotalOrders   int64         `bson:"totalOrders"`
	RevenueUnits  int64         `bson:"totalRevenue"`
	CreatedAt     time.Time     `bson:"createdAt"`
	UpdatedAt     *time.Time    `bson:"updatedAt,omitempty"`
	VerifiedAt    *time.Time    `bson:"verifiedAt,omitempty"`
}

type appliedRefDoc struct {
	Reference  string    `bson:"reference"`
	TargetKind string    `bson:"targetKind"`
	TargetID   string    `bson:"targetId"`
	Units      int64     `bson:"units"`
	AssetCode  string    `bson:"assetCode"`
	AppliedAt  time.Time `bson:"appliedAt"`
}

func (s *Store) fromDoc(d *merchantDoc) *merchant.Merchant {
	return &merchant.Merchant{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Category:      d.Category,
		WalletAddress: d.WalletAddress,
		Email:         d.Email,
		Phone:         d.Phone,
		Verified:      d.Verified,
		TotalOrders:   d.TotalOrders,
		TotalRevenue:  money.Amount{Units: d.RevenueUnits, Asset: s.asset},
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		VerifiedAt:    d.VerifiedAt,
	}
}

func (s *Store) CreateMerchant(ctx context.Context, m *merchant.Merchant) error {
	doc := &merchantDoc{
		Name:          m.Name,
		Category:      m.Category,
		WalletAddress: m.WalletAddress,
		Email:         m.Email,
		Phone:         m.Phone,
		Verified:      false,
		CreatedAt:     time.Now().UTC(),
	}

	res, err := s.merchants.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("creating merchant: %w", err)
	}

	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return fmt.Errorf("creating merchant: unexpected inserted id type %T", res.InsertedID)
	}

	m.ID = id.Hex()
	m.CreatedAt = doc.CreatedAt

	return nil
}

func (s *Store) GetMerchant(ctx context.Context, id string) (*merchant.Merchant, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, merchant.ErrNotFound
	}

	var doc merchantDoc
	if err := s.merchants.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, merchant.ErrNotFound
		}

		return nil, fmt.Errorf("getting merchant: %w", err)
	}

	return s.fromDoc(&doc), nil
}

func (s *Store) ListMerchants(ctx context.Context, filter merchant.ListFilter) ([]*merchant.Merchant, int64, error) {
	query := bson.M{}

	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	if filter.Verified != nil {
		query["verified"] = *filter.Verified
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(filter.Limit).
		SetSkip(filter.Skip)

	cursor, err := s.merchants.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing merchants: %w", err)
	}

	var docs []merchantDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decoding merchants: %w", err)
	}

	total, err := s.merchants.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("counting merchants: %w", err)
	}

	merchants := make([]*merchant.Merchant, len(docs))
	for i := range docs {
		merchants[i] = s.fromDoc(&docs[i])
	}

	return merchants, total, nil
}

// MarkVerified sets the verified flag. Idempotent: re-verifying an already
// verified merchant succeeds.
func (s *Store) MarkVerified(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return merchant.ErrNotFound
	}

	now := time.Now().UTC()

	res, err := s.merchants.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"verified": true, "verifiedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return fmt.Errorf("verifying merchant: %w", err)
	}

	if res.MatchedCount == 0 {
		return merchant.ErrNotFound
	}

	return nil
}

// RecordSettlement records the reference and increments totalRevenue and
// totalOrders in one transaction, mirroring the campaign credit path.
func (s *Store) RecordSettlement(ctx context.Context, id, reference string, amount money.Amount) (merchant.SettleResult, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return "", merchant.ErrNotFound
	}

	session, err := s.client.StartSession()
	if err != nil {
		return "", fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		_, err := s.references.InsertOne(ctx, appliedRefDoc{
			Reference:  reference,
			TargetKind: "merchant",
			TargetID:   id,
			Units:      amount.Units,
			AssetCode:  amount.Asset.Code,
			AppliedAt:  time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		res, err := s.merchants.UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{
				"$inc": bson.M{"totalRevenue": amount.Units, "totalOrders": 1},
				"$set": bson.M{"updatedAt": time.Now().UTC()},
			},
		)
		if err != nil {
			return nil, err
		}

		if res.MatchedCount == 0 {
			return nil, merchant.ErrNotFound
		}

		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return merchant.SettleAlreadyApplied, nil
		}

		if errors.Is(err, merchant.ErrNotFound) {
			return "", merchant.ErrNotFound
		}

		return "", fmt.Errorf("recording settlement: %w", err)
	}

	return merchant.SettleApplied, nil
}
