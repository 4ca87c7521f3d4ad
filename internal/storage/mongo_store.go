package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/ride-share/internal/models"
)

// MongoStore is the primary document-store backend. Offers live in
// the rides collection with their requests embedded; accounts live in
// the users collection.
type MongoStore struct {
	rides *mongo.Collection
	users *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := client.Database(dbName)
	return &MongoStore{
		rides: db.Collection("rides"),
		users: db.Collection("users"),
	}, nil
}

func (s *MongoStore) CreateOffer(ctx context.Context, o *models.RideOffer) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.CreatedAt = time.Now().UTC()
	_, err := s.rides.InsertOne(ctx, o)
	return err
}

func (s *MongoStore) GetOffer(ctx context.Context, id string) (models.RideOffer, error) {
	var o models.RideOffer
	err := s.rides.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RideOffer{}, ErrNotFound
	}
	if err != nil {
		return models.RideOffer{}, err
	}
	return o, nil
}

func (s *MongoStore) ListOffers(ctx context.Context, f OfferFilter) ([]models.RideOffer, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ExcludeOwner != "" {
		filter["owner_id"] = bson.M{"$ne": f.ExcludeOwner}
	}
	if f.Origin != "" {
		filter["origin"] = f.Origin
	}
	if f.Destination != "" {
		filter["destination"] = f.Destination
	}

	// The inequality field has to lead the sort; departure time breaks
	// ties. Callers rely on exactly this order.
	findOpts := options.Find().SetSort(bson.D{
		{Key: "owner_id", Value: 1},
		{Key: "departure_at", Value: 1},
	})

	cur, err := s.rides.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RideOffer
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DepartureAt = out[i].DepartureAt.UTC()
		out[i].CreatedAt = out[i].CreatedAt.UTC()
	}
	return out, nil
}

func (s *MongoStore) ReplaceRequests(ctx context.Context, offerID string, reqs []models.RideRequest) error {
	res, err := s.rides.UpdateByID(ctx, offerID, bson.M{"$set": bson.M{"requests": reqs}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) UpdateOffer(ctx context.Context, o models.RideOffer) error {
	res, err := s.rides.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	existing := s.users.FindOne(ctx, bson.M{"email": u.Email})
	if existing.Err() == nil {
		return ErrEmailTaken
	}
	if !errors.Is(existing.Err(), mongo.ErrNoDocuments) {
		return existing.Err()
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.users.InsertOne(ctx, u)
	return err
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
