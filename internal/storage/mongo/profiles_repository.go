package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/db"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProfilesRepository struct {
	coll *mongo.Collection
}

type profileDoc struct {
	Username         string `bson:"username"`
	APIKey           string `bson:"apiKey"`
	Status           string `bson:"status"`
	SubscriptionType string `bson:"subscriptionType,omitempty"`
}

func NewProfilesRepository(m *db.Mongo) (*ProfilesRepository, error) {
	repo := &ProfilesRepository{coll: m.Collection("user_profiles")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "apiKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_apiKey"),
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ProfilesRepository) FindByAPIKey(ctx context.Context, apiKey string) (*shortlinks.Profile, error) {
	var doc profileDoc
	err := r.coll.FindOne(ctx, bson.M{"apiKey": apiKey}).Decode(&doc)
	if err == nil {
		return &shortlinks.Profile{
			Username:         doc.Username,
			APIKey:           doc.APIKey,
			Status:           doc.Status,
			SubscriptionType: doc.SubscriptionType,
		}, nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shortlinks.ErrProfileNotFound
	}

	return nil, err
}
