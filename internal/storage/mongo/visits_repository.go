package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/db"
	"github.com/IgorGrieder/guardiao-url/internal/processing/gateway"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VisitsRepository struct {
	coll *mongo.Collection
}

type visitDoc struct {
	ShortlinkKey string    `bson:"shortlinkKey"`
	ShortlinkID  string    `bson:"shortlinkId"`
	VisitedAt    time.Time `bson:"visitedAt"`
	IP           string    `bson:"ip"`
	UserAgent    string    `bson:"userAgent"`
	Device       string    `bson:"device"`
	Country      string    `bson:"country,omitempty"`
	CountryCode  string    `bson:"countryCode,omitempty"`
	Region       string    `bson:"region,omitempty"`
	City         string    `bson:"city,omitempty"`
	Latitude     float64   `bson:"latitude,omitempty"`
	Longitude    float64   `bson:"longitude,omitempty"`
	ISP          string    `bson:"isp,omitempty"`
	FlagImg      string    `bson:"flagImg,omitempty"`
	Timezone     string    `bson:"timezone,omitempty"`
	Type         string    `bson:"type"`
	IsBot        bool      `bson:"isBot"`
	IsBlocked    bool      `bson:"isBlocked"`
	BlockReason  string    `bson:"blockReason"`
}

func NewVisitsRepository(m *db.Mongo) (*VisitsRepository, error) {
	repo := &VisitsRepository{coll: m.Collection("visitors")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "shortlinkKey", Value: 1},
				{Key: "ip", Value: 1},
				{Key: "visitedAt", Value: -1},
			},
			Options: options.Index().SetName("key_ip_visitedAt_desc"),
		},
		{
			Keys:    bson.D{{Key: "visitedAt", Value: -1}},
			Options: options.Index().SetName("visitedAt_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

// RecordIfAbsent inserts rec unless a record for the same (key, ip) was
// written inside the trailing window. The check and insert are not one
// atomic operation; a racing duplicate is tolerated since the record is
// advisory, not billing data.
func (r *VisitsRepository) RecordIfAbsent(ctx context.Context, rec *gateway.VisitRecord, window time.Duration) (bool, error) {
	cutoff := rec.VisitedAt.Add(-window)

	err := r.coll.FindOne(
		ctx,
		bson.M{
			"shortlinkKey": rec.ShortlinkKey,
			"ip":           rec.IP,
			"visitedAt":    bson.M{"$gt": cutoff},
		},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return false, err
	}

	doc := visitDoc{
		ShortlinkKey: rec.ShortlinkKey,
		ShortlinkID:  rec.ShortlinkID,
		VisitedAt:    rec.VisitedAt.UTC(),
		IP:           rec.IP,
		UserAgent:    rec.UserAgent,
		Device:       rec.Device,
		Country:      rec.Location.Country,
		CountryCode:  rec.Location.CountryCode,
		Region:       rec.Location.Region,
		City:         rec.Location.City,
		Latitude:     rec.Location.Latitude,
		Longitude:    rec.Location.Longitude,
		ISP:          rec.Location.ISP,
		FlagImg:      rec.Location.FlagImg,
		Timezone:     rec.Timezone,
		Type:         rec.Type,
		IsBot:        rec.IsBot,
		IsBlocked:    rec.IsBlocked,
		BlockReason:  rec.BlockReason,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}
