package mongo

import (
	"context"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/db"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VisitStatsRepository struct {
	coll *mongo.Collection
}

type visitDailyDoc struct {
	Key     string `bson:"key"`
	Date    string `bson:"date"` // YYYY-MM-DD (UTC)
	Total   int64  `bson:"total"`
	Blocked int64  `bson:"blocked"`
}

func NewVisitStatsRepository(m *db.Mongo) (*VisitStatsRepository, error) {
	repo := &VisitStatsRepository{coll: m.Collection("visits_daily")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_key_date"),
		},
		{
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index().SetName("key_date_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *VisitStatsRepository) IncDaily(ctx context.Context, key string, at time.Time, blocked bool) error {
	date := dateString(at)

	inc := bson.M{"total": 1}
	if blocked {
		inc = bson.M{"total": 1, "blocked": 1}
	}

	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"key": key, "date": date},
		bson.M{
			"$inc": inc,
			"$setOnInsert": bson.M{
				"key":  key,
				"date": date,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *VisitStatsRepository) GetDaily(ctx context.Context, key string, from, to time.Time) ([]shortlinks.DailyVisitCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"key": key,
			"date": bson.M{
				"$gte": dateString(from),
				"$lte": dateString(to),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []shortlinks.DailyVisitCount
	for cur.Next(ctx) {
		var doc visitDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, shortlinks.DailyVisitCount{
			Date:    doc.Date,
			Total:   doc.Total,
			Blocked: doc.Blocked,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func dateString(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
