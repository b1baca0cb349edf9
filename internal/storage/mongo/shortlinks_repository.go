package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/db"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ShortlinksRepository struct {
	coll *mongo.Collection
}

type shortlinkDoc struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Owner              string             `bson:"owner"`
	Key                string             `bson:"key"`
	URL                string             `bson:"url"`
	SecondaryURL       string             `bson:"secondaryUrl,omitempty"`
	Status             string             `bson:"status"`
	PrimaryURLStatus   string             `bson:"primaryUrlStatus,omitempty"`
	SecondaryURLStatus string             `bson:"secondaryUrlStatus,omitempty"`
	BlockStatusCode    int                `bson:"blockStatusCode,omitempty"`
	AllowedDevice      string             `bson:"allowedDevice,omitempty"`
	ConnectionType     string             `bson:"connectionType,omitempty"`
	AllowedCountry     string             `bson:"allowedCountry,omitempty"`
	AllowedISP         string             `bson:"allowedIsp,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

func NewShortlinksRepository(m *db.Mongo) (*ShortlinksRepository, error) {
	repo := &ShortlinksRepository{coll: m.Collection("shortlinks")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_key"),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_createdAt_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ShortlinksRepository) Insert(ctx context.Context, link *shortlinks.Shortlink) error {
	now := time.Now().UTC()
	doc := shortlinkDoc{
		Owner:              link.Owner,
		Key:                link.Key,
		URL:                link.URL,
		SecondaryURL:       link.SecondaryURL,
		Status:             link.Status,
		PrimaryURLStatus:   link.PrimaryURLStatus,
		SecondaryURLStatus: link.SecondaryURLStatus,
		BlockStatusCode:    link.BlockStatusCode,
		AllowedDevice:      link.AllowedDevice,
		ConnectionType:     link.ConnectionType,
		AllowedCountry:     link.AllowedCountry,
		AllowedISP:         link.AllowedISP,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
			link.ID = oid.Hex()
		}
		link.CreatedAt = now
		link.UpdatedAt = now
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return shortlinks.ErrKeyTaken
	}

	return err
}

func (r *ShortlinksRepository) FindByKey(ctx context.Context, key string) (*shortlinks.Shortlink, error) {
	var doc shortlinkDoc
	err := r.coll.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err == nil {
		return mapShortlinkDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shortlinks.ErrNotFound
	}

	return nil, err
}

func (r *ShortlinksRepository) ListByOwner(ctx context.Context, owner string) ([]shortlinks.Shortlink, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return decodeShortlinks(ctx, cur)
}

func (r *ShortlinksRepository) ListAll(ctx context.Context) ([]shortlinks.Shortlink, error) {
	cur, err := r.coll.Find(ctx, bson.M{"status": shortlinks.StatusActive})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return decodeShortlinks(ctx, cur)
}

func (r *ShortlinksRepository) DeleteByOwnerKey(ctx context.Context, owner, key string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"owner": owner, "key": key})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *ShortlinksRepository) UpdateURLStatuses(ctx context.Context, id, primary, secondary string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.coll.UpdateOne(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"primaryUrlStatus":   primary,
			"secondaryUrlStatus": secondary,
			"updatedAt":          time.Now().UTC(),
		}},
	)
	return err
}

func decodeShortlinks(ctx context.Context, cur *mongo.Cursor) ([]shortlinks.Shortlink, error) {
	var out []shortlinks.Shortlink
	for cur.Next(ctx) {
		var doc shortlinkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, *mapShortlinkDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func mapShortlinkDoc(doc shortlinkDoc) *shortlinks.Shortlink {
	return &shortlinks.Shortlink{
		ID:                 doc.ID.Hex(),
		Owner:              doc.Owner,
		Key:                doc.Key,
		URL:                doc.URL,
		SecondaryURL:       doc.SecondaryURL,
		Status:             doc.Status,
		PrimaryURLStatus:   doc.PrimaryURLStatus,
		SecondaryURLStatus: doc.SecondaryURLStatus,
		BlockStatusCode:    doc.BlockStatusCode,
		AllowedDevice:      doc.AllowedDevice,
		ConnectionType:     doc.ConnectionType,
		AllowedCountry:     doc.AllowedCountry,
		AllowedISP:         doc.AllowedISP,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}
}
