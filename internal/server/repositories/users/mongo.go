package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type credentialDocument struct {
	Login  string `bson:"_id"`
	Record string `bson:"record"`
}

// MongoRepository stores one document per login, using the login as _id.
type MongoRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongoRepository connects to uri and verifies the connection.
func OpenMongoRepository(ctx context.Context, uri, database, collection string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &MongoRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (r *MongoRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var doc credentialDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return []byte(doc.Record), nil
}

func (r *MongoRepository) Set(ctx context.Context, key string, value []byte) error {
	doc := credentialDocument{Login: key, Record: string(value)}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

func (r *MongoRepository) SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	_, err := r.collection.InsertOne(ctx, credentialDocument{Login: key, Record: string(value)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("mongo insert: %w", err)
	}
	return true, nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
