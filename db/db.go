package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the slice of *mongo.Collection the lifecycle services use.
// Satisfied by *mongo.Collection; tests substitute dbtest.Collection.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

var (
	Client *mongo.Client

	UserCollection         *mongo.Collection
	ApplicationsCollection *mongo.Collection
	BookingsCollection     *mongo.Collection
	PaymentsCollection     *mongo.Collection
	ServicesCollection     *mongo.Collection
	TrackingsCollection    *mongo.Collection
)

// Connect establishes the MongoDB connection and binds the collection
// handles. Called once from main; a failure here is fatal at startup.
func Connect(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	Client = client
	database := client.Database("decordb")
	UserCollection = database.Collection("users")
	ApplicationsCollection = database.Collection("applications")
	BookingsCollection = database.Collection("bookings")
	PaymentsCollection = database.Collection("payments")
	ServicesCollection = database.Collection("services")
	TrackingsCollection = database.Collection("trackings")
	return nil
}

// Close tears the client down during graceful shutdown.
func Close(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}
