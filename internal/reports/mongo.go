package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erpsystem/doccheck/internal/verify"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding verification runs.
const CollectionName = "verification_runs"

// persistedRun is the Mongo representation of a run. Queryable fields are
// stored alongside the full JSON report.
type persistedRun struct {
	RunID      string    `bson:"runId"`
	OrderID    string    `bson:"orderId"`
	Success    bool      `bson:"success"`
	Stage      string    `bson:"stage"`
	StartedAt  time.Time `bson:"startedAt"`
	FinishedAt time.Time `bson:"finishedAt"`
	Payload    string    `bson:"payload"`
}

// MongoRepo implements Repository on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

// NewMongoRepo ensures the runId and orderId indexes exist.
func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "runId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}, {Key: "startedAt", Value: -1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("create verification run indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) Save(ctx context.Context, res *verify.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", res.RunID, err)
	}
	rec := persistedRun{
		RunID:      res.RunID,
		OrderID:    res.OrderID,
		Success:    res.Success,
		Stage:      string(res.FailedStage),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Payload:    string(payload),
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.col.UpdateOne(ctx, bson.M{"runId": res.RunID}, bson.M{"$set": rec}, opts); err != nil {
		return fmt.Errorf("save run %s: %w", res.RunID, err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, runID string) (*verify.Result, error) {
	var rec persistedRun
	if err := m.col.FindOne(ctx, bson.M{"runId": runID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeRun(rec)
}

func (m *MongoRepo) ListByOrder(ctx context.Context, orderID string, limit int) ([]*verify.Result, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, bson.M{"orderId": orderID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*verify.Result{}
	for cur.Next(ctx) {
		var rec persistedRun
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		res, err := decodeRun(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, cur.Err()
}

func decodeRun(rec persistedRun) (*verify.Result, error) {
	var res verify.Result
	if err := json.Unmarshal([]byte(rec.Payload), &res); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", rec.RunID, err)
	}
	return &res, nil
}
