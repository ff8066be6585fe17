package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Models"
	interfaces "github.com/Adewole2016/HOME-AUTOMATION/src/production/HA.Repository/Interfaces"
)

// MongoDeviceRepository is the document-store backend, selected with
// STORE_BACKEND=mongodb. Toggles use an aggregation-pipeline update so the
// single-element flip happens server-side in one atomic document update.
type MongoDeviceRepository struct {
	db       *mongo.Database
	channels int
}

func NewMongoDeviceRepository(db *mongo.Database, channels int) *MongoDeviceRepository {
	return &MongoDeviceRepository{db: db, channels: channels}
}

func (r *MongoDeviceRepository) devices() *mongo.Collection {
	return r.db.Collection("devices")
}

func (r *MongoDeviceRepository) reports() *mongo.Collection {
	return r.db.Collection("device_reports")
}

func (r *MongoDeviceRepository) GetOrCreateDevice(ctx context.Context, deviceID, defaultName string) (*models.Device, error) {
	filter := bson.M{"_id": deviceID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":    defaultName,
			"desired": make([]bool, r.channels),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var device models.Device
	if err := r.devices().FindOneAndUpdate(ctx, filter, update, opts).Decode(&device); err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	return &device, nil
}

func (r *MongoDeviceRepository) TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	result, err := r.devices().UpdateOne(ctx,
		bson.M{"_id": deviceID},
		bson.M{"$set": bson.M{"last_seen": seenAt}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrDeviceNotFound
	}
	return nil
}

func (r *MongoDeviceRepository) ToggleDesiredChannel(ctx context.Context, deviceID string, channel int) (bool, error) {
	if channel < 1 || channel > r.channels {
		return false, interfaces.ErrInvalidChannel
	}

	field := fmt.Sprintf("desired.%d", channel-1)
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$not", Value: bson.A{"$" + field}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var device models.Device
	err := r.devices().FindOneAndUpdate(ctx, bson.M{"_id": deviceID}, pipeline, opts).Decode(&device)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, interfaces.ErrDeviceNotFound
		}
		return false, err
	}

	if channel > len(device.Desired) {
		return false, interfaces.ErrInvalidChannel
	}
	return device.Desired[channel-1], nil
}

func (r *MongoDeviceRepository) SetAllDesiredChannels(ctx context.Context, deviceID string, state bool) error {
	desired := make([]bool, r.channels)
	for i := range desired {
		desired[i] = state
	}

	result, err := r.devices().UpdateOne(ctx,
		bson.M{"_id": deviceID},
		bson.M{"$set": bson.M{"desired": desired}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrDeviceNotFound
	}
	return nil
}

func (r *MongoDeviceRepository) AppendReport(ctx context.Context, deviceID string, channels []bool) (*models.DeviceReport, error) {
	count, err := r.devices().CountDocuments(ctx, bson.M{"_id": deviceID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, interfaces.ErrDeviceNotFound
	}

	report := models.DeviceReport{
		ReportID:  uuid.New().String(),
		DeviceID:  deviceID,
		Channels:  channels,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := r.reports().InsertOne(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to append report: %w", err)
	}

	return &report, nil
}

func (r *MongoDeviceRepository) ListRecentReports(ctx context.Context, deviceID string, limit int) ([]models.DeviceReport, error) {
	if limit <= 0 || limit > interfaces.RecentReportLimit {
		limit = interfaces.RecentReportLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.reports().Find(ctx, bson.M{"device_id": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []models.DeviceReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}
