package mongo

import (
	"context"
	"errors"
	"time"

	"trainmate/platform/internal/domain"
	"trainmate/platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const attendanceCollectionName = "attendance"

// mongoAttendanceRepository implements repository.AttendanceRepository.
type mongoAttendanceRepository struct {
	collection *mongo.Collection
}

// NewMongoAttendanceRepository creates a new attendance repository.
func NewMongoAttendanceRepository(db *mongo.Database) repository.AttendanceRepository {
	return &mongoAttendanceRepository{
		collection: db.Collection(attendanceCollectionName),
	}
}

// Upsert writes the member's attendance record for a session, creating it
// on first RSVP. The unique (session, user) index makes this race-safe.
func (r *mongoAttendanceRepository) Upsert(ctx context.Context, att *domain.Attendance) error {
	att.UpdatedAt = time.Now().UTC()

	filter := bson.M{"groupSessionId": att.GroupSessionID, "userId": att.UserID}
	set := bson.M{
		"status":    att.Status,
		"updatedAt": att.UpdatedAt,
	}
	if att.Completion != nil {
		set["completion"] = att.Completion
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID()},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetBySessionAndUser retrieves one member's attendance record.
func (r *mongoAttendanceRepository) GetBySessionAndUser(ctx context.Context, sessionID, userID primitive.ObjectID) (*domain.Attendance, error) {
	var att domain.Attendance
	err := r.collection.FindOne(ctx, bson.M{"groupSessionId": sessionID, "userId": userID}).Decode(&att)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &att, nil
}

// GetBySessionID retrieves every attendance record of a session.
func (r *mongoAttendanceRepository) GetBySessionID(ctx context.Context, sessionID primitive.ObjectID) ([]domain.Attendance, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"groupSessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []domain.Attendance
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountByStatus aggregates the attendance records of a session per status.
func (r *mongoAttendanceRepository) CountByStatus(ctx context.Context, sessionID primitive.ObjectID) (map[domain.AttendanceStatus]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"groupSessionId": sessionID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status domain.AttendanceStatus `bson:"_id"`
		Count  int                     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[domain.AttendanceStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// EnsureAttendanceIndexes creates indexes for the attendance collection.
func EnsureAttendanceIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One attendance record per (session, member) pair
			Keys:    bson.D{{Key: "groupSessionId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
