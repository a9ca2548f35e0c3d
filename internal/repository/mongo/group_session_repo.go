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

const groupSessionCollectionName = "group_sessions"

// mongoGroupSessionRepository implements repository.GroupSessionRepository.
type mongoGroupSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupSessionRepository creates a new group session repository.
func NewMongoGroupSessionRepository(db *mongo.Database) repository.GroupSessionRepository {
	return &mongoGroupSessionRepository{
		collection: db.Collection(groupSessionCollectionName),
	}
}

// Create inserts a new group session.
func (r *mongoGroupSessionRepository) Create(ctx context.Context, session *domain.GroupSession) (primitive.ObjectID, error) {
	if session.GroupID == primitive.NilObjectID || session.CoachID == primitive.NilObjectID || session.Name == "" {
		return primitive.NilObjectID, errors.New("group session requires groupId, coachId, and name")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted group session ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single group session.
func (r *mongoGroupSessionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupSession, error) {
	var session domain.GroupSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByGroupID retrieves all sessions of a group, ordered by date.
func (r *mongoGroupSessionRepository) GetByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"groupId": groupID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.GroupSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetUpcomingByGroupIDs retrieves future, non-cancelled sessions across the
// given groups, soonest first.
func (r *mongoGroupSessionRepository) GetUpcomingByGroupIDs(ctx context.Context, groupIDs []primitive.ObjectID, after time.Time) ([]domain.GroupSession, error) {
	if len(groupIDs) == 0 {
		return []domain.GroupSession{}, nil
	}

	filter := bson.M{
		"groupId":       bson.M{"$in": groupIDs},
		"scheduledDate": bson.M{"$gte": after},
		"isCancelled":   false,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.GroupSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update replaces the mutable fields of a group session, including the
// recomputed attendance counts.
func (r *mongoGroupSessionRepository) Update(ctx context.Context, session *domain.GroupSession) error {
	session.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"isCancelled":    session.IsCancelled,
			"cancelReason":   session.CancelReason,
			"confirmedCount": session.ConfirmedCount,
			"maybeCount":     session.MaybeCount,
			"absentCount":    session.AbsentCount,
			"updatedAt":      session.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureGroupSessionIndexes creates indexes for the group_sessions collection.
func EnsureGroupSessionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
