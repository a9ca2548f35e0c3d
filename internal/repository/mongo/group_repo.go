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

const groupCollectionName = "groups"

// mongoGroupRepository implements repository.GroupRepository.
type mongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository creates a new group repository.
func NewMongoGroupRepository(db *mongo.Database) repository.GroupRepository {
	return &mongoGroupRepository{
		collection: db.Collection(groupCollectionName),
	}
}

// Create inserts a new group.
func (r *mongoGroupRepository) Create(ctx context.Context, group *domain.Group) (primitive.ObjectID, error) {
	if group.CoachID == primitive.NilObjectID || group.Name == "" {
		return primitive.NilObjectID, errors.New("group requires coachId and name")
	}

	group.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted group ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single group.
func (r *mongoGroupRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Group, error) {
	var group domain.Group
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

// GetByIDs retrieves all groups whose IDs are in the provided list.
func (r *mongoGroupRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Group, error) {
	if len(ids) == 0 {
		return []domain.Group{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []domain.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetByCoachID retrieves every group owned by a coach.
func (r *mongoGroupRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Group, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"coachId": coachID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []domain.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListPublic retrieves non-private groups matching the filter.
func (r *mongoGroupRepository) ListPublic(ctx context.Context, filter repository.GroupFilter) ([]domain.Group, error) {
	query := bson.M{"isPrivate": false}
	if filter.City != "" {
		query["city"] = filter.City
	}
	if filter.Sport != "" {
		query["sport"] = filter.Sport
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []domain.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// Update replaces the coach-editable fields of a group.
func (r *mongoGroupRepository) Update(ctx context.Context, group *domain.Group) error {
	group.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":         group.Name,
			"description":  group.Description,
			"sport":        group.Sport,
			"targetLevel":  group.TargetLevel,
			"maxMembers":   group.MaxMembers,
			"city":         group.City,
			"meetingPoint": group.MeetingPoint,
			"isPrivate":    group.IsPrivate,
			"isFree":       group.IsFree,
			"monthlyFee":   group.MonthlyFee,
			"updatedAt":    group.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": group.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetMemberCount stores the recomputed occupancy of a group.
func (r *mongoGroupRepository) SetMemberCount(ctx context.Context, groupID primitive.ObjectID, count int) error {
	update := bson.M{
		"$set": bson.M{
			"currentMembers": count,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureGroupIndexes creates indexes for the groups collection.
func EnsureGroupIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "isPrivate", Value: 1}, {Key: "city", Value: 1}, {Key: "sport", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
