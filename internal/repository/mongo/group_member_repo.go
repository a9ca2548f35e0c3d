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

const groupMemberCollectionName = "group_members"

// mongoGroupMemberRepository implements repository.GroupMemberRepository.
type mongoGroupMemberRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupMemberRepository creates a new group membership repository.
func NewMongoGroupMemberRepository(db *mongo.Database) repository.GroupMemberRepository {
	return &mongoGroupMemberRepository{
		collection: db.Collection(groupMemberCollectionName),
	}
}

// Create inserts a new membership record (usually a pending join request).
func (r *mongoGroupMemberRepository) Create(ctx context.Context, member *domain.GroupMember) (primitive.ObjectID, error) {
	if member.GroupID == primitive.NilObjectID || member.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("group member requires groupId and userId")
	}

	member.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted member ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single membership record.
func (r *mongoGroupMemberRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetByGroupAndUser retrieves the membership of one user in one group.
func (r *mongoGroupMemberRepository) GetByGroupAndUser(ctx context.Context, groupID, userID primitive.ObjectID) (*domain.GroupMember, error) {
	var member domain.GroupMember
	err := r.collection.FindOne(ctx, bson.M{"groupId": groupID, "userId": userID}).Decode(&member)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// GetByGroupID retrieves every membership record of a group.
func (r *mongoGroupMemberRepository) GetByGroupID(ctx context.Context, groupID primitive.ObjectID) ([]domain.GroupMember, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"groupId": groupID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []domain.GroupMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetByUserID retrieves a user's memberships in the given status.
func (r *mongoGroupMemberRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID, status domain.MembershipStatus) ([]domain.GroupMember, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []domain.GroupMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CountByGroup counts the memberships of a group in the given status.
func (r *mongoGroupMemberRepository) CountByGroup(ctx context.Context, groupID primitive.ObjectID, status domain.MembershipStatus) (int, error) {
	filter := bson.M{"groupId": groupID}
	if status != "" {
		filter["status"] = status
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Update replaces the mutable fields of a membership record.
func (r *mongoGroupMemberRepository) Update(ctx context.Context, member *domain.GroupMember) error {
	member.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":    member.Status,
			"joinedAt":  member.JoinedAt,
			"updatedAt": member.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": member.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a membership record (leave or coach removal).
func (r *mongoGroupMemberRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureGroupMemberIndexes creates indexes for the group_members collection.
func EnsureGroupMemberIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One membership record per (group, user) pair
			Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
