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

const userPlanCollectionName = "user_plans"

// mongoUserPlanRepository implements repository.UserPlanRepository.
type mongoUserPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoUserPlanRepository creates a new user plan repository.
func NewMongoUserPlanRepository(db *mongo.Database) repository.UserPlanRepository {
	return &mongoUserPlanRepository{
		collection: db.Collection(userPlanCollectionName),
	}
}

// Create inserts a new plan assignment.
func (r *mongoUserPlanRepository) Create(ctx context.Context, plan *domain.UserPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.TrainingPlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("user plan requires userId and trainingPlanId")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted user plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan assignment.
func (r *mongoUserPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.UserPlan, error) {
	var plan domain.UserPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByUserID retrieves all plan assignments of a user, newest first.
func (r *mongoUserPlanRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.UserPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.UserPlan
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// GetActiveByUserID retrieves the user's active plan. The dashboard assumes
// at most one; if several exist the most recently started wins.
func (r *mongoUserPlanRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.UserPlan, error) {
	filter := bson.M{"userId": userID, "status": domain.UserPlanActive}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "startDate", Value: -1}})

	var plan domain.UserPlan
	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// Update replaces the mutable fields of a plan assignment.
func (r *mongoUserPlanRepository) Update(ctx context.Context, plan *domain.UserPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":    plan.Status,
			"updatedAt": plan.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserPlanIndexes creates indexes for the user_plans collection.
func EnsureUserPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
