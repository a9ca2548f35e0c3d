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

const coachProfileCollectionName = "coach_profiles"

// mongoCoachProfileRepository implements repository.CoachProfileRepository.
type mongoCoachProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachProfileRepository creates a new coach profile repository.
func NewMongoCoachProfileRepository(db *mongo.Database) repository.CoachProfileRepository {
	return &mongoCoachProfileRepository{
		collection: db.Collection(coachProfileCollectionName),
	}
}

// Create inserts a new coach profile. The unique userId index rejects a
// second profile for the same coach.
func (r *mongoCoachProfileRepository) Create(ctx context.Context, profile *domain.CoachProfile) (primitive.ObjectID, error) {
	if profile.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("coach profile requires userId")
	}

	profile.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted profile ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves the profile of one coach.
func (r *mongoCoachProfileRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.CoachProfile, error) {
	var profile domain.CoachProfile
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// List retrieves marketplace profiles, optionally filtered by specialty tag.
func (r *mongoCoachProfileRepository) List(ctx context.Context, specialty string) ([]domain.CoachProfile, error) {
	query := bson.M{}
	if specialty != "" {
		query["specialties"] = specialty
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "yearsExperience", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []domain.CoachProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Update replaces the coach-editable fields of a profile.
func (r *mongoCoachProfileRepository) Update(ctx context.Context, profile *domain.CoachProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"bio":             profile.Bio,
			"specialties":     profile.Specialties,
			"yearsExperience": profile.YearsExperience,
			"monthlyRate":     profile.MonthlyRate,
			"sessionRate":     profile.SessionRate,
			"avatarObjectKey": profile.AvatarObjectKey,
			"updatedAt":       profile.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": profile.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCoachProfileIndexes creates indexes for the coach_profiles collection.
func EnsureCoachProfileIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "specialties", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
