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

const coachingCollectionName = "coaching_relationships"

// mongoCoachingRepository implements repository.CoachingRepository.
type mongoCoachingRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachingRepository creates a new coaching relationship repository.
func NewMongoCoachingRepository(db *mongo.Database) repository.CoachingRepository {
	return &mongoCoachingRepository{
		collection: db.Collection(coachingCollectionName),
	}
}

// Create inserts a new relationship (a pending request).
func (r *mongoCoachingRepository) Create(ctx context.Context, rel *domain.CoachingRelationship) (primitive.ObjectID, error) {
	if rel.AthleteID == primitive.NilObjectID || rel.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("coaching relationship requires athleteId and coachId")
	}

	rel.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	rel.RequestedAt = now
	rel.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, rel)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted relationship ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single relationship.
func (r *mongoCoachingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingRelationship, error) {
	var rel domain.CoachingRelationship
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// GetByCoachID retrieves all relationships where the user is the coach,
// newest request first.
func (r *mongoCoachingRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachingRelationship, error) {
	return r.find(ctx, bson.M{"coachId": coachID})
}

// GetByAthleteID retrieves all relationships where the user is the athlete.
func (r *mongoCoachingRepository) GetByAthleteID(ctx context.Context, athleteID primitive.ObjectID) ([]domain.CoachingRelationship, error) {
	return r.find(ctx, bson.M{"athleteId": athleteID})
}

func (r *mongoCoachingRepository) find(ctx context.Context, filter bson.M) ([]domain.CoachingRelationship, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rels []domain.CoachingRelationship
	if err := cursor.All(ctx, &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// GetOpenByPair retrieves a Pending or Active relationship between an
// athlete and a coach, if one exists. Used to block duplicate requests.
func (r *mongoCoachingRepository) GetOpenByPair(ctx context.Context, athleteID, coachID primitive.ObjectID) (*domain.CoachingRelationship, error) {
	filter := bson.M{
		"athleteId": athleteID,
		"coachId":   coachID,
		"status":    bson.M{"$in": []domain.RelationshipStatus{domain.RelationshipPending, domain.RelationshipActive}},
	}

	var rel domain.CoachingRelationship
	err := r.collection.FindOne(ctx, filter).Decode(&rel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// CountActiveByCoach counts the coach's active athletes.
func (r *mongoCoachingRepository) CountActiveByCoach(ctx context.Context, coachID primitive.ObjectID) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"coachId": coachID, "status": domain.RelationshipActive})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Update replaces the mutable lifecycle fields of a relationship.
func (r *mongoCoachingRepository) Update(ctx context.Context, rel *domain.CoachingRelationship) error {
	rel.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":      rel.Status,
			"agreedRate":  rel.AgreedRate,
			"respondedAt": rel.RespondedAt,
			"endedAt":     rel.EndedAt,
			"updatedAt":   rel.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": rel.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureCoachingIndexes creates indexes for the coaching_relationships collection.
func EnsureCoachingIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "athleteId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
