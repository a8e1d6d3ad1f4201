package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongolib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// taskDocument is the persisted shape. The owner is stored under "user",
// matching existing task collections.
type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       string             `bson:"user"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

func (d taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID.Hex(),
		Owner:       d.Owner,
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type taskStore struct {
	coll *mongolib.Collection
}

// NewTaskStore returns a MongoDB-backed TaskStore over the given collection.
func NewTaskStore(coll *mongolib.Collection) repository.TaskStore {
	return &taskStore{coll: coll}
}

// EnsureIndexes creates the owner index used by ListByOwner.
func EnsureIndexes(ctx context.Context, coll *mongolib.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongolib.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetName("user_1"),
	})
	return err
}

func (r *taskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *taskStore) ListByOwner(ctx context.Context, owner string) ([]domain.Task, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user": owner})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := make([]domain.Task, 0)
	for cursor.Next(ctx) {
		var doc taskDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, *doc.toDomain())
	}
	return tasks, cursor.Err()
}

func (r *taskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Owner:       task.Owner,
		Title:       task.Title,
		Description: task.Description,
		CreatedAt:   task.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *taskStore) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTaskNotFound
	}

	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *taskStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTaskNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskStore) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func translate(err error) error {
	if errors.Is(err, mongolib.ErrNoDocuments) {
		return domain.ErrTaskNotFound
	}
	return err
}
