package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// EnsureMongoIndexes creates the unique user indexes and the owner index on
// tasks. It is safe to call on every start.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

type mongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(usersCollection), now: mongoNow}
}

// BSON dates carry millisecond precision.
func mongoNow() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with given username or email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("mongoUserRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, op string, filter bson.D) (*model.User, error) {
	user := &model.User{}
	if err := r.coll.FindOne(ctx, filter).Decode(user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", bson.D{{Key: "email", Value: email}})
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "FindByUsername", bson.D{{Key: "username", Value: username}})
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "FindByID", bson.D{{Key: "_id", Value: id}})
}

type mongoTaskRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoTaskRepository(db *mongo.Database) TaskRepository {
	return &mongoTaskRepository{coll: db.Collection(tasksCollection), now: mongoNow}
}

func (r *mongoTaskRepository) Create(ctx context.Context, task *model.Task) error {
	now := r.now()
	task.CreatedAt, task.UpdatedAt = now, now
	if task.Attachments == nil {
		task.Attachments = []model.Attachment{}
	}
	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("task already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("mongoTaskRepository.Create: %w", err)
	}
	return nil
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	task := &model.Task{}
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongoTaskRepository.FindByID: %w", err)
	}
	if task.Attachments == nil {
		task.Attachments = []model.Attachment{}
	}
	return task, nil
}

func (r *mongoTaskRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.D{{Key: "owner", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongoTaskRepository.ListByOwner find: %w", err)
	}
	tasks := []model.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("mongoTaskRepository.ListByOwner decode: %w", err)
	}
	for i := range tasks {
		if tasks[i].Attachments == nil {
			tasks[i].Attachments = []model.Attachment{}
		}
	}
	return tasks, nil
}

func (r *mongoTaskRepository) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = r.now()
	if task.Attachments == nil {
		task.Attachments = []model.Attachment{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: task.Title},
		{Key: "description", Value: task.Description},
		{Key: "status", Value: task.Status},
		{Key: "priority", Value: task.Priority},
		{Key: "due_date", Value: task.DueDate},
		{Key: "progress", Value: task.Progress},
		{Key: "assigned_to", Value: task.AssignedTo},
		{Key: "attachments", Value: task.Attachments},
		{Key: "updated_at", Value: task.UpdatedAt},
	}}}
	filter := bson.D{{Key: "_id", Value: task.ID}, {Key: "owner", Value: task.OwnerID}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mongoTaskRepository.Update: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *mongoTaskRepository) Delete(ctx context.Context, id, ownerID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: ownerID}})
	if err != nil {
		return fmt.Errorf("mongoTaskRepository.Delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}
