package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

const todosCollection = "todos"

// TodoRepository implements ports.TodoRepository on MongoDB. Subtasks are
// embedded in the todo document, so deleting a todo removes them with it and
// array order preserves creation order.
type TodoRepository struct {
	coll *mongo.Collection
}

func NewTodoRepository(db *mongo.Database) *TodoRepository {
	return &TodoRepository{coll: db.Collection(todosCollection)}
}

type mongoSubtask struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Completed bool               `bson:"completed"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type mongoTodo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     string             `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	Subtasks    []mongoSubtask     `bson:"subtasks"`
}

func (mt *mongoTodo) toDomain() *domain.Todo {
	subtasks := make([]domain.Subtask, 0, len(mt.Subtasks))
	for _, s := range mt.Subtasks {
		subtasks = append(subtasks, domain.Subtask{
			ID:        s.ID.Hex(),
			Title:     s.Title,
			Completed: s.Completed,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return &domain.Todo{
		ID:          mt.ID.Hex(),
		OwnerID:     mt.OwnerID,
		Title:       mt.Title,
		Description: mt.Description,
		Completed:   mt.Completed,
		CreatedAt:   mt.CreatedAt,
		UpdatedAt:   mt.UpdatedAt,
		Subtasks:    subtasks,
	}
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	doc := mongoTodo{
		OwnerID:     todo.OwnerID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
		Subtasks:    []mongoSubtask{},
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	created := *todo
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *TodoRepository) FindByID(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	filter, err := ownerFilter(ownerID, todoID)
	if err != nil {
		return nil, err
	}

	var mt mongoTodo
	if err := r.coll.FindOne(ctx, filter).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return mt.toDomain(), nil
}

func (r *TodoRepository) FindByOwner(ctx context.Context, ownerID string, filter ports.ListTodosFilter) ([]*domain.Todo, error) {
	query := bson.M{"user_id": ownerID}
	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoTodo
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}

	todos := make([]*domain.Todo, 0, len(docs))
	for i := range docs {
		todos = append(todos, docs[i].toDomain())
	}
	return todos, nil
}

func (r *TodoRepository) Update(ctx context.Context, ownerID, todoID string, patch ports.TodoPatch) (*domain.Todo, error) {
	filter, err := ownerFilter(ownerID, todoID)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": set}, domain.ErrTodoNotFound)
}

func (r *TodoRepository) Delete(ctx context.Context, ownerID, todoID string) error {
	filter, err := ownerFilter(ownerID, todoID)
	if err != nil {
		return err
	}

	res, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *TodoRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{"user_id": ownerID}); err != nil {
		return fmt.Errorf("delete todos by owner: %w", err)
	}
	return nil
}

func (r *TodoRepository) CountByOwner(ctx context.Context, ownerID string) (ports.TodoCounts, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		return ports.TodoCounts{}, fmt.Errorf("count todos: %w", err)
	}
	completed, err := r.coll.CountDocuments(ctx, bson.M{"user_id": ownerID, "completed": true})
	if err != nil {
		return ports.TodoCounts{}, fmt.Errorf("count completed todos: %w", err)
	}
	return ports.TodoCounts{Total: total, Completed: completed}, nil
}

func (r *TodoRepository) AddSubtask(ctx context.Context, ownerID, todoID string, subtask domain.Subtask) (*domain.Todo, error) {
	filter, err := ownerFilter(ownerID, todoID)
	if err != nil {
		return nil, err
	}

	sub := mongoSubtask{
		ID:        primitive.NewObjectID(),
		Title:     subtask.Title,
		Completed: subtask.Completed,
		CreatedAt: subtask.CreatedAt,
		UpdatedAt: subtask.UpdatedAt,
	}

	update := bson.M{
		"$push": bson.M{"subtasks": sub},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	return r.findOneAndUpdate(ctx, filter, update, domain.ErrTodoNotFound)
}

func (r *TodoRepository) UpdateSubtask(ctx context.Context, ownerID, todoID, subtaskID string, patch ports.SubtaskPatch) (*domain.Todo, error) {
	filter, err := subtaskFilter(ownerID, todoID, subtaskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	set := bson.M{
		"updated_at":            now,
		"subtasks.$.updated_at": now,
	}
	if patch.Title != nil {
		set["subtasks.$.title"] = *patch.Title
	}
	if patch.Completed != nil {
		set["subtasks.$.completed"] = *patch.Completed
	}

	todo, err := r.findOneAndUpdate(ctx, filter, bson.M{"$set": set}, domain.ErrSubtaskNotFound)
	if errors.Is(err, domain.ErrSubtaskNotFound) {
		return nil, r.subtaskMiss(ctx, ownerID, todoID)
	}
	return todo, err
}

func (r *TodoRepository) RemoveSubtask(ctx context.Context, ownerID, todoID, subtaskID string) error {
	filter, err := subtaskFilter(ownerID, todoID, subtaskID)
	if err != nil {
		return err
	}
	sid, _ := primitive.ObjectIDFromHex(subtaskID)

	update := bson.M{
		"$pull": bson.M{"subtasks": bson.M{"_id": sid}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := r.findOneAndUpdate(ctx, filter, update, domain.ErrSubtaskNotFound); err != nil {
		if errors.Is(err, domain.ErrSubtaskNotFound) {
			return r.subtaskMiss(ctx, ownerID, todoID)
		}
		return err
	}
	return nil
}

// EnsureIndexes creates the owner index every query filters on.
func (r *TodoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *TodoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, missErr error) (*domain.Todo, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mt mongoTodo
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, missErr
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return mt.toDomain(), nil
}

// subtaskMiss disambiguates a no-match on a subtask-scoped filter: either the
// todo itself is gone (or owned by someone else) or just the subtask is.
func (r *TodoRepository) subtaskMiss(ctx context.Context, ownerID, todoID string) error {
	if _, err := r.FindByID(ctx, ownerID, todoID); err != nil {
		return err
	}
	return domain.ErrSubtaskNotFound
}

func ownerFilter(ownerID, todoID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(todoID)
	if err != nil {
		return nil, domain.ErrTodoNotFound
	}
	return bson.M{"_id": oid, "user_id": ownerID}, nil
}

func subtaskFilter(ownerID, todoID, subtaskID string) (bson.M, error) {
	filter, err := ownerFilter(ownerID, todoID)
	if err != nil {
		return nil, err
	}
	sid, err := primitive.ObjectIDFromHex(subtaskID)
	if err != nil {
		return nil, domain.ErrSubtaskNotFound
	}
	filter["subtasks._id"] = sid
	return filter, nil
}
