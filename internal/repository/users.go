package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/skillsforge/internal/index"
	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

// UserRepository persists user records in the single table.
type UserRepository struct {
	table Table
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(table Table) *UserRepository {
	return &UserRepository{table: table}
}

func decodeUser(it Item) (*model.User, error) {
	var u model.User
	if err := json.Unmarshal(it.Data, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", it.PK, err)
	}
	u.ID = index.IDFromKey(it.PK)
	return &u, nil
}

// Create writes the user and its role-grouping index entry.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	it := Item{
		PK:      index.UserKey(u.ID),
		SK:      index.SortKeyMarker,
		Indexes: index.ForUser(*u),
		Data:    data,
	}
	if _, err := r.table.Put(ctx, it); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID returns a user or model.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	it, err := r.table.Get(ctx, index.UserKey(id), index.SortKeyMarker)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return decodeUser(it)
}

// FindStudentByEmail looks a student up by email through the role index.
func (r *UserRepository) FindStudentByEmail(ctx context.Context, email string) (*model.User, error) {
	students, err := r.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	for i := range students {
		if strings.EqualFold(students[i].Email, email) {
			return &students[i], nil
		}
	}
	return nil, model.ErrNotFound
}

// ListStudents returns every student ordered by creation time.
func (r *UserRepository) ListStudents(ctx context.Context) ([]model.User, error) {
	items, err := r.table.Query(ctx, Query{Index: index.ByDate, Partition: index.AllStudents})
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	out := make([]model.User, 0, len(items))
	for _, it := range items {
		u, err := decodeUser(it)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

// CountStudents returns the size of the student partition.
func (r *UserRepository) CountStudents(ctx context.Context) (int, error) {
	n, err := r.table.Count(ctx, index.ByDate, index.AllStudents)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}

// Delete removes a user record.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.table.Delete(ctx, index.UserKey(id), index.SortKeyMarker); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
