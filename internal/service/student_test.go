package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

func TestEnsureProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	caller := model.Caller{ID: "s1", Name: " Ana ", Email: "Ana@Example.com", Role: model.RoleStudent}

	u, err := f.students.EnsureProfile(ctx, caller)
	require.NoError(t, err)
	require.Equal(t, "Ana", u.Name)
	require.Equal(t, "ana@example.com", u.Email)
	require.Equal(t, model.RoleStudent, u.Role)

	again, err := f.students.EnsureProfile(ctx, caller)
	require.NoError(t, err)
	require.Equal(t, u.CreatedAt.Unix(), again.CreatedAt.Unix(), "existing profile is returned unchanged")

	_, err = f.students.EnsureProfile(ctx, admin)
	require.ErrorIs(t, err, model.ErrForbidden)

	list, err := f.students.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.students.List(ctx, caller)
	require.ErrorIs(t, err, model.ErrForbidden)
}

func TestDeleteStudent_Cascade(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.students.EnsureProfile(ctx, student("s1"))
	require.NoError(t, err)
	_, err = f.students.EnsureProfile(ctx, student("s2"))
	require.NoError(t, err)

	a := f.createWorkshop(t, nil)
	b := f.createWorkshop(t, nil)
	c := f.createWorkshop(t, nil)
	for _, w := range []*model.Workshop{a, b} {
		_, err := f.registrations.Register(ctx, student("s1"), w.ID)
		require.NoError(t, err)
		_, err = f.registrations.Register(ctx, student("s2"), w.ID)
		require.NoError(t, err)
	}
	// An entry written under a different id but the same email.
	_, err = f.workshopRepo.Update(ctx, c.ID, func(w *model.Workshop) error {
		w.Registrations = append(w.Registrations, model.Registration{
			StudentID:    "legacy-s1",
			StudentEmail: "S1@skillsforge.dev",
			RegisteredAt: time.Now().UTC(),
		})
		return nil
	})
	require.NoError(t, err)

	deleted, err := f.students.Delete(ctx, admin, "s1")
	require.NoError(t, err)
	require.Equal(t, "s1@skillsforge.dev", deleted.Email)

	for _, w := range []*model.Workshop{a, b, c} {
		got, err := f.workshops.Get(ctx, w.ID)
		require.NoError(t, err)
		for _, r := range got.Registrations {
			require.NotEqual(t, "s1", r.StudentID)
			require.NotEqual(t, "legacy-s1", r.StudentID)
		}
	}
	got, err := f.workshops.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Registrations, 1, "other students keep their seats")

	_, err = f.userRepo.GetByID(ctx, "s1")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.students.Delete(ctx, admin, "s1")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteStudent_ByEmail(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.students.EnsureProfile(ctx, student("s9"))
	require.NoError(t, err)

	u, err := f.students.Delete(ctx, admin, "S9@skillsforge.dev")
	require.NoError(t, err)
	require.Equal(t, "s9", u.ID)

	n, err := f.userRepo.CountStudents(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDeleteStudent_RequiresAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.students.EnsureProfile(ctx, student("s1"))
	require.NoError(t, err)

	_, err = f.students.Delete(ctx, student("s1"), "s1")
	require.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.students.Delete(ctx, admin, " ")
	require.True(t, model.IsValidation(err))
}
