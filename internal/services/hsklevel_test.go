package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/huayu-app/huayu-backend/internal/apperr"
	"github.com/huayu-app/huayu-backend/internal/types"
)

func TestCreateHskLevelRejectsDuplicateLevel(t *testing.T) {
	repo := &fakeHskLevelRepo{levels: []*types.HskLevel{
		{ID: uuid.New(), Name: "HSK Level 1", Level: 1},
	}}
	svc := NewHskLevelService(nil, testLogger(t), repo)

	_, err := svc.Create(context.Background(), CreateHskLevelInput{Name: "Another One", Level: 1})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindConflict {
		t.Fatalf("want conflict for duplicate level, got %v", err)
	}

	created, err := svc.Create(context.Background(), CreateHskLevelInput{Name: "HSK Level 2", Level: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Level != 2 {
		t.Errorf("level = %d, want 2", created.Level)
	}
}

func TestCreateHskLevelValidation(t *testing.T) {
	svc := NewHskLevelService(nil, testLogger(t), &fakeHskLevelRepo{})

	cases := []struct {
		name  string
		input CreateHskLevelInput
	}{
		{"empty name", CreateHskLevelInput{Name: "", Level: 1}},
		{"non-positive level", CreateHskLevelInput{Name: "HSK Level 0", Level: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindValidation {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestUpdateHskLevelUniquenessOnlyCheckedOnChange(t *testing.T) {
	level := &types.HskLevel{ID: uuid.New(), Name: "HSK Level 3", Level: 3}
	repo := &fakeHskLevelRepo{levels: []*types.HskLevel{level}}
	svc := NewHskLevelService(nil, testLogger(t), repo)

	// Re-submitting the same level number alongside a rename is fine.
	name := "HSK Level 3 (revised)"
	same := 3
	if _, err := svc.Update(context.Background(), level.ID, HskLevelPatch{Name: &name, Level: &same}); err != nil {
		t.Fatalf("update with unchanged level: %v", err)
	}

	other := &types.HskLevel{ID: uuid.New(), Name: "HSK Level 4", Level: 4}
	repo.levels = append(repo.levels, other)
	taken := 4
	_, err := svc.Update(context.Background(), level.ID, HskLevelPatch{Level: &taken})
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindConflict {
		t.Fatalf("want conflict moving onto a taken level, got %v", err)
	}
}

func TestGetHskLevelNotFound(t *testing.T) {
	svc := NewHskLevelService(nil, testLogger(t), &fakeHskLevelRepo{})
	_, err := svc.Get(context.Background(), uuid.New())
	if ae := apperr.From(err); ae == nil || ae.Kind != apperr.KindNotFound {
		t.Fatalf("want not_found, got %v", err)
	}
}
