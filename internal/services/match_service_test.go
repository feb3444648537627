package services

import (
	"testing"

	"github.com/example/salidas/internal/models"
)

func prefs(pairs ...any) []models.MemberPreference {
	out := make([]models.MemberPreference, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.MemberPreference{
			Category: pairs[i].(string),
			Weight:   pairs[i+1].(int),
		})
	}
	return out
}

func TestSharedCategories(t *testing.T) {
	parent := prefs("museums", 3, "parks", 5, "sports", 2)
	child := prefs("parks", 4, "sports", 5, "cinema", 5)

	shared := sharedCategories(parent, child)
	if len(shared) != 2 {
		t.Fatalf("expected 2 shared categories, got %d", len(shared))
	}
	if shared[0].Category != "parks" || shared[0].Weight != 9 {
		t.Errorf("expected parks first with weight 9, got %+v", shared[0])
	}
	if shared[1].Category != "sports" || shared[1].Weight != 7 {
		t.Errorf("expected sports second with weight 7, got %+v", shared[1])
	}
}

func TestSharedCategories_NoOverlap(t *testing.T) {
	shared := sharedCategories(prefs("museums", 3), prefs("cinema", 5))
	if len(shared) != 0 {
		t.Errorf("expected no shared categories, got %+v", shared)
	}
}

func TestSharedCategories_EmptyInputs(t *testing.T) {
	if shared := sharedCategories(nil, nil); len(shared) != 0 {
		t.Errorf("expected empty result, got %+v", shared)
	}
}
