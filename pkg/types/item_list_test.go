package types

import (
	"testing"

	"github.com/google/uuid"
)

func makeList(ids ...uuid.UUID) ItemList {
	l := ItemList{}
	for _, id := range ids {
		l.AddId(id)
	}
	return l
}

func TestMakeIntersectResult(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	result := MakeIntersectResult(makeList(a, b, c), makeList(b, c), makeList(c, a, b))
	if result.Len() != 2 || !result.Contains(b) || !result.Contains(c) {
		t.Errorf("Expected intersection to be {b,c}, got %v", result)
	}
	if MakeIntersectResult() != nil {
		t.Errorf("Expected nil for no lists")
	}
	empty := MakeIntersectResult(makeList(a), nil)
	if empty == nil || empty.Len() != 0 {
		t.Errorf("Expected empty non nil list, got %v", empty)
	}
}

func TestIntersectDoesNotTouchInputs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	first := makeList(a, b)
	second := makeList(b)
	MakeIntersectResult(first, second)
	if first.Len() != 2 {
		t.Errorf("Expected input to be untouched, got %v", first)
	}
}

func TestIntersectionLen(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	if n := makeList(a, b).IntersectionLen(makeList(b, c)); n != 1 {
		t.Errorf("Expected 1, got %d", n)
	}
	if n := makeList(a).IntersectionLen(ItemList{}); n != 0 {
		t.Errorf("Expected 0, got %d", n)
	}
}
