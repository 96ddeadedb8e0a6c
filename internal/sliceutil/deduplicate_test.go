package sliceutil

import (
	"slices"
	"testing"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{
			name:  "keeps first occurrence in order",
			items: []string{"Lunes", "Martes", "Lunes", "Viernes", "Martes"},
			want:  []string{"Lunes", "Martes", "Viernes"},
		},
		{
			name:  "no duplicates",
			items: []string{"Centro", "Norte", "Sur"},
			want:  []string{"Centro", "Norte", "Sur"},
		},
		{
			name:  "empty slice",
			items: []string{},
			want:  []string{},
		},
		{
			name:  "all identical",
			items: []string{"a", "a", "a"},
			want:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Deduplicate(tt.items, func(s string) string { return s })
			if !slices.Equal(got, tt.want) {
				t.Errorf("Deduplicate(%v) = %v, want %v", tt.items, got, tt.want)
			}
		})
	}
}

func TestDeduplicate_ByKey(t *testing.T) {
	t.Parallel()
	type course struct {
		ID    string
		Title string
	}
	items := []course{
		{ID: "c-1", Title: "Herrería"},
		{ID: "c-2", Title: "Carpintería"},
		{ID: "c-1", Title: "Herrería (duplicado)"},
	}

	got := Deduplicate(items, func(c course) string { return c.ID })

	if len(got) != 2 {
		t.Fatalf("Deduplicate returned %d items, want 2", len(got))
	}
	if got[0].Title != "Herrería" {
		t.Errorf("first occurrence not kept: got %q", got[0].Title)
	}
	if got[1].ID != "c-2" {
		t.Errorf("second item = %q, want c-2", got[1].ID)
	}
}

func TestDeduplicate_NilSlice(t *testing.T) {
	t.Parallel()
	var items []int
	if got := Deduplicate(items, func(i int) int { return i }); got != nil {
		t.Errorf("Deduplicate(nil) = %v, want nil", got)
	}
}
