package catalog

import (
	"fmt"
	"testing"
)

func sampleRecord() RawRecord {
	return RawRecord{
		"id":                "soldadura-basica",
		"nombre":            "Soldadura Básica",
		"descripcion_corta": "Introducción a la soldadura",
		"fecha_inicio":      "2026-03-12",
		"fecha_fin":         "2026-06-20",
		"estado":            "abierto",
		"localidades":       []any{"Centro", "Norte"},
		"link_inscripcion":  "https://forms.example/soldadura",
		"requisitos": map[string]any{
			"mayoria_edad":        true,
			"secundaria_completa": false,
			"otros":               []any{"apto médico"},
		},
	}
}

func TestNormalizeBasicRecord(t *testing.T) {
	t.Parallel()
	courses, stats := Normalize([]RawRecord{sampleRecord()})
	if len(courses) != 1 {
		t.Fatalf("got %d courses, want 1", len(courses))
	}
	c := courses[0]

	if c.ID != "soldadura-basica" {
		t.Errorf("ID = %q", c.ID)
	}
	if c.Title != "Soldadura Básica" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.StartDateHuman != "12 de marzo de 2026" {
		t.Errorf("StartDateHuman = %q", c.StartDateHuman)
	}
	if c.Status != StatusOpen {
		t.Errorf("Status = %q", c.Status)
	}
	if !c.Requirements.AdultOnly {
		t.Error("AdultOnly should be true")
	}
	if c.Requirements.SecondaryEducation {
		t.Error("SecondaryEducation should be false")
	}
	if len(c.Requirements.Extra) != 1 || c.Requirements.Extra[0] != "apto médico" {
		t.Errorf("Extra = %v", c.Requirements.Extra)
	}
	if c.RegistrationLink != "https://forms.example/soldadura" {
		t.Errorf("RegistrationLink = %q", c.RegistrationLink)
	}
	if stats.MissingIDs != 0 {
		t.Errorf("MissingIDs = %d", stats.MissingIDs)
	}
}

func TestNormalizeMissingStartDate(t *testing.T) {
	t.Parallel()
	rec := sampleRecord()
	delete(rec, "fecha_inicio")

	courses, _ := Normalize([]RawRecord{rec})
	c := courses[0]
	if c.StartDate != "" {
		t.Errorf("StartDate = %q, want empty", c.StartDate)
	}
	if c.StartDateHuman != "" {
		t.Errorf("StartDateHuman = %q, want empty (never a placeholder)", c.StartDateHuman)
	}
}

func TestNormalizeUnparseableDate(t *testing.T) {
	t.Parallel()
	rec := sampleRecord()
	rec["fecha_inicio"] = "marzo del año que viene"

	courses, _ := Normalize([]RawRecord{rec})
	if got := courses[0].StartDateHuman; got != "" {
		t.Errorf("StartDateHuman = %q, want empty", got)
	}
}

func TestNormalizeLocalityCap(t *testing.T) {
	t.Parallel()
	localities := make([]any, 20)
	for i := range localities {
		localities[i] = fmt.Sprintf("Localidad %02d", i+1)
	}
	rec := sampleRecord()
	rec["localidades"] = localities

	courses, stats := Normalize([]RawRecord{rec})
	got := courses[0].Localities
	if len(got) != 12 {
		t.Fatalf("got %d localities, want 12", len(got))
	}
	for i, v := range got {
		want := fmt.Sprintf("Localidad %02d", i+1)
		if v != want {
			t.Errorf("Localities[%d] = %q, want %q (input order must hold)", i, v, want)
		}
	}
	if stats.DroppedListEntries["localidades"] != 8 {
		t.Errorf("dropped = %d, want 8", stats.DroppedListEntries["localidades"])
	}
}

func TestNormalizeKeepsDuplicateListEntries(t *testing.T) {
	t.Parallel()
	// Capping only bounds the list; entries pass through as-is, repeats
	// included, in their original order.
	rec := sampleRecord()
	rec["localidades"] = []any{"Centro", "Norte", "Centro"}

	courses, _ := Normalize([]RawRecord{rec})
	got := courses[0].Localities
	if len(got) != 3 || got[0] != "Centro" || got[1] != "Norte" || got[2] != "Centro" {
		t.Errorf("Localities = %v, want [Centro Norte Centro]", got)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()
	courses, stats := Normalize([]RawRecord{{}})
	c := courses[0]

	if c.ID != "curso-1" {
		t.Errorf("ID = %q, want positional fallback", c.ID)
	}
	if c.WeeklyFrequency != DefaultWeeklyFrequency {
		t.Errorf("WeeklyFrequency = %q, want %q", c.WeeklyFrequency, DefaultWeeklyFrequency)
	}
	if c.Status != StatusUpcoming {
		t.Errorf("Status = %q, want %q", c.Status, StatusUpcoming)
	}
	if c.Localities == nil || len(c.Localities) != 0 {
		t.Errorf("Localities = %v, want empty non-nil", c.Localities)
	}
	if stats.MissingIDs != 1 {
		t.Errorf("MissingIDs = %d, want 1", stats.MissingIDs)
	}
}

func TestNormalizeTypeTolerance(t *testing.T) {
	t.Parallel()
	rec := RawRecord{
		"id":          float64(42),
		"nombre":      "Curso",
		"localidades": "Centro", // scalar where a list is expected
		"requisitos": map[string]any{
			"mayoria_edad": "si",
		},
	}

	courses, _ := Normalize([]RawRecord{rec})
	c := courses[0]
	if c.ID != "42" {
		t.Errorf("numeric id not coerced: %q", c.ID)
	}
	if len(c.Localities) != 1 || c.Localities[0] != "Centro" {
		t.Errorf("scalar list not coerced: %v", c.Localities)
	}
	if !c.Requirements.AdultOnly {
		t.Error(`"si" should parse as true`)
	}
}

func TestNormalizeSanitizesMarkup(t *testing.T) {
	t.Parallel()
	rec := sampleRecord()
	rec["nombre"] = "*Soldadura* <b>Básica</b>"
	rec["descripcion_corta"] = "curso _intensivo_"

	courses, _ := Normalize([]RawRecord{rec})
	c := courses[0]
	if c.Title != "Soldadura Básica" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.ShortDescription != "curso intensivo" {
		t.Errorf("ShortDescription = %q", c.ShortDescription)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	t.Parallel()
	records := []RawRecord{sampleRecord(), {}, sampleRecord()}

	first, _ := Normalize(records)
	second, _ := Normalize(records)
	if len(first) != len(second) {
		t.Fatal("run lengths differ")
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Title != second[i].Title {
			t.Errorf("record %d differs between runs", i)
		}
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  Status
	}{
		{"abierto", StatusOpen},
		{"open", StatusOpen},
		{"en_curso", StatusInProgress},
		{"en curso", StatusInProgress},
		{"proximamente", StatusUpcoming},
		{"próximamente", StatusUpcoming},
		{"finalizado", StatusFinished},
		{"", StatusUpcoming},
		{"estado raro", StatusUpcoming},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.input); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
