package catalog

import (
	"fmt"
	"strconv"

	"github.com/martinvidela/cursobot-go/internal/config"
)

// DefaultWeeklyFrequency is used when a record carries no frequency tag.
const DefaultWeeklyFrequency = "otro"

// Stats summarizes what normalization dropped or defaulted, for operator
// visibility. Normalize itself stays pure; callers decide what to do with
// the stats (log, export as metrics).
type Stats struct {
	Records            int
	DroppedListEntries map[string]int
	MissingIDs         int

	// Malformed holds one error per source entry that was not an object.
	// Those entries became empty records with defaults throughout.
	Malformed []error
}

// Normalize turns raw untrusted records into sanitized Course entities.
// Deterministic and pure: same input, same output, no I/O. A record missing
// its expected shape gets defaults field-by-field; it never aborts the
// whole catalog.
func Normalize(records []RawRecord) ([]Course, Stats) {
	stats := Stats{
		Records:            len(records),
		DroppedListEntries: make(map[string]int),
	}

	courses := make([]Course, 0, len(records))
	for i, rec := range records {
		course := normalizeRecord(rec, i, &stats)
		courses = append(courses, course)
	}
	return courses, stats
}

func normalizeRecord(rec RawRecord, index int, stats *Stats) Course {
	id := SanitizeText(getString(rec, "id"))
	if id == "" {
		// Positional fallback keeps the entry addressable in prompts.
		stats.MissingIDs++
		id = fmt.Sprintf("curso-%d", index+1)
	}

	startISO := NormalizeISODate(getString(rec, "fecha_inicio"))
	endISO := NormalizeISODate(getString(rec, "fecha_fin"))

	frequency := SanitizeText(getString(rec, "frecuencia_semanal"))
	if frequency == "" {
		frequency = DefaultWeeklyFrequency
	}

	localities := capList(rec, "localidades", config.MaxLocalities, stats)
	addresses := capList(rec, "direcciones", config.MaxAddresses, stats)
	schedules := capList(rec, "horarios", config.MaxSchedules, stats)
	toBring := capList(rec, "materiales_traer", config.MaxMaterials, stats)
	provided := capList(rec, "materiales_provistos", config.MaxMaterials, stats)

	return Course{
		ID:                id,
		Title:             SanitizeText(getString(rec, "nombre")),
		ShortDescription:  SanitizeText(getString(rec, "descripcion_corta")),
		FullDescription:   SanitizeText(getString(rec, "descripcion_completa")),
		Activities:        SanitizeText(getString(rec, "actividades")),
		TotalDuration:     SanitizeText(getString(rec, "duracion_total")),
		StartDate:         startISO,
		EndDate:           endISO,
		StartDateHuman:    HumanDate(startISO),
		EndDateHuman:      HumanDate(endISO),
		WeeklyFrequency:   frequency,
		Localities:        localities,
		Addresses:         addresses,
		Schedules:         schedules,
		Requirements:      normalizeRequirements(rec, stats),
		MaterialsToBring:  toBring,
		MaterialsProvided: provided,
		RegistrationLink:  SanitizeLink(getString(rec, "link_inscripcion")),
		ImageRef:          SanitizeText(getString(rec, "imagen")),
		Status:            ParseStatus(getString(rec, "estado")),
	}
}

func normalizeRequirements(rec RawRecord, stats *Stats) Requirements {
	req, _ := rec["requisitos"].(map[string]any)
	extra, dropped := SanitizeList(getStringSliceFrom(req, "otros"), config.MaxExtraRequirements)
	if dropped > 0 {
		stats.DroppedListEntries["requisitos.otros"] += dropped
	}
	return Requirements{
		AdultOnly:          getBoolFrom(req, "mayoria_edad"),
		DriversLicense:     getBoolFrom(req, "licencia_conducir"),
		PrimaryEducation:   getBoolFrom(req, "primaria_completa"),
		SecondaryEducation: getBoolFrom(req, "secundaria_completa"),
		Extra:              extra,
	}
}

func capList(rec RawRecord, field string, limit int, stats *Stats) []string {
	values, dropped := SanitizeList(getStringSlice(rec, field), limit)
	if dropped > 0 {
		stats.DroppedListEntries[field] += dropped
	}
	return values
}

// Type-tolerant field getters. Upstream exports are hand-maintained JSON:
// numbers show up where strings are expected, bools arrive as "si"/"no".

func getString(rec RawRecord, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func getStringSlice(rec RawRecord, key string) []string {
	return toStringSlice(rec[key])
}

func getStringSliceFrom(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	return toStringSlice(m[key])
}

func toStringSlice(v any) []string {
	switch vv := v.(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	case string:
		if vv == "" {
			return nil
		}
		return []string{vv}
	default:
		return nil
	}
}

func getBoolFrom(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		switch v {
		case "si", "sí", "true", "1":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}
