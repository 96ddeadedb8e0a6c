// Package catalog turns raw untrusted course records into sanitized Course
// entities and loads them from the configured source. No raw catalog value
// leaves this package: every string is sanitized and every list capped
// before a Course is handed to the rest of the pipeline.
package catalog

import "strings"

// Status is the enrollment status of a course.
type Status string

// Recognized enrollment statuses. Unrecognized or missing values
// normalize to StatusUpcoming.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusUpcoming   Status = "upcoming"
	StatusFinished   Status = "finished"
)

// ParseStatus maps a raw status value to a Status. It accepts the canonical
// tokens plus the Spanish spellings used by upstream catalog exports.
func ParseStatus(raw string) Status {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch normalized {
	case "open", "abierto", "abierta", "inscripcion_abierta":
		return StatusOpen
	case "in_progress", "en_curso", "cursando":
		return StatusInProgress
	case "upcoming", "proximamente", "próximamente", "proximo", "próximo", "por_comenzar":
		return StatusUpcoming
	case "finished", "finalizado", "finalizada", "terminado":
		return StatusFinished
	default:
		return StatusUpcoming
	}
}

// Requirements holds the eligibility flags and free-text extras of a course.
type Requirements struct {
	AdultOnly          bool     `json:"mayoria_edad"`
	DriversLicense     bool     `json:"licencia_conducir"`
	PrimaryEducation   bool     `json:"primaria_completa"`
	SecondaryEducation bool     `json:"secundaria_completa"`
	Extra              []string `json:"otros,omitempty"`
}

// Course is an immutable catalog entry after normalization.
// The JSON tags are the field names the upstream dataset uses; the catalog
// is serialized with them when embedded in the model prompt, so the model
// sees the same vocabulary users ask about.
type Course struct {
	ID                string       `json:"id"`
	Title             string       `json:"nombre"`
	ShortDescription  string       `json:"descripcion_corta"`
	FullDescription   string       `json:"descripcion_completa"`
	Activities        string       `json:"actividades"`
	TotalDuration     string       `json:"duracion_total"`
	StartDate         string       `json:"fecha_inicio,omitempty"`
	EndDate           string       `json:"fecha_fin,omitempty"`
	StartDateHuman    string       `json:"fecha_inicio_legible"`
	EndDateHuman      string       `json:"fecha_fin_legible"`
	WeeklyFrequency   string       `json:"frecuencia_semanal"`
	Localities        []string     `json:"localidades,omitempty"`
	Addresses         []string     `json:"direcciones,omitempty"`
	Schedules         []string     `json:"horarios,omitempty"`
	Requirements      Requirements `json:"requisitos"`
	MaterialsToBring  []string     `json:"materiales_traer,omitempty"`
	MaterialsProvided []string     `json:"materiales_provistos,omitempty"`
	RegistrationLink  string       `json:"link_inscripcion"`
	ImageRef          string       `json:"imagen,omitempty"`
	Status            Status       `json:"estado"`
}

// RawRecord is one loosely-typed catalog entry as read from the source.
// Field access goes through the type-tolerant getters in normalizer.go;
// a missing or wrongly-typed field yields that field's default, never an
// error for the whole record.
type RawRecord map[string]any
