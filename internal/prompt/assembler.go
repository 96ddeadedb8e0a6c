package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinvidela/cursobot-go/internal/catalog"
	"github.com/martinvidela/cursobot-go/internal/config"
	"github.com/martinvidela/cursobot-go/internal/genai"
	"github.com/martinvidela/cursobot-go/internal/session"
	"github.com/martinvidela/cursobot-go/internal/textmatch"
)

// Assembler builds model requests for conversation turns.
type Assembler struct {
	ruleset string
}

// NewAssembler creates an assembler for the configured ruleset.
func NewAssembler(ruleset string) *Assembler {
	return &Assembler{ruleset: ruleset}
}

// Input is everything a single turn contributes to the request.
type Input struct {
	Courses    []catalog.Course
	Candidates []textmatch.Match
	History    []session.Turn
	UserText   string
}

// Assemble builds the request. System blocks always follow the same
// order: rules, data guard, catalog, candidate hint. A non-grounded
// ruleset carries only the rules. The conversation turns follow, user
// message last.
func (a *Assembler) Assemble(in Input) genai.Request {
	system := []string{RulesFor(a.ruleset)}

	if IsGrounded(a.ruleset) {
		system = append(system, dataGuard)

		if block := catalogBlock(in.Courses); block != "" {
			system = append(system, block)
		}

		if hint := candidateHint(in.Candidates); hint != "" {
			system = append(system, hint)
		}
	}

	turns := make([]genai.Turn, 0, len(in.History)+1)
	for _, t := range in.History {
		role := genai.RoleUser
		if t.Role == session.RoleAssistant {
			role = genai.RoleAssistant
		}
		turns = append(turns, genai.Turn{Role: role, Text: t.Text})
	}
	turns = append(turns, genai.Turn{Role: genai.RoleUser, Text: in.UserText})

	return genai.Request{System: system, Turns: turns}
}

// catalogBlock serializes the catalog for the model. When the full
// serialization exceeds the character budget, only a leading subset of
// courses is sent and the model is told the list is partial. The subset
// shrinks by whole trailing records until its serialization fits the
// budget too; a record is never cut mid-way.
func catalogBlock(courses []catalog.Course) string {
	if len(courses) == 0 {
		return "Catálogo de cursos: sin datos disponibles en este momento."
	}

	full, err := marshalCourses(courses)
	if err != nil {
		return "Catálogo de cursos: sin datos disponibles en este momento."
	}
	if len(full) <= config.CatalogCharBudget {
		return "Catálogo de cursos:\n" + full
	}

	subset := courses
	if len(subset) > config.CatalogSubsetSize {
		subset = subset[:config.CatalogSubsetSize]
	}
	for len(subset) > 0 {
		partial, err := marshalCourses(subset)
		if err != nil {
			return "Catálogo de cursos: sin datos disponibles en este momento."
		}
		if len(partial) <= config.CatalogCharBudget {
			return fmt.Sprintf("Catálogo de cursos (listado parcial, %d de %d cursos):\n%s", len(subset), len(courses), partial)
		}
		subset = subset[:len(subset)-1]
	}
	return "Catálogo de cursos: sin datos disponibles en este momento."
}

func marshalCourses(courses []catalog.Course) (string, error) {
	data, err := json.Marshal(courses)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// candidateHint names the courses the retrieval step considers most
// likely meant by the user. The hint is advisory; the model still reasons
// over the full catalog block.
func candidateHint(candidates []textmatch.Match) string {
	if len(candidates) == 0 {
		return ""
	}

	titles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		titles = append(titles, c.Title)
	}
	return "Cursos que probablemente menciona el vecino (en orden de probabilidad): " + strings.Join(titles, ", ")
}
