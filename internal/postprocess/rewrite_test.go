package postprocess

import "testing"

func TestRewrite(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		style Style
		want  string
	}{
		{
			name:  "Bold to WhatsApp emphasis",
			input: "Te recomiendo **Soldadura Básica**.",
			style: StyleAsterisk,
			want:  "Te recomiendo *Soldadura Básica*.",
		},
		{
			name:  "Bold stripped for plain channel",
			input: "Te recomiendo **Soldadura Básica**.",
			style: StylePlain,
			want:  "Te recomiendo Soldadura Básica.",
		},
		{
			name:  "Emphasized prose date loses emphasis",
			input: "Empieza el **12 de marzo de 2026**.",
			style: StyleAsterisk,
			want:  "Empieza el 12 de marzo de 2026.",
		},
		{
			name:  "Emphasized numeric date loses emphasis",
			input: "Empieza el *12/03/2026* a la mañana.",
			style: StyleAsterisk,
			want:  "Empieza el 12/03/2026 a la mañana.",
		},
		{
			name:  "Markdown link flattened",
			input: "Inscribite en [el formulario](https://forms.example/x).",
			style: StyleAsterisk,
			want:  "Inscribite en el formulario: https://forms.example/x.",
		},
		{
			name:  "HTML anchor flattened",
			input: `Más info en <a href="https://cursos.example/sold">la página del curso</a>.`,
			style: StyleAsterisk,
			want:  "Más info en la página del curso: https://cursos.example/sold.",
		},
		{
			name:  "Stray tags stripped",
			input: "<p>Hay <b>tres</b> cursos abiertos.</p>",
			style: StyleAsterisk,
			want:  "Hay tres cursos abiertos.",
		},
		{
			name:  "Course emphasis survives next to a date",
			input: "**Soldadura Básica** comienza el **12 de marzo de 2026**.",
			style: StyleAsterisk,
			want:  "*Soldadura Básica* comienza el 12 de marzo de 2026.",
		},
		{
			name:  "Single asterisk emphasis stripped for plain channel",
			input: "Anotate en *Herrería* hoy.",
			style: StylePlain,
			want:  "Anotate en Herrería hoy.",
		},
		{
			name:  "Whitespace trimmed",
			input: "  hola  \n",
			style: StyleAsterisk,
			want:  "hola",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Rewrite(tt.input, tt.style); got != tt.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractSuggestion(t *testing.T) {
	t.Parallel()

	t.Run("Title and link extracted", func(t *testing.T) {
		t.Parallel()
		raw := "Te recomiendo **Soldadura Básica**, arranca pronto.\nFormulario de inscripción: https://forms.example/x"
		got, ok := ExtractSuggestion(raw)
		if !ok {
			t.Fatal("no suggestion found")
		}
		if got.Title != "Soldadura Básica" || got.Link != "https://forms.example/x" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Last link wins", func(t *testing.T) {
		t.Parallel()
		raw := "**Herrería**\nFormulario de inscripción: https://forms.example/a\n" +
			"**Panadería**\nFormulario de inscripción: https://forms.example/b"
		got, ok := ExtractSuggestion(raw)
		if !ok || got.Title != "Panadería" || got.Link != "https://forms.example/b" {
			t.Errorf("got (%+v, %v)", got, ok)
		}
	})

	t.Run("Trailing punctuation trimmed", func(t *testing.T) {
		t.Parallel()
		raw := "**Tejido**\nFormulario de inscripción: https://forms.example/t."
		got, _ := ExtractSuggestion(raw)
		if got.Link != "https://forms.example/t" {
			t.Errorf("link = %q", got.Link)
		}
	})

	t.Run("No link means no suggestion", func(t *testing.T) {
		t.Parallel()
		if _, ok := ExtractSuggestion("**Soldadura Básica** ya comenzó."); ok {
			t.Error("suggestion extracted from linkless reply")
		}
	})

	t.Run("Link without title keeps empty title", func(t *testing.T) {
		t.Parallel()
		got, ok := ExtractSuggestion("Formulario de inscripción: https://forms.example/x")
		if !ok || got.Title != "" || got.Link != "https://forms.example/x" {
			t.Errorf("got (%+v, %v)", got, ok)
		}
	})
}
