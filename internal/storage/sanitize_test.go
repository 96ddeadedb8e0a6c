package storage

import "testing"

func TestSanitizeSearchTerm(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain term untouched", input: "herrería", want: "herrería"},
		{name: "percent escaped", input: "100% práctico", want: "100\\% práctico"},
		{name: "underscore escaped", input: "curso_1", want: "curso\\_1"},
		{name: "backslash escaped first", input: "a\\%", want: "a\\\\\\%"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeSearchTerm(tt.input); got != tt.want {
				t.Errorf("sanitizeSearchTerm(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
