package domain

import "testing"

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Puma concolor  ", want: "Puma concolor"},
		{name: "case preserved", input: "PUMA Concolor", want: "PUMA Concolor"},
		{name: "compress multiple spaces", input: "Puma   concolor", want: "Puma concolor"},
		{name: "tabs and newlines", input: "Puma\t\nconcolor", want: "Puma concolor"},
		{name: "non-breaking space", input: "Puma\u00a0concolor", want: "Puma concolor"},
		{name: "diacritics preserved", input: "Araucaria araucána", want: "Araucaria araucána"},
		{name: "empty string", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFoldText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "accents removed", input: "Nombre Científico", want: "nombre cientifico"},
		{name: "enye folded", input: "Región de Ñuble", want: "region de nuble"},
		{name: "whitespace compressed", input: "  Categoría \n de  Conservación ", want: "categoria de conservacion"},
		{name: "plain ascii", input: "Reino", want: "reino"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FoldText(tt.input); got != tt.want {
				t.Errorf("FoldText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
