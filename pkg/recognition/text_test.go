package recognition

import (
	"context"
	"reflect"
	"testing"
)

func TestContainsArabic(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hello", false},
		{"مرحبا", true},
		{"hello مرحبا", true},
		{"", false},
		{"12345 ,.!", false},
		{"٣", true}, // Arabic-Indic digit
		{"שלום", false},
		{"Привет", false},
	}

	for _, tt := range tests {
		if got := ContainsArabic(tt.text); got != tt.want {
			t.Errorf("ContainsArabic(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestArabicShare(t *testing.T) {
	if got := ArabicShare("مرحبا"); got != 1 {
		t.Errorf("Expected 1, got %v", got)
	}
	if got := ArabicShare("ab مر"); got != 0.5 {
		t.Errorf("Expected 0.5, got %v", got)
	}
	if got := ArabicShare("123 !"); got != 0 {
		t.Errorf("Expected 0 for text without letters, got %v", got)
	}
}

func TestCleanLines(t *testing.T) {
	lines := []Line{
		{Text: "  السطر الأول  ", Confidence: 0.9},
		{Text: "   "},
		{Text: "noise", Confidence: 0.2},
		{Text: "بلا درجة"},
		{Text: "\tالسطر الأخير\n", Confidence: 0.5},
	}

	got := CleanLines(lines, 0.4)
	want := []string{"السطر الأول", "بلا درجة", "السطر الأخير"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	all := CleanLines(lines, 0)
	if len(all) != 4 {
		t.Errorf("Expected 4 lines without a threshold, got %v", all)
	}
}

func TestResultText(t *testing.T) {
	r := Result{Lines: []Line{{Text: " أ "}, {Text: ""}, {Text: "ب"}}}
	if got := r.Text(0); got != "أ\nب" {
		t.Errorf("Expected joined text, got %q", got)
	}
	if got := (Result{}).Text(0); got != "" {
		t.Errorf("Expected empty text, got %q", got)
	}
}

func TestEngineFunc(t *testing.T) {
	var e Engine = EngineFunc(func(ctx context.Context, in Input) (Result, error) {
		return Result{InputID: in.ID}, nil
	})
	res, err := e.Recognize(context.Background(), Input{ID: "x"})
	if err != nil || res.InputID != "x" {
		t.Errorf("Unexpected result %+v (%v)", res, err)
	}
}
