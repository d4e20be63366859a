package permute

import (
	"iter"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/vulnverified/altsweep/internal/domain"
)

func mustParse(t *testing.T, raw string) domain.Name {
	t.Helper()
	n, err := domain.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return n
}

func count(seq iter.Seq[string]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

func TestStrategyCounts(t *testing.T) {
	n := mustParse(t, "a.b.example.com") // k = 2
	words := []string{"x", "y", "z"}      // m = 3

	tests := []struct {
		name string
		seq  iter.Seq[string]
		want int
	}{
		{"index insertion m*(k+1)", IndexInsertion(n, words), 9},
		{"dash fusion 2*m*k", DashFusion(n, words), 12},
		{"concatenation 2*m*k", Concatenation(n, words), 12},
		{"number suffix 20*k", NumberSuffix(n), 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := count(tt.seq); got != tt.want {
				t.Errorf("got %d candidates, want %d", got, tt.want)
			}
		})
	}
}

func TestSingleLabelExample(t *testing.T) {
	n := mustParse(t, "dev.example.com")
	words := []string{"api"}

	tests := []struct {
		name string
		seq  iter.Seq[string]
		want []string
	}{
		{"index insertion", IndexInsertion(n, words), []string{"api.dev.example.com", "dev.api.example.com"}},
		{"dash fusion", DashFusion(n, words), []string{"dev-api.example.com", "api-dev.example.com"}},
		{"concatenation", Concatenation(n, words), []string{"devapi.example.com", "apidev.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(tt.seq)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBareDomainFilters(t *testing.T) {
	n := mustParse(t, "example.com")
	words := []string{"api"}

	if got := slices.Collect(IndexInsertion(n, words)); len(got) != 0 {
		t.Errorf("index insertion on empty subdomain = %q, want none", got)
	}
	if got := slices.Collect(DashFusion(n, words)); len(got) != 0 {
		t.Errorf("dash fusion on empty subdomain = %q, want none", got)
	}

	want := []string{"api.example.com", "api.example.com"}
	if got := slices.Collect(Concatenation(n, words)); !reflect.DeepEqual(got, want) {
		t.Errorf("concatenation = %q, want %q", got, want)
	}

	numbers := slices.Collect(NumberSuffix(n))
	if len(numbers) != 20 {
		t.Fatalf("number suffix = %d candidates, want 20", len(numbers))
	}
	if numbers[0] != "-0.example.com" || numbers[1] != "0.example.com" {
		t.Errorf("first number variants = %q", numbers[:2])
	}
}

func TestDashFusion_EmptyInnerLabel(t *testing.T) {
	// "a..example.com" cannot be parsed, so build the labels directly.
	n := domain.Name{Labels: domain.Labels{"a", ""}, Domain: "example", Suffix: "com"}

	got := slices.Collect(DashFusion(n, []string{"w"}))
	want := []string{
		"a-w..example.com", "w-a..example.com",
		"a.-w.example.com",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndexInsertion_TrimsWords(t *testing.T) {
	n := mustParse(t, "dev.example.com")
	got := slices.Collect(IndexInsertion(n, []string{"  api\t"}))
	for _, c := range got {
		if strings.ContainsAny(c, " \t") {
			t.Errorf("untrimmed candidate %q", c)
		}
	}
}

func TestGenerator_NumberSuffixToggle(t *testing.T) {
	n := mustParse(t, "dev.example.com")

	off := &Generator{Words: []string{"api"}}
	on := &Generator{Words: []string{"api"}, NumberSuffix: true}

	if got := count(off.Permute(n)); got != 6 {
		t.Errorf("without number suffix: %d candidates, want 6", got)
	}
	if got := count(on.Permute(n)); got != 26 {
		t.Errorf("with number suffix: %d candidates, want 26", got)
	}
	if !slices.Contains(slices.Collect(on.Permute(n)), "dev-7.example.com") {
		t.Error("expected dev-7.example.com with number suffix enabled")
	}
}

func TestGenerator_Restartable(t *testing.T) {
	g := &Generator{Words: []string{"api", "qa"}, NumberSuffix: true}
	seq := g.Permute(mustParse(t, "a.b.example.com"))

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !reflect.DeepEqual(first, second) {
		t.Error("second iteration differs from the first")
	}
}

func TestGenerator_EarlyStop(t *testing.T) {
	g := &Generator{Words: []string{"api", "qa"}, NumberSuffix: true}

	var got []string
	for c := range g.Permute(mustParse(t, "a.b.example.com")) {
		got = append(got, c)
		if len(got) == 3 {
			break
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d candidates after break, want 3", len(got))
	}
}
