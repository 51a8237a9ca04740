package cvs

import (
	"reflect"
	"testing"
)

func TestFilterAggregateDropsBlankEntries(t *testing.T) {
	in := CVAggregate{
		Skills:     []string{"Go", "", "  "},
		References: []string{"\t", "Ref A"},
		Experiences: []Experience{
			{Company: "", Role: " ", Details: "no anchor"},
			{Company: "", Role: "Consultant"},
			{Company: "Acme"},
		},
		Education: []Education{
			{Period: "2010"},
			{Qualification: "MSc"},
		},
	}

	got := FilterAggregate(in)

	if want := []string{"Go"}; !reflect.DeepEqual(got.Skills, want) {
		t.Fatalf("skills = %v, want %v", got.Skills, want)
	}
	if want := []string{"Ref A"}; !reflect.DeepEqual(got.References, want) {
		t.Fatalf("references = %v, want %v", got.References, want)
	}
	if len(got.Experiences) != 2 || got.Experiences[0].Role != "Consultant" || got.Experiences[1].Company != "Acme" {
		t.Fatalf("unexpected experiences: %+v", got.Experiences)
	}
	if len(got.Education) != 1 || got.Education[0].Qualification != "MSc" {
		t.Fatalf("unexpected education: %+v", got.Education)
	}
}

func TestFilterAggregateKeepsValuesVerbatim(t *testing.T) {
	got := FilterAggregate(CVAggregate{Skills: []string{"  Go  "}})
	if got.Skills[0] != "  Go  " {
		t.Fatalf("expected kept value untouched, got %q", got.Skills[0])
	}
}

func TestFilterAggregateIsIdempotent(t *testing.T) {
	once := FilterAggregate(sampleAggregate())
	twice := FilterAggregate(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter not idempotent:\n%+v\n%+v", once, twice)
	}
}

func TestFilterAggregateNilCollections(t *testing.T) {
	got := FilterAggregate(CVAggregate{})
	if got.Skills == nil || got.Experiences == nil || got.Education == nil || got.References == nil {
		t.Fatalf("expected empty non-nil collections, got %#v", got)
	}
}

func TestBuildInsertNumbersPlaceholdersInRowOrder(t *testing.T) {
	query, args := buildInsert("skills", []string{"cv_id", "skill"}, [][]any{
		{int64(1), "Go"},
		{int64(1), "SQL"},
	})
	if want := "INSERT INTO skills (cv_id, skill) VALUES ($1, $2), ($3, $4)"; query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if want := []any{int64(1), "Go", int64(1), "SQL"}; !reflect.DeepEqual(args, want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
}
