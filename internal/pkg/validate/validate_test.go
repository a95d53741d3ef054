package validate

import (
	"strings"
	"testing"
)

type sample struct {
	TargetID int64  `validate:"required,gt=0"`
	Kind     string `validate:"required,max=4"`
	Count    int    `validate:"min=0,max=10"`
}

func TestStructReportsEveryField(t *testing.T) {
	err := Struct(sample{Kind: "superlong", Count: 11})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"targetid is required", "kind must be at most 4", "count must be at most 10"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(sample{TargetID: 1, Kind: "like", Count: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
