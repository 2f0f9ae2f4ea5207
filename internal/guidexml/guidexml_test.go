package guidexml

import (
	"errors"
	"testing"
)

func TestParseString(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<GUIDE>
  <INFO><TITLE>Eviction answer</TITLE></INFO>
  <VARIABLES>
    <VARIABLE NAME="Client name" TYPE="Text" COMMENT="full legal name"/>
    <VARIABLE NAME="Children" TYPE="Text" REPEATING="true"></VARIABLE>
    <variable name="County" type="MC" value="Cook"/>
    <VARIABLE TYPE="Text"/>
  </VARIABLES>
</GUIDE>`

	got, err := ParseString(doc)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	want := []Variable{
		{Name: "Client name", Type: "Text", Comment: "full legal name"},
		{Name: "Children", Type: "Text", Repeating: true},
		{Name: "County", Type: "MC", Value: "Cook", HasValue: true},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d variables, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variable %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseString_Empty(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "   \n", "<GUIDE/>"} {
		got, err := ParseString(doc)
		if err != nil || len(got) != 0 {
			t.Errorf("ParseString(%q) = %v, %v; want no variables", doc, got, err)
		}
	}
}

func TestParseString_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseString(`<GUIDE><VARIABLE NAME="a"`)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("ParseString() error = %v, want ErrMalformed", err)
	}
}

func TestByName(t *testing.T) {
	t.Parallel()

	got := ByName([]Variable{
		{Name: "Client Name", Type: "Text"},
		{Name: "CLIENT NAME", Type: "Number"},
		{Name: "Age", Type: "Number"},
	})

	if len(got) != 2 {
		t.Fatalf("ByName() has %d keys, want 2", len(got))
	}
	if got["client name"].Type != "Number" {
		t.Errorf("later declaration should win, got %+v", got["client name"])
	}
	if _, ok := got["age"]; !ok {
		t.Error("keys should be lower-cased")
	}
}
