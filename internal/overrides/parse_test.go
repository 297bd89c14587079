package overrides

import (
	"strings"
	"testing"
)

func TestParseRules_Basic(t *testing.T) {
	content := strings.Join([]string{
		"# swap the placeholder slots",
		"",
		"UK: EVENT 1 = Sky Sports Main Event",
		"UK: EVENT 2 = \U0001F1FA\U0001F1F8 US Sports||ESPN",
	}, "\n")

	rules, err := ParseRules("overrides.conf", content, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len=%d, want=2", len(rules))
	}

	r := rules[0]
	if r.Source.Group != DefaultSourceGroup {
		t.Fatalf("source group=%q", r.Source.Group)
	}
	if r.Source.Name != "UK: EVENT 1" {
		t.Fatalf("source name=%q", r.Source.Name)
	}
	if r.Target.Exact || r.Target.Name != "Sky Sports Main Event" {
		t.Fatalf("target=%+v", r.Target)
	}

	r = rules[1]
	if !r.Target.Exact {
		t.Fatalf("target=%+v, want exact", r.Target)
	}
	if r.Target.Group != "\U0001F1FA\U0001F1F8 US Sports" || r.Target.Name != "ESPN" {
		t.Fatalf("target=%+v", r.Target)
	}
}

func TestParseRules_CustomSourceGroup(t *testing.T) {
	rules, err := ParseRules("o", "Slot = Replacement", "My Group")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules[0].Source.Group != "My Group" {
		t.Fatalf("source group=%q", rules[0].Source.Group)
	}
}

func TestParseRules_InvalidLineFatal(t *testing.T) {
	cases := []string{
		"no separator here",
		"= target only",
		"source only =",
		"bad pair = group||",
		"bad pair = ||name",
	}
	for _, content := range cases {
		_, err := ParseRules("o", content, "")
		if err == nil {
			t.Fatalf("%q: want error", content)
		}
		pe, ok := err.(*ParseError)
		if !ok {
			t.Fatalf("%q: err type=%T", content, err)
		}
		if pe.AppError.Code != "OVERRIDE_PARSE_ERROR" {
			t.Fatalf("%q: code=%q", content, pe.AppError.Code)
		}
		if pe.AppError.Line != 1 {
			t.Fatalf("%q: line=%d", content, pe.AppError.Line)
		}
	}
}

func TestParseRules_CRLFAndComments(t *testing.T) {
	rules, err := ParseRules("o", "# c\r\n\r\nA = B\r\n", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 1 || rules[0].Source.Name != "A" || rules[0].Target.Name != "B" {
		t.Fatalf("rules=%+v", rules)
	}
}
