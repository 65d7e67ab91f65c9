package tracker

import "testing"

func TestParseCriteria(t *testing.T) {
	item := WorkItem{
		Description: "Do the thing.\n- [ ] write the code\n- [x] write the tests\nsome other line\n",
		Notes:       "- [ ] update the changelog\n",
	}

	criteria := ParseCriteria(item)
	if len(criteria) != 3 {
		t.Fatalf("expected 3 criteria, got %d: %+v", len(criteria), criteria)
	}

	if criteria[0].Text != "write the code" || criteria[0].Completed || criteria[0].Line != 2 {
		t.Errorf("unexpected first criterion: %+v", criteria[0])
	}
	if criteria[1].Text != "write the tests" || !criteria[1].Completed || criteria[1].Line != 3 {
		t.Errorf("unexpected second criterion: %+v", criteria[1])
	}
	if criteria[2].Text != "update the changelog" || criteria[2].Completed || criteria[2].Line != 6 {
		t.Errorf("unexpected third criterion (line numbers are continuous across description+notes): %+v", criteria[2])
	}
}

func TestParseCriteriaUppercaseAndFlexibleSpacing(t *testing.T) {
	item := WorkItem{
		Description: "-  [ ] loose spacing before the bracket\n-[X] uppercase X, no space at all\n",
	}

	criteria := ParseCriteria(item)
	if len(criteria) != 2 {
		t.Fatalf("expected 2 criteria, got %d: %+v", len(criteria), criteria)
	}
	if criteria[0].Text != "loose spacing before the bracket" || criteria[0].Completed {
		t.Errorf("unexpected first criterion: %+v", criteria[0])
	}
	if criteria[1].Text != "uppercase X, no space at all" || !criteria[1].Completed {
		t.Errorf("expected uppercase [X] to count as completed: %+v", criteria[1])
	}
}

func TestCriterionComplete(t *testing.T) {
	tests := []struct {
		name     string
		criteria []AcceptanceCriterion
		want     bool
	}{
		{"empty", nil, false},
		{"all complete", []AcceptanceCriterion{{Completed: true}, {Completed: true}}, true},
		{"one incomplete", []AcceptanceCriterion{{Completed: true}, {Completed: false}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CriterionComplete(tt.criteria); got != tt.want {
				t.Errorf("CriterionComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsReady(t *testing.T) {
	byID := map[string]WorkItem{
		"dep-closed": {ID: "dep-closed", Status: StatusClosed},
		"dep-open":   {ID: "dep-open", Status: StatusOpen},
	}

	tests := []struct {
		name string
		item WorkItem
		want bool
	}{
		{"no deps, open", WorkItem{Status: StatusOpen}, true},
		{"not open", WorkItem{Status: StatusInProgress}, false},
		{"dep closed", WorkItem{Status: StatusOpen, DependsOn: []string{"dep-closed"}}, true},
		{"dep still open", WorkItem{Status: StatusOpen, DependsOn: []string{"dep-open"}}, false},
		{"dep unknown", WorkItem{Status: StatusOpen, DependsOn: []string{"missing"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReady(tt.item, byID); got != tt.want {
				t.Errorf("IsReady() = %v, want %v", got, tt.want)
			}
		})
	}
}
