package models

import "testing"

func TestEvaluateRule(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		value1   string
		value2   string
		want     bool
	}{
		{"equals match", OperatorEquals, "vip", "vip", true},
		{"equals mismatch", OperatorEquals, "vip", "regular", false},
		{"not equals", OperatorNotEquals, "vip", "regular", true},
		{"numeric greater", OperatorGreaterThan, "10", "9", true},
		{"numeric greater as strings would fail", OperatorGreaterThan, "9", "10", false},
		{"numeric less equal", OperatorLessEqual, "9.5", "9.5", true},
		{"lexicographic fallback", OperatorLessThan, "apple", "banana", true},
		{"contains", OperatorContains, "hello world", "world", true},
		{"not contains", OperatorNotContains, "hello world", "moon", true},
		{"starts with", OperatorStartsWith, "BR-12345", "BR-", true},
		{"ends with", OperatorEndsWith, "invoice.pdf", ".pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateRule(tt.operator, tt.value1, tt.value2)
			if err != nil {
				t.Fatalf("EvaluateRule returned error: %v", err)
			}

			if got != tt.want {
				t.Errorf("EvaluateRule(%q, %q, %q) = %v, want %v",
					tt.operator, tt.value1, tt.value2, got, tt.want)
			}
		})
	}
}

func TestEvaluateRule_UnknownOperator(t *testing.T) {
	_, err := EvaluateRule("matches_regex", "a", "b")
	if err == nil {
		t.Fatal("expected error for unknown operator")
	}
}
