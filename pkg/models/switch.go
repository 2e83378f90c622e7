package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Switch rule operators. Ordering operators compare numerically when both
// operands parse as numbers, lexicographically otherwise.
const (
	OperatorEquals       = "equals"
	OperatorNotEquals    = "not_equals"
	OperatorGreaterThan  = "greater_than"
	OperatorGreaterEqual = "greater_equal"
	OperatorLessThan     = "less_than"
	OperatorLessEqual    = "less_equal"
	OperatorContains     = "contains"
	OperatorNotContains  = "not_contains"
	OperatorStartsWith   = "starts_with"
	OperatorEndsWith     = "ends_with"
)

// SwitchRule is one ordered comparison of a switch node. Value1 and Value2
// support interpolation; both are rendered before evaluation. Output is the
// condition tag of the edge to follow when the rule matches.
type SwitchRule struct {
	Value1   string `json:"value1"   validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value2   string `json:"value2"`
	Output   string `json:"output"   validate:"required"`
}

// EvaluateRule applies the rule's operator to two already-rendered operands.
func EvaluateRule(operator, value1, value2 string) (bool, error) {
	switch operator {
	case OperatorEquals:
		return value1 == value2, nil
	case OperatorNotEquals:
		return value1 != value2, nil
	case OperatorGreaterThan:
		return compareOrdered(value1, value2) > 0, nil
	case OperatorGreaterEqual:
		return compareOrdered(value1, value2) >= 0, nil
	case OperatorLessThan:
		return compareOrdered(value1, value2) < 0, nil
	case OperatorLessEqual:
		return compareOrdered(value1, value2) <= 0, nil
	case OperatorContains:
		return strings.Contains(value1, value2), nil
	case OperatorNotContains:
		return !strings.Contains(value1, value2), nil
	case OperatorStartsWith:
		return strings.HasPrefix(value1, value2), nil
	case OperatorEndsWith:
		return strings.HasSuffix(value1, value2), nil
	default:
		return false, fmt.Errorf("unknown switch operator %q", operator)
	}
}

func compareOrdered(value1, value2 string) int {
	n1, err1 := strconv.ParseFloat(strings.TrimSpace(value1), 64)
	n2, err2 := strconv.ParseFloat(strings.TrimSpace(value2), 64)

	if err1 == nil && err2 == nil {
		switch {
		case n1 < n2:
			return -1
		case n1 > n2:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(value1, value2)
}
