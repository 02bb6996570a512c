// Package segment implements audience segments: a small rule DSL of
// {field, operator, value} triples translated into SQL filter clauses
// over the customers table.
package segment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/minicrm/internal/domain"
)

// ruleColumns whitelists the fields a rule may reference and maps
// them to their columns. Anything else is rejected, never
// interpolated.
var ruleColumns = map[string]string{
	"totalSpend": "total_spend",
	"visits":     "visits",
	"lastActive": "last_active",
	"email":      "email",
	"name":       "name",
}

var ruleOperators = map[string]string{
	">":  ">",
	"<":  "<",
	"=":  "=",
	"!=": "!=",
}

// BuildWhere translates a rule list into a WHERE clause with $n
// placeholders and its argument list. Rules combine with AND; an
// empty list matches everyone.
//
// lastActive values are interpreted as "days before now": the value
// is converted to a cutoff timestamp, so {lastActive > 30} means
// "active within the last 30 days" and {lastActive < 30} means
// "inactive for more than 30 days".
func BuildWhere(rules []domain.Rule) (string, []interface{}, error) {
	if len(rules) == 0 {
		return "TRUE", nil, nil
	}

	conds := make([]string, 0, len(rules))
	args := make([]interface{}, 0, len(rules))
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, rule := range rules {
		col, ok := ruleColumns[rule.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported field: %s", rule.Field)
		}
		op, ok := ruleOperators[rule.Operator]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator: %s", rule.Operator)
		}

		arg, err := ruleValue(rule)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, fmt.Sprintf("%s %s %s", col, op, next(arg)))
	}

	return strings.Join(conds, " AND "), args, nil
}

// ruleValue coerces the rule's string value into the type the column
// expects.
func ruleValue(rule domain.Rule) (interface{}, error) {
	switch rule.Field {
	case "totalSpend":
		v, err := strconv.ParseFloat(rule.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("rule value %q is not a number", rule.Value)
		}
		return v, nil
	case "visits":
		v, err := strconv.Atoi(rule.Value)
		if err != nil {
			return nil, fmt.Errorf("rule value %q is not an integer", rule.Value)
		}
		return v, nil
	case "lastActive":
		days, err := strconv.Atoi(rule.Value)
		if err != nil {
			return nil, fmt.Errorf("rule value %q is not a day count", rule.Value)
		}
		return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour), nil
	default:
		return rule.Value, nil
	}
}
