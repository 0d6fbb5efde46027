// Package planner turns a query.Expression into a parameterized SQL
// WHERE clause plus ordered bindings, per the design.
package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/akelsh/seek/internal/query"
)

// Plan is a WHERE clause fragment plus its positional bindings, in
// left-to-right order.
type Plan struct {
	Where string
	Bindings []interface{}
}

// keyAliases maps every recognized alias to its canonical key, per
// the alias table.
var keyAliases = map[string]string{
	"filesize": "size", "size": "size",
	"filetype": "type", "type": "type",
	"extension": "ext", "ext": "ext",
	"mod": "modified", "datemodified": "modified", "modified": "modified",
	"dateadded": "created", "created": "created",
	"filename": "name", "name": "name",
	"fullpath": "path", "path": "path",
}

// Build plans expr into a WHERE clause.
func Build(expr *query.Expression) (Plan, error) {
	if expr == nil {
		return Plan{Where: "1=1"}, nil
	}
	where, bindings, err := planExpr(expr)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Where: where, Bindings: bindings}, nil
}

func planExpr(e *query.Expression) (string, []interface{}, error) {
	switch e.Kind {
	case query.ExprTerm:
		frag, binding := termToSQL(e.Term, "name")
		if binding == nil {
			return frag, nil, nil
		}
		return frag, []interface{}{binding}, nil

	case query.ExprKeyValue:
		return keyValueToSQL(e.Key, e.Value)

	case query.ExprNot:
		if len(e.Children) != 1 {
			return "", nil, fmt.Errorf("planner: NOT expects exactly one child")
		}
		inner, bindings, err := planExpr(e.Children[0])
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", bindings, nil

	case query.ExprAnd:
		return planCombinator(e.Children, " AND ")

	case query.ExprOr:
		return planCombinator(e.Children, " OR ")

	default:
		return "", nil, fmt.Errorf("planner: unknown expression kind %v", e.Kind)
	}
}

func planCombinator(children []*query.Expression, joiner string) (string, []interface{}, error) {
	var parts []string
	var bindings []interface{}
	for _, child := range children {
		frag, childBindings, err := planExpr(child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+frag+")")
		bindings = append(bindings, childBindings...)
	}
	return strings.Join(parts, joiner), bindings, nil
}

// termToSQL implements the Term -> SQL fragment table
// against the given column.
func termToSQL(term, column string) (fragment string, binding interface{}) {
	if term == "" {
		return "1=1", nil
	}
	if len(term) >= 2 && strings.HasPrefix(term, `"`) && strings.HasSuffix(term, `"`) {
		return column + " = ?", term[1 : len(term)-1]
	}
	if strings.ContainsAny(term, "*?") {
		converted := strings.NewReplacer("*", "%", "?", "_").Replace(term)
		return column + " LIKE ?", converted
	}
	return column + " LIKE ?", "%" + term + "%"
}

func keyValueToSQL(rawKey, value string) (string, []interface{}, error) {
	key, ok := keyAliases[strings.ToLower(rawKey)]
	if !ok {
		key = strings.ToLower(rawKey)
	}

	switch key {
	case "name":
		frag, binding := termToSQL(value, "name")
		return bindOne(frag, binding)
	case "path":
		frag, binding := termToSQL(value, "full_path")
		return bindOne(frag, binding)
	case "ext":
		ext := strings.ToLower(strings.TrimPrefix(value, "."))
		return "file_extension = ?", []interface{}{ext}, nil
	case "size":
		return sizeToSQL(value)
	case "type":
		return typeToSQL(value)
	case "modified":
		return dateToSQL("date_modified", value)
	case "created":
		return dateToSQL("date_added", value)
	default:
		frag, binding := termToSQL(value, "name")
		return bindOne(frag, binding)
	}
}

func bindOne(frag string, binding interface{}) (string, []interface{}, error) {
	if binding == nil {
		return frag, nil, nil
	}
	return frag, []interface{}{binding}, nil
}

var sizePattern = regexp.MustCompile(`(?i)^([><]?)(\d+(?:\.\d+)?)(B|KB|MB|GB|TB)?$`)

var sizeUnits = map[string]float64{
	"": 1,
	"B": 1,
	"KB": 1024,
	"MB": 1024 * 1024,
	"GB": 1024 * 1024 * 1024,
	"TB": 1024 * 1024 * 1024 * 1024,
}

// sizeToSQL implements the size/filesize predicate: parse
// ^([><]?)(\d+(\.\d+)?)(B|KB|MB|GB|TB)?$, compare in bytes; no operator
// defaults to =; a malformed value falls back to a substring search on
// the raw value against name.
func sizeToSQL(value string) (string, []interface{}, error) {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		frag, binding := termToSQL(value, "name")
		return bindOne(frag, binding)
	}

	op, numStr, unit := m[1], m[2], strings.ToUpper(m[3])
	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		frag, binding := termToSQL(value, "name")
		return bindOne(frag, binding)
	}
	bytes := int64(num * sizeUnits[unit])

	switch op {
	case ">":
		return "size > ?", []interface{}{bytes}, nil
	case "<":
		return "size < ?", []interface{}{bytes}, nil
	default:
		return "size = ?", []interface{}{bytes}, nil
	}
}

// typeToSQL implements the type/filetype predicate.
func typeToSQL(value string) (string, []interface{}, error) {
	lower := strings.ToLower(value)
	if lower == "folder" || lower == "directory" {
		return "is_directory = 1", nil, nil
	}
	if exts, ok := categoryExtensions[lower]; ok {
		placeholders := make([]string, len(exts))
		bindings := make([]interface{}, len(exts))
		for i, ext := range exts {
			placeholders[i] = "?"
			bindings[i] = ext
		}
		return "file_extension IN (" + strings.Join(placeholders, ", ") + ")", bindings, nil
	}
	return "file_extension = ?", []interface{}{lower}, nil
}

var relativeDateKeywords = map[string]func(time.Time) time.Time{
	"today": startOfDay,
	"yesterday": func(now time.Time) time.Time { return startOfDay(now.AddDate(0, 0, -1)) },
	"thisweek": startOfWeek,
	"lastweek": func(now time.Time) time.Time { return startOfWeek(now.AddDate(0, 0, -7)) },
	"thismonth": startOfMonth,
	"lastmonth": func(now time.Time) time.Time { return startOfMonth(now.AddDate(0, -1, 0)) },
	"thisyear": startOfYear,
	"lastyear": func(now time.Time) time.Time { return startOfYear(now.AddDate(-1, 0, 0)) },
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := int(day.Weekday())
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	y, _, _ := t.Date()
	return time.Date(y, 1, 1, 0, 0, 0, 0, t.Location())
}

var exactDatePattern = regexp.MustCompile(`^([><]?)(\d{4})-(\d{2})-(\d{2})$`)

// dateToSQL implements the modified/created predicate:
// relative keywords lower-bound compare; YYYY-MM-DD half-open day range;
// signed-prefixed YYYY-MM-DD compare; malformed values match nothing.
func dateToSQL(column, value string) (string, []interface{}, error) {
	lower := strings.ToLower(strings.TrimSpace(value))

	if fn, ok := relativeDateKeywords[lower]; ok {
		epoch := float64(fn(time.Now()).Unix())
		return column + " >= ?", []interface{}{epoch}, nil
	}

	m := exactDatePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "1=0", nil, nil
	}

	op := m[1]
	day, err := time.ParseInLocation("2006-01-02", m[2]+"-"+m[3]+"-"+m[4], time.Local)
	if err != nil {
		return "1=0", nil, nil
	}
	start := float64(day.Unix())

	switch op {
	case ">":
		return column + " > ?", []interface{}{start}, nil
	case "<":
		return column + " < ?", []interface{}{start}, nil
	default:
		end := float64(day.AddDate(0, 0, 1).Unix())
		return column + " >= ? AND " + column + " < ?", []interface{}{start, end}, nil
	}
}
