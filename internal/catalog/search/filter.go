// Package search translates AIP-160 filter expressions and free-text search
// terms into SQL conditions over the catalog tables.
package search

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/civikit/catalog/internal/catalog/domain"
	apperrors "github.com/civikit/catalog/internal/errors"
)

// SQLCondition is a WHERE clause fragment with positional parameters.
type SQLCondition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition constrains nothing.
func (c SQLCondition) Empty() bool { return c.Clause == "" }

// Declarations returns the filterable field declarations for a kind.
func Declarations(kind domain.Kind) (*filtering.Declarations, error) {
	options := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for field, typ := range filterFields(kind) {
		options = append(options, filtering.DeclareIdent(field, typ))
	}
	return filtering.NewDeclarations(options...)
}

func filterFields(kind domain.Kind) map[string]*expr.Type {
	switch kind {
	case domain.KindLifeSituation:
		return map[string]*expr.Type{
			"name":       filtering.TypeString,
			"identifier": filtering.TypeString,
		}
	case domain.KindService:
		return map[string]*expr.Type{
			"name":           filtering.TypeString,
			"service_type":   filtering.TypeString,
			"regulating_act": filtering.TypeString,
			"identifier":     filtering.TypeString,
		}
	case domain.KindProcess:
		return map[string]*expr.Type{
			"name":                  filtering.TypeString,
			"status":                filtering.TypeString,
			"identifier":            filtering.TypeString,
			"department":            filtering.TypeString,
			"responsible_authority": filtering.TypeString,
			"is_internal_client":    filtering.TypeBool,
			"is_external_client":    filtering.TypeBool,
			"is_digital_format":     filtering.TypeBool,
			"is_non_digital_format": filtering.TypeBool,
		}
	default:
		return nil
	}
}

// columnMapping maps filter field names to SQL column names. Filter fields
// use wire names, which match the column names for every catalog table.
func columnMapping(kind domain.Kind) map[string]string {
	fields := filterFields(kind)
	out := make(map[string]string, len(fields))
	for field := range fields {
		out[field] = field
	}
	return out
}

// ParseFilter parses an AIP-160 filter expression for a kind and returns a
// SQL condition. An empty filter returns an empty condition.
func ParseFilter(kind domain.Kind, filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := Declarations(kind)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, apperrors.Wrap(apperrors.CodeSearchFilterInvalid,
			"filter expression does not parse", err)
	}

	condition, err := translateExpr(columnMapping(kind), parsed.CheckedExpr.Expr)
	if err != nil {
		return SQLCondition{}, apperrors.Wrap(apperrors.CodeSearchFilterInvalid,
			"filter expression is not supported", err)
	}
	return condition, nil
}

// SearchCondition builds a case-insensitive substring condition matching a
// record's own name or the names of its descendants. An empty term returns an
// empty condition.
func SearchCondition(kind domain.Kind, term string) SQLCondition {
	term = strings.TrimSpace(term)
	if term == "" {
		return SQLCondition{}
	}
	switch kind {
	case domain.KindLifeSituation:
		return SQLCondition{
			Clause: "(instr(lower(life_situations.name), lower(?)) > 0" +
				" OR EXISTS (SELECT 1 FROM services s WHERE s.life_situation_id = life_situations.id AND instr(lower(s.name), lower(?)) > 0)" +
				" OR EXISTS (SELECT 1 FROM processes p JOIN services s ON p.service_id = s.id WHERE s.life_situation_id = life_situations.id AND instr(lower(p.name), lower(?)) > 0))",
			Params: []any{term, term, term},
		}
	case domain.KindService:
		return SQLCondition{
			Clause: "(instr(lower(services.name), lower(?)) > 0" +
				" OR EXISTS (SELECT 1 FROM processes p WHERE p.service_id = services.id AND instr(lower(p.name), lower(?)) > 0))",
			Params: []any{term, term},
		}
	case domain.KindProcess:
		return SQLCondition{
			Clause: "instr(lower(processes.name), lower(?)) > 0",
			Params: []any{term},
		}
	default:
		return SQLCondition{}
	}
}

// Combine joins conditions with AND, skipping empty ones.
func Combine(conditions ...SQLCondition) SQLCondition {
	var clauses []string
	var params []any
	for _, condition := range conditions {
		if condition.Empty() {
			continue
		}
		clauses = append(clauses, condition.Clause)
		params = append(params, condition.Params...)
	}
	if len(clauses) == 0 {
		return SQLCondition{}
	}
	return SQLCondition{Clause: strings.Join(clauses, " AND "), Params: params}
}

func translateExpr(columns map[string]string, e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return translateCall(columns, kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func translateCall(columns map[string]string, call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateLogical(columns, call.Args, "AND")
	case "_||_", "OR":
		return translateLogical(columns, call.Args, "OR")
	case "_==_", "=":
		return translateComparison(columns, call.Args, "=")
	case "_!=_", "!=":
		return translateComparison(columns, call.Args, "!=")
	case "_<_", "<":
		return translateComparison(columns, call.Args, "<")
	case "_<=_", "<=":
		return translateComparison(columns, call.Args, "<=")
	case "_>_", ">":
		return translateComparison(columns, call.Args, ">")
	case "_>=_", ">=":
		return translateComparison(columns, call.Args, ">=")
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateLogical(columns map[string]string, args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("%s requires 2 arguments", op)
	}

	left, err := translateExpr(columns, args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	right, err := translateExpr(columns, args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func translateComparison(columns map[string]string, args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := extractFieldName(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	column, ok := columns[field]
	if !ok {
		return SQLCondition{}, fmt.Errorf("unknown field: %s", field)
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}

	return SQLCondition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	default:
		return nil, fmt.Errorf("expected constant, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
