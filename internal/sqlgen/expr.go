package sqlgen

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// UnknownExpression is the placeholder emitted when the CST shape of an
// expression isn't recognized (spec §4.1's "unknown_expression" rule).
// Callers that get this back should log a warning rather than fail — the
// failure is tolerated so the parser can handle the long tail of PostgreSQL
// syntax without crashing.
const UnknownExpression = "unknown_expression"

// FormatExpr recursively serializes a pg_query expression node into
// canonical SQL text. It is used both by the DDL parser (to round-trip
// default/check expressions from the CST) and, indirectly, by the differ
// (which compares the canonical strings two independently-parsed schemas
// produce). Where the shape isn't recognized, it returns UnknownExpression.
func FormatExpr(node *pg_query.Node) string {
	if node == nil {
		return ""
	}

	switch expr := node.Node.(type) {
	case *pg_query.Node_AConst:
		return formatAConst(expr.AConst)

	case *pg_query.Node_String_:
		return expr.String_.Sval

	case *pg_query.Node_Integer:
		return fmt.Sprintf("%d", expr.Integer.Ival)

	case *pg_query.Node_ColumnRef:
		return formatColumnRef(expr.ColumnRef)

	case *pg_query.Node_FuncCall:
		return formatFuncCall(expr.FuncCall)

	case *pg_query.Node_TypeCast:
		return formatTypeCast(expr.TypeCast)

	case *pg_query.Node_AExpr:
		return formatAExpr(expr.AExpr)

	case *pg_query.Node_BoolExpr:
		return formatBoolExpr(expr.BoolExpr)

	case *pg_query.Node_NullTest:
		return formatNullTest(expr.NullTest)

	case *pg_query.Node_CaseExpr:
		return formatCaseExpr(expr.CaseExpr)

	case *pg_query.Node_AIndirection:
		// Parenthesized/indirected expressions are not serialized.
		return UnknownExpression

	case *pg_query.Node_SqlvalueFunction:
		return formatSQLValueFunction(expr.SqlvalueFunction)

	case *pg_query.Node_List:
		return formatList(expr.List)
	}

	return UnknownExpression
}

func formatAConst(c *pg_query.A_Const) string {
	if c.Isnull {
		return "NULL"
	}
	if ival := c.GetIval(); ival != nil {
		return fmt.Sprintf("%d", ival.Ival)
	}
	if fval := c.GetFval(); fval != nil {
		return fval.Fval
	}
	if sval := c.GetSval(); sval != nil {
		return "'" + strings.ReplaceAll(sval.Sval, "'", "''") + "'"
	}
	if bsval := c.GetBsval(); bsval != nil {
		return bsval.Bsval
	}
	return UnknownExpression
}

func formatColumnRef(ref *pg_query.ColumnRef) string {
	var parts []string
	for _, f := range ref.Fields {
		if s, ok := f.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		} else if _, ok := f.Node.(*pg_query.Node_AStar); ok {
			parts = append(parts, "*")
		}
	}
	if len(parts) == 0 {
		return UnknownExpression
	}
	return strings.Join(parts, ".")
}

func formatFuncCall(fc *pg_query.FuncCall) string {
	if len(fc.Funcname) == 0 {
		return UnknownExpression
	}
	nameNode, ok := fc.Funcname[len(fc.Funcname)-1].Node.(*pg_query.Node_String_)
	if !ok {
		return UnknownExpression
	}
	funcName := strings.ToUpper(nameNode.String_.Sval)

	// Keyword constants emitted without parentheses, e.g. CURRENT_TIMESTAMP.
	if len(fc.Args) == 0 && isKeywordConstant(funcName) {
		return funcName
	}

	var args []string
	for _, a := range fc.Args {
		args = append(args, FormatExpr(a))
	}
	return fmt.Sprintf("%s(%s)", funcName, strings.Join(args, ", "))
}

func isKeywordConstant(name string) bool {
	switch name {
	case "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME", "LOCALTIME", "LOCALTIMESTAMP":
		return true
	}
	return false
}

func formatTypeCast(tc *pg_query.TypeCast) string {
	arg := FormatExpr(tc.Arg)
	typeName := formatTypeNameForCast(tc.TypeName)
	if typeName == "" {
		return arg
	}
	return fmt.Sprintf("%s::%s", arg, typeName)
}

func formatTypeNameForCast(tn *pg_query.TypeName) string {
	if tn == nil || len(tn.Names) == 0 {
		return ""
	}
	var parts []string
	for _, n := range tn.Names {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			if s.String_.Sval == "pg_catalog" {
				continue
			}
			parts = append(parts, s.String_.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func formatAExpr(e *pg_query.A_Expr) string {
	var opName string
	if len(e.Name) > 0 {
		if s, ok := e.Name[0].Node.(*pg_query.Node_String_); ok {
			opName = s.String_.Sval
		}
	}

	switch e.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP:
		if e.Lexpr == nil {
			// Prefix operator, e.g. unary minus producing a negative literal.
			return opName + FormatExpr(e.Rexpr)
		}
		return fmt.Sprintf("%s %s %s", FormatExpr(e.Lexpr), opName, FormatExpr(e.Rexpr))
	case pg_query.A_Expr_Kind_AEXPR_IN:
		return fmt.Sprintf("%s IN (%s)", FormatExpr(e.Lexpr), FormatExpr(e.Rexpr))
	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		return fmt.Sprintf("%s LIKE %s", FormatExpr(e.Lexpr), FormatExpr(e.Rexpr))
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN:
		return fmt.Sprintf("%s BETWEEN %s", FormatExpr(e.Lexpr), FormatExpr(e.Rexpr))
	}
	return UnknownExpression
}

func formatBoolExpr(b *pg_query.BoolExpr) string {
	var parts []string
	for _, a := range b.Args {
		parts = append(parts, FormatExpr(a))
	}
	switch b.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		return strings.Join(parts, " AND ")
	case pg_query.BoolExprType_OR_EXPR:
		return strings.Join(parts, " OR ")
	case pg_query.BoolExprType_NOT_EXPR:
		if len(parts) == 1 {
			return "NOT " + parts[0]
		}
	}
	return UnknownExpression
}

func formatNullTest(n *pg_query.NullTest) string {
	arg := FormatExpr(n.Arg)
	if n.Nulltesttype == pg_query.NullTestType_IS_NULL {
		return arg + " IS NULL"
	}
	return arg + " IS NOT NULL"
}

func formatCaseExpr(c *pg_query.CaseExpr) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range c.Args {
		when, ok := w.Node.(*pg_query.Node_CaseWhen)
		if !ok {
			return UnknownExpression
		}
		sb.WriteString(fmt.Sprintf(" WHEN %s THEN %s", FormatExpr(when.CaseWhen.Expr), FormatExpr(when.CaseWhen.Result)))
	}
	if c.Defresult != nil {
		sb.WriteString(" ELSE " + FormatExpr(c.Defresult))
	}
	sb.WriteString(" END")
	return sb.String()
}

// formatSQLValueFunction renders CURRENT_TIMESTAMP and friends. Op is
// compared against raw ordinals of pg_query's generated SVFOp enum rather
// than named Go constants. In that enum 0 is an undefined placeholder, so
// each value is one above its position in PostgreSQL's own SVFOp
// (src/include/nodes/primnodes.h), which starts at 0.
func formatSQLValueFunction(f *pg_query.SQLValueFunction) string {
	switch f.Op {
	case 1: // SVFOP_CURRENT_DATE
		return "CURRENT_DATE"
	case 2, 3: // SVFOP_CURRENT_TIME[_N]
		return "CURRENT_TIME"
	case 4, 5: // SVFOP_CURRENT_TIMESTAMP[_N]
		return "CURRENT_TIMESTAMP"
	case 6, 7: // SVFOP_LOCALTIME[_N]
		return "LOCALTIME"
	case 8, 9: // SVFOP_LOCALTIMESTAMP[_N]
		return "LOCALTIMESTAMP"
	case 10: // SVFOP_CURRENT_ROLE
		return "CURRENT_ROLE"
	case 11: // SVFOP_CURRENT_USER
		return "CURRENT_USER"
	case 12: // SVFOP_USER
		return "USER"
	case 13: // SVFOP_SESSION_USER
		return "SESSION_USER"
	case 14: // SVFOP_CURRENT_CATALOG
		return "CURRENT_CATALOG"
	case 15: // SVFOP_CURRENT_SCHEMA
		return "CURRENT_SCHEMA"
	}
	return UnknownExpression
}

func formatList(l *pg_query.List) string {
	var parts []string
	for _, item := range l.Items {
		parts = append(parts, FormatExpr(item))
	}
	return strings.Join(parts, ", ")
}
