package interpreter

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

const (
	syntaxTypePrefixConstant     = "*syntax."
	syntaxTypeNameFormatConstant = "%T"
	redirectKindConstant         = "Redirect"
	negationKindConstant         = "Negation"
	coprocessKindConstant        = "Coprocess"
	assignmentKindConstant       = "Assign"
)

// StatementKind names the node type of a statement's command, as reported for unsupported statements.
func StatementKind(command syntax.Command) string {
	return strings.TrimPrefix(fmt.Sprintf(syntaxTypeNameFormatConstant, command), syntaxTypePrefixConstant)
}

// unsupportedStatementForm names the first statement feature outside simple commands, or returns "".
func unsupportedStatementForm(statement *syntax.Stmt) string {
	switch {
	case len(statement.Redirs) > 0:
		return redirectKindConstant
	case statement.Negated:
		return negationKindConstant
	case statement.Coprocess:
		return coprocessKindConstant
	}
	if command, isCall := statement.Cmd.(*syntax.CallExpr); isCall && len(command.Assigns) > 0 {
		return assignmentKindConstant
	}
	return ""
}
