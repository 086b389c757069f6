package interpreter

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ArgumentKind classifies a command word before it is turned into an argument string.
type ArgumentKind int

const (
	// ArgumentWord is a bare literal word, used verbatim.
	ArgumentWord ArgumentKind = iota
	// ArgumentNumber is a bare run of digits, used verbatim.
	ArgumentNumber
	// ArgumentString is a double-quoted string; delimiters are removed and the contents are not split.
	ArgumentString
	// ArgumentRawString is a single-quoted string; delimiters are removed.
	ArgumentRawString
	// ArgumentExpansion is a parameter expansion; only $? is resolved.
	ArgumentExpansion
	// ArgumentConcatenation is several adjacent parts forming one word.
	ArgumentConcatenation
	// ArgumentUnrecognized is any other word form, passed through as source text.
	ArgumentUnrecognized
)

const (
	argumentWordLabelConstant          = "word"
	argumentNumberLabelConstant        = "number"
	argumentStringLabelConstant        = "string"
	argumentRawStringLabelConstant     = "raw_string"
	argumentExpansionLabelConstant     = "expansion"
	argumentConcatenationLabelConstant = "concatenation"
	argumentUnrecognizedLabelConstant  = "unrecognized"
	lastExitStatusParameterConstant    = "?"
)

// String returns the classification label.
func (kind ArgumentKind) String() string {
	switch kind {
	case ArgumentWord:
		return argumentWordLabelConstant
	case ArgumentNumber:
		return argumentNumberLabelConstant
	case ArgumentString:
		return argumentStringLabelConstant
	case ArgumentRawString:
		return argumentRawStringLabelConstant
	case ArgumentExpansion:
		return argumentExpansionLabelConstant
	case ArgumentConcatenation:
		return argumentConcatenationLabelConstant
	default:
		return argumentUnrecognizedLabelConstant
	}
}

// ClassifyArgument reports how a word will be turned into an argument.
func ClassifyArgument(word *syntax.Word) ArgumentKind {
	if word == nil || len(word.Parts) == 0 {
		return ArgumentUnrecognized
	}
	if len(word.Parts) > 1 {
		return ArgumentConcatenation
	}
	switch part := word.Parts[0].(type) {
	case *syntax.Lit:
		if isDecimalNumber(part.Value) {
			return ArgumentNumber
		}
		return ArgumentWord
	case *syntax.DblQuoted:
		return ArgumentString
	case *syntax.SglQuoted:
		return ArgumentRawString
	case *syntax.ParamExp:
		return ArgumentExpansion
	default:
		return ArgumentUnrecognized
	}
}

// argumentExpander turns words into argument strings against one script's source text.
type argumentExpander struct {
	source         string
	lastExitStatus int
}

func (expander argumentExpander) expandWord(word *syntax.Word) string {
	switch ClassifyArgument(word) {
	case ArgumentUnrecognized:
		return expander.sourceText(word)
	case ArgumentConcatenation:
		var builder strings.Builder
		for _, part := range word.Parts {
			builder.WriteString(expander.expandPart(part))
		}
		return builder.String()
	default:
		return expander.expandPart(word.Parts[0])
	}
}

func (expander argumentExpander) expandPart(part syntax.WordPart) string {
	switch typedPart := part.(type) {
	case *syntax.Lit:
		return typedPart.Value
	case *syntax.SglQuoted:
		return typedPart.Value
	case *syntax.DblQuoted:
		var builder strings.Builder
		for _, quotedPart := range typedPart.Parts {
			builder.WriteString(expander.expandPart(quotedPart))
		}
		return builder.String()
	case *syntax.ParamExp:
		if isLastExitStatusExpansion(typedPart) {
			return strconv.Itoa(expander.lastExitStatus)
		}
		return expander.sourceText(typedPart)
	default:
		return expander.sourceText(part)
	}
}

func (expander argumentExpander) sourceText(node syntax.Node) string {
	return nodeSourceText(expander.source, node)
}

func nodeSourceText(source string, node syntax.Node) string {
	startOffset := int(node.Pos().Offset())
	endOffset := int(node.End().Offset())
	if startOffset < 0 || endOffset > len(source) || startOffset > endOffset {
		return ""
	}
	return source[startOffset:endOffset]
}

func isLastExitStatusExpansion(expansion *syntax.ParamExp) bool {
	if expansion.Param == nil || expansion.Param.Value != lastExitStatusParameterConstant {
		return false
	}
	return !expansion.Excl && !expansion.Length && !expansion.Width &&
		expansion.Index == nil && expansion.Slice == nil && expansion.Repl == nil && expansion.Exp == nil
}

func isDecimalNumber(value string) bool {
	if len(value) == 0 {
		return false
	}
	for _, character := range value {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}
