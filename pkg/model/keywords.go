package model

import (
	"strings"

	"github.com/samber/lo"
)

// lineKind is what a model line means to the loader
type lineKind int

const (
	contentLine lineKind = iota
	constraintsHeader
	binariesHeader
	unsupportedHeader
	objectiveLine
	endLine
)

// Keywords are matched as case-insensitive substrings, in this order. A constraint whose text
// happens to contain one of them (e.g. a variable named "bin3" or "x_end") is misclassified.
var (
	constraintsKeywords = []string{"subject to", "such that", "s.t."}
	binariesKeywords    = []string{"binary", "binaries", "bin"}
	unsupportedKeywords = []string{"general", "generals", "gen", "semi-continuous", "semis", "semi", "sos", "pwlobj", "lazy constraints"}
	objectiveKeywords   = []string{"maximize", "minimize", "minimum", "maximum", "max", "min"}
	endKeyword          = "end"
)

func classify(line string) lineKind {
	lower := strings.ToLower(line)
	containsAny := func(keywords []string) bool {
		return lo.SomeBy(keywords, func(keyword string) bool { return strings.Contains(lower, keyword) })
	}

	switch {
	case containsAny(constraintsKeywords):
		return constraintsHeader
	case containsAny(binariesKeywords):
		return binariesHeader
	case containsAny(unsupportedKeywords):
		return unsupportedHeader
	case containsAny(objectiveKeywords):
		return objectiveLine
	case strings.Contains(lower, endKeyword):
		return endLine
	}
	return contentLine
}
