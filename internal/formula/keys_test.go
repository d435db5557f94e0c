package formula

import (
	"testing"

	"github.com/kobzarvs/formulaedit/internal/selection"
)

func ctrl(key string) KeyEvent {
	return KeyEvent{Key: key, Ctrl: true}
}

func TestClassify(t *testing.T) {
	const text = "[Var A] + [Var B]"
	caret := func(pos int) Context {
		return Context{Text: text, Selection: selection.Caret(pos), HasSelection: true}
	}
	span := func(start, end int) Context {
		return Context{Text: text, Selection: selection.Range{Start: start, End: end}, HasSelection: true}
	}
	tests := []struct {
		name string
		ev   KeyEvent
		ctx  Context
		want Decision
	}{
		{"save", ctrl("s"), Context{}, Decision{Rule: RuleSave, Suppress: true}},
		{"save meta", KeyEvent{Key: "s", Meta: true}, caret(3), Decision{Rule: RuleSave, Suppress: true}},
		{"bold", ctrl("b"), caret(8), Decision{Rule: RuleFormat, Suppress: true}},
		{"italic alt", KeyEvent{Key: "i", Alt: true}, caret(8), Decision{Rule: RuleFormat, Suppress: true}},
		{"underline", KeyEvent{Key: "u", Meta: true}, Context{}, Decision{Rule: RuleFormat, Suppress: true}},
		{"no selection", Char('x'), Context{Text: text}, Decision{Rule: RuleNoSelection}},
		{"copy", ctrl("c"), span(2, 9), Decision{Rule: RuleClipboard, Expand: true}},
		{"cut", ctrl("x"), span(2, 9), Decision{Rule: RuleClipboard, Expand: true, ResetColor: true}},
		{"backspace", KeyEvent{Key: KeyBackspace}, caret(7), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasBackward,
			DeleteSelection: true, ResetColor: true, Suppress: true,
		}},
		{"delete", KeyEvent{Key: KeyDelete}, caret(10), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasForward,
			DeleteSelection: true, ResetColor: true, Suppress: true,
		}},
		{"type over", Char('z'), span(3, 13), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasBackward,
			DeleteSelection: true, ResetColor: true,
		}},
		{"enter over selection", KeyEvent{Key: KeyEnter}, span(3, 13), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasBackward,
			DeleteSelection: true, ResetColor: true,
		}},
		{"open bracket over selection", Char('['), span(3, 13), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasBackward,
			DeleteSelection: true, ResetColor: true, Suppress: true,
		}},
		{"close bracket over selection", Char(']'), span(0, 1), Decision{
			Rule: RuleDestructive, Expand: true, Bias: selection.BiasBackward,
			DeleteSelection: true, ResetColor: true, Suppress: true,
		}},
		{"arrow over selection", KeyEvent{Key: KeyArrowLeft}, span(3, 13), Decision{}},
		{"paste chord over selection", ctrl("v"), span(3, 13), Decision{}},
		{"after variable", Char('x'), caret(7), Decision{Rule: RuleAfterVariable, ResetColor: true}},
		{"arrow after variable", KeyEvent{Key: KeyArrowRight}, caret(7), Decision{Rule: RuleAfterVariable, ResetColor: true}},
		{"leading variable", Char('1'), caret(0), Decision{Rule: RuleLeadingVariable, ResetColor: true}},
		{"arrow at leading variable", KeyEvent{Key: KeyArrowLeft}, caret(0), Decision{}},
		{"bracket at leading variable", Char('['), caret(0), Decision{Rule: RuleManualVariable, Suppress: true}},
		{"inside variable", Char('q'), caret(3), Decision{Rule: RuleManualVariable, Suppress: true}},
		{"enter inside variable", KeyEvent{Key: KeyEnter}, caret(12), Decision{Rule: RuleManualVariable, Suppress: true}},
		{"arrow inside variable", KeyEvent{Key: KeyArrowRight}, caret(3), Decision{}},
		{"open bracket in plain text", Char('['), caret(8), Decision{Rule: RuleManualVariable, Suppress: true}},
		{"close bracket after variable", Char(']'), caret(7), Decision{Rule: RuleManualVariable, Suppress: true}},
		{"plain typing", Char('+'), caret(8), Decision{}},
		{"typing before inner variable", Char('x'), caret(10), Decision{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ev, tt.ctx); got != tt.want {
				t.Fatalf("Classify(%+v) = %+v, want %+v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestClassifyUnterminatedVariable(t *testing.T) {
	ctx := Context{Text: "1 + [Va", Selection: selection.Caret(7), HasSelection: true}
	if got := Classify(Char('r'), ctx); got.Rule != RuleManualVariable || !got.Suppress {
		t.Fatalf("typing at the end of an unterminated variable = %+v, want suppressed", got)
	}
}

func TestClassifyReadOnly(t *testing.T) {
	base := Context{Text: "[a] + 1", Selection: selection.Caret(5), HasSelection: true, ReadOnly: true}
	tests := []struct {
		ev       KeyEvent
		rule     Rule
		suppress bool
	}{
		{Char('x'), RuleReadOnly, true},
		{KeyEvent{Key: KeyBackspace}, RuleReadOnly, true},
		{ctrl("x"), RuleReadOnly, true},
		{ctrl("c"), RuleClipboard, false},
		{KeyEvent{Key: KeyArrowLeft}, RuleReadOnly, false},
		{KeyEvent{Key: KeyHome}, RuleReadOnly, false},
		{ctrl("s"), RuleSave, true},
	}
	for _, tt := range tests {
		got := Classify(tt.ev, base)
		if got.Rule != tt.rule || got.Suppress != tt.suppress {
			t.Fatalf("Classify(%+v) = %+v, want rule %v suppress %v", tt.ev, got, tt.rule, tt.suppress)
		}
		if got.DeleteSelection || got.ResetColor {
			t.Fatalf("read-only decision %+v issues edit commands", got)
		}
	}
}

func TestRuleString(t *testing.T) {
	if got := RuleDestructive.String(); got != "destructive" {
		t.Fatalf("String = %q", got)
	}
	if got := Rule(99).String(); got != "unknown" {
		t.Fatalf("String = %q", got)
	}
}
