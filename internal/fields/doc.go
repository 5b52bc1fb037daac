// Package fields implements the per-field output expression language a
// treeload client uses to turn one sampling tick's per-pid loads into a
// printable line: what to compute (Source), how to scale it (Scale), and
// how to render it (Format, including the threshold-predicate IfThenElse
// form). Parse accepts the grammar's wire form; Field.String renders a
// canonical form that re-parses to an equal value.
//
// The energy extension's power/energy heads ride the same Source/Scale/
// Format model: they behave like sum/sum_t for formatting purposes but are
// rendered from Inputs.Power and Inputs.Energy instead of Inputs.Loads.
package fields
