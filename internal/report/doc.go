// Package report writes the pipeline artifacts: the CSV export, the type
// distribution chart, the consolidated text report and charts generated on
// demand from tables or mappings.
//
// Charts for tables can be steered by a free-text instruction. Instructions
// are matched against an ordered list of rules; the first match draws the
// chart. When no rule applies, or the matching rule cannot find its columns,
// a notice panel is drawn above the default two-column projection.
package report
