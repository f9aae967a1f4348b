// Package types provides type definitions for structured data used throughout the recruiter-insight system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Canonical item labels. They are used both as StructuredJob keys and as the
// first cell of every comparison table row.
const (
	ItemJobTitle     = "求人票名"
	ItemRole         = "役割"
	ItemProcess      = "業務プロセス"
	ItemProduct      = "対象製品"
	ItemStakeholders = "ステークホルダー"
	ItemTechnologies = "使用技術"

	// Inferred-only items produced by the richer optimization prompt.
	ItemHiringBackground = "採用背景"
	ItemValueChain       = "バリューチェーン"
)

// Header column labels of the comparison table.
const (
	ColumnItem     = "項目名"
	ColumnContentA = "内容A（求人票の記述）"
	ColumnContentB = "内容B（実態推察）"
	ColumnGap      = "ギャップ"
)

// Cell positions within a table row.
const (
	CellItem = iota
	CellContentA
	CellContentB
	CellGap
	CellCount
)

// StepGlyph separates steps of the business process; StepSeparator is the
// canonical form with surrounding newlines.
const (
	StepGlyph     = "↓"
	StepSeparator = "\n↓\n"
)

// ProcessFormatExample shows the expected business process notation.
const ProcessFormatExample = "設計／（設計書）\n↓\n試作／（試作品）\n↓\n評価／（評価レポート）"

// CanonicalItems returns the six canonical items in table order.
func CanonicalItems() []string {
	return []string{ItemJobTitle, ItemRole, ItemProcess, ItemProduct, ItemStakeholders, ItemTechnologies}
}

// ExtendedItems returns the optional inferred-only items in display order.
func ExtendedItems() []string {
	return []string{ItemHiringBackground, ItemValueChain}
}

// CanonicalHeader returns a fresh copy of the table header row.
func CanonicalHeader() []string {
	return []string{ColumnItem, ColumnContentA, ColumnContentB, ColumnGap}
}

// IsProtectedItem reports whether content-A of the item is identity-sensitive
// and must survive regeneration and modification unchanged.
func IsProtectedItem(item string) bool {
	return item == ItemJobTitle || item == ItemRole
}

// IsExtendedItem reports whether item is one of the inferred-only items.
func IsExtendedItem(item string) bool {
	return item == ItemHiringBackground || item == ItemValueChain
}

// CanonicalRowCount is the validated table length: header plus six items.
const CanonicalRowCount = 7
