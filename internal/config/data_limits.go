// Package config provides fixed data boundaries for the conversation
// pipeline. These are behavior constants of the assistant, not tunables:
// changing them changes what users see, so they are compiled in rather
// than read from the environment.
package config

// Session memory bounds
const (
	// HistoryLimit is the maximum number of turns kept per conversation
	// (3 user/assistant pairs).
	HistoryLimit = 6

	// TurnCharLimit clamps a single stored turn before appending.
	TurnCharLimit = 1200
)

// Prompt assembly bounds
const (
	// CatalogCharBudget caps the serialized catalog inside the prompt.
	CatalogCharBudget = 18000

	// CatalogSubsetSize is how many leading catalog entries are substituted
	// when the full serialization exceeds CatalogCharBudget. The subset is
	// whole records only; a record is never cut mid-structure.
	CatalogSubsetSize = 40

	// TopKCandidates is how many retrieval candidates are surfaced to the
	// model as a ranking hint.
	TopKCandidates = 3
)

// Catalog entity list caps. Excess entries are dropped back-to-front
// (order of the retained prefix is preserved).
const (
	MaxLocalities        = 12
	MaxAddresses         = 8
	MaxSchedules         = 8
	MaxExtraRequirements = 8
	MaxMaterials         = 12
)

// Inbound message bounds
const (
	// MaxInboundTextLength drops absurdly long inbound messages before they
	// reach the pipeline.
	MaxInboundTextLength = 4096
)
