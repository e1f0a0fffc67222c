// Package core provides the normalization and consolidation logic for the
// government spreadsheet exports.
//
// The package has no I/O of its own: sheets come in through a [SheetReader] and
// tables leave through the artifact writers and the uploader. It can be used by the
// commands, other tools or tests without modification.
//
// # Pipeline
//
// A file goes through these steps in [Ingestor.IngestFile]:
//
//  1. The first sheet is read as a headerless [RawTable].
//  2. [FindDataStartRow] finds the header row below any title block.
//  3. [NormalizeHeader] maps each label to a canonical name through the
//     versioned [DefaultHeaderMap].
//  4. [NormalizeValues] standardizes the values of the known columns. If it fails
//     the header-normalized table is kept.
//
// The per-file tables are then stacked by [Consolidate], which first makes column
// names unique with [DedupeColumns].
//
// # Table Registry
//
// Destination tables are registered at init time using [Register]. Each
// [TableDefinition] tells [Remap] how to shape a consolidated table for upload:
//
//	core.Register(TableDefinition{
//	    Info: TableInfo{Key: "autorizacoes_uniao", Group: "Uniao"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "vagas", Type: FieldInteger},
//	    },
//	    MergeGroups: []MergeGroup{{Target: "dou_link", Sources: []string{"D_O_U", "DOU"}}},
//	    Renames:     map[string]string{"Vagas": "vagas"},
//	    DropPattern: "Unnamed",
//	})
//
// [ValidateColumns] reports remapped columns a definition does not declare.
//
// # Error Handling
//
// Technical errors are mapped to operator-facing messages using [MapError].
// Each category has a code for support reference:
//
//   - DB001-DB007: database constraints and connectivity
//   - VAL001-VAL004: values the destination refused
//   - API001-API005: REST endpoint responses
//   - FILE001-FILE003: spreadsheet reading
package core
