// Package core provides the report pipeline for Order Execution Summary data.
//
// The package holds all domain logic independent of any transport. The web
// handlers and the CLI both drive it through [Service]; tests call the stages
// directly.
//
// # Pipeline
//
// A run is sequential and deterministic:
//
//  1. [CompileSchema] turns a schema document into column rules. A bad
//     document is a configuration error and no row is looked at.
//  2. [ValidateDataset] checks the header width, every cell ([ValidateCell])
//     and primary key uniqueness. Problems become diagnostics in a [Log].
//  3. [PartitionRows] groups rows by participant, entity and period in
//     first-seen order.
//  4. [AssembleSections] formats each partition ([FormatCell]) into a
//     [Section] with its labels, disclaimer and attached diagnostics.
//
// [Generate] runs all four stages and returns a [Report].
//
// # Diagnostics
//
// Data problems never fail a run. Each is a single line addressed as
// R{row}C{col}, kept in detection order and never deduplicated:
//
//	R3C5: OrderType 'X' is not one of MXXNN or LYNNN
//	R1, R5: Duplicate primary key A,X,202501,Y,MXXNN,250
//
// A diagnostic is shown in the section holding its row. Diagnostics without a
// row, or for a row no section holds, are kept in [Report.Unattached].
//
// # Service
//
// [Service] wraps [Generate] with what a shared deployment needs: a
// concurrency limit ([RunLimiter]), run IDs, a per-run timeout, metrics and a
// history record of every run. Parsing is injected as a [ParseFunc] so the
// core does not depend on file formats.
//
// # Error Handling
//
// Errors that stop a run are mapped to user-friendly messages using
// [MapError]. Each category has a code for support reference:
//
//   - SCH001-SCH004: Schema errors
//   - FILE001-FILE006: File errors (size, format, empty)
//   - RUN001-RUN004: Run errors (busy, cancelled, timeout, output format)
//   - RATE001: Rate limiting
package core
