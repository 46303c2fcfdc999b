// Package tdledger converts a brokerage transaction history into balanced
// double-entry ledger entries.
//
// The conversion runs in passes:
//   - Dispatch: each raw transaction is routed on its (type, description)
//     pair to a posting builder producing transactions, notes and commodity
//     declarations. A units-only balance is kept along the way, option
//     removals read it to decide their sign.
//   - Booking: reductions are matched against the lots held, FIFO or LIFO,
//     and the elided P&L postings are filled with the transaction residual.
//   - Matching: a reduction and the last entry opening its position share a
//     "trade-" link.
//   - Sequencing: entries already present in an existing ledger are pruned,
//     the rest is ordered by date, optionally grouped by underlying.
//
// Entries are written as plain-text ledger directives or as JSON lines, the
// latter being read back to prune a later import.
//
// This package serves as the foundational logic for the `tdl` command-line
// tool.
package tdledger
