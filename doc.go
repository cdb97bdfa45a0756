// Package margin models a margin brokerage account from its trades. It is
// designed to be local-first and auditable: every derived value can be
// recomputed from the recorded trades and settings.
//
// The core functionalities include:
//   - Lot Tracking: Matching closing trades against open lots with the FIFO or
//     LIFO cost basis method, splitting lots and computing the realized P&L.
//   - Interest Ledger: Accruing the daily interest on the debit balance with a
//     tiered rate schedule, day level rate overrides and a 360 or 365 day basis,
//     and recomputing only from the day of a change.
//   - Margin Requirements: Equity, maintenance requirement, buying power and
//     margin call detection, with per lot maintenance overrides.
//   - Pattern Day Trader: Counting day trades over the last 5 business days.
//   - Data Persistence: Encoding trades as JSONL or CSV, broker settings as YAML,
//     and the whole account state in a key value store.
//
// An Account is an immutable snapshot, changed by applying a Command. This
// package serves as the foundational logic for the `marg` command-line tool.
package margin
