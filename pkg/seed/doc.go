// Package seed holds the canonical dataset and the reset engine. A reset
// clears every table children-first, then replays the seed steps parents-
// first, as one atomic unit against the target store. The dataset is fixed:
// eight sellers, nine product types, 52 listings, matching inventory, and
// a handful of orders, all timestamped relative to a constant epoch so two
// resets produce byte-identical state.
package seed
