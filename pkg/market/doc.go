// Package market implements the in-memory marketplace core: the per-session
// schema, listing CRUD with path-addressed patching, conjunctive search with
// cursor pagination, and the error taxonomy shared by every layer above.
//
// A Store holds one session's state. Its tables mirror a relational layout:
//
//   - sellers: registered sellers, referenced by listings
//   - product_types: catalog entries with advisory attribute schemas
//   - listings: the central entity, keyed by (sellerId, sku)
//   - inventory: fulfillment stock per listing
//   - orders / order_items: seeded purchase history
//
// Only listings are exposed through CRUD; the remaining tables exist for
// referential checks, reset reporting, and state summaries.
//
// Thread Safety:
//
// All Store methods are safe for concurrent use. Reads return deep copies,
// writes are serialized by a store-wide RWMutex, and Exclusive hands the
// reseed engine the write lock for the whole clear-plus-replay window.
//
// Errors:
//
// Every failure is a typed error carrying an ErrorCode, an HTTP status, and
// often a remediation hint. ToErrorResponse converts any error to its wire
// form. Failed expectations in validation flows are results, not errors;
// this package's errors mean the request itself could not proceed.
package market
