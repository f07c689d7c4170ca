/*
Package jotdb implements an embeddable document store on top of an ordered
key-value store (Bolt by default, with in-memory, Pebble and Badger backends
behind the same interface).

We implement:

1. Documents, arbitrary string-keyed maps persisted under opaque primary keys.

2. Queries, a small predicate language ($eq, $neq, $gt, $or) evaluated against
documents during a lazy forward scan of the primary store.

3. Indexes, named persisted mappings from one document field's values to
posting lists (ordered, deduplicated sequences of primary keys), supporting
equality and prefix search.

4. Batches, deferring index maintenance so a run of inserts pays for index
rebuilds once.

# Technical Details

**Buckets.**
We rely on scoped namespaces for keys called buckets. Bolt supports them
natively; the Pebble and Badger backends simulate them via key prefixes.
Documents live in the "docs" root bucket; each index owns a sub-bucket of
"idx" named after the index.

**Posting keys.**
A text index stores the raw field-value bytes as the posting key, so bytewise
cursor order is lexicographic order and prefix search is a seek plus a forward
scan. A number index stores an order-preserving big-endian encoding of the
float64 value.

**Metadata.**
Index definitions are persisted in a per-database artifact (meta.jot):
a msgpack body followed by an xxhash64 trailer, written via rename. It is read
once at Open and flushed on every index creation, on Open and on Close.
*/
package jotdb
