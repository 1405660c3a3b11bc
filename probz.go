/*
Package probz provides probabilistic data structures for approximate
membership, frequency, cardinality and quantile queries over streams.

The structures live in subpackages: filters (Bloom, Counting Bloom,
Scalable Bloom, Quotient, Cuckoo), count (Count-Min sketch,
HyperLogLog) and quantile (t-digest, q-digest). The bitset package
holds the shared bit-array and counting-bit-array backings, both
in-memory and redis-based.

The root package carries the shared error kinds and the process-wide
redis client used by the redis-backed backings.
*/
package probz
