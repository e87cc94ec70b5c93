/*
Package subspace partitions one ordered key-value store into nested,
isolated namespaces (“subspaces”) that share the physical keyspace but
never collide, while keeping the store's lexicographic ordering for range
reads.

We implement:

1. A prefix codec that turns a namespace path into an order-preserving
byte prefix.

2. A range translator that maps start/end/gt/gte/lt/lte/min/max/reverse
queries onto a bounded byte range inside one namespace.

3. Pre- and postcommit hooks that observe and rewrite writes, including
writes into other namespaces within the same atomic batch.

4. Adapters for several ordered stores: in-memory, Bolt (this package),
LevelDB, Badger and Pebble (sub-packages).

# Technical Details

**Namespace prefix.**
A path is encoded segment by segment. Each segment is 0xFF, then the
segment bytes with 0x00 and 0x01 escaped (0x00 → 01 01, 0x01 → 01 02),
then a 0x00 terminator. The root namespace has an empty prefix.

**Physical key.** prefix + encoded key. Keys never start with 0xFF, so
a namespace's own keys always sort before its child namespaces, and
prefix + 0xFF is an upper bound that covers the namespace but none of its
descendants. With HexKeys, the whole physical key is lower-case hex.

**Writes.** Put and Del are single-operation batches; every write goes
through the same precommit → encode → commit → postcommit pipeline.
*/
package subspace
