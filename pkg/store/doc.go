// Package store provides the non-volatile backing stores that nvrecord writes
// frames into.
//
// Two contracts are defined:
//
//   - FlatStore: a fixed-capacity byte array addressed by offset, modelled on
//     an emulated EEPROM sector. Access happens through a FlatSession that
//     buffers the sector and commits it on End.
//   - KVStore: a namespaced blob store addressed by short string keys,
//     modelled on an NVS partition. Access happens through a KVHandle whose
//     writes are staged until Commit.
//
// Realizations:
//
//	MemoryFlatStore  sector held in RAM
//	FileFlatStore    sector file mapped with mmap, committed with msync
//	MemoryKVStore    NVS emulation in RAM with a per-namespace byte quota
//	PebbleKVStore    cockroachdb/pebble, namespaces as key prefixes
//	SQLiteKVStore    SQLite, one transaction per read-write handle
//
// Every key-value realization reports a full namespace with ErrNotEnoughSpace
// and a missing key with ErrNotFound, so callers can react uniformly.
//
// Stores are meant for one caller at a time. Internal locks only protect
// bookkeeping; they do not make concurrent sessions or handles safe.
package store
