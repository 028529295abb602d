// Package fingerprint computes content digests for ingested files.
//
// A digest depends only on file bytes, so it identifies a file even after it
// has been moved or renamed. Two algorithms are available: a 128-bit keyed
// HighwayHash (the default) and MD5 for compatibility with existing ledgers.
//
//	h, err := fingerprint.New(fingerprint.Highway128, 64)
//	d, err := h.Fingerprint("/data/2024/sales.xlsx")
//
// Digests are memoized per path in a bounded LRU cache for the lifetime of
// the Hasher, so the ledger check and the ledger record for the same file
// read it only once.
package fingerprint
