// Package sqlitedb opens the SQLite databases realitease keeps on local disk
// and applies their embedded migrations.
//
// Connections use WAL journaling with a busy timeout, and RetryOnBusy backs
// off when a concurrent process holds the write lock, so several pipeline
// processes can share one file safely.
package sqlitedb
