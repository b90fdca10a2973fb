// Package state persists pipeline progress outside the worksheets.
//
// Checkpoints record the keys each stage has fully written so an interrupted
// run resumes where it stopped. Leases give a worker exclusive, expiring
// ownership of a row range of one worksheet; claims are serialized across
// processes by a file lock next to the database, and a claim that overlaps a
// live lease of another owner fails with ErrRangeClaimed.
package state
