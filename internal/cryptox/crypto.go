// Package cryptox holds the ballot receipt digest shared by the server,
// which issues receipts, and the client, which checks them.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// BallotDigest returns the hex-encoded SHA3-256 digest of a ballot.
//
// The digest input is the voter, the candidate and the timestamp in
// RFC 3339 (nanosecond precision, UTC), separated by NUL bytes so that
// field boundaries cannot be shifted. The same ballot always produces the
// same digest on both sides of the wire.
//
// Example:
//
//	receipt := cryptox.BallotDigest("alice", "candidate1", ts)
//	fmt.Println(receipt) // 64 hex characters
func BallotDigest(voter, candidate string, timestamp time.Time) string {
	var b strings.Builder
	b.WriteString(voter)
	b.WriteByte(0)
	b.WriteString(candidate)
	b.WriteByte(0)
	b.WriteString(timestamp.UTC().Format(time.RFC3339Nano))

	sum := sha3.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ReceiptMatches reports whether receipt is the digest of the given ballot.
// The comparison runs in constant time.
func ReceiptMatches(receipt, voter, candidate string, timestamp time.Time) bool {
	want := BallotDigest(voter, candidate, timestamp)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(receipt)), []byte(want)) == 1
}
