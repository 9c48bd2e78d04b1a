package auditlog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// HashPrefix marks the hash algorithm in stored hashes.
const HashPrefix = "sha256:"

// Chain links the log to its predecessor and computes its hash.
// The repository calls it while holding the chain lock.
func (l *AuditLog) Chain(seq int64, prevHash string) {
	l.seq = seq
	l.prevHash = prevHash
	l.hash = l.ComputeHash()
}

// ComputeHash hashes the log's immutable fields together with the previous hash,
// so modifying any log invalidates every later one.
func (l *AuditLog) ComputeHash() string {
	userID := ""
	if l.userID != nil {
		userID = l.userID.String()
	}
	// encoding/json sorts map keys, which keeps this canonical.
	changes, err := json.Marshal(l.changes)
	if err != nil {
		changes = []byte("{}")
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s|%s|%s|%s|%s",
		l.prevHash, l.seq, l.timestamp.UTC().Format(time.RFC3339Nano),
		userID, l.action, l.resourceType, l.resourceID, l.status, changes)
	return HashPrefix + hex.EncodeToString(h.Sum(nil))
}

// VerifyResult is the outcome of verifying a run of logs.
type VerifyResult struct {
	Checked     int64
	BrokenAtSeq int64
	Reason      string
	LastHash    string
}

// Intact reports whether no break was found.
func (r VerifyResult) Intact() bool { return r.BrokenAtSeq == 0 }

// VerifyChain checks logs ordered by seq, starting after a log whose hash is prevHash.
func VerifyChain(logs []*AuditLog, prevHash string) VerifyResult {
	res := VerifyResult{LastHash: prevHash}
	for _, l := range logs {
		res.Checked++
		if l.prevHash != res.LastHash {
			res.BrokenAtSeq = l.seq
			res.Reason = "previous hash mismatch"
			return res
		}
		if l.ComputeHash() != l.hash {
			res.BrokenAtSeq = l.seq
			res.Reason = "content hash mismatch"
			return res
		}
		res.LastHash = l.hash
	}
	return res
}
