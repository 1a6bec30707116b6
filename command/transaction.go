package command

import (
	"bytes"
	"fmt"

	"github.com/redbco/openwire-go/ids"
)

// TransactionType is the operation TransactionInfo requests.
type TransactionType byte

const (
	TransactionBegin TransactionType = iota
	TransactionCommitOnePhase
	TransactionCommitTwoPhase
	TransactionRollback
	TransactionEnd
	TransactionPrepare
	TransactionRecover
	TransactionForget
)

// TransactionId is the wire form of a local or XA transaction identifier.
// IsXA selects which fields are populated: LocalId for a local transaction,
// FormatId/GlobalTxId/BranchQualifier for an XA one (spec §4.3 transaction
// state machine).
type TransactionId struct {
	IsXA            bool
	LocalId         int64
	FormatId        int32
	GlobalTxId      []byte
	BranchQualifier []byte
}

// TransactionInfo drives the single-connection transaction state machine:
// NONE -> BEGUN -> ENDED -> PREPARED -> COMMITTED/ROLLED_BACK.
type TransactionInfo struct {
	BaseCommand
	ConnectionId ids.ConnectionId
	Transaction  *TransactionId
	Type         byte
}

func (c *TransactionInfo) DataStructureType() DataStructureType { return TypeTransactionInfo }

// String renders the id for logging: "TX:<local>" for a local transaction,
// "XID:<formatId>:<globalTxId>:<branchQualifier>" (hex) for an XA branch.
func (t *TransactionId) String() string {
	if t == nil {
		return "<nil>"
	}
	if !t.IsXA {
		return "TX:" + itoa(t.LocalId)
	}
	return "XID:" + itoa(int64(t.FormatId)) + ":" + hexBytes(t.GlobalTxId) + ":" + hexBytes(t.BranchQualifier)
}

func itoa(v int64) string {
	return fmt.Sprintf("%d", v)
}

func hexBytes(b []byte) string {
	return fmt.Sprintf("%x", b)
}

// Key returns a comparable value suitable as a map key for the connection
// kernel's per-transaction state table (spec §4.3); local ids key by their
// numeric value, XA ids by their three-part identity with the global id
// length-prefixed so no combination of global/branch bytes can collide.
func (t *TransactionId) Key() string {
	if !t.IsXA {
		return "L:" + itoa(t.LocalId)
	}
	return "X:" + itoa(int64(t.FormatId)) + ":" + itoa(int64(len(t.GlobalTxId))) + ":" + string(t.GlobalTxId) + string(t.BranchQualifier)
}

// Compare totally orders two XATransactionIds lexicographically by
// (FormatId, GlobalTxId, BranchQualifier), per spec §8's round-trip law
// compareTo(a,b) == -compareTo(b,a). Local transaction ids compare by
// LocalId alone; comparing a local id against an XA id is undefined by the
// spec and orders local ids before XA ids.
func (a *TransactionId) Compare(b *TransactionId) int {
	switch {
	case !a.IsXA && !b.IsXA:
		switch {
		case a.LocalId < b.LocalId:
			return -1
		case a.LocalId > b.LocalId:
			return 1
		default:
			return 0
		}
	case a.IsXA && !b.IsXA:
		return 1
	case !a.IsXA && b.IsXA:
		return -1
	}
	if a.FormatId != b.FormatId {
		if a.FormatId < b.FormatId {
			return -1
		}
		return 1
	}
	if c := bytes.Compare(a.GlobalTxId, b.GlobalTxId); c != 0 {
		return c
	}
	return bytes.Compare(a.BranchQualifier, b.BranchQualifier)
}
