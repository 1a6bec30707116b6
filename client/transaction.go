package client

import (
	"context"

	"github.com/redbco/openwire-go/command"
	"github.com/redbco/openwire-go/wireerr"
)

// txnEntry is the connection kernel's bookkeeping for one in-flight
// transaction: its wire id plus its current state-machine position (spec
// §4.3). Terminal states (COMMITTED/ROLLED_BACK) are never stored — the
// map entry is deleted the moment one is reached.
type txnEntry struct {
	id    *command.TransactionId
	state transactionState
}

// beginLocalTransaction allocates a fresh LocalTransactionId and drives it
// through NONE -> BEGUN (spec §4.3 transaction state machine).
func (k *ConnectionKernel) beginLocalTransaction(ctx context.Context) (*command.TransactionId, error) {
	txn := &command.TransactionId{LocalId: k.nextSessionValue()}
	info := &command.TransactionInfo{
		ConnectionId: k.id,
		Transaction:  txn,
		Type:         byte(command.TransactionBegin),
	}
	info.SetResponseRequired(true)
	if _, err := k.syncRequest(ctx, info); err != nil {
		return nil, err
	}
	key := txn.Key()
	k.txnMu.Lock()
	k.txns[key] = &txnEntry{id: txn, state: txnBegun}
	k.order = append(k.order, key)
	k.txnMu.Unlock()
	return txn, nil
}

// transition enforces the state machine in spec §4.3: an invalid
// transition is a KindIllegalState error, never a silent no-op.
func (k *ConnectionKernel) transition(txn *command.TransactionId, want transactionState, allowedFrom ...transactionState) error {
	key := txn.Key()
	k.txnMu.Lock()
	defer k.txnMu.Unlock()
	entry, ok := k.txns[key]
	if !ok {
		return wireerr.IllegalState("transaction: %s has no active state (already completed or never begun)", txn)
	}
	for _, from := range allowedFrom {
		if entry.state == from {
			entry.state = want
			return nil
		}
	}
	return wireerr.IllegalState("transaction: %s cannot move from its current state to the requested one", txn)
}

func (k *ConnectionKernel) purgeTransaction(txn *command.TransactionId) {
	key := txn.Key()
	k.txnMu.Lock()
	delete(k.txns, key)
	for i, o := range k.order {
		if o == key {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
	k.txnMu.Unlock()
}

// endTransaction marks a two-phase transaction ENDED, sent before Prepare.
func (k *ConnectionKernel) endTransaction(ctx context.Context, txn *command.TransactionId) error {
	if err := k.transition(txn, txnEnded, txnBegun); err != nil {
		return err
	}
	info := &command.TransactionInfo{ConnectionId: k.id, Transaction: txn, Type: byte(command.TransactionEnd)}
	info.SetResponseRequired(true)
	_, err := k.syncRequest(ctx, info)
	return err
}

// prepareTransaction marks an ENDED two-phase transaction PREPARED.
func (k *ConnectionKernel) prepareTransaction(ctx context.Context, txn *command.TransactionId) error {
	if err := k.transition(txn, txnPrepared, txnEnded); err != nil {
		return err
	}
	info := &command.TransactionInfo{ConnectionId: k.id, Transaction: txn, Type: byte(command.TransactionPrepare)}
	info.SetResponseRequired(true)
	_, err := k.syncRequest(ctx, info)
	return err
}

// commitOnePhase commits a BEGUN transaction directly, skipping End/Prepare
// (spec §4.3: "BEGUN -> COMMITTED (CommitOnePhase)").
func (k *ConnectionKernel) commitOnePhase(ctx context.Context, txn *command.TransactionId) error {
	if err := k.transition(txn, txnBegun, txnBegun); err != nil {
		return err
	}
	info := &command.TransactionInfo{ConnectionId: k.id, Transaction: txn, Type: byte(command.TransactionCommitOnePhase)}
	info.SetResponseRequired(true)
	_, err := k.syncRequest(ctx, info)
	k.purgeTransaction(txn)
	return err
}

// commitTwoPhase commits a PREPARED transaction.
func (k *ConnectionKernel) commitTwoPhase(ctx context.Context, txn *command.TransactionId) error {
	if err := k.transition(txn, txnPrepared, txnPrepared); err != nil {
		return err
	}
	info := &command.TransactionInfo{ConnectionId: k.id, Transaction: txn, Type: byte(command.TransactionCommitTwoPhase)}
	info.SetResponseRequired(true)
	_, err := k.syncRequest(ctx, info)
	k.purgeTransaction(txn)
	return err
}

// rollbackTransaction rolls back from either BEGUN or PREPARED.
func (k *ConnectionKernel) rollbackTransaction(ctx context.Context, txn *command.TransactionId) error {
	if err := k.transition(txn, txnBegun, txnBegun, txnPrepared); err != nil {
		return err
	}
	info := &command.TransactionInfo{ConnectionId: k.id, Transaction: txn, Type: byte(command.TransactionRollback)}
	info.SetResponseRequired(true)
	_, err := k.syncRequest(ctx, info)
	k.purgeTransaction(txn)
	return err
}

// Recover returns the transactions this connection kernel currently
// believes are PREPARED, in the order they were begun (spec §4.3
// "Recover returns the list of prepared ids").
func (k *ConnectionKernel) Recover() []*command.TransactionId {
	k.txnMu.Lock()
	defer k.txnMu.Unlock()
	var out []*command.TransactionId
	for _, key := range k.order {
		if entry := k.txns[key]; entry != nil && entry.state == txnPrepared {
			out = append(out, entry.id)
		}
	}
	return out
}

// Forget discards a transaction's bookkeeping without committing or
// rolling it back (spec §4.3 "Forget discards one").
func (k *ConnectionKernel) Forget(txn *command.TransactionId) {
	k.purgeTransaction(txn)
}
