package modules

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
	"github.com/ledgerkernel/txkernel/pkg/substate"
)

// TransactionRuntimeModule is the TransactionRuntime system module (spec
// §5): it owns the transaction hash pseudo-node and the deterministic id
// counter every NodeId and UUID is derived from, so that re-executing the
// same transaction always allocates the same identifiers.
type TransactionRuntimeModule struct {
	txHash [32]byte
	nextId uint64
}

func NewTransactionRuntimeModule(txHash [32]byte) *TransactionRuntimeModule {
	return &TransactionRuntimeModule{txHash: txHash}
}

// NextNodeId allocates the next deterministic NodeId for entityType: the
// low 8 bytes of sha256(tx_hash || next_id), tagged with entityType.
func (m *TransactionRuntimeModule) NextNodeId(entityType substate.EntityType) substate.NodeId {
	counter := m.nextId
	m.nextId++

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	h := sha256.New()
	h.Write(m.txHash[:])
	h.Write(counterBytes[:])
	digest := h.Sum(nil)

	var id substate.NodeId
	id.Type = entityType
	copy(id.Bytes[:], digest[len(digest)-8:])
	return id
}

// NextUUID allocates the next deterministic UUID, per spec §5: the low 128
// bits of sha256(tx_hash || next_id), formatted as a RFC 4122 UUID via
// google/uuid. Returns OutOfUuidError once the 32-bit id counter named in
// spec §9 is exhausted.
func (m *TransactionRuntimeModule) NextUUID() (uuid.UUID, error) {
	if m.nextId >= (1<<32)-1 {
		return uuid.UUID{}, &kernelerrors.OutOfUuidError{}
	}
	counter := m.nextId
	m.nextId++

	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	h := sha256.New()
	h.Write(m.txHash[:])
	h.Write(counterBytes[:])
	digest := h.Sum(nil)

	id, err := uuid.FromBytes(digest[len(digest)-16:])
	if err != nil {
		return uuid.UUID{}, kernelerrors.Wrap(err, "transaction runtime: failed to build uuid from digest")
	}
	return id, nil
}
