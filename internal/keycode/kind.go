package keycode

// KeyKind is the second byte of every EncodedKey, identifying the category
// of datum the remaining bytes describe. It is a closed set: adding a
// variant here without updating ExcludedFromCDC is caught by
// TestAllKeyKindsHaveExplicitCDCDecision.
type KeyKind uint8

const (
	KindNamespace KeyKind = iota + 1
	KindTable
	KindView
	KindRingBuffer
	KindFlow
	KindFlowNode
	KindFlowEdge
	KindRow
	KindColumn
	KindIndex
	KindIndexEntry
	KindCdcConsumer
	KindFlowNodeState
	KindFlowNodeInternalState
	KindNamespaceSequence
	KindTableSequence
	KindColumnSequence
	KindFlowSequence
	KindDictionary
	KindSystemVersion
	KindTransactionVersion
	KindStorageTracker
	KindSourceRetentionPolicy
	KindOperatorRetentionPolicy
)

// allKinds lists every declared KeyKind, in declaration order. Kept in sync
// manually; TestAllKeyKindsHaveExplicitCDCDecision fails loudly if a new
// constant above is not added here.
var allKinds = []KeyKind{
	KindNamespace, KindTable, KindView, KindRingBuffer, KindFlow, KindFlowNode,
	KindFlowEdge, KindRow, KindColumn, KindIndex, KindIndexEntry,
	KindCdcConsumer, KindFlowNodeState, KindFlowNodeInternalState,
	KindNamespaceSequence, KindTableSequence, KindColumnSequence,
	KindFlowSequence, KindDictionary, KindSystemVersion,
	KindTransactionVersion, KindStorageTracker, KindSourceRetentionPolicy,
	KindOperatorRetentionPolicy,
}

func (k KeyKind) String() string {
	switch k {
	case KindNamespace:
		return "Namespace"
	case KindTable:
		return "Table"
	case KindView:
		return "View"
	case KindRingBuffer:
		return "RingBuffer"
	case KindFlow:
		return "Flow"
	case KindFlowNode:
		return "FlowNode"
	case KindFlowEdge:
		return "FlowEdge"
	case KindRow:
		return "Row"
	case KindColumn:
		return "Column"
	case KindIndex:
		return "Index"
	case KindIndexEntry:
		return "IndexEntry"
	case KindCdcConsumer:
		return "CdcConsumer"
	case KindFlowNodeState:
		return "FlowNodeState"
	case KindFlowNodeInternalState:
		return "FlowNodeInternalState"
	case KindNamespaceSequence:
		return "NamespaceSequence"
	case KindTableSequence:
		return "TableSequence"
	case KindColumnSequence:
		return "ColumnSequence"
	case KindFlowSequence:
		return "FlowSequence"
	case KindDictionary:
		return "Dictionary"
	case KindSystemVersion:
		return "SystemVersion"
	case KindTransactionVersion:
		return "TransactionVersion"
	case KindStorageTracker:
		return "StorageTracker"
	case KindSourceRetentionPolicy:
		return "SourceRetentionPolicy"
	case KindOperatorRetentionPolicy:
		return "OperatorRetentionPolicy"
	default:
		return "Unknown"
	}
}

// ExcludedFromCDC is the sole arbiter of whether writes to keys of this kind
// produce a CDC record. Sequences, version counters, checkpoints, storage
// trackers, ring-buffer metadata, and operator internal/visible state never
// reach the CDC log: they describe storage bookkeeping, not user data.
func ExcludedFromCDC(k KeyKind) bool {
	switch k {
	case KindFlowNodeState,
		KindFlowNodeInternalState,
		KindCdcConsumer,
		KindStorageTracker,
		KindNamespaceSequence,
		KindTableSequence,
		KindColumnSequence,
		KindFlowSequence,
		KindSystemVersion,
		KindTransactionVersion,
		KindRingBuffer,
		KindIndex:
		return true
	case KindNamespace,
		KindTable,
		KindView,
		KindFlow,
		KindFlowNode,
		KindFlowEdge,
		KindRow,
		KindColumn,
		KindIndexEntry,
		KindDictionary,
		KindSourceRetentionPolicy,
		KindOperatorRetentionPolicy:
		return false
	default:
		// An unreachable default for a closed enum would hide a missing
		// decision; TestAllKeyKindsHaveExplicitCDCDecision exercises every
		// member of allKinds directly so this branch is never taken there.
		return true
	}
}
