package catalog

// Kind enumerates the catalog object families MaterializedCatalog tracks,
// per spec.md §4.9.
type Kind uint8

const (
	KindNamespace Kind = iota
	KindTable
	KindView
	KindFlow
	KindRingBuffer
	KindDictionary
	KindPrimaryKey
	KindOperatorRetentionPolicy
	KindSourceRetentionPolicy
	KindSubscription
	KindVirtualTable
)

var allKinds = []Kind{
	KindNamespace, KindTable, KindView, KindFlow, KindRingBuffer,
	KindDictionary, KindPrimaryKey, KindOperatorRetentionPolicy,
	KindSourceRetentionPolicy, KindSubscription, KindVirtualTable,
}

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "Namespace"
	case KindTable:
		return "Table"
	case KindView:
		return "View"
	case KindFlow:
		return "Flow"
	case KindRingBuffer:
		return "RingBuffer"
	case KindDictionary:
		return "Dictionary"
	case KindPrimaryKey:
		return "PrimaryKey"
	case KindOperatorRetentionPolicy:
		return "OperatorRetentionPolicy"
	case KindSourceRetentionPolicy:
		return "SourceRetentionPolicy"
	case KindSubscription:
		return "Subscription"
	case KindVirtualTable:
		return "VirtualTable"
	default:
		return "Unknown"
	}
}
