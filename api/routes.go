package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// PoolEndpoint returns the pool statistics
	PoolEndpoint = "/pool"

	// DepositsEndpoint is the endpoint for submitting a deposit
	DepositsEndpoint = "/deposits"
	// WithdrawalsEndpoint is the endpoint for submitting a withdrawal
	WithdrawalsEndpoint = "/withdrawals"
	// RagequitsEndpoint is the endpoint for submitting a ragequit
	RagequitsEndpoint = "/ragequits"
	// WindDownEndpoint is the endpoint for winding down the pool (admin only)
	WindDownEndpoint = "/winddown"

	// RootEndpoint returns the current state root
	RootEndpoint = "/roots/latest"
	// KnownRootEndpoint reports whether a root is in the root history
	RootURLParam      = "root"
	KnownRootEndpoint = "/roots/{" + RootURLParam + "}"

	// LeavesEndpoint returns the leaves in the [from, to) range
	LeavesEndpoint = "/leaves"
	// LeafProofEndpoint returns the inclusion proof of a leaf index
	IndexURLParam     = "index"
	LeafProofEndpoint = "/leaves/{" + IndexURLParam + "}/proof"
	// CommitmentEndpoint returns the inclusion proof of a commitment
	CommitmentURLParam = "commitment"
	CommitmentEndpoint = "/commitments/{" + CommitmentURLParam + "}"

	// NullifierEndpoint reports whether a nullifier hash is spent
	NullifierURLParam = "nullifier"
	NullifierEndpoint = "/nullifiers/{" + NullifierURLParam + "}"

	// DepositorEndpoint returns the depositor of a label
	LabelURLParam     = "label"
	DepositorEndpoint = "/labels/{" + LabelURLParam + "}"

	// EventsEndpoint returns the event log, paginated with from and limit
	EventsEndpoint = "/events"

	// ApprovalRootsEndpoint publishes (POST) or lists (GET) the approval
	// set roots
	ApprovalRootsEndpoint = "/asp/roots"
	// LatestApprovalRootEndpoint returns the latest approval set root
	LatestApprovalRootEndpoint = "/asp/roots/latest"

	// BalanceEndpoint returns the balance of an account in the native
	// ledger. Only available when the pool runs with native assets.
	AddressURLParam = "address"
	BalanceEndpoint = "/balances/{" + AddressURLParam + "}"
)

// Query parameters.
const (
	FromQueryParam  = "from"
	ToQueryParam    = "to"
	LimitQueryParam = "limit"
)
