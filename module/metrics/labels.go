package metrics

const (
	namespaceBFT = "bft"

	subsystemHotstuff  = "hotstuff"
	subsystemLedger    = "ledger"
	subsystemNetwork   = "network"
	subsystemEventLoop = "event_loop"
)

const (
	LabelMessage     = "message"
	LabelReason      = "reason"
	LabelCertificate = "certificate"
	LabelVoteKind    = "kind"
)

const (
	CertificateQC = "qc"
	CertificateTC = "tc"

	VoteKindRegular = "regular"
	VoteKindTimeout = "timeout"
)
