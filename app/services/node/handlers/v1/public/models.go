package public

// submitTx is the payload for submitting a signed transaction.
type submitTx struct {
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Fee       float64 `json:"fee" validate:"gte=0"`
	Timestamp int64   `json:"timestamp" validate:"required"`
	Signature string  `json:"signature" validate:"required,len=130,hexadecimal"`
}

// unsignedTx is the transaction body of the learning-only signing endpoints.
type unsignedTx struct {
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Fee       float64 `json:"fee" validate:"gte=0"`
	Timestamp int64   `json:"timestamp" validate:"required"`
}

// signTx is the payload for the learning-only signing endpoints. Shipping
// private keys over the wire is acceptable here only because this system is
// a teaching tool.
type signTx struct {
	PublicKey   string     `json:"publicKeyHex" validate:"required,hexadecimal"`
	PrivateKey  string     `json:"privateKeyHex" validate:"required,hexadecimal"`
	Transaction unsignedTx `json:"transaction" validate:"required"`
}

// status describes the node for the status endpoint.
type status struct {
	NodeID        string   `json:"node_id"`
	MinerAddress  string   `json:"miner_address"`
	LatestHash    string   `json:"latest_block_hash"`
	LatestIndex   uint64   `json:"latest_block_index"`
	ChainHeight   int      `json:"chain_height"`
	MempoolLength int      `json:"mempool_length"`
	KnownPeers    []string `json:"known_peers"`
}
