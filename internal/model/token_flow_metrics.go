package model

// TokenFlowMetrics stores aggregated flows of one token through one pool.
type TokenFlowMetrics struct {
	PoolAddress     string
	Token           string
	FirstSequence   uint64
	LastSequence    uint64
	SwapsIn         uint64
	SwapsOut        uint64
	VolumeIn        string
	VolumeOut       string
	Joined          string
	Exited          string
	ReservesAccrued string
	ReservesDrained string
}
