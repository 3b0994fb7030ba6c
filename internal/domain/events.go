package domain

// Feed transaction types as reported by the PumpPortal stream.
const (
	TxTypeCreate = "create"
	TxTypeBuy    = "buy"
	TxTypeSell   = "sell"
)

// Event is a decoded feed message. Create events carry Mint and Name; trade
// events carry the amounts and bonding-curve figures.
type Event struct {
	TxType             string  `json:"txType"`
	Mint               string  `json:"mint"`
	Name               string  `json:"name"`
	SolAmount          float64 `json:"solAmount"`
	TokenAmount        float64 `json:"tokenAmount"`
	MarketCapSol       float64 `json:"marketCapSol"`
	VSolInBondingCurve float64 `json:"vSolInBondingCurve"`
}

// IsCreate reports whether this is a token discovery event.
func (e *Event) IsCreate() bool { return e.TxType == TxTypeCreate }

// IsTrade reports whether this is a buy or sell tick.
func (e *Event) IsTrade() bool { return e.TxType == TxTypeBuy || e.TxType == TxTypeSell }

// PriceSOL derives the per-unit price from the trade amounts. Returns zero
// when the token amount is zero so a malformed tick cannot divide by zero.
func (e *Event) PriceSOL() float64 {
	if e.TokenAmount == 0 {
		return 0
	}
	return e.SolAmount / e.TokenAmount
}
