package pricing

// Field constants name the most commonly used price field keys carried in a
// PriceEvent's price map, ported from bidfx/pricing/field.py.
const (
	FieldAsk               = "Ask"
	FieldAskEndSize        = "AskEndSize"
	FieldAskExchange       = "AskExchange"
	FieldAskForwardPoints  = "AskForwardPoints"
	FieldAskID             = "AskID"
	FieldAskLevels         = "AskLevels"
	FieldAskFirm           = "AskFirm"
	FieldAskSize           = "AskSize"
	FieldAskSpot           = "AskSpot"
	FieldAskTick           = "AskTick"
	FieldAskTime           = "AskTime"
	FieldBid               = "Bid"
	FieldBidEndSize        = "BidEndSize"
	FieldBidExchange       = "BidExchange"
	FieldBidForwardPoints  = "BidForwardPoints"
	FieldBidID             = "BidID"
	FieldBidLevels         = "BidLevels"
	FieldBidFirm           = "BidFirm"
	FieldBidSize           = "BidSize"
	FieldBidSpot           = "BidSpot"
	FieldBidTick           = "BidTick"
	FieldBidTime           = "BidTime"
	FieldBroker            = "Broker"
	FieldClose             = "Close"
	FieldHigh              = "High"
	FieldLast              = "Last"
	FieldLastSize          = "LastSize"
	FieldLastTick          = "LastTick"
	FieldLow               = "Low"
	FieldNetChange         = "NetChange"
	FieldNumAsks           = "NumAsks"
	FieldNumBids           = "NumBids"
	FieldOpen              = "Open"
	FieldOpenInterest      = "OpenInterest"
	FieldOriginTime        = "OriginTime"
	FieldPercentChange     = "PercentChange"
	FieldPriceID           = "PriceID"
	FieldStrike            = "Strike"
	FieldVolume            = "Volume"
	FieldVWAP              = "VWAP"
)

// Price is an update's set of field values, keyed by the Field constants
// above (or any field name supplied by the upstream data dictionary).
type Price map[string]string

// Get returns the field value, or def if the field is absent.
func (p Price) Get(field, def string) string {
	if v, ok := p[field]; ok {
		return v
	}
	return def
}
