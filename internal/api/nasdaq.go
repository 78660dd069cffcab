package api

import (
	"strings"

	"github.com/dgnsrekt/options-levels/internal/market"
)

type envelope[T any] struct {
	Data   *T             `json:"data"`
	Status envelopeStatus `json:"status"`
}

type envelopeStatus struct {
	RCode        int             `json:"rCode"`
	BCodeMessage []statusMessage `json:"bCodeMessage"`
}

type statusMessage struct {
	Code         int    `json:"code"`
	ErrorMessage string `json:"errorMessage"`
}

func (s envelopeStatus) message() string {
	msgs := make([]string, 0, len(s.BCodeMessage))
	for _, m := range s.BCodeMessage {
		if m.ErrorMessage != "" {
			msgs = append(msgs, m.ErrorMessage)
		}
	}
	return strings.Join(msgs, "; ")
}

type quoteData struct {
	Symbol      string `json:"symbol"`
	PrimaryData *struct {
		LastSalePrice    string `json:"lastSalePrice"`
		NetChange        string `json:"netChange"`
		PercentageChange string `json:"percentageChange"`
	} `json:"primaryData"`
}

type chainData struct {
	LastTrade string `json:"lastTrade"`
	Table     *struct {
		Headers struct {
			ExpiryDate string `json:"expiryDate"`
		} `json:"headers"`
		Rows []chainRow `json:"rows"`
	} `json:"table"`
	OptionChainList *struct {
		Rows []chainRow `json:"rows"`
	} `json:"optionChainList"`
}

// chainRow is one line of the side-by-side chain table. Rows without a
// strike are expiration group headers.
type chainRow struct {
	ExpiryGroup string `json:"expirygroup"`
	ExpiryDate  string `json:"expiryDate"`
	Strike      string `json:"strike"`

	CLast         string `json:"c_Last"`
	CBid          string `json:"c_Bid"`
	CAsk          string `json:"c_Ask"`
	CVolume       string `json:"c_Volume"`
	COpenInterest string `json:"c_Openinterest"`
	CDelta        string `json:"c_Delta"`
	CGamma        string `json:"c_Gamma"`
	CVega         string `json:"c_Vega"`
	CTheta        string `json:"c_Theta"`
	CIV           string `json:"c_IV"`

	PLast         string `json:"p_Last"`
	PBid          string `json:"p_Bid"`
	PAsk          string `json:"p_Ask"`
	PVolume       string `json:"p_Volume"`
	POpenInterest string `json:"p_Openinterest"`
	PDelta        string `json:"p_Delta"`
	PGamma        string `json:"p_Gamma"`
	PVega         string `json:"p_Vega"`
	PTheta        string `json:"p_Theta"`
	PIV           string `json:"p_IV"`
}

func (q *quoteData) toQuote() (*market.Quote, bool) {
	if q == nil || q.PrimaryData == nil {
		return nil, false
	}
	price := strings.TrimSpace(q.PrimaryData.LastSalePrice)
	if price == "" {
		return nil, false
	}
	spot := market.ParseNum(price)
	if !(spot > 0) {
		return nil, false
	}
	return &market.Quote{
		CurrentPrice:       spot,
		PriceChange:        market.ParseNum(q.PrimaryData.NetChange),
		PriceChangePercent: market.ParseNum(q.PrimaryData.PercentageChange),
	}, true
}

func (c *chainData) rows() []chainRow {
	switch {
	case c == nil:
		return nil
	case c.Table != nil && len(c.Table.Rows) > 0:
		return c.Table.Rows
	case c.OptionChainList != nil:
		return c.OptionChainList.Rows
	}
	return nil
}

func (c *chainData) defaultExpiration() string {
	if c.Table != nil && c.Table.Headers.ExpiryDate != "" {
		return c.Table.Headers.ExpiryDate
	}
	return c.LastTrade
}

// toContracts flattens the table into one call and one put contract per row.
func (c *chainData) toContracts() []market.RawContract {
	rows := c.rows()
	if len(rows) == 0 {
		return nil
	}

	contracts := make([]market.RawContract, 0, 2*len(rows))
	group := ""
	fallback := ""
	if c != nil {
		fallback = c.defaultExpiration()
	}

	for _, r := range rows {
		if strings.TrimSpace(r.Strike) == "" {
			if r.ExpiryGroup != "" {
				group = r.ExpiryGroup
			}
			continue
		}

		expiration := group
		if expiration == "" {
			expiration = r.ExpiryDate
		}
		if expiration == "" {
			expiration = fallback
		}

		contracts = append(contracts,
			market.RawContract{
				Strike:       r.Strike,
				Expiration:   expiration,
				Kind:         market.Call,
				Bid:          market.ParseNum(r.CBid),
				Ask:          market.ParseNum(r.CAsk),
				Last:         market.ParseNum(r.CLast),
				Volume:       market.ParseNum(r.CVolume),
				OpenInterest: market.ParseNum(r.COpenInterest),
				Greeks: market.Greeks{
					Delta:      market.ParseNum(r.CDelta),
					Gamma:      market.ParseNum(r.CGamma),
					Vega:       market.ParseNum(r.CVega),
					Theta:      market.ParseNum(r.CTheta),
					ImpliedVol: market.ParseNum(r.CIV),
				},
			},
			market.RawContract{
				Strike:       r.Strike,
				Expiration:   expiration,
				Kind:         market.Put,
				Bid:          market.ParseNum(r.PBid),
				Ask:          market.ParseNum(r.PAsk),
				Last:         market.ParseNum(r.PLast),
				Volume:       market.ParseNum(r.PVolume),
				OpenInterest: market.ParseNum(r.POpenInterest),
				Greeks: market.Greeks{
					Delta:      market.ParseNum(r.PDelta),
					Gamma:      market.ParseNum(r.PGamma),
					Vega:       market.ParseNum(r.PVega),
					Theta:      market.ParseNum(r.PTheta),
					ImpliedVol: market.ParseNum(r.PIV),
				},
			},
		)
	}
	return contracts
}
