package analysis

import "time"

// StrikeAggregate merges the call and put contract at one strike of the
// analyzed expiration. A missing side leaves its fields at zero.
type StrikeAggregate struct {
	Strike           float64
	CallOpenInterest float64
	PutOpenInterest  float64
	CallVolume       float64
	PutVolume        float64
	CallDelta        float64
	PutDelta         float64
	CallGamma        float64
	PutGamma         float64
	CallBid          float64
	CallAsk          float64
	PutBid           float64
	PutAsk           float64
}

// GEXLevel is the gamma exposure at a single strike.
type GEXLevel struct {
	Strike  float64 `json:"strike"`
	CallGEX float64 `json:"callGEX"`
	PutGEX  float64 `json:"putGEX"`
	NetGEX  float64 `json:"netGEX"`
}

const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
)

type GEX struct {
	Resistance   *float64   `json:"resistance"`
	Support      *float64   `json:"support"`
	Zero         *float64   `json:"zero"`
	NetSentiment string     `json:"netSentiment"`
	TotalNetGEX  float64    `json:"totalNetGEX"`
	Levels       []GEXLevel `json:"levels"`
}

type Walls struct {
	CallWallByDelta *float64 `json:"callWallDelta"`
	PutWallByDelta  *float64 `json:"putWallDelta"`
	CallWallByOI    *float64 `json:"callWallOI"`
	PutWallByOI     *float64 `json:"putWallOI"`
}

type StrikeVolume struct {
	Strike     float64 `json:"strike"`
	Volume     float64 `json:"volume"`
	CallVolume float64 `json:"callVolume"`
	PutVolume  float64 `json:"putVolume"`
}

type VolumeProfile struct {
	PointOfControl    *float64       `json:"poc"`
	HighVolumeStrikes []float64      `json:"highVolumeStrikes"`
	TopVolumeStrikes  []StrikeVolume `json:"topVolumeStrikes"`
}

// StrikeOI pairs a strike with a single open interest figure.
type StrikeOI struct {
	Strike float64 `json:"strike"`
	OI     float64 `json:"oi"`
}

type StrikeOpenInterest struct {
	Strike  float64 `json:"strike"`
	TotalOI float64 `json:"totalOI"`
	CallOI  float64 `json:"callOI"`
	PutOI   float64 `json:"putOI"`
}

type BiggestStrikes struct {
	TotalOI      *StrikeOI            `json:"totalOI"`
	CallOI       *StrikeOI            `json:"callOI"`
	PutOI        *StrikeOI            `json:"putOI"`
	TopOIStrikes []StrikeOpenInterest `json:"topOIStrikes"`
}

type ExpectedRange struct {
	Low          float64 `json:"low"`
	High         float64 `json:"high"`
	Width        float64 `json:"width"`
	WidthPercent float64 `json:"widthPercent"`
}

// LevelSet holds every computed level for one analysis.
type LevelSet struct {
	MaxPain        float64        `json:"maxPain"`
	GEX            GEX            `json:"gex"`
	Walls          Walls          `json:"walls"`
	VolumeProfile  VolumeProfile  `json:"volumeProfile"`
	BiggestStrikes BiggestStrikes `json:"biggestStrikes"`
	ExpectedRange  ExpectedRange  `json:"expectedRange"`
}

type DataQuality struct {
	TotalCallOI              float64 `json:"totalCallOI"`
	TotalPutOI               float64 `json:"totalPutOI"`
	TotalCallVolume          float64 `json:"totalCallVolume"`
	TotalPutVolume           float64 `json:"totalPutVolume"`
	StrikesAnalyzed          int     `json:"strikesAnalyzed"`
	PutCallRatio             float64 `json:"putCallRatio"`
	ContractsReceived        int     `json:"contractsReceived"`
	MalformedContracts       int     `json:"malformedContracts"`
	OutOfBandContracts       int     `json:"outOfBandContracts"`
	OtherExpirationContracts int     `json:"otherExpirationContracts"`
}

// AnalysisResult is the terminal artifact of analyzing one ticker.
type AnalysisResult struct {
	Symbol             string      `json:"symbol"`
	CurrentPrice       float64     `json:"currentPrice"`
	PriceChange        float64     `json:"priceChange"`
	PriceChangePercent float64     `json:"priceChangePercent"`
	Expiration         string      `json:"expiration"`
	DaysToExpiration   int         `json:"daysToExpiration"`
	Levels             LevelSet    `json:"analysis"`
	DataQuality        DataQuality `json:"dataQuality"`
	Timestamp          time.Time   `json:"timestamp"`
}

func ptr[T any](v T) *T { return &v }
