package types

import "time"

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 订单执行类型
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeGTD OrderType = "GTD" // Good Till Date - 指定日期前有效
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeFAK OrderType = "FAK" // Fill and Kill - 部分成交，剩余取消
)

// Valid 检查订单类型是否受支持
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeGTC, OrderTypeGTD, OrderTypeFOK, OrderTypeFAK:
		return true
	}
	return false
}

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 订单签名类型
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // EOA - 直接私钥签名
	SignatureTypeProxy      SignatureType = 1 // POLY_PROXY - 托管代理钱包
	SignatureTypeGnosisSafe SignatureType = 2 // GNOSIS_SAFE - Safe 智能合约钱包
)

// TickSize 价格精度
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ApiKeyCreds API 密钥凭证（通过 L1 签名从交易所换取）
type ApiKeyCreds struct {
	Key           string    `json:"key"`
	Secret        string    `json:"secret"`
	Passphrase    string    `json:"passphrase"`
	SignerAddress string    `json:"signerAddress"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}
