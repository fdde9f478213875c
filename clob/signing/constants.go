package signing

const (
	// ClobDomainName L1 认证 EIP712 域名名称
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion EIP712 版本
	ClobVersion = "1"

	// MsgToSign L1 认证签名消息（绑定钱包所有权声明）
	MsgToSign = "This message attests that I control the given wallet"

	// ExchangeDomainName 订单签名 EIP712 域名名称
	ExchangeDomainName = "Polymarket CTF Exchange"

	// ExchangeVersion 订单签名 EIP712 版本
	ExchangeVersion = "1"
)
