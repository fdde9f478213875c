package signing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/wallet"
)

// BuildClobAuthTypedData 构建 L1 认证的 EIP712 typed data。
// 同一 (地址, nonce, timestamp) 的消息是确定性的：交易所把重复签名视为
// 幂等的凭证推导请求。
func BuildClobAuthTypedData(address string, chainID types.Chain, timestamp int64, nonce int64) apitypes.TypedData {
	domain := apitypes.TypedDataDomain{
		Name:    ClobDomainName,
		Version: ClobVersion,
		ChainId: math.NewHexOrDecimal256(int64(chainID)),
	}

	typeDefs := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
		},
		"ClobAuth": {
			{Name: "address", Type: "address"},
			{Name: "timestamp", Type: "string"},
			{Name: "nonce", Type: "uint256"},
			{Name: "message", Type: "string"},
		},
	}

	message := map[string]interface{}{
		"address":   address,
		"timestamp": fmt.Sprintf("%d", timestamp),
		"nonce":     big.NewInt(nonce),
		"message":   MsgToSign,
	}

	return apitypes.TypedData{
		Types:       typeDefs,
		PrimaryType: "ClobAuth",
		Domain:      domain,
		Message:     message,
	}
}

// SignClobAuth 通过签名能力接口签名 L1 认证消息
func SignClobAuth(ctx context.Context, signer wallet.Signer, chainID types.Chain, timestamp int64, nonce int64) (string, error) {
	typedData := BuildClobAuthTypedData(signer.Address().Hex(), chainID, timestamp, nonce)
	sig, err := signer.SignTypedData(ctx, typedData)
	if err != nil {
		return "", fmt.Errorf("签名 L1 认证消息失败: %w", err)
	}
	return sig, nil
}
