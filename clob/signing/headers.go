package signing

import (
	"context"
	"strconv"
	"time"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/wallet"
)

// CreateL1Headers 创建 L1 认证头（EIP712 签名验证）。
// timestamp 为 nil 时使用当前时间。
func CreateL1Headers(ctx context.Context, signer wallet.Signer, chainID types.Chain, nonce int64, timestamp *int64) (*types.L1PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	sig, err := SignClobAuth(ctx, signer, chainID, ts, nonce)
	if err != nil {
		return nil, err
	}

	return &types.L1PolyHeader{
		PolyAddress:   signer.Address().Hex(),
		PolySignature: sig,
		PolyTimestamp: strconv.FormatInt(ts, 10),
		PolyNonce:     strconv.FormatInt(nonce, 10),
	}, nil
}

// CreateL2Headers 创建 L2 认证头（API 密钥 + HMAC 验证）
func CreateL2Headers(address string, creds *types.ApiKeyCreds, args *types.L2HeaderArgs, timestamp *int64) (*types.L2PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	sig, err := BuildHmacSignature(creds.Secret, ts, args.Method, args.RequestPath, args.Body)
	if err != nil {
		return nil, err
	}

	return &types.L2PolyHeader{
		PolyAddress:    address,
		PolySignature:  sig,
		PolyTimestamp:  strconv.FormatInt(ts, 10),
		PolyAPIKey:     creds.Key,
		PolyPassphrase: creds.Passphrase,
	}, nil
}
