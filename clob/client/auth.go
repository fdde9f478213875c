package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/betbot/polyrouter/clob/signing"
	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/wallet"
)

// DeriveOrCreateAPIKey 推导或创建 API 密钥（L1 方法）。
// 先尝试推导现有密钥；交易所返回 400 表示账户还没有密钥，转而创建。
// 网络/5xx 错误按重试策略重试；交易所拒绝签名不重试。
func (c *Client) DeriveOrCreateAPIKey(ctx context.Context, signer wallet.Signer, nonce int64) (*types.ApiKeyCreds, error) {
	if err := c.rateLimiter.Wait(ctx, "clob:auth"); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	headers, err := signing.CreateL1Headers(ctx, signer, c.chainID, nonce, nil)
	if err != nil {
		return nil, err
	}
	headerMap := headers.Map()

	var lastErr error
	for attempt := 1; attempt <= c.retry.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.retry.backoff(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		creds, retryable, err := c.exchangeCredentials(ctx, signer, headerMap)
		if err == nil {
			return creds, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, &types.TransientNetworkError{Attempts: c.retry.maxAttempts, Err: lastErr}
}

// exchangeCredentials 执行一次推导→创建流程。
// 第二个返回值表示错误是否可重试。
func (c *Client) exchangeCredentials(ctx context.Context, signer wallet.Signer, headerMap map[string]string) (*types.ApiKeyCreds, bool, error) {
	resp, err := c.httpClient.get(ctx, EndpointDeriveAPIKey, headerMap, nil)
	if err != nil {
		return nil, true, fmt.Errorf("推导 API 密钥失败: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var raw types.ApiKeyRaw
		if err := parseResponse(resp, &raw); err != nil {
			return nil, false, fmt.Errorf("解析 API 密钥响应失败: %w", err)
		}
		return newCreds(&raw, signer), false, nil

	case resp.StatusCode == http.StatusBadRequest:
		// 400：账户还没有 API 密钥，走创建流程
		_, _ = responseBody(resp)

	case retryableStatus(resp.StatusCode):
		body, _ := responseBody(resp)
		return nil, true, fmt.Errorf("推导 API 密钥失败: HTTP %d: %s", resp.StatusCode, string(body))

	default:
		body, _ := responseBody(resp)
		return nil, false, &types.CredentialExchangeFailedError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	resp, err = c.httpClient.post(ctx, EndpointCreateAPIKey, headerMap, map[string]interface{}{}, nil)
	if err != nil {
		return nil, true, fmt.Errorf("创建 API 密钥失败: %w", err)
	}

	if retryableStatus(resp.StatusCode) {
		body, _ := responseBody(resp)
		return nil, true, fmt.Errorf("创建 API 密钥失败: HTTP %d: %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := responseBody(resp)
		return nil, false, &types.CredentialExchangeFailedError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var raw types.ApiKeyRaw
	if err := parseResponse(resp, &raw); err != nil {
		return nil, false, fmt.Errorf("解析 API 密钥响应失败: %w", err)
	}
	return newCreds(&raw, signer), false, nil
}

func newCreds(raw *types.ApiKeyRaw, signer wallet.Signer) *types.ApiKeyCreds {
	return &types.ApiKeyCreds{
		Key:           raw.ApiKey,
		Secret:        raw.Secret,
		Passphrase:    raw.Passphrase,
		SignerAddress: signer.Address().Hex(),
		IssuedAt:      time.Now().UTC(),
	}
}
