package client

import (
	"strings"

	"github.com/betbot/polyrouter/clob/types"
	"github.com/betbot/polyrouter/pkg/ratelimit"
)

// Client CLOB 客户端。不持有密钥：所有需要签名的操作通过
// wallet.Signer 能力接口完成，凭证由调用方按用户传入。
type Client struct {
	host        string
	chainID     types.Chain
	httpClient  *httpClient
	rateLimiter *ratelimit.Manager
	retry       retryPolicy
}

// NewClient 创建新的 CLOB 客户端
func NewClient(host string, chainID types.Chain) *Client {
	return &Client{
		host:        strings.TrimSuffix(host, "/"),
		chainID:     chainID,
		httpClient:  newHTTPClient(host),
		rateLimiter: ratelimit.NewManager(),
		retry:       defaultRetryPolicy,
	}
}

// GetHost 获取主机地址
func (c *Client) GetHost() string {
	return c.host
}

// GetChainID 获取链 ID
func (c *Client) GetChainID() types.Chain {
	return c.chainID
}
