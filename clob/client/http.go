package client

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// HTTP 调试输出默认关闭（开启方式：设置环境变量 POLYROUTER_HTTP_DEBUG=1）
var httpDebug = os.Getenv("POLYROUTER_HTTP_DEBUG") != ""

// httpClient HTTP 客户端封装
type httpClient struct {
	client *http.Client
	host   string
}

// newHTTPClient 创建新的 HTTP 客户端（代理通过环境变量设置）
func newHTTPClient(host string) *httpClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		Proxy:               http.ProxyFromEnvironment,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
	}

	return &httpClient{
		client: client,
		host:   strings.TrimSuffix(host, "/"),
	}
}

// get 执行 GET 请求
func (h *httpClient) get(ctx context.Context, endpoint string, headers map[string]string, params map[string]string) (*http.Response, error) {
	reqURL := h.host + endpoint

	if len(params) > 0 {
		u, err := url.Parse(reqURL)
		if err != nil {
			return nil, fmt.Errorf("解析 URL 失败: %w", err)
		}
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if httpDebug {
		fmt.Printf("[HTTP DEBUG] GET %s\n", reqURL)
	}

	return h.client.Do(req)
}

// post 执行 POST 请求。rawBody 不为 nil 时按原样发送（与 L2 签名保持逐字节一致）。
func (h *httpClient) post(ctx context.Context, endpoint string, headers map[string]string, body interface{}, rawBody []byte) (*http.Response, error) {
	reqURL := h.host + endpoint

	var bodyReader io.Reader
	if rawBody != nil {
		bodyReader = bytes.NewReader(rawBody)
	} else if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("序列化请求体失败: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if httpDebug {
		fmt.Printf("[HTTP DEBUG] POST %s\n", reqURL)
	}

	return h.client.Do(req)
}

// delete 执行 DELETE 请求
func (h *httpClient) delete(ctx context.Context, endpoint string, headers map[string]string, params map[string]string) (*http.Response, error) {
	reqURL := h.host + endpoint
	if len(params) > 0 {
		u, err := url.Parse(reqURL)
		if err != nil {
			return nil, fmt.Errorf("解析 URL 失败: %w", err)
		}
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		reqURL = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	h.setDefaultHeaders(req)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.client.Do(req)
}

// setDefaultHeaders 设置默认请求头
func (h *httpClient) setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "polyrouter")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")

	if req.Method == http.MethodGet {
		req.Header.Set("Accept-Encoding", "gzip")
	}
}

// responseBody 读取响应体（处理 gzip 压缩）
func responseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("创建 gzip 读取器失败: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// parseResponse 解析响应
func parseResponse(resp *http.Response, result interface{}) error {
	bodyBytes, err := responseBody(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP 错误 %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("解析响应失败: %w, 响应体: %s", err, string(bodyBytes))
		}
	}

	return nil
}

// retryPolicy 重试策略：指数退避
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
}

// defaultRetryPolicy 默认重试策略（500ms 起步，每次 ×2，最多 4 次）
var defaultRetryPolicy = retryPolicy{
	maxAttempts: 4,
	baseDelay:   500 * time.Millisecond,
}

// backoff 在第 attempt 次失败后等待退避时间（attempt 从 1 开始）
func (p retryPolicy) backoff(ctx context.Context, attempt int) error {
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// retryableStatus 5xx 视为瞬时错误，可重试
func retryableStatus(statusCode int) bool {
	return statusCode >= 500
}
