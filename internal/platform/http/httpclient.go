package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent は上流APIへ送るUser-Agentです。Yahoo Financeは既定のGoのUser-Agentを拒否することがあります。
const DefaultUserAgent = "stock-risk/1.0"

type clientOptions struct {
	userAgent       string
	maxConnsPerHost int
}

// ClientOption は NewHTTPClient の設定を変更します。
type ClientOption func(*clientOptions)

// WithUserAgent はリクエストに User-Agent が無い場合に ua を付与します。
func WithUserAgent(ua string) ClientOption {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithMaxConnsPerHost は1ホストあたりの同時接続数を n に制限します。
func WithMaxConnsPerHost(n int) ClientOption {
	return func(o *clientOptions) { o.maxConnsPerHost = n }
}

// NewHTTPClient は上流API（Yahoo Finance, Wikipedia）用のHTTPクライアントを作成します。
// timeout はリクエスト全体の上限です。接続とTLSハンドシェイクにはより短い上限を設けます。
func NewHTTPClient(timeout time.Duration, opts ...ClientOption) *http.Client {
	o := clientOptions{userAgent: DefaultUserAgent}
	for _, opt := range opts {
		opt(&o)
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	var rt http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     o.maxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	if o.userAgent != "" {
		rt = &userAgentTransport{next: rt, userAgent: o.userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	// RoundTripper は元のリクエストを変更してはいけない
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}
