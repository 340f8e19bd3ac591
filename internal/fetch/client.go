package fetch

import (
	"context"
	"net"
	"net/http"
	"time"
)

// 默认连接/读取超时。
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 10 * time.Second
)

// Doer 是发出 HTTP 请求的最小接口，测试中可注入计数用的假实现。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   16,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
}

// NewClient 返回带连接超时与逐次读取超时的 http.Client。读取超时作用于每一次
// socket 读取，而不是整个响应，以免大图在慢速网络下被整体超时截断。
func NewClient(connectTimeout, readTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := defaultTransport.Clone()
	transport.ResponseHeaderTimeout = readTimeout
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &deadlineConn{Conn: conn, readTimeout: readTimeout}, nil
	}

	return &http.Client{Transport: transport}
}

// deadlineConn 在每次 Read 前刷新读超时。
type deadlineConn struct {
	net.Conn
	readTimeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
