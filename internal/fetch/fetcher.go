package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"

	"github.com/any-hub/imgcache/internal/imaging"
)

// Options 配置 Fetcher；零值字段使用默认值。
type Options struct {
	Client       Doer
	TargetWidth  int
	TargetHeight int
	UserAgent    string
}

// Fetcher 下载并解码图片，结果在受约束的轴上不小于目标尺寸。
type Fetcher struct {
	client    Doer
	width     int
	height    int
	userAgent string
}

// New 构造 Fetcher。
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = NewClient(DefaultConnectTimeout, DefaultReadTimeout)
	}
	width := opts.TargetWidth
	if width <= 0 {
		width = imaging.DefaultTargetWidth
	}
	height := opts.TargetHeight
	if height <= 0 {
		height = imaging.DefaultTargetHeight
	}
	return &Fetcher{
		client:    client,
		width:     width,
		height:    height,
		userAgent: opts.UserAgent,
	}
}

// Fetch 执行两次 GET：第一次只解析尺寸，第二次按缩放因子解码像素。
// 任一步失败都返回 *Error，不会返回部分结果。
func (f *Fetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	probe, err := f.open(ctx, url)
	if err != nil {
		return nil, err
	}
	cfg, _, err := imaging.ProbeBounds(probe)
	probe.Close()
	if err != nil {
		return nil, readError(url, err)
	}

	sample := imaging.SampleSize(cfg.Width, cfg.Height, f.width, f.height)

	// 第一次请求的流已被消费，需要重新打开。
	body, err := f.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	img, err := imaging.DecodeSampled(body, sample)
	if err != nil {
		return nil, readError(url, err)
	}
	return img, nil
}

func (f *Fetcher) open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, networkError(url, 0, fmt.Errorf("build request: %w", err))
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, networkError(url, 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, networkError(url, resp.StatusCode, nil)
	}
	return resp.Body, nil
}

// readError 区分解码过程中的 socket 错误（超时、连接重置）与真正的格式错误。
func readError(url string, err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return networkError(url, 0, err)
	}
	return decodeError(url, err)
}
