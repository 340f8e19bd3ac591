// Package catalog fetches the remote image list: a JSON array of
// {"id": ..., "imageUrl": ...} objects.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/any-hub/imgcache/internal/fetch"
)

// Image 为目录中的一项。
type Image struct {
	ID  string `json:"id"`
	URL string `json:"imageUrl"`
}

// Client 拉取图片目录。
type Client struct {
	url    string
	client fetch.Doer
}

// NewClient 构造目录客户端，client 为空时使用带默认超时的 http.Client。
func NewClient(url string, client fetch.Doer) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("catalog url required")
	}
	if client == nil {
		client = fetch.NewClient(fetch.DefaultConnectTimeout, fetch.DefaultReadTimeout)
	}
	return &Client{url: url, client: client}, nil
}

// URL 返回目录地址。
func (c *Client) URL() string {
	return c.url
}

// Fetch 返回目录中的图片；缺少 id 或 imageUrl 的条目会被跳过。
func (c *Client) Fetch(ctx context.Context) ([]Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch catalog: HTTP %d", resp.StatusCode)
	}

	var raw []Image
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	images := make([]Image, 0, len(raw))
	for _, item := range raw {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.URL) == "" {
			continue
		}
		images = append(images, item)
	}
	return images, nil
}
