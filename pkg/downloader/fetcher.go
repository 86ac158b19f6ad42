package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// 模拟浏览器的请求头，部分图床会拒绝非浏览器 UA
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"

	// 两次尝试之间的固定等待间隔
	retryDelay = 1000 * time.Millisecond
)

// Fetcher 带重试和超时的图片下载器
type Fetcher struct {
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	log        *logrus.Entry
}

// NewFetcher 创建下载器。timeout 是单次尝试的硬超时，
// maxRetries 是总尝试次数（至少 1 次）。
func NewFetcher(timeout time.Duration, maxRetries int, log *logrus.Entry) *Fetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Fetcher{
		client:     &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log,
	}
}

// Download 下载 URL 指向的原始字节。
// 最多尝试 maxRetries 次，每次失败后等待固定间隔（最后一次失败不再等待），
// 非 2xx 响应也算作该次尝试失败。全部尝试耗尽后返回确定性错误，
// 调用方把它当作"这一张图取不到"继续处理其他图片即可。
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte

	err := retry.Do(
		func() error {
			var attemptErr error
			data, attemptErr = f.attempt(ctx, rawURL)
			return attemptErr
		},
		retry.Attempts(uint(f.maxRetries)),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			f.log.Debugf("下载失败，准备第 %d 次重试: %s: %v", n+1, rawURL, err)
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "download failed after %d attempts: %s", f.maxRetries, rawURL)
	}

	return data, nil
}

// attempt 发起单次 GET 请求，超时后中断在途请求。
func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)

	// Referer 设置为图片 URL 自身的 origin
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", u.Scheme, u.Host))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return data, nil
}
