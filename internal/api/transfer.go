package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// progressInterval is the minimum spacing between transport progress reports.
const progressInterval = 100 * time.Millisecond

// maxPrealloc caps the buffer reserved up front from a Content-Length header.
const maxPrealloc = 600 << 20

// TransferProgress receives the bytes moved so far and the expected total.
// total is -1 when the server did not announce a length.
type TransferProgress func(done, total int64)

// progressReader counts bytes read through it and reports at most every
// progressInterval, plus once when the last byte has gone through.
type progressReader struct {
	r     io.Reader
	done  int64
	total int64
	fn    TransferProgress
	tick  *rate.Sometimes
}

func newProgressReader(r io.Reader, total int64, fn TransferProgress) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{
		r:     r,
		total: total,
		fn:    fn,
		tick:  &rate.Sometimes{First: 1, Interval: progressInterval},
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.done += int64(n)
		if p.done == p.total {
			p.fn(p.done, p.total)
		} else {
			p.tick.Do(func() { p.fn(p.done, p.total) })
		}
	}
	return n, err
}

// PutObject uploads ciphertext to a presigned URL.
func (c *Client) PutObject(ctx context.Context, uploadURL string, data []byte, onProgress TransferProgress) error {
	total := int64(len(data))
	body := newProgressReader(bytes.NewReader(data), total, onProgress)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := c.transferClient.Do(req)
	if err != nil {
		return &NetworkError{Err: unwrapURLError(err), URL: redactURL(uploadURL)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	c.logger.Debug("object uploaded",
		zap.String("url", redactURL(uploadURL)),
		zap.Int("status", resp.StatusCode),
		zap.Int64("bytes", total),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		return &APIError{
			StatusCode:   resp.StatusCode,
			Message:      "upload failed: " + http.StatusText(resp.StatusCode),
			ResourceType: ResourceObject,
		}
	}
	return nil
}

// GetObject downloads ciphertext from a presigned URL.
func (c *Client) GetObject(ctx context.Context, downloadURL string, onProgress TransferProgress) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: unwrapURLError(err), URL: redactURL(downloadURL)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode:   resp.StatusCode,
			Message:      "download failed: " + http.StatusText(resp.StatusCode),
			ResourceType: ResourceObject,
		}
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(min(resp.ContentLength, maxPrealloc)))
	}
	body := newProgressReader(resp.Body, resp.ContentLength, onProgress)
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, &NetworkError{Err: unwrapURLError(err), URL: redactURL(downloadURL)}
	}

	c.logger.Debug("object downloaded",
		zap.String("url", redactURL(downloadURL)),
		zap.Int("bytes", buf.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return buf.Bytes(), nil
}
