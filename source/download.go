package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/selfupdate/progress"
)

const copyBufferSize = 81920

// ErrResponseTooLarge is returned when a metadata document exceeds its size
// limit.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned for non successful HTTP responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

func get(ctx context.Context, client *http.Client, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := clientOrDefault(client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		closeBody(resp)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// downloadToMemory fetches a small metadata document. Bodies larger than
// limit are rejected rather than truncated.
func downloadToMemory(ctx context.Context, client *http.Client, url string, header http.Header, limit int64) ([]byte, error) {
	resp, err := get(ctx, client, url, header)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, url, limit)
	}
	return data, nil
}

// downloadToFile streams url into dstFile, reporting progress when the
// response carries a content length.
func downloadToFile(ctx context.Context, client *http.Client, url string, header http.Header, dstFile string, reporter progress.Reporter) error {
	log.Debugf("starting download from %s", url)

	resp, err := get(ctx, client, url, header)
	if err != nil {
		return err
	}
	defer closeBody(resp)

	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("failed to create destination file %q: %w", dstFile, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warnf("error closing file %q: %v", dstFile, cerr)
		}
	}()

	if err := copyWithProgress(ctx, out, resp.Body, resp.ContentLength, reporter); err != nil {
		return fmt.Errorf("failed to write response body to file: %w", err)
	}

	log.Debugf("downloaded %s to %s", url, dstFile)
	return nil
}

// copyWithProgress copies in chunks, checking ctx between chunks. When total
// is not positive nothing is reported.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, reporter progress.Reporter) error {
	buf := make([]byte, copyBufferSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if total > 0 {
				progress.Report(reporter, float64(written)/float64(total))
			}
		}

		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		log.Warnf("error closing response body: %v", err)
	}
}
