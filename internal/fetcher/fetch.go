// Package fetcher retrieves XMLTV feed archives over HTTP and hands
// the extracted XML text to the parser. The rest of the pipeline only
// ever sees an xmltv.Document; transport and compression stay here.
package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/telavision/epgvault/internal/models"
	"github.com/telavision/epgvault/internal/xmltv"
)

// Client fetches feed archives from a single XMLTV publisher.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates a Client. baseURL is normalized to end with a single "/".
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the feed's zip archive, extracts the first .xml
// member and parses it.
func (c *Client) Fetch(ctx context.Context, feed models.Feed) (*xmltv.Document, error) {
	url := c.baseURL + feed.Archive
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w", url, err)
	}

	text, err := extractXML(body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	doc, err := xmltv.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return doc, nil
}

// extractXML returns the contents of the first .xml member of a zip
// archive.
func extractXML(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("read zip archive: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", f.Name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s from archive: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no XML file found in the archive")
}
