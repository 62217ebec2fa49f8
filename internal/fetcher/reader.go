package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultReaderURL = "https://r.jina.ai/"

// ReaderFetcher renders pages through the Jina Reader service
// (r.jina.ai), which executes scripts server-side and returns plain text.
// Results carry Text only, so they suit keyword strategies but not
// selector strategies.
type ReaderFetcher struct {
	APIKey  string // Optional - works without auth but with rate limits
	BaseURL string // overridable for testing
	client  *http.Client
}

func NewReaderFetcher(apiKey string, timeout time.Duration) *ReaderFetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ReaderFetcher{
		APIKey:  apiKey,
		BaseURL: defaultReaderURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (rf *ReaderFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rf.BaseURL+url, nil)
	if err != nil {
		return nil, fmt.Errorf("reader: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/plain")
	if opts.WaitForSelector != "" {
		req.Header.Set("X-Wait-For-Selector", opts.WaitForSelector)
	}
	if rf.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+rf.APIKey)
	}

	resp, err := rf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reader: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("reader: rate limited - consider adding an API key: %w",
				&StatusError{Code: resp.StatusCode, Status: resp.Status})
		default:
			return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
		}
	}

	return &FetchResult{
		URL:        url,
		FinalURL:   readerField(string(body), "URL Source:"),
		StatusCode: resp.StatusCode,
		Text:       readerContent(string(body)),
		UsedJS:     true,
	}, nil
}

// readerField extracts a named header line from a reader response.
func readerField(content, field string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, field) {
			return strings.TrimSpace(strings.TrimPrefix(line, field))
		}
	}
	return ""
}

// readerContent strips the header block and markdown emphasis so numbers
// such as "**1.234** oglasa" stay on one plain line.
func readerContent(content string) string {
	const marker = "Markdown Content:"
	if idx := strings.Index(content, marker); idx != -1 {
		content = content[idx+len(marker):]
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "#")
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "__", "")
		lines[i] = strings.TrimSpace(trimmed)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
