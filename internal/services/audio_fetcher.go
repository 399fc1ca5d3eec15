package services

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// maxAudioBytes caps how much a single fetch may buffer
const maxAudioBytes = 200 << 20

// AudioFetcher loads audio resources named by a locator into memory
type AudioFetcher struct {
	client  *resty.Client
	baseURL string
}

// NewAudioFetcher creates a fetcher. Root-relative locators such as
// "/audio/x.mp3" resolve against baseURL when it is set.
func NewAudioFetcher(baseURL string) *AudioFetcher {
	client := resty.New().
		SetTimeout(60*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second)

	return &AudioFetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Fetch returns the bytes behind locator: an http(s) URL, a file:// URL or a local path
func (f *AudioFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if locator == "" {
		return nil, &RemoteError{Operation: "fetch_audio", Message: "empty locator"}
	}

	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return f.fetchHTTP(ctx, locator)
	case strings.HasPrefix(locator, "file://"):
		u, err := url.Parse(locator)
		if err != nil {
			return nil, &RemoteError{Operation: "fetch_audio", Message: "invalid file URL", Err: err}
		}
		return readLocal(u.Path)
	case strings.HasPrefix(locator, "/") && f.baseURL != "":
		if _, err := os.Stat(locator); err == nil {
			return readLocal(locator)
		}
		return f.fetchHTTP(ctx, f.baseURL+locator)
	default:
		return readLocal(locator)
	}
}

func (f *AudioFetcher) fetchHTTP(ctx context.Context, target string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(target)

	if err := checkResponse("fetch_audio", resp, err); err != nil {
		return nil, err
	}
	if len(resp.Body()) > maxAudioBytes {
		return nil, &RemoteError{Operation: "fetch_audio", Message: fmt.Sprintf("resource larger than %d bytes", maxAudioBytes)}
	}
	return resp.Body(), nil
}

func readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RemoteError{Operation: "fetch_audio", Message: "cannot read " + path, Err: err}
	}
	return data, nil
}
