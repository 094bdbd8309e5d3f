package publisher

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

const (
	DefaultImageTimeout = 30 * time.Second

	maxImageBytes = 20 << 20
)

type imageData struct {
	data        []byte
	contentType string
	ext         string
}

// NewSafeImageClient returns a client that refuses private, loopback and
// metadata addresses, checked after DNS resolution.
func NewSafeImageClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	return safeurl.Client(config).Client
}

// fetchImage resolves an image reference to bytes. data: URIs are decoded
// locally; anything else is downloaded.
func (p *Publisher) fetchImage(ctx context.Context, ref string) (imageData, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, http.NoBody)
	if err != nil {
		return imageData{}, err
	}
	resp, err := p.imageClient.Do(req)
	if err != nil {
		return imageData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return imageData{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return imageData{}, err
	}
	if len(data) > maxImageBytes {
		return imageData{}, fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return imageData{}, fmt.Errorf("empty image")
	}
	return imageData{data: data, contentType: "image/jpeg", ext: ".jpg"}, nil
}

func decodeDataURI(ref string) (imageData, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return imageData{}, fmt.Errorf("unsupported data uri")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return imageData{}, fmt.Errorf("decode data uri: %w", err)
	}
	if len(data) == 0 {
		return imageData{}, fmt.Errorf("empty image")
	}
	img := imageData{data: data, contentType: "image/jpeg", ext: ".jpg"}
	if strings.TrimSuffix(meta, ";base64") == "image/png" {
		img.contentType, img.ext = "image/png", ".png"
	}
	return img, nil
}
