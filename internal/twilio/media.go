package twilio

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// maxMediaBytes - предел размера скачиваемого вложения (голосовые WhatsApp
// заметно меньше)
const maxMediaBytes = 16 << 20

// MediaClient скачивает вложения Twilio с базовой аутентификацией
type MediaClient struct {
	http       *http.Client
	accountSID string
	authToken  string
	breaker    *gobreaker.CircuitBreaker
}

func NewMediaClient(accountSID, authToken string, timeout time.Duration) *MediaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MediaClient{
		http:       &http.Client{Timeout: timeout},
		accountSID: accountSID,
		authToken:  authToken,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "twilio-media",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
		}),
	}
}

// Download скачивает вложение целиком
func (c *MediaClient) Download(ctx context.Context, media Media) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, media.URL, nil)
		if err != nil {
			return nil, err
		}
		if c.accountSID != "" {
			req.SetBasicAuth(c.accountSID, c.authToken)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
		if err != nil {
			return nil, err
		}
		if len(data) > maxMediaBytes {
			return nil, fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	return out.([]byte), nil
}

// Filename подбирает имя файла по MIME-типу, чтобы распознаватель понял формат
func Filename(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return "voice.mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return "voice.m4a"
	case "audio/wav", "audio/x-wav":
		return "voice.wav"
	case "audio/webm":
		return "voice.webm"
	case "audio/amr":
		return "voice.amr"
	default:
		return "voice.ogg"
	}
}
