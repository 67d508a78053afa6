// Package twilio разбирает вебхуки WhatsApp от Twilio, скачивает вложения
// и формирует TwiML-ответы.
package twilio

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/twilio/twilio-go/client"
	"github.com/twilio/twilio-go/twiml"
)

var (
	ErrInvalidSignature = errors.New("invalid twilio signature")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMissingSender    = errors.New("missing sender")
)

// Media - вложение входящего сообщения
type Media struct {
	URL         string
	ContentType string
}

// IsAudio сообщает, является ли вложение голосовым сообщением
func (m Media) IsAudio() bool {
	return strings.HasPrefix(strings.ToLower(m.ContentType), "audio/")
}

// Message - входящее сообщение WhatsApp
type Message struct {
	SID   string
	From  string
	To    string
	Body  string
	Media []Media
}

// ParseForm читает поля формы вебхука Twilio
func ParseForm(values url.Values) (Message, error) {
	msg := Message{
		SID:  values.Get("MessageSid"),
		From: values.Get("From"),
		To:   values.Get("To"),
		Body: values.Get("Body"),
	}
	if msg.From == "" {
		return msg, ErrMissingSender
	}

	n, _ := strconv.Atoi(values.Get("NumMedia"))
	for i := 0; i < n; i++ {
		u := values.Get(fmt.Sprintf("MediaUrl%d", i))
		if u == "" {
			continue
		}
		msg.Media = append(msg.Media, Media{
			URL:         u,
			ContentType: values.Get(fmt.Sprintf("MediaContentType%d", i)),
		})
	}
	return msg, nil
}

// Audio возвращает первое аудиовложение
func (m Message) Audio() (Media, bool) {
	for _, media := range m.Media {
		if media.IsAudio() {
			return media, true
		}
	}
	return Media{}, false
}

// HasOnlyUnsupportedMedia - вложения есть, но ни одного аудио и нет текста
func (m Message) HasOnlyUnsupportedMedia() bool {
	_, ok := m.Audio()
	return len(m.Media) > 0 && !ok && strings.TrimSpace(m.Body) == ""
}

// Validator проверяет подпись X-Twilio-Signature
type Validator struct {
	rv client.RequestValidator
}

func NewValidator(authToken string) *Validator {
	return &Validator{rv: client.NewRequestValidator(authToken)}
}

// Validate проверяет подпись для полного публичного URL и параметров формы
func (v *Validator) Validate(fullURL string, values url.Values, signature string) error {
	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	if !v.rv.Validate(fullURL, params, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// Reply формирует TwiML-документ с одним текстовым сообщением
func Reply(text string) (string, error) {
	doc, err := twiml.Messages([]twiml.Element{
		&twiml.MessagingMessage{Body: text},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build twiml: %w", err)
	}
	return doc, nil
}
