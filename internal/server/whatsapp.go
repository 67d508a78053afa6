package server

import (
	"bytes"
	"context"
	"io"

	"github.com/ivanoskov/budget_bot/internal/model"
	"github.com/ivanoskov/budget_bot/internal/service"
	"github.com/ivanoskov/budget_bot/internal/twilio"
)

// Tracker - ядро бота, см. service.ExpenseTracker
type Tracker interface {
	HandleMessage(ctx context.Context, in service.Inbound) string
	HandleFailure(ctx context.Context, userID, source, collaborator string, err error) string
}

// Transcriber переводит голосовое сообщение в текст
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// MediaDownloader скачивает вложение сообщения
type MediaDownloader interface {
	Download(ctx context.Context, media twilio.Media) ([]byte, error)
}

// WhatsApp превращает входящее сообщение Twilio в текстовый ответ
type WhatsApp struct {
	tracker     Tracker
	media       MediaDownloader
	transcriber Transcriber
}

func NewWhatsApp(tracker Tracker, media MediaDownloader, transcriber Transcriber) *WhatsApp {
	return &WhatsApp{
		tracker:     tracker,
		media:       media,
		transcriber: transcriber,
	}
}

// Process всегда возвращает непустой ответ
func (w *WhatsApp) Process(ctx context.Context, msg twilio.Message) string {
	if msg.HasOnlyUnsupportedMedia() {
		return w.tracker.HandleFailure(ctx, msg.From, model.SourceText, service.CollaboratorMedia, twilio.ErrUnsupportedMedia)
	}

	audio, ok := msg.Audio()
	if !ok {
		return w.tracker.HandleMessage(ctx, service.Inbound{
			UserID: msg.From,
			Text:   msg.Body,
			Source: model.SourceText,
		})
	}

	data, err := w.media.Download(ctx, audio)
	if err != nil {
		return w.tracker.HandleFailure(ctx, msg.From, model.SourceVoice, "download", err)
	}

	text, err := w.transcriber.Transcribe(ctx, twilio.Filename(audio.ContentType), bytes.NewReader(data))
	if err != nil {
		return w.tracker.HandleFailure(ctx, msg.From, model.SourceVoice, "transcription", err)
	}

	return w.tracker.HandleMessage(ctx, service.Inbound{
		UserID: msg.From,
		Text:   text,
		Source: model.SourceVoice,
	})
}
