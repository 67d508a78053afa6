// Package bot - канал Telegram поверх того же ядра, что и WhatsApp.
package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/charts"
	"github.com/ivanoskov/budget_bot/internal/model"
	"github.com/ivanoskov/budget_bot/internal/service"
)

const maxVoiceBytes = 16 << 20

// Transcriber переводит голосовое сообщение в текст
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

type Bot struct {
	api         *tgbotapi.BotAPI
	tracker     *service.ExpenseTracker
	transcriber Transcriber
	charts      *charts.ChartGenerator
	http        *http.Client
	logger      *zap.Logger

	maxVoiceBytes int64
}

func NewBot(token string, tracker *service.ExpenseTracker, transcriber Transcriber, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram api: %w", err)
	}
	return newBot(api, tracker, transcriber, logger), nil
}

func newBot(api *tgbotapi.BotAPI, tracker *service.ExpenseTracker, transcriber Transcriber, logger *zap.Logger) *Bot {
	return &Bot{
		api:         api,
		tracker:     tracker,
		transcriber: transcriber,
		charts:      charts.NewChartGenerator(),
		http:        &http.Client{Timeout: 30 * time.Second},
		logger:      logger,

		maxVoiceBytes: maxVoiceBytes,
	}
}

// Start запускает бота в режиме long polling до отмены ctx
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	// Каждое обновление в своей горутине: медленное распознавание одного
	// пользователя не задерживает остальных, порядок внутри пользователя
	// держит блокировка хранилища
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := b.handleUpdate(ctx, update); err != nil {
					// Логируем ошибку, но продолжаем работу
					b.logger.Error("error handling update", zap.Int("update_id", update.UpdateID), zap.Error(err))
				}
			}()
		}
	}
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("failed to parse update: %w", err)
	}

	return b.handleUpdate(ctx, update)
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}

	if message.IsCommand() {
		return b.handleCommand(ctx, message)
	}

	return b.handleMessage(ctx, message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) error {
	switch message.Command() {
	case "chart":
		return b.handleChart(ctx, message)
	case "balance":
		return b.reply(message.Chat.ID, b.tracker.HandleMessage(ctx, b.inbound(message, "balance", model.SourceText)))
	default:
		return b.handleStart(message)
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) error {
	msg := tgbotapi.NewMessage(message.Chat.ID, service.HelpText)
	msg.ReplyMarkup = b.getMainKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	switch {
	case message.Text == buttonChart:
		return b.handleChart(ctx, message)
	case message.Text == buttonHelp:
		return b.handleStart(message)
	case message.Voice != nil:
		return b.handleVoice(ctx, message)
	}

	reply := b.tracker.HandleMessage(ctx, b.inbound(message, message.Text, model.SourceText))
	return b.reply(message.Chat.ID, reply)
}

func (b *Bot) handleVoice(ctx context.Context, message *tgbotapi.Message) error {
	userID := userID(message.From.ID)

	data, err := b.downloadFile(ctx, message.Voice.FileID)
	if err != nil {
		return b.reply(message.Chat.ID, b.tracker.HandleFailure(ctx, userID, model.SourceVoice, "download", err))
	}

	text, err := b.transcriber.Transcribe(ctx, "voice.ogg", bytes.NewReader(data))
	if err != nil {
		return b.reply(message.Chat.ID, b.tracker.HandleFailure(ctx, userID, model.SourceVoice, "transcription", err))
	}

	return b.reply(message.Chat.ID, b.tracker.HandleMessage(ctx, b.inbound(message, text, model.SourceVoice)))
}

func (b *Bot) handleChart(ctx context.Context, message *tgbotapi.Message) error {
	state, err := b.tracker.Snapshot(ctx, userID(message.From.ID))
	if err != nil {
		return b.reply(message.Chat.ID, b.tracker.HandleFailure(ctx, userID(message.From.ID), model.SourceText, "store", err))
	}

	remaining, limit, hasLimit := b.tracker.Remaining(state)
	img, err := b.charts.GenerateUsageChart(charts.Usage{
		Spent:     state.SpentToday.InexactFloat64(),
		Remaining: remaining,
		Limit:     limit,
		HasLimit:  hasLimit,
	})
	if errors.Is(err, charts.ErrNothingToDraw) {
		return b.reply(message.Chat.ID, "Nothing to chart yet. Try: \"Daily limit 60\" or \"Spent 12 on lunch\"")
	}
	if err != nil {
		return fmt.Errorf("failed to generate chart: %w", err)
	}

	photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileBytes{Name: "today.png", Bytes: img})
	_, err = b.api.Send(photo)
	return err
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	return b.fetch(ctx, fileURL)
}

func (b *Bot) fetch(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxVoiceBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > b.maxVoiceBytes {
		return nil, fmt.Errorf("voice message exceeds %d bytes", b.maxVoiceBytes)
	}
	return data, nil
}

func (b *Bot) inbound(message *tgbotapi.Message, text, source string) service.Inbound {
	return service.Inbound{
		UserID: userID(message.From.ID),
		Text:   text,
		Source: source,
	}
}

func (b *Bot) reply(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

func userID(telegramID int64) string {
	return "telegram:" + strconv.FormatInt(telegramID, 10)
}
