// Package ai обращается к OpenAI: распознавание голосовых сообщений и
// необязательные ответы-подсказки от LLM.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

// ErrTranscriptionDisabled возвращается, если ключ OpenAI не задан
var ErrTranscriptionDisabled = errors.New("transcription is not configured")

const helpSystemPrompt = "You are a terse WhatsApp budgeting assistant. The user sent a message you could not act on. " +
	"In at most two short sentences, tell them what you can do and give one concrete example such as " +
	"\"Spent 12 on lunch\", \"Got paid 800\", \"Daily limit 60\" or \"Balance\". Never invent numbers about their budget."

type Config struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	ChatModel          string
	Timeout            time.Duration
}

// Client - обертка над go-openai с таймаутами и предохранителем
type Client struct {
	client  *openai.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		client:  openai.NewClientWithConfig(openaiCfg),
		cfg:     cfg,
		breaker: newBreaker("openai"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// Transcribe распознает аудио. filename нужен API для определения формата.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrTranscriptionDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.cfg.TranscriptionModel,
			FilePath: filename,
			Reader:   audio,
		})
		if err != nil {
			return nil, err
		}
		return resp.Text, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return strings.TrimSpace(out.(string)), nil
}

// HelpReply генерирует короткую подсказку для нераспознанного сообщения
func (c *Client) HelpReply(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: helpSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: text},
			},
			MaxTokens:   120,
			Temperature: 0.3,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("empty completion")
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate help reply: %w", err)
	}
	return strings.TrimSpace(out.(string)), nil
}
