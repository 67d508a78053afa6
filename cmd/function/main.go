package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/app"
	"github.com/ivanoskov/budget_bot/internal/config"
	"github.com/ivanoskov/budget_bot/internal/logger"
	"github.com/ivanoskov/budget_bot/internal/server"
	"github.com/ivanoskov/budget_bot/internal/service"
	"github.com/ivanoskov/budget_bot/internal/twilio"
)

// Request структура входящего запроса от API Gateway
type Request struct {
	Body            string            `json:"body"`
	Headers         map[string]string `json:"headers"`
	Path            string            `json:"path"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
}

// Response структура ответа для API Gateway
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// Состояние бюджета живет в памяти между вызовами одного экземпляра функции.
// Неудачная инициализация не запоминается: следующий вызов пробует снова.
var (
	mu       sync.Mutex
	instance *app.App
	cleanup  func()
)

func load(ctx context.Context) (*app.App, error) {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	a, release, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	instance, cleanup = a, release
	return instance, nil
}

// Close дожидается записи журнала и сбрасывает экземпляр
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if cleanup != nil {
		cleanup()
	}
	instance, cleanup = nil, nil
}

func Handler(ctx context.Context, request Request) (*Response, error) {
	a, err := load(ctx)
	if err != nil {
		bootLogger().Error("failed to initialize function", zap.Error(err))
		return twimlResponse(http.StatusOK, service.FailureReply), nil
	}
	return handle(ctx, a.WhatsApp, a.Validator, a.Config.PublicBaseURL, a.Logger, request), nil
}

// bootLogger нужен, когда конфигурация не прочиталась и своего логгера еще нет
func bootLogger() *zap.Logger {
	log, err := logger.New("info", "json")
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func handle(ctx context.Context, wa *server.WhatsApp, validator *twilio.Validator, baseURL string, log *zap.Logger, request Request) *Response {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errorResponse(http.StatusBadRequest, "invalid body encoding")
		}
		body = string(decoded)
	}

	form, err := url.ParseQuery(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid form")
	}

	if validator != nil {
		path := request.Path
		if path == "" {
			path = server.WhatsAppPath
		}
		if err := validator.Validate(baseURL+path, form, header(request.Headers, "X-Twilio-Signature")); err != nil {
			log.Warn("rejected webhook", zap.Error(err))
			return errorResponse(http.StatusForbidden, "forbidden")
		}
	}

	msg, err := twilio.ParseForm(form)
	if err != nil {
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	return twimlResponse(http.StatusOK, wa.Process(ctx, msg))
}

func twimlResponse(status int, text string) *Response {
	doc, err := twilio.Reply(text)
	if err != nil {
		return errorResponse(http.StatusInternalServerError, "failed to build reply")
	}
	return &Response{
		StatusCode: status,
		Body:       doc,
		Headers:    map[string]string{"Content-Type": "text/xml; charset=utf-8"},
	}
}

func errorResponse(status int, msg string) *Response {
	return &Response{
		StatusCode: status,
		Body:       msg,
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}

// header ищет заголовок без учета регистра: шлюзы нормализуют их по-разному
func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func main() {
	// Точка входа для локального тестирования
}
