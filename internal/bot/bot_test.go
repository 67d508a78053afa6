package bot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/budget"
	"github.com/ivanoskov/budget_bot/internal/classifier"
	"github.com/ivanoskov/budget_bot/internal/model"
	"github.com/ivanoskov/budget_bot/internal/service"
)

type nopEmitter struct{}

func (nopEmitter) Emit(model.LogRecord) {}

type nopTranscriber struct{}

func (nopTranscriber) Transcribe(context.Context, string, io.Reader) (string, error) {
	return "", nil
}

type telegramStub struct {
	mu      sync.Mutex
	methods []string
	texts   []string
	pending []string
}

func (s *telegramStub) queue(updates ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, updates...)
}

func (s *telegramStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	method := parts[len(parts)-1]

	_ = r.ParseForm()
	s.mu.Lock()
	s.methods = append(s.methods, method)
	if method == "sendMessage" {
		s.texts = append(s.texts, r.FormValue("text"))
	}
	pending := s.pending
	if method == "getUpdates" {
		s.pending = nil
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch method {
	case "getUpdates":
		if len(pending) == 0 {
			time.Sleep(10 * time.Millisecond)
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":[`+strings.Join(pending, ",")+`]}`)
	case "getMe":
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"budget","username":"budget_bot"}}`)
	default:
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":100,"type":"private"}}}`)
	}
}

func (s *telegramStub) lastText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.texts) == 0 {
		return ""
	}
	return s.texts[len(s.texts)-1]
}

func (s *telegramStub) lastMethod() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[len(s.methods)-1]
}

func newTestBot(t *testing.T) (*Bot, *telegramStub) {
	t.Helper()
	stub := &telegramStub{}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint("TOKEN", srv.URL+"/bot%s/%s")
	require.NoError(t, err)

	tracker := service.NewExpenseTracker(budget.NewStore(), classifier.NewDefault(), nopEmitter{}, zap.NewNop())
	return newBot(api, tracker, nopTranscriber{}, zap.NewNop()), stub
}

func update(text string) string {
	return updateFrom(1, 7, text)
}

func updateFrom(updateID, fromID int, text string) string {
	entities := ""
	if strings.HasPrefix(text, "/") {
		entities = `,"entities":[{"type":"bot_command","offset":0,"length":` + strconv.Itoa(len(strings.Fields(text)[0])) + `}]`
	}
	return `{"update_id":` + strconv.Itoa(updateID) + `,"message":{"message_id":5,"date":0,"from":{"id":` + strconv.Itoa(fromID) + `,"is_bot":false,"first_name":"A"},` +
		`"chat":{"id":100,"type":"private"},"text":"` + text + `"` + entities + `}}`
}

func TestHandleWebhook_Text(t *testing.T) {
	b, stub := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.HandleWebhook(ctx, []byte(update("Daily limit 60"))))
	assert.Equal(t, "Daily limit set: $60", stub.lastText())

	require.NoError(t, b.HandleWebhook(ctx, []byte(update("Spent 12 on lunch"))))
	assert.Equal(t, "Saved: $12 — Food · $48 left today", stub.lastText())

	require.NoError(t, b.HandleWebhook(ctx, []byte(update(buttonBalance))))
	assert.Equal(t, "Today: $12 spent · $48 left (limit $60)", stub.lastText())
}

func TestHandleWebhook_StartCommand(t *testing.T) {
	b, stub := newTestBot(t)

	require.NoError(t, b.HandleWebhook(context.Background(), []byte(update("/start"))))
	assert.Equal(t, service.HelpText, stub.lastText())
}

func TestHandleWebhook_ChartWithoutData(t *testing.T) {
	b, stub := newTestBot(t)

	require.NoError(t, b.HandleWebhook(context.Background(), []byte(update("/chart"))))
	assert.Contains(t, stub.lastText(), "Nothing to chart yet")
}

func TestHandleWebhook_ChartSendsPhoto(t *testing.T) {
	b, stub := newTestBot(t)
	ctx := context.Background()

	require.NoError(t, b.HandleWebhook(ctx, []byte(update("Daily limit 60"))))
	require.NoError(t, b.HandleWebhook(ctx, []byte(update("/chart"))))
	assert.Equal(t, "sendPhoto", stub.lastMethod())
}

func TestHandleWebhook_InvalidJSON(t *testing.T) {
	b, _ := newTestBot(t)
	assert.Error(t, b.HandleWebhook(context.Background(), []byte("{")))
}

func TestUserID(t *testing.T) {
	assert.Equal(t, "telegram:7", userID(7))
}

func TestStart_HandlesPolledUpdates(t *testing.T) {
	b, stub := newTestBot(t)
	stub.queue(updateFrom(1, 7, "Daily limit 60"), updateFrom(2, 8, "Daily limit 40"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	assert.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return len(stub.texts) == 2
	}, 5*time.Second, 10*time.Millisecond)

	stub.mu.Lock()
	assert.ElementsMatch(t, []string{"Daily limit set: $60", "Daily limit set: $40"}, stub.texts)
	stub.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestFetch_RejectsOversizedVoice(t *testing.T) {
	b, _ := newTestBot(t)
	b.maxVoiceBytes = 8

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.ogg" {
			_, _ = io.WriteString(w, "0123456789")
			return
		}
		_, _ = io.WriteString(w, "01234567")
	}))
	t.Cleanup(srv.Close)

	_, err := b.fetch(context.Background(), srv.URL+"/big.ogg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 8 bytes")

	data, err := b.fetch(context.Background(), srv.URL+"/ok.ogg")
	require.NoError(t, err)
	assert.Equal(t, "01234567", string(data))
}
