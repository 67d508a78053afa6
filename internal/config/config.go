package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSupabase = "supabase"

	SinkNone     = "none"
	SinkSheets   = "sheets"
	SinkSupabase = "supabase"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	LogLevel      string
	LogFormat     string

	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioValidateSignature bool

	OpenAIAPIKey             string
	OpenAIBaseURL            string
	OpenAITranscriptionModel string
	OpenAIChatModel          string
	LLMHelpReplies           bool
	CollaboratorTimeout      time.Duration

	TelegramToken string

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SupabaseURL   string
	SupabaseKey   string

	LogSink               string
	SheetsSpreadsheetID   string
	SheetsRange           string
	GoogleCredentialsFile string
	SinkBuffer            int

	Timezone string
}

// LoadConfig читает .env (если есть) и переменные окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		PublicBaseURL: strings.TrimSuffix(v.GetString("PUBLIC_BASE_URL"), "/"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFormat:     v.GetString("LOG_FORMAT"),

		TwilioAccountSID:        v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:         v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioValidateSignature: v.GetBool("TWILIO_VALIDATE_SIGNATURE"),

		OpenAIAPIKey:             v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:            v.GetString("OPENAI_BASE_URL"),
		OpenAITranscriptionModel: v.GetString("OPENAI_TRANSCRIPTION_MODEL"),
		OpenAIChatModel:          v.GetString("OPENAI_CHAT_MODEL"),
		LLMHelpReplies:           v.GetBool("LLM_HELP_REPLIES"),
		CollaboratorTimeout:      v.GetDuration("COLLABORATOR_TIMEOUT"),

		TelegramToken: v.GetString("TELEGRAM_TOKEN"),

		StoreBackend:  strings.ToLower(v.GetString("STORE_BACKEND")),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		SupabaseURL:   v.GetString("SUPABASE_URL"),
		SupabaseKey:   v.GetString("SUPABASE_KEY"),

		LogSink:               strings.ToLower(v.GetString("LOG_SINK")),
		SheetsSpreadsheetID:   v.GetString("SHEETS_SPREADSHEET_ID"),
		SheetsRange:           v.GetString("SHEETS_RANGE"),
		GoogleCredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
		SinkBuffer:            v.GetInt("SINK_BUFFER"),

		Timezone: v.GetString("BUDGET_TIMEZONE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TWILIO_VALIDATE_SIGNATURE", true)
	v.SetDefault("OPENAI_TRANSCRIPTION_MODEL", "whisper-1")
	v.SetDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_HELP_REPLIES", false)
	v.SetDefault("COLLABORATOR_TIMEOUT", 30*time.Second)
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_SINK", SinkNone)
	v.SetDefault("SHEETS_RANGE", "Log!A:J")
	v.SetDefault("SINK_BUFFER", 256)
}

// Validate проверяет согласованность выбранных бэкендов и их настроек
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreRedis:
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("STORE_BACKEND=supabase requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.LogSink {
	case SinkNone:
	case SinkSheets:
		if c.SheetsSpreadsheetID == "" || c.GoogleCredentialsFile == "" {
			return errors.New("LOG_SINK=sheets requires SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_FILE")
		}
	case SinkSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("LOG_SINK=supabase requires SUPABASE_URL and SUPABASE_KEY")
		}
	default:
		return fmt.Errorf("unknown LOG_SINK %q", c.LogSink)
	}

	if c.TwilioValidateSignature && (c.TwilioAuthToken == "" || c.PublicBaseURL == "") {
		return errors.New("TWILIO_VALIDATE_SIGNATURE requires TWILIO_AUTH_TOKEN and PUBLIC_BASE_URL")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location возвращает часовую зону для границы дня. Пустое значение -
// локальная зона сервера.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BUDGET_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
