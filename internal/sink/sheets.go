package sink

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ivanoskov/budget_bot/internal/model"
)

// SheetsSink дописывает строки журнала в Google-таблицу
type SheetsSink struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rangeA1       string
}

// NewSheetsSink создает приемник по файлу сервисного аккаунта
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, rangeA1 string) (*SheetsSink, error) {
	return NewSheetsSinkWithOptions(ctx, spreadsheetID, rangeA1,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
}

// NewSheetsSinkWithOptions создает приемник с произвольными опциями клиента
func NewSheetsSinkWithOptions(ctx context.Context, spreadsheetID, rangeA1 string, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if rangeA1 == "" {
		rangeA1 = "Log!A:J"
	}
	return &SheetsSink{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		rangeA1:       rangeA1,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Append добавляет одну строку в конец диапазона
func (s *SheetsSink) Append(ctx context.Context, rec model.LogRecord) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{rec.Row()}}
	_, err := s.values.Append(s.spreadsheetID, s.rangeA1, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to spreadsheet: %w", err)
	}
	return nil
}
