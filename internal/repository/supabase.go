package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"github.com/ivanoskov/budget_bot/internal/model"
)

const (
	statesTable = "budget_states"
	logTable    = "message_log"
)

// SupabaseRepository хранит состояния в таблице budget_states и
// дописывает журнал сообщений в message_log
type SupabaseRepository struct {
	client *supabase.Client
}

func NewSupabaseRepository(url, key string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseRepository{
		client: client,
	}, nil
}

func (r *SupabaseRepository) GetState(ctx context.Context, userID string) (*model.BudgetState, error) {
	data, _, err := r.client.From(statesTable).
		Select("*", "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get budget state: %w", err)
	}

	var states []model.BudgetState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to parse budget state: %w", err)
	}
	if len(states) == 0 {
		return nil, nil
	}
	return &states[0], nil
}

func (r *SupabaseRepository) SaveState(ctx context.Context, state *model.BudgetState) error {
	// upsert по user_id
	_, _, err := r.client.From(statesTable).Insert(state, true, "user_id", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to save budget state: %w", err)
	}
	return nil
}

func (r *SupabaseRepository) Name() string { return "supabase" }

// Append дописывает строку журнала в message_log
func (r *SupabaseRepository) Append(ctx context.Context, rec model.LogRecord) error {
	_, _, err := r.client.From(logTable).Insert(rec, false, "", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to append log record: %w", err)
	}
	return nil
}
