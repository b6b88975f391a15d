package dialogue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bu-online/assistant/internal/assistant/knowledge"
	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/repo"
)

type countingObserver struct {
	mu     sync.Mutex
	events map[string]int
	errors map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{events: map[string]int{}, errors: map[string]int{}}
}

func (o *countingObserver) ObserveEvent(kind, state string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events[kind+"/"+state]++
}

func (o *countingObserver) ObserveStoreError(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors[op]++
}

type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) Load(context.Context, string) (model.Conversation, error) {
	return model.Conversation{State: model.AwaitingQuestion}, errStoreDown
}

func (brokenStore) Save(context.Context, string, model.Conversation) error { return errStoreDown }
func (brokenStore) Reset(context.Context, string) error                    { return errStoreDown }

func upload(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAssistant_PersistsStateBetweenEvents(t *testing.T) {
	f := newFixture(t)
	store := repo.NewMemoryStateStore()
	a := NewAssistant(f.machine, store)
	ctx := context.Background()

	a.OnText(ctx, "u1", MenuTaxCalculator)
	conv, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.AwaitingIncome, conv.State)

	a.OnCallback(ctx, "u1", "tax_usn15")
	conv, _ = store.Load(ctx, "u1")
	assert.Equal(t, knowledge.RegimeUSN15, conv.Regime)

	other := a.OnText(ctx, "u2", "200000")
	assert.Equal(t, KeyboardMainMenu, other.Keyboard, "u2 is still idle")

	reply := a.OnText(ctx, "u1", "200000")
	assert.Contains(t, reply.Text, "• Налог к уплате: 30,000.00 ₽")
	conv, _ = store.Load(ctx, "u1")
	assert.Equal(t, model.IdleConversation(), conv)
}

func TestAssistant_CommandClearsPendingState(t *testing.T) {
	f := newFixture(t)
	store := repo.NewMemoryStateStore()
	a := NewAssistant(f.machine, store)
	ctx := context.Background()

	a.OnText(ctx, "u1", MenuConsultation)
	conv, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, model.AwaitingQuestion, conv.State)

	a.OnCommand(ctx, "u1", "/cancel")
	conv, err = store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.IdleConversation(), conv)
	assert.Zero(t, f.asker.calls())
}

func TestAssistant_UploadRemovedInEveryState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	csv := "Дата;Сумма\n01.01.2024;1000\n"

	setups := map[string][]string{
		"idle":                 nil,
		"awaiting_income":      {MenuTaxCalculator},
		"awaiting_question":    {MenuConsultation},
		"awaiting_spreadsheet": {MenuAnalysis},
	}
	for name, texts := range setups {
		t.Run(name, func(t *testing.T) {
			a := NewAssistant(f.machine, repo.NewMemoryStateStore())
			for _, text := range texts {
				a.OnText(ctx, "u1", text)
			}
			path := upload(t, "data.csv", csv)
			a.OnDocument(ctx, "u1", path)

			_, err := os.Stat(path)
			assert.True(t, errors.Is(err, os.ErrNotExist), "upload must be removed")
		})
	}
}

func TestAssistant_UploadRemovedOnAnalysisFailure(t *testing.T) {
	f := newFixture(t)
	a := NewAssistant(f.machine, repo.NewMemoryStateStore())
	ctx := context.Background()

	a.OnText(ctx, "u1", MenuAnalysis)
	path := upload(t, "broken.xlsx", "not a workbook")
	reply := a.OnDocument(ctx, "u1", path)

	assert.Contains(t, reply.Text, "❌ Ошибка анализа: ")
	_, err := os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	reply = a.OnDocument(ctx, "u1", "")
	assert.True(t, reply.Empty(), "state returned to idle after the failed upload")
}

func TestAssistant_StoreFailureTreatedAsIdle(t *testing.T) {
	f := newFixture(t)
	obs := newCountingObserver()
	a := NewAssistant(f.machine, brokenStore{}, WithObserver(obs))

	reply := a.OnText(context.Background(), "u1", MenuConsultation)

	assert.Equal(t, textAskQuestion, reply.Text, "load failure must not keep the stored state")
	assert.Zero(t, f.asker.calls())
	assert.Equal(t, 1, obs.errors["load"])
	assert.Equal(t, 1, obs.errors["save"])
	assert.Equal(t, 1, obs.events["text/idle"])
}

func TestAssistant_ObservesEvents(t *testing.T) {
	f := newFixture(t)
	obs := newCountingObserver()
	a := NewAssistant(f.machine, repo.NewMemoryStateStore(), WithObserver(obs))
	ctx := context.Background()

	a.OnCommand(ctx, "u1", "/start")
	a.OnText(ctx, "u1", MenuConsultation)
	a.OnText(ctx, "u1", "что такое усн")

	assert.Equal(t, map[string]int{
		"command/idle":           1,
		"text/idle":              1,
		"text/awaiting_question": 1,
	}, obs.events)
	assert.Empty(t, obs.errors)
}
