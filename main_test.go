package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/repo"
	pkgredis "github.com/bu-online/assistant/pkg/redis"
)

func testAppConfig(t *testing.T, baseURL string) AppConfig {
	t.Helper()
	return AppConfig{
		Environment: "testing",
		State:       model.StateConfig{TTL: time.Hour},
		Reasoning: model.ReasoningConfig{
			BaseURL:        baseURL,
			APIKey:         "k",
			Model:          "deepseek-chat",
			MaxTokens:      100,
			MaxPromptRunes: 2000,
			Persona:        "экспертный бухгалтер",
			UserAgent:      "AccountingBot/3.0",
			MaxConns:       2,
			ConnectTimeout: time.Second,
			RequestTimeout: time.Second,
			HealthTimeout:  time.Second,
			Retries:        1,
			BackoffBase:    2,
			BackoffUnit:    time.Millisecond,
		},
		Dialogue:  model.DialogueConfig{DefaultRegime: "УСН", MaxReplyRunes: 4000},
		Documents: model.DocumentConfig{OutputDir: t.TempDir(), Executor: "ООО 'БухПрофи'"},
	}
}

func reasoningServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "ответ модели"}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_ConsoleSession(t *testing.T) {
	srv := reasoningServer(t)
	cfg := testAppConfig(t, srv.URL)

	sheet := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(sheet, []byte("Дата;Сумма\n01.01.2024;4000000\n"), 0o600))

	input := strings.Join([]string{
		"🧮 Налоговый калькулятор",
		"/cb tax_ndfl",
		"100000",
		"💡 Консультация ИИ",
		"Как учесть командировочные расходы?",
		"📊 Анализ данных",
		"/file " + sheet,
		"📝 Генератор документов",
		"ООО Ромашка, 50000, Бухгалтерское сопровождение",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, strings.NewReader(input), &out))

	text := out.String()
	assert.Contains(t, text, "Профессиональный бухгалтерский помощник")
	assert.Contains(t, text, "[УСН 15%] /cb tax_usn15")
	assert.Contains(t, text, "Выбрана система: НДФЛ")
	assert.Contains(t, text, "• Налог к уплате: 13,000.00 ₽")
	assert.Contains(t, text, "ответ модели")
	assert.Contains(t, text, "Рекомендуем ОСНО с НДС")
	assert.Contains(t, text, "✅ Договор для ООО Ромашка готов!")

	_, err := os.Stat(sheet)
	assert.NoError(t, err, "the original file is never removed, only the staged copy")
}

func TestDispatchLine_MissingUpload(t *testing.T) {
	srv := reasoningServer(t)
	cfg := testAppConfig(t, srv.URL)

	var out bytes.Buffer
	input := "📊 Анализ данных\n/file " + filepath.Join(t.TempDir(), "absent.xlsx") + "\n"
	require.NoError(t, run(context.Background(), cfg, strings.NewReader(input), &out))
	assert.Contains(t, out.String(), "❌ Не удалось прочитать файл")
}

func TestNewStateStore(t *testing.T) {
	cfg := testAppConfig(t, "http://127.0.0.1:1")

	store, closeStore, err := newStateStore(context.Background(), cfg)
	require.NoError(t, err)
	closeStore()
	assert.IsType(t, &repo.MemoryStateStore{}, store)

	mr := miniredis.RunT(t)
	cfg.Redis = pkgredis.Config{URL: "redis://" + mr.Addr(), ReadTimeout: 1, WriteTimeout: 1, DialTimeout: 1}
	store, closeStore, err = newStateStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &repo.RedisStateStore{}, store)
}

func TestCopyToTemp_KeepsExtension(t *testing.T) {
	src := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	tmp, err := copyToTemp(src)
	require.NoError(t, err)
	defer os.Remove(tmp)
	assert.Equal(t, ".xlsx", filepath.Ext(tmp))
	assert.NotEqual(t, src, tmp)
}
