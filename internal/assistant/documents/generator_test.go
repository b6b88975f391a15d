package documents

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bu-online/assistant/internal/assistant/model"
	errx "github.com/bu-online/assistant/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) (*Generator, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "documents")
	g := NewGenerator(model.DocumentConfig{OutputDir: dir, Executor: "ООО 'БухПрофи'"},
		WithClock(func() time.Time { return fixedNow }))
	return g, dir
}

func TestGenerate_Contract(t *testing.T) {
	g, dir := newTestGenerator(t)

	h, err := g.Generate(context.Background(), model.DocumentRequest{
		Type:    model.DocumentContract,
		Client:  " Acme LLC ",
		Amount:  50000,
		Service: "Bookkeeping",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Договор_Acme LLC_20261014.md"), h.Path)
	assert.Equal(t, "ДОГОВОР № 20261014", h.Document.Title)
	assert.Equal(t, "Acme LLC", h.Document.Customer)
	require.Len(t, h.Document.Sections, 2)
	assert.Equal(t, "Исполнитель обязуется оказать услуги: Bookkeeping", h.Document.Sections[0].Body)
	assert.Equal(t, "Общая стоимость услуг: 50,000.00 руб. (НДС не облагается)", h.Document.Sections[1].Body)

	body, err := os.ReadFile(h.Path)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "# ДОГОВОР № 20261014")
	assert.Contains(t, text, "Дата составления: 14.10.2026")
	assert.Contains(t, text, "Исполнитель: ООО 'БухПрофи'")
	assert.Contains(t, text, "Заказчик: Acme LLC")
	assert.Contains(t, text, "## 2. Стоимость услуг")
	assert.Contains(t, text, "50,000.00 руб. (НДС не облагается)")
}

func TestGenerate_UnsupportedTypesWriteNothing(t *testing.T) {
	g, dir := newTestGenerator(t)

	for _, typ := range []model.DocumentType{model.DocumentAct, "Счет", ""} {
		_, err := g.Generate(context.Background(), model.DocumentRequest{
			Type: typ, Client: "Acme", Amount: 1, Service: "x",
		})
		assert.True(t, errors.Is(err, errx.UnsupportedDocumentType), "type %q: %v", typ, err)
	}

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "output dir must not be created")
}

func TestGenerate_InvalidFields(t *testing.T) {
	g, dir := newTestGenerator(t)

	cases := map[string]model.DocumentRequest{
		"empty client":    {Type: model.DocumentContract, Client: "  ", Amount: 1, Service: "x"},
		"empty service":   {Type: model.DocumentContract, Client: "Acme", Amount: 1, Service: ""},
		"negative amount": {Type: model.DocumentContract, Client: "Acme", Amount: -5, Service: "x"},
		"infinite amount": {Type: model.DocumentContract, Client: "Acme", Amount: math.Inf(1), Service: "x"},
	}
	for name, req := range cases {
		_, err := g.Generate(context.Background(), req)
		assert.True(t, errors.Is(err, errx.InvalidInput), "%s: %v", name, err)
	}

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_SanitizesClientInFileName(t *testing.T) {
	g, dir := newTestGenerator(t)

	h, err := g.Generate(context.Background(), model.DocumentRequest{
		Type: model.DocumentContract, Client: "../ООО Ромашка/", Amount: 0, Service: "Аудит",
	})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(h.Path))
	assert.Equal(t, "Договор__ООО Ромашка__20261014.md", filepath.Base(h.Path))
}

func TestGenerate_CanceledContext(t *testing.T) {
	g, dir := newTestGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, model.DocumentRequest{Type: model.DocumentContract, Client: "A", Amount: 1, Service: "B"})
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAmountClause(t *testing.T) {
	assert.Equal(t, "Общая стоимость услуг: 1,234.50 руб. (НДС не облагается)", AmountClause(1234.5))
}
