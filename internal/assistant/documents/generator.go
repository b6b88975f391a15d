// Package documents builds contracts from validated fields and writes them to the output area.
package documents

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/money"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

//go:embed template/contract.md.tmpl
var contractTemplate string

const fileExt = ".md"

type Generator struct {
	outputDir string
	executor  string
	validate  *validator.Validate
	tmpl      *template.Template
	now       func() time.Time
}

type Option func(*Generator)

// WithClock replaces time.Now, used for titles and file names.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func NewGenerator(cfg model.DocumentConfig, opts ...Option) *Generator {
	g := &Generator{
		outputDir: cfg.OutputDir,
		executor:  cfg.Executor,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tmpl:      template.Must(template.New("contract").Parse(contractTemplate)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes the requested document and returns where it is.
func (g *Generator) Generate(ctx context.Context, req model.DocumentRequest) (model.DocumentHandle, error) {
	switch req.Type {
	case model.DocumentContract:
	case model.DocumentAct:
		return model.DocumentHandle{}, errx.Newf(errx.UnsupportedDocumentType, "Генерация документа «%s» пока не поддерживается", req.Type)
	default:
		return model.DocumentHandle{}, errx.Newf(errx.UnsupportedDocumentType, "Неизвестный тип документа: %s", req.Type)
	}

	req.Client = strings.TrimSpace(req.Client)
	req.Service = strings.TrimSpace(req.Service)
	if err := g.validateRequest(req); err != nil {
		return model.DocumentHandle{}, err
	}

	doc := g.buildContract(req)
	body, err := g.render(doc)
	if err != nil {
		return model.DocumentHandle{}, fmt.Errorf("render contract: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return model.DocumentHandle{}, err
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return model.DocumentHandle{}, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(g.outputDir, fileName(req.Type, req.Client, doc.CreatedAt))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return model.DocumentHandle{}, fmt.Errorf("write document: %w", err)
	}

	logx.Info().Str("type", string(req.Type)).Str("path", path).Msg("document generated")
	return model.DocumentHandle{Path: path, Document: doc}, nil
}

func (g *Generator) validateRequest(req model.DocumentRequest) error {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return errx.Newf(errx.InvalidInput, "Сумма должна быть конечным числом")
	}
	err := g.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate document request: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldLabel(fe.Field()))
	}
	return errx.New(errx.InvalidInput, err, "Некорректные данные документа: "+strings.Join(fields, ", "))
}

func fieldLabel(field string) string {
	switch field {
	case "Client":
		return "клиент"
	case "Amount":
		return "сумма"
	case "Service":
		return "услуга"
	default:
		return strings.ToLower(field)
	}
}

func (g *Generator) buildContract(req model.DocumentRequest) model.Document {
	now := g.now()
	return model.Document{
		Type:      model.DocumentContract,
		Title:     "ДОГОВОР № " + now.Format("20060102"),
		CreatedAt: now,
		Executor:  g.executor,
		Customer:  req.Client,
		Sections: []model.Section{
			{Heading: "1. Предмет договора", Body: "Исполнитель обязуется оказать услуги: " + req.Service},
			{Heading: "2. Стоимость услуг", Body: AmountClause(req.Amount)},
		},
	}
}

// AmountClause is the price sentence of a contract.
func AmountClause(amount float64) string {
	return fmt.Sprintf("Общая стоимость услуг: %s руб. (НДС не облагается)", money.Format(amount))
}

func (g *Generator) render(doc model.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeName = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\n", "_", "\r", "_", "\t", "_",
)

func fileName(t model.DocumentType, client string, at time.Time) string {
	name := strings.Trim(unsafeName.Replace(client), " .")
	if name == "" {
		name = "client"
	}
	return fmt.Sprintf("%s_%s_%s%s", t, name, at.Format("20060102"), fileExt)
}
