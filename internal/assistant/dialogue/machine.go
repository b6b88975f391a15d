package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/bu-online/assistant/internal/assistant/analysis"
	"github.com/bu-online/assistant/internal/assistant/knowledge"
	"github.com/bu-online/assistant/internal/assistant/model"
	"github.com/bu-online/assistant/internal/assistant/money"
	"github.com/bu-online/assistant/internal/assistant/reasoning"
	errx "github.com/bu-online/assistant/internal/core/error"
	logx "github.com/bu-online/assistant/pkg/logger"
)

// Asker answers free-form questions. *reasoning.Client implements it.
type Asker interface {
	Ask(ctx context.Context, prompt string) reasoning.Answer
}

// TaxCalculator is satisfied by *tax.Calculator.
type TaxCalculator interface {
	Calculate(incomeText, regimeName, region string) (model.TaxResult, error)
}

// DocumentGenerator is satisfied by *documents.Generator.
type DocumentGenerator interface {
	Generate(ctx context.Context, req model.DocumentRequest) (model.DocumentHandle, error)
}

// SpreadsheetAnalyzer turns an uploaded file into a summary.
type SpreadsheetAnalyzer func(path string) (model.AnalysisSummary, error)

// AnalyzeFile reads and analyses path with the analysis package.
func AnalyzeFile(path string) (model.AnalysisSummary, error) {
	table, err := analysis.ReadFile(path)
	if err != nil {
		return model.AnalysisSummary{}, err
	}
	return analysis.Analyze(table)
}

type Machine struct {
	cfg       model.DialogueConfig
	quick     *knowledge.Table
	asker     Asker
	taxes     TaxCalculator
	documents DocumentGenerator
	analyze   SpreadsheetAnalyzer
}

type Deps struct {
	Quick     *knowledge.Table
	Asker     Asker
	Taxes     TaxCalculator
	Documents DocumentGenerator
	// Analyze defaults to AnalyzeFile.
	Analyze SpreadsheetAnalyzer
}

func NewMachine(cfg model.DialogueConfig, deps Deps) *Machine {
	if cfg.DefaultRegime == "" {
		cfg.DefaultRegime = knowledge.RegimeUSN
	}
	m := &Machine{
		cfg:       cfg,
		quick:     deps.Quick,
		asker:     deps.Asker,
		taxes:     deps.Taxes,
		documents: deps.Documents,
		analyze:   deps.Analyze,
	}
	if m.analyze == nil {
		m.analyze = AnalyzeFile
	}
	return m
}

// Handle applies one event to conv. The returned conversation replaces conv.
func (m *Machine) Handle(ctx context.Context, ev Event, conv model.Conversation) (Reply, model.Conversation) {
	switch ev.Kind {
	case EventCommand:
		return m.handleCommand(ev.Payload)
	case EventCallback:
		if conv.State == model.AwaitingSpreadsheet {
			return Reply{}, conv
		}
		return m.handleCallback(ev.Payload, conv)
	case EventDocument:
		if conv.State != model.AwaitingSpreadsheet {
			return Reply{}, conv
		}
		return m.handleSpreadsheet(ev.Payload), model.IdleConversation()
	case EventText:
		return m.handleText(ctx, ev.Payload, conv)
	default:
		return Reply{}, conv
	}
}

func (m *Machine) handleCommand(name string) (Reply, model.Conversation) {
	switch strings.ToLower(name) {
	case "cancel":
		return Reply{Text: textCancelled, Keyboard: KeyboardMainMenu}, model.IdleConversation()
	default:
		return Reply{Text: textWelcome, Keyboard: KeyboardMainMenu}, model.IdleConversation()
	}
}

func (m *Machine) handleCallback(data string, conv model.Conversation) (Reply, model.Conversation) {
	tag, ok := strings.CutPrefix(data, callbackTaxPrefix)
	if !ok {
		return Reply{}, conv
	}
	regime, ok := knowledge.RegimeForTag(tag)
	if !ok {
		logx.Warn().Str("callback", data).Msg("unknown tax regime button")
		err := errx.Newf(errx.UnknownRegime, "Неподдерживаемая система налогообложения: %s", strings.ToUpper(tag))
		return errorReply(err), model.IdleConversation()
	}
	return Reply{Text: fmt.Sprintf("Выбрана система: %s. %s", regime, textAskIncome)},
		model.Conversation{State: model.AwaitingIncome, Regime: regime}
}

func (m *Machine) handleText(ctx context.Context, text string, conv model.Conversation) (Reply, model.Conversation) {
	switch conv.State {
	case model.AwaitingIncome:
		return m.handleIncome(text, conv.Regime), model.IdleConversation()
	case model.AwaitingDocumentFields:
		return m.handleDocumentFields(ctx, text), model.IdleConversation()
	case model.AwaitingQuestion:
		return m.handleQuestion(ctx, text), model.IdleConversation()
	case model.AwaitingSpreadsheet:
		return Reply{}, conv
	}

	switch strings.TrimSpace(text) {
	case MenuTaxCalculator:
		return Reply{Text: textAskIncome, Keyboard: KeyboardTaxRegimes}, model.Conversation{State: model.AwaitingIncome}
	case MenuDocuments:
		return Reply{Text: textAskDocument}, model.Conversation{State: model.AwaitingDocumentFields}
	case MenuConsultation:
		return Reply{Text: textAskQuestion}, model.Conversation{State: model.AwaitingQuestion}
	case MenuAnalysis:
		return Reply{Text: textAskSpreadsheet}, model.Conversation{State: model.AwaitingSpreadsheet}
	default:
		return Reply{Text: textMenuHint, Keyboard: KeyboardMainMenu}, model.IdleConversation()
	}
}

func (m *Machine) handleIncome(text, regime string) Reply {
	if regime == "" {
		regime = m.cfg.DefaultRegime
	}
	result, err := m.taxes.Calculate(text, regime, "")
	if err != nil {
		return errorReply(err)
	}
	return Reply{Text: result.Format()}
}

func (m *Machine) handleDocumentFields(ctx context.Context, text string) Reply {
	fields := strings.Split(text, ",")
	if len(fields) != 3 {
		return errorReply(errx.Newf(errx.InvalidInput, textBadDocFormat))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	client, amountText, service := fields[0], fields[1], fields[2]

	amount, err := money.Parse(amountText)
	if err != nil {
		return errorReply(errx.New(errx.InvalidInput, err, "Сумма договора должна быть числом"))
	}

	handle, err := m.documents.Generate(ctx, model.DocumentRequest{
		Type:    model.DocumentContract,
		Client:  client,
		Amount:  amount,
		Service: service,
	})
	if err != nil {
		return errorReply(err)
	}

	caption := fmt.Sprintf("✅ Договор для %s готов!\n\nУслуга: %s\nСумма: %s ₽",
		handle.Document.Customer, service, money.Format(amount))
	return Reply{Attachment: &Attachment{Path: handle.Path, Caption: caption}}
}

func (m *Machine) handleQuestion(ctx context.Context, text string) Reply {
	if answer, ok := m.quick.Lookup(text); ok {
		return Reply{Text: answer}
	}
	ans := m.asker.Ask(ctx, text)
	if ans.Err != nil {
		logx.Warn().Err(ans.Err).Str("source", string(ans.Source)).Int("attempts", ans.Attempts).Msg("question answered without the reasoning service")
	}
	return Reply{Text: truncateRunes(ans.Text, m.cfg.MaxReplyRunes)}
}

func (m *Machine) handleSpreadsheet(path string) Reply {
	summary, err := m.analyze(path)
	if err != nil {
		logx.Warn().Err(err).Str("kind", string(errx.KindOf(err))).Msg("spreadsheet rejected")
		return Reply{Text: "❌ Ошибка анализа: " + errx.UserMessage(err)}
	}
	return Reply{Text: summary.Format()}
}

func errorReply(err error) Reply {
	return Reply{Text: "❌ Ошибка: " + errx.UserMessage(err)}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	if r := []rune(s); len(r) > limit {
		return string(r[:limit])
	}
	return s
}
