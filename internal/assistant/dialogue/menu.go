package dialogue

const (
	MenuTaxCalculator = "🧮 Налоговый калькулятор"
	MenuDocuments     = "📝 Генератор документов"
	MenuConsultation  = "💡 Консультация ИИ"
	MenuAnalysis      = "📊 Анализ данных"
)

// MainMenu is the reply keyboard, in display order.
var MainMenu = []string{MenuTaxCalculator, MenuDocuments, MenuConsultation, MenuAnalysis}

// TaxButton is one inline button of the regime keyboard.
type TaxButton struct {
	Label string
	Data  string
}

var TaxRegimeButtons = []TaxButton{
	{Label: "УСН 6%", Data: "tax_usn6"},
	{Label: "УСН 15%", Data: "tax_usn15"},
	{Label: "НДФЛ", Data: "tax_ndfl"},
}

const callbackTaxPrefix = "tax_"

const (
	textWelcome = "🤖 <b>Профессиональный бухгалтерский помощник</b>\n\n" +
		"Я могу:\n" +
		"• Рассчитать налоги\n" +
		"• Генерировать документы\n" +
		"• Консультировать по бухгалтерии\n" +
		"• Анализировать финансовые данные"
	textCancelled   = "Действие отменено. Выберите раздел в меню."
	textMenuHint    = "Выберите раздел в меню ниже."
	textAskIncome   = "Введите сумму дохода:"
	textAskDocument = "Введите данные для договора в формате:\n" +
		"<code>Клиент, Сумма, Услуга</code>\n\n" +
		"Пример:\n<code>ООО Ромашка, 50000, Бухгалтерское сопровождение</code>"
	textAskQuestion = "Задайте ваш профессиональный вопрос бухгалтеру-ИИ:\n\n" +
		"Примеры:\n" +
		"• Как учесть командировочные расходы?\n" +
		"• Какие документы нужны для возврата НДС?\n" +
		"• Как перейти на УСН с ОСНО?"
	textAskSpreadsheet = "Отправьте Excel-файл с финансовыми данными для анализа"
	textBadDocFormat   = "Неверный формат данных"
)
