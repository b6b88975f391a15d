// Package knowledge holds the static tax regimes and the keyword-matched answer
// tables used both before and after a reasoning service call.
package knowledge

import "strings"

// Entry answers any prompt containing one of its keywords.
type Entry struct {
	Keywords []string
	Answer   string
}

// Table is an ordered keyword lookup. The first matching entry wins.
type Table struct {
	entries []Entry
}

func NewTable(entries ...Entry) *Table {
	t := &Table{entries: make([]Entry, 0, len(entries))}
	for _, e := range entries {
		kws := make([]string, 0, len(e.Keywords))
		for _, kw := range e.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		t.entries = append(t.entries, Entry{Keywords: kws, Answer: e.Answer})
	}
	return t
}

// Lookup does a case-insensitive substring match of every keyword against prompt.
func (t *Table) Lookup(prompt string) (string, bool) {
	if t == nil {
		return "", false
	}
	lower := strings.ToLower(prompt)
	for _, e := range t.entries {
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return e.Answer, true
			}
		}
	}
	return "", false
}

// QuickResponses are short canned answers for the most frequent questions.
func QuickResponses() *Table {
	return NewTable(
		Entry{Keywords: []string{"срок уплаты ндс"}, Answer: "До 25 числа следующего месяца (ст. 174 НК РФ)"},
		Entry{Keywords: []string{"ставка ндфл"}, Answer: "13% для резидентов, 30% для нерезидентов (ст. 224 НК РФ)"},
		Entry{Keywords: []string{"усн"}, Answer: "Упрощенная система налогообложения (6% или 15%) - НК РФ ст. 346.12"},
	)
}

// LocalKnowledge is the fallback answered when the reasoning service cannot be used.
func LocalKnowledge() *Table {
	return NewTable(
		Entry{
			Keywords: []string{"усн", "упрощен"},
			Answer: "📌 УСН (упрощенная система налогообложения):\n" +
				"• Ставка: 6% от доходов или 15% от (доходы - расходы)\n" +
				"• Отчетность: Декларация УСН (до 30 апреля)\n" +
				"• Уплата: авансовые платежи до 25 числа\n" +
				"• НПА: НК РФ ст. 346.12-346.27",
		},
		Entry{
			Keywords: []string{"ндфл", "подоходный"},
			Answer: "📌 НДФЛ (налог на доходы физлиц):\n" +
				"• Ставка: 13% (резиденты), 30% (нерезиденты)\n" +
				"• Срок уплаты: не позднее 15 июля\n" +
				"• Форма: 3-НДФЛ\n" +
				"• НПА: НК РФ ст. 207-233",
		},
	)
}
