package knowledge

import (
	"slices"

	"github.com/bu-online/assistant/internal/assistant/model"
)

const (
	RegimeUSN    = "УСН"
	RegimeUSN15  = "УСН15"
	RegimeNDFL   = "НДФЛ"
	usnDeadline  = "25 число следующего месяца"
	ndflDeadline = "15 июля следующего года"
)

// Regimes is an immutable name-indexed set of tax regimes.
type Regimes struct {
	byName map[string]model.TaxRegime
	order  []string
}

func NewRegimes(regimes ...model.TaxRegime) *Regimes {
	r := &Regimes{byName: make(map[string]model.TaxRegime, len(regimes))}
	for _, reg := range regimes {
		reg.Forms = slices.Clone(reg.Forms)
		if _, dup := r.byName[reg.Name]; !dup {
			r.order = append(r.order, reg.Name)
		}
		r.byName[reg.Name] = reg
	}
	return r
}

func DefaultRegimes() *Regimes {
	return NewRegimes(
		model.TaxRegime{Name: RegimeUSN, Rate: 0.06, Deadline: usnDeadline, Forms: []string{"КНИД", "Декларация УСН"}},
		model.TaxRegime{Name: RegimeUSN15, Rate: 0.15, Deadline: usnDeadline, Forms: []string{"КНИД", "Декларация УСН"}},
		model.TaxRegime{Name: RegimeNDFL, Rate: 0.13, Deadline: ndflDeadline, Forms: []string{"3-НДФЛ"}},
	)
}

// Lookup returns a copy of the named regime so callers cannot mutate the table.
func (r *Regimes) Lookup(name string) (model.TaxRegime, bool) {
	reg, ok := r.byName[name]
	if !ok {
		return model.TaxRegime{}, false
	}
	reg.Forms = slices.Clone(reg.Forms)
	return reg, true
}

// Names lists regimes in declaration order.
func (r *Regimes) Names() []string {
	return slices.Clone(r.order)
}

// callbackTags maps inline-button tags to regime names.
var callbackTags = map[string]string{
	"usn6":  RegimeUSN,
	"usn15": RegimeUSN15,
	"ndfl":  RegimeNDFL,
}

// RegimeForTag resolves the tag part of a "tax_<tag>" button payload.
func RegimeForTag(tag string) (string, bool) {
	name, ok := callbackTags[tag]
	return name, ok
}
