package curriculum

import (
	"fmt"
	"strings"
)

// Campo is one of the five fields of experience of the early-childhood
// curriculum. The string value is the two-letter code used inside BNCC
// objective codes (EI01EO03 → EO) and stored in the database.
type Campo string

const (
	CampoEuOutroNos    Campo = "EO" // O eu, o outro e o nós
	CampoCorpoGestos   Campo = "CG" // Corpo, gestos e movimentos
	CampoTracosSons    Campo = "TS" // Traços, sons, cores e formas
	CampoEscutaFala    Campo = "EF" // Escuta, fala, pensamento e imaginação
	CampoEspacosTempos Campo = "ET" // Espaços, tempos, quantidades, relações e transformações
)

var campoLabels = map[Campo]string{
	CampoEuOutroNos:    "O eu, o outro e o nós",
	CampoCorpoGestos:   "Corpo, gestos e movimentos",
	CampoTracosSons:    "Traços, sons, cores e formas",
	CampoEscutaFala:    "Escuta, fala, pensamento e imaginação",
	CampoEspacosTempos: "Espaços, tempos, quantidades, relações e transformações",
}

// Label returns the display name of c.
func (c Campo) Label() string {
	return campoLabels[c]
}

// Valid reports whether c is one of the five categories.
func (c Campo) Valid() bool {
	_, ok := campoLabels[c]
	return ok
}

// CampoRule maps a set of terms to a category. A term ending in "*" matches
// any token with that prefix; otherwise the token must match exactly.
type CampoRule struct {
	Campo Campo
	Terms []string
}

// Matches reports whether any token of text satisfies one of the rule terms.
func (r CampoRule) Matches(text string) bool {
	for _, tok := range tokens(text) {
		for _, term := range r.Terms {
			if prefix, ok := strings.CutSuffix(term, "*"); ok {
				if strings.HasPrefix(tok, prefix) {
					return true
				}
			} else if tok == term {
				return true
			}
		}
	}
	return false
}

// CampoRules is evaluated top to bottom; the first matching rule wins.
var CampoRules = []CampoRule{
	{CampoEuOutroNos, []string{"outro*", "self", "other*", "communit*", "comunidade*", "convivio", "convivencia"}},
	{CampoCorpoGestos, []string{"corpo*", "corporal", "gesto*", "gestu*", "moviment*", "body", "bodies", "bodily", "gesture*", "movement*"}},
	{CampoTracosSons, []string{"traco*", "som", "sons", "cor", "cores", "forma", "formas", "trace*", "sound*", "color*", "colour*", "shape*"}},
	{CampoEscutaFala, []string{"escuta*", "fala*", "pensamento*", "imaginac*", "listen*", "speech", "speak*", "thought*", "thinking", "imagination*"}},
	{CampoEspacosTempos, []string{"espaco*", "tempo*", "quantidade*", "relac*", "transformac*", "space*", "time*", "quantit*", "relation*"}},
}

// NormalizeCampo classifies a free-text field-of-experience description.
// Text that matches no rule is an error, never a default category.
func NormalizeCampo(text string) (Campo, error) {
	for _, rule := range CampoRules {
		if rule.Matches(text) {
			return rule.Campo, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCampo, truncate(NormalizeText(text), 60))
}
