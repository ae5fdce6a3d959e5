package curriculum

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ── Field segmentation ──────────────────────────────────────
//
// Inside a block the source has no reliable delimiters, so the text is
// split by ordered heuristics:
//   1. drop boilerplate lines
//   2. everything before the bracketed objective code describes the field
//   3. the first sentence after the code is the objective
//   4. the rest walks a forward-only state machine
//      curriculum → intentionality → example
//   5. fewer than two segments falls back to a plain period split
// ─────────────────────────────────────────────────────────────

// codePattern matches a bracketed BNCC-style objective code, e.g. (EI01EO03).
var codePattern = regexp.MustCompile(`\(\s*([A-Z]{2,3}\d{2}[A-Z0-9]{2,6})\s*\)`)

// boilerplate lines are matched against the accent-folded, lowercased line.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`^(plano anual|annual plan|planejamento anual)\b`),
	regexp.MustCompile(`^(prefeitura|secretaria|escola|centro municipal|cmei|emei|creche)\b`),
	regexp.MustCompile(`^educacao infantil\b`),
	regexp.MustCompile(`^(pagina|page|pag\.)\s*\d+`),
	regexp.MustCompile(`^\d+\s*(de|of|/)\s*\d+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^(campos? de experiencias?|fields? of experience):?$`),
	regexp.MustCompile(`^(objetivos? de aprendizagem|learning objectives?)\b`),
	regexp.MustCompile(`^(intencionalidades?( educativas?| pedagogicas?)?|intentionality):?$`),
	regexp.MustCompile(`^(exemplos? de atividades?|example activit(y|ies)):?$`),
	regexp.MustCompile(`^(data|dia|date|day)$`),
	regexp.MustCompile(`^(semana|week)\s*(n[º°o.]\s*)?\d{1,2}\b`),
	regexp.MustCompile(`^\d\s*[º°ªo]?\s*bimestre\b|^bimest(re|er)\s*\d\b`),
}

// Segments is the raw split of one block.
type Segments struct {
	CampoText      string
	Code           string
	Objective      string
	Curriculum     string
	Intentionality string
	Example        string
}

// count returns how many text segments were filled.
func (s Segments) count() int {
	n := 0
	for _, v := range []string{s.Objective, s.Curriculum, s.Intentionality, s.Example} {
		if v != "" {
			n++
		}
	}
	return n
}

// SegmentFields splits one block's text into its fields.
func SegmentFields(block string) Segments {
	lines := contentLines(block)
	if len(lines) == 0 {
		return Segments{}
	}

	var (
		campo     []string
		remainder []string
		code      string
	)
	split := -1
	for i, l := range lines {
		if loc := codePattern.FindStringSubmatchIndex(l); loc != nil {
			split = i
			code = l[loc[2]:loc[3]]
			if before := strings.TrimSpace(l[:loc[0]]); before != "" {
				campo = append(campo, before)
			}
			if after := strings.TrimSpace(l[loc[1]:]); after != "" {
				remainder = append(remainder, after)
			}
			break
		}
		campo = append(campo, l)
	}
	if split < 0 {
		// No code: first line describes the field, the rest is content.
		campo = lines[:1]
		remainder = nil
		split = 0
	}
	remainder = append(remainder, lines[split+1:]...)

	body := NormalizeText(codePattern.ReplaceAllString(strings.Join(remainder, " "), " "))
	seg := Segments{
		CampoText: NormalizeText(strings.Join(campo, " ")),
		Code:      code,
	}
	walkSentences(&seg, splitSentences(body))
	if seg.count() < 2 {
		seg.Objective, seg.Curriculum = splitOnPeriod(body)
		seg.Intentionality, seg.Example = "", ""
	}
	return seg
}

func contentLines(block string) []string {
	var out []string
	for _, raw := range strings.Split(block, "\n") {
		l := strings.TrimSpace(raw)
		if l == "" || isBoilerplate(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func isBoilerplate(line string) bool {
	f := fold(line)
	for _, re := range boilerplate {
		if re.MatchString(f) {
			return true
		}
	}
	return false
}

// splitSentences cuts at a period followed by whitespace and an uppercase letter.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		if j == i+1 || j >= len(s) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[j:])
		if !unicode.IsUpper(r) {
			continue
		}
		out = append(out, strings.TrimSpace(s[start:i+1]))
		start = j
		i = j - 1
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// splitOnPeriod is the fallback: objective up to the first period that has
// text after it, curriculum for the rest.
func splitOnPeriod(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] != '.' {
			continue
		}
		rest := strings.TrimSpace(s[i+1:])
		if rest != "" {
			return strings.TrimSpace(s[:i+1]), rest
		}
	}
	return strings.TrimSpace(s), ""
}

// ── Sentence state machine ──

type segmentState int

const (
	stateCurriculum segmentState = iota
	stateIntentionality
	stateExample
)

// IntentionalityVerbs open an intentionality sentence (folded prefixes).
var IntentionalityVerbs = []string{
	"possibilitar", "proporcionar", "oportunizar", "favorecer", "estimular",
	"incentivar", "promover", "propiciar", "garantir", "instigar",
	"enable", "encourage", "foster", "promote", "provide", "stimulate",
}

// ActivityNouns mark a sentence as an example activity when a word starts
// with one of them (folded), so "atividades" matches and "criatividade" does not.
var ActivityNouns = []string{
	"brincadeira", "atividade", "jogo", "cesto", "cesta", "oficina",
	"contacao", "circuito", "passeio", "teatro", "exemplo",
	"playtime", "game", "activity", "basket", "workshop", "storytelling", "example",
}

type transition struct {
	from  []segmentState
	to    segmentState
	match func(sentence string) bool
}

// transitions is evaluated in order; the first rule whose source state and
// predicate both hold moves the machine. States never move backwards.
var transitions = []transition{
	{from: []segmentState{stateCurriculum}, to: stateIntentionality, match: startsWithAny(IntentionalityVerbs)},
	{from: []segmentState{stateCurriculum, stateIntentionality}, to: stateExample, match: hasTokenPrefix(ActivityNouns)},
}

func startsWithAny(prefixes []string) func(string) bool {
	return func(s string) bool {
		f := fold(s)
		for _, p := range prefixes {
			if strings.HasPrefix(f, p) {
				return true
			}
		}
		return false
	}
}

func hasTokenPrefix(terms []string) func(string) bool {
	return func(s string) bool {
		for _, tok := range tokens(s) {
			for _, t := range terms {
				if strings.HasPrefix(tok, t) {
					return true
				}
			}
		}
		return false
	}
}

func nextState(cur segmentState, sentence string) segmentState {
	for _, t := range transitions {
		for _, from := range t.from {
			if from == cur && t.match(sentence) {
				return t.to
			}
		}
	}
	return cur
}

// walkSentences assigns the first sentence to the objective and feeds the
// rest through the state machine. The first follow-up sentence always seeds
// the curriculum buffer.
func walkSentences(seg *Segments, sentences []string) {
	if len(sentences) == 0 {
		return
	}
	seg.Objective = sentences[0]

	var bufs [3][]string
	state := stateCurriculum
	for _, s := range sentences[1:] {
		if !(state == stateCurriculum && len(bufs[stateCurriculum]) == 0) {
			state = nextState(state, s)
		}
		bufs[state] = append(bufs[state], s)
	}
	seg.Curriculum = strings.Join(bufs[stateCurriculum], " ")
	seg.Intentionality = strings.Join(bufs[stateIntentionality], " ")
	seg.Example = strings.Join(bufs[stateExample], " ")
}
