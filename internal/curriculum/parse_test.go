package curriculum

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("BRT", -3*3600)

func testOptions() Options {
	return Options{Year: 2026, Location: testLoc, MinTextLength: 10}
}

const testPlan = `PLANO ANUAL – EDUCAÇÃO INFANTIL
CMEI Pequenos Passos
SEMANA 7 – 1º BIMESTRE
16/02 – seg
O eu, o outro e o nós
(EI01EO03) Interagir com crianças da mesma faixa etária e adultos. Ampliar as relações interpessoais nas rotinas diárias. Possibilitar momentos de acolhida em roda. Brincadeira de roda com os nomes das crianças.
17/02 – ter
Corpo, gestos e movimentos
(EI01CG01) Movimentar as partes do corpo para exprimir emoções. Explorar gestos e movimentos em diferentes espaços.
18/02 – qua
Traços, sons, cores e formas
(EI01TS02) Traçar marcas gráficas em diferentes suportes. Explorar cores com tintas naturais.
Página 3
`

func TestParse_WellFormedPlan(t *testing.T) {
	res := Parse(testPlan, testOptions())

	require.Empty(t, res.Errors)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, 3, res.TotalExtracted)

	first := res.Entries[0]
	assert.Equal(t, time.Date(2026, 2, 16, 0, 0, 0, 0, testLoc), first.Date)
	assert.Equal(t, 1, first.DayOfWeek)
	assert.Equal(t, 7, first.WeekOfYear)
	require.NotNil(t, first.Bimester)
	assert.Equal(t, 1, *first.Bimester)
	assert.Equal(t, CampoEuOutroNos, first.Campo)
	assert.Equal(t, "EI01EO03", first.ObjectiveCode)
	assert.Equal(t, "Interagir com crianças da mesma faixa etária e adultos.", first.ObjectiveText)
	assert.Equal(t, "Ampliar as relações interpessoais nas rotinas diárias.", first.CurriculumText)
	assert.Equal(t, "Possibilitar momentos de acolhida em roda.", first.Intentionality)
	assert.Equal(t, "Brincadeira de roda com os nomes das crianças.", first.ExampleActivity)

	second := res.Entries[1]
	assert.Equal(t, CampoCorpoGestos, second.Campo)
	assert.Equal(t, 2, second.DayOfWeek)
	assert.Equal(t, 7, second.WeekOfYear, "week carries forward")
	assert.Empty(t, second.Intentionality)
	assert.Empty(t, second.ExampleActivity)

	third := res.Entries[2]
	assert.Equal(t, CampoTracosSons, third.Campo)
	assert.Equal(t, "Explorar cores com tintas naturais.", third.CurriculumText, "page footer is dropped")
}

func TestParse_ExampleBlock(t *testing.T) {
	text := "18/02 – Wed\nSelf, others and community\n" +
		"(EI01EO03) Participate in conversation circles. Expand vocabulary through songs. Playtime with sensory baskets."

	res := Parse(text, testOptions())

	require.Empty(t, res.Errors)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, 3, e.DayOfWeek)
	assert.Equal(t, CampoEuOutroNos, e.Campo)
	assert.Equal(t, "EI01EO03", e.ObjectiveCode)
	assert.Equal(t, "Participate in conversation circles.", e.ObjectiveText)
	assert.Equal(t, "Expand vocabulary through songs.", e.CurriculumText)
	assert.Contains(t, e.ExampleActivity, "Playtime with sensory baskets")
}

func TestParse_DuplicateDateKeepsFirst(t *testing.T) {
	text := testPlan + `
16/02 – seg
Escuta, fala, pensamento e imaginação
(EI01EF01) Reconhecer quando é chamado por seu nome. Ouvir histórias contadas pela professora.
`
	res := Parse(text, testOptions())

	assert.Equal(t, 3, res.TotalExtracted)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "duplicate date 16/02")
	assert.Equal(t, CampoEuOutroNos, res.Entries[0].Campo)
}

func TestParse_BlockErrorsDoNotAbort(t *testing.T) {
	tests := []struct {
		name   string
		block  string
		expect string
	}{
		{
			name:   "unknown weekday",
			block:  "19/02 – xyz\nCorpo, gestos e movimentos\n(EI01CG02) Explorar o espaço com o corpo todo. Engatinhar e andar em circuitos.",
			expect: "unrecognized day-of-week",
		},
		{
			name:   "impossible date",
			block:  "31/02 – ter\nCorpo, gestos e movimentos\n(EI01CG02) Explorar o espaço com o corpo todo. Engatinhar e andar em circuitos.",
			expect: "invalid date marker",
		},
		{
			name:   "short objective",
			block:  "20/02 – sex\nCorpo, gestos e movimentos\n(EI01CG02) Brincar. Explorar o espaço com o corpo todo.",
			expect: "below minimum length",
		},
		{
			name:   "unknown field of experience",
			block:  "20/02 – sex\nMatemática avançada\n(EI01XX02) Resolver problemas com números. Calcular áreas de figuras planas.",
			expect: "Matemática avançada",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse(testPlan+tc.block, testOptions())

			assert.Equal(t, 3, res.TotalExtracted)
			require.Len(t, res.Errors, 1)
			assert.Contains(t, res.Errors[0], tc.expect)
		})
	}
}

func TestParse_IdenticalTextIsDeterministic(t *testing.T) {
	a := Parse(testPlan, testOptions())
	b := Parse(testPlan, testOptions())
	assert.Equal(t, a, b)
}

func TestParse_RequiresLocation(t *testing.T) {
	res := Parse(testPlan, Options{Year: 2026})
	assert.Empty(t, res.Entries)
	require.Len(t, res.Errors, 1)
}

func TestParse_WeekFallsBackToISOWeek(t *testing.T) {
	text := "16/02 – seg\nCorpo, gestos e movimentos\n(EI01CG01) Movimentar as partes do corpo. Explorar gestos e movimentos variados."
	res := Parse(text, testOptions())

	require.Len(t, res.Entries, 1)
	assert.Equal(t, 8, res.Entries[0].WeekOfYear)
	assert.Nil(t, res.Entries[0].Bimester)
}

func TestParse_DateInsideBodyTextIsNotAMarker(t *testing.T) {
	text := "16/02 – seg\nTraços, sons, cores e formas\n" +
		"(EI01TS02) Explorar tintas e texturas no papel. Preparar a apresentação de 20/03 para as famílias na escola."

	res := Parse(text, testOptions())

	require.Empty(t, res.Errors)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "Preparar a apresentação de 20/03 para as famílias na escola.", res.Entries[0].CurriculumText)
}

func TestParse_WeekdayMismatchIsReported(t *testing.T) {
	// 16/02/2026 is a Monday.
	text := "16/02 – qua\nCorpo, gestos e movimentos\n" +
		"(EI01CG01) Movimentar as partes do corpo. Explorar gestos e movimentos variados."

	res := Parse(text, testOptions())

	require.Len(t, res.Entries, 1)
	assert.Equal(t, 1, res.Entries[0].DayOfWeek, "calendar weekday is kept")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], ErrWeekdayMismatch.Error())
	assert.Contains(t, res.Errors[0], "16/02")
}

// ── Segmentation ──

func TestMarkers_Restartable(t *testing.T) {
	seq := markers(testPlan)
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count())
}

func TestBlocks_LineNumbers(t *testing.T) {
	var lines []int
	for b := range Blocks(testPlan, 2026, testLoc) {
		lines = append(lines, b.Line)
	}
	assert.Equal(t, []int{4, 7, 10}, lines)
}

func TestLookupWeekday(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"dom", 0},
		{"Seg", 1},
		{"terça", 2},
		{"Quarta-feira", 3},
		{"Wed", 3},
		{"QUI", 4},
		{"sexta", 5},
		{"Sáb", 6},
		{"Saturday", 6},
		{"Tues", 2},
		{"quinta-feira", 4},
	}
	for _, tc := range tests {
		got, err := lookupWeekday(tc.word)
		require.NoError(t, err, tc.word)
		assert.Equal(t, tc.want, got, tc.word)
	}

	_, err := lookupWeekday("xyz")
	assert.True(t, errors.Is(err, ErrUnknownWeekday))
	_, err = lookupWeekday("Mo")
	assert.True(t, errors.Is(err, ErrUnknownWeekday))
	for _, word := range []string{"quadro", "segundo", "terceiro", "sextante", "para"} {
		_, err = lookupWeekday(word)
		assert.ErrorIs(t, err, ErrUnknownWeekday, word)
	}
}

func TestCivilDate(t *testing.T) {
	d, err := civilDate(2028, "29", "02", testLoc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2028, 2, 29, 0, 0, 0, 0, testLoc), d)

	_, err = civilDate(2026, "29", "02", testLoc)
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = civilDate(2026, "10", "13", testLoc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

// ── Context tracking ──

func TestContext_Advance(t *testing.T) {
	var c Context
	c = c.Advance("SEMANA 3\n2º BIMESTRE")
	assert.Equal(t, Context{Week: 3, Bimester: 2}, c)

	c = c.Advance("nothing relevant here")
	assert.Equal(t, Context{Week: 3, Bimester: 2}, c, "carries forward")

	c = c.Advance("Semana 4 ... semana nº 5")
	assert.Equal(t, 5, c.Week, "last match wins")
	assert.Equal(t, 2, c.Bimester)

	c = c.Advance("Bimestre 3")
	assert.Equal(t, 3, c.Bimester)

	c = c.Advance("week 60")
	assert.Equal(t, 5, c.Week, "out of range week is ignored")
}

// ── Field segmentation ──

func TestSegmentFields_CampoOnCodeLine(t *testing.T) {
	seg := SegmentFields("Corpo, gestos e movimentos (EI02CG01) Apropriar-se de gestos nas brincadeiras. Deslocar o corpo no espaço.")
	assert.Equal(t, "Corpo, gestos e movimentos", seg.CampoText)
	assert.Equal(t, "EI02CG01", seg.Code)
	assert.Equal(t, "Apropriar-se de gestos nas brincadeiras.", seg.Objective)
	assert.Equal(t, "Deslocar o corpo no espaço.", seg.Curriculum)
}

func TestSegmentFields_NoCode(t *testing.T) {
	seg := SegmentFields("Traços, sons, cores e formas\nExplorar sons do ambiente. Produzir sons com objetos.")
	assert.Equal(t, "Traços, sons, cores e formas", seg.CampoText)
	assert.Empty(t, seg.Code)
	assert.Equal(t, "Explorar sons do ambiente.", seg.Objective)
	assert.Equal(t, "Produzir sons com objetos.", seg.Curriculum)
}

func TestSegmentFields_FallbackPeriodSplit(t *testing.T) {
	seg := SegmentFields("Traços, sons, cores e formas\n(EI01TS01) Explorar objetos diversos.Manipular texturas variadas")
	assert.Equal(t, "Explorar objetos diversos.", seg.Objective)
	assert.Equal(t, "Manipular texturas variadas", seg.Curriculum)
	assert.Empty(t, seg.Intentionality)
	assert.Empty(t, seg.Example)
}

func TestSegmentFields_DropsBoilerplate(t *testing.T) {
	block := strings.Join([]string{
		"CAMPO DE EXPERIÊNCIA",
		"Escuta, fala, pensamento e imaginação",
		"OBJETIVOS DE APRENDIZAGEM",
		"(EI01EF02) Demonstrar interesse ao ouvir poemas. Ouvir músicas e histórias.",
		"Página 12",
		"SEMANA 9",
	}, "\n")
	seg := SegmentFields(block)
	assert.Equal(t, "Escuta, fala, pensamento e imaginação", seg.CampoText)
	assert.Equal(t, "Ouvir músicas e histórias.", seg.Curriculum)
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Primeira frase. Segunda frase. fim sem maiúscula. Terceira")
	assert.Equal(t, []string{"Primeira frase.", "Segunda frase. fim sem maiúscula.", "Terceira"}, got)
}

func TestWalkSentences_IntentionalityThenExample(t *testing.T) {
	var seg Segments
	walkSentences(&seg, []string{
		"Objetivo.",
		"Currículo um.",
		"Currículo dois.",
		"Estimular a curiosidade.",
		"Favorecer a autonomia.",
		"Jogo de encaixe.",
		"Estimular de novo.",
	})
	assert.Equal(t, "Objetivo.", seg.Objective)
	assert.Equal(t, "Currículo um. Currículo dois.", seg.Curriculum)
	assert.Equal(t, "Estimular a curiosidade. Favorecer a autonomia.", seg.Intentionality)
	assert.Equal(t, "Jogo de encaixe. Estimular de novo.", seg.Example, "states never move backwards")
}

func TestSegmentFields_CreativityIsNotAnActivity(t *testing.T) {
	seg := SegmentFields("Traços, sons, cores e formas\n" +
		"(EI01TS02) Reconhecer cores nos materiais. Explorar tintas e texturas no papel. " +
		"Desenvolver a criatividade por meio de desenhos livres. Ampliar o repertório de cores.")

	assert.Equal(t, "Explorar tintas e texturas no papel. Desenvolver a criatividade por meio de desenhos livres. "+
		"Ampliar o repertório de cores.", seg.Curriculum)
	assert.Empty(t, seg.Example)
}

func TestHasTokenPrefix(t *testing.T) {
	match := hasTokenPrefix(ActivityNouns)
	assert.True(t, match("Atividades com massinha de modelar."))
	assert.True(t, match("Brincadeira de roda."))
	assert.True(t, match("Playtime with sensory baskets."))
	assert.False(t, match("Desenvolver a criatividade."))
	assert.False(t, match("Explore screen interactivity."))
}

// ── Normalizer ──

func TestNormalizeCampo(t *testing.T) {
	tests := []struct {
		text string
		want Campo
	}{
		{"O eu, o outro e o nós", CampoEuOutroNos},
		{"Corpo, gestos e movimentos", CampoCorpoGestos},
		{"Body, gestures and movement", CampoCorpoGestos},
		{"TRAÇOS, SONS, CORES E FORMAS", CampoTracosSons},
		{"Escuta, fala, pensamento e imaginação", CampoEscutaFala},
		{"Espaços, tempos, quantidades, relações e transformações", CampoEspacosTempos},
		{"Space, time, quantities and relations", CampoEspacosTempos},
	}
	for _, tc := range tests {
		got, err := NormalizeCampo(tc.text)
		require.NoError(t, err, tc.text)
		assert.Equal(t, tc.want, got, tc.text)
	}
}

func TestNormalizeCampo_Unresolved(t *testing.T) {
	long := "Conteúdo sem vínculo algum com as áreas previstas na base nacional comum curricular"
	_, err := NormalizeCampo(long)
	require.ErrorIs(t, err, ErrUnknownCampo)
	assert.Contains(t, err.Error(), "Conteúdo sem vínculo")
	assert.Contains(t, err.Error(), "…")
}

func TestCampoRules_OrderIsPriority(t *testing.T) {
	// Matches both the self/other and body rules; the earlier rule wins.
	got, err := NormalizeCampo("O outro e o corpo")
	require.NoError(t, err)
	assert.Equal(t, CampoEuOutroNos, got)

	for _, r := range CampoRules {
		assert.True(t, r.Campo.Valid())
		assert.NotEmpty(t, r.Campo.Label())
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \n\t b   c  "))
	assert.Equal(t, "", NormalizeText(" \n "))
}
