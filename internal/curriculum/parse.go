package curriculum

import (
	"fmt"
	"unicode/utf8"
)

// Parse runs the full pipeline over extracted plan text: segmentation,
// context tracking, field segmentation, classification, validation and
// date de-duplication. It never stops on a bad block; every problem is
// reported in ParseResult.Errors next to the entries that did parse.
func Parse(text string, opts Options) ParseResult {
	res := ParseResult{Entries: []Entry{}, Errors: []string{}}
	if opts.Location == nil {
		res.Errors = append(res.Errors, ErrMissingLocation.Error())
		return res
	}

	var (
		ctx   Context
		first = make(map[string]int) // date key → line of the kept entry
	)
	for b := range Blocks(text, opts.Year, opts.Location) {
		ctx = ctx.Advance(b.Lookback)

		if b.Err != nil {
			res.Errors = append(res.Errors, blockError(b, b.Err))
			continue
		}
		if b.Warning != nil {
			res.Errors = append(res.Errors, blockError(b, b.Warning))
		}
		entry, err := buildEntry(b, ctx, opts.minLength())
		if err != nil {
			res.Errors = append(res.Errors, blockError(b, err))
			continue
		}
		if line, dup := first[entry.Key()]; dup {
			res.Errors = append(res.Errors, blockError(b,
				fmt.Errorf("%w %s ignored, first occurrence at line %d", ErrDuplicateDate, b.Label, line)))
			continue
		}
		first[entry.Key()] = b.Line
		res.Entries = append(res.Entries, entry)
	}
	res.TotalExtracted = len(res.Entries)
	return res
}

// buildEntry turns one well-formed block into a validated entry.
func buildEntry(b Block, ctx Context, minLen int) (Entry, error) {
	seg := SegmentFields(b.Text)
	if seg.CampoText == "" && seg.Objective == "" {
		return Entry{}, ErrEmptyBlock
	}
	if seg.CampoText == "" {
		return Entry{}, ErrMissingCampo
	}
	campo, err := NormalizeCampo(seg.CampoText)
	if err != nil {
		return Entry{}, err
	}

	objective := NormalizeText(seg.Objective)
	curriculum := NormalizeText(seg.Curriculum)
	if err := checkLength("objective text", objective, minLen); err != nil {
		return Entry{}, err
	}
	if err := checkLength("curriculum objective text", curriculum, minLen); err != nil {
		return Entry{}, err
	}

	return Entry{
		Date:            b.Date,
		WeekOfYear:      ctx.WeekFor(b.Date),
		DayOfWeek:       b.DayOfWeek,
		Bimester:        ctx.BimesterPtr(),
		Campo:           campo,
		ObjectiveCode:   seg.Code,
		ObjectiveText:   objective,
		CurriculumText:  curriculum,
		Intentionality:  NormalizeText(seg.Intentionality),
		ExampleActivity: NormalizeText(seg.Example),
		Line:            b.Line,
	}, nil
}

func checkLength(field, s string, minLen int) error {
	if n := utf8.RuneCountInString(s); n <= minLen {
		return fmt.Errorf("%w: %s has %d characters, needs more than %d", ErrTextTooShort, field, n, minLen)
	}
	return nil
}

func blockError(b Block, err error) string {
	return fmt.Sprintf("line %d (%s): %v", b.Line, b.Label, err)
}
