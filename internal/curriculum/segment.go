package curriculum

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ── Date block segmentation ─────────────────────────────────
//
// A plan lists one block per school day, each opened by a marker such as
// "18/02 – qua", "18/02/2026 - Quarta-feira" or "18/02 Wed". A block runs
// from the end of its marker to the start of the next one.
// ─────────────────────────────────────────────────────────────

// Markers only open a line; a date quoted inside body text is plain text.
var markerPattern = regexp.MustCompile(`(?m)^[ \t]*(\d{2})/(\d{2})(?:/\d{2,4})?[ \t]*(?:[-–—][ \t]*)?(\p{L}{3,13}(?:-feira)?)\.?`)

// lookbackWindow bounds how far before a marker the context tracker looks.
const lookbackWindow = 400

// weekdayTable maps time.Weekday (Sunday=0) to the folded full day names.
// A marker word must be a prefix of one of them, at least three letters long.
var weekdayTable = [7][]string{
	time.Sunday:    {"domingo", "sunday"},
	time.Monday:    {"segunda", "monday"},
	time.Tuesday:   {"terca", "tuesday"},
	time.Wednesday: {"quarta", "wednesday"},
	time.Thursday:  {"quinta", "thursday"},
	time.Friday:    {"sexta", "friday"},
	time.Saturday:  {"sabado", "saturday"},
}

type marker struct {
	start, end int
	day        string
	month      string
	weekday    string
}

// markers yields the non-overlapping date markers of text in document order.
// The input is never mutated; ranging over the sequence again restarts the scan.
func markers(text string) iter.Seq[marker] {
	return func(yield func(marker) bool) {
		for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
			m := marker{
				start:   loc[0],
				end:     loc[1],
				day:     text[loc[2]:loc[3]],
				month:   text[loc[4]:loc[5]],
				weekday: text[loc[6]:loc[7]],
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Block is one date-anchored slice of the source text.
type Block struct {
	Label     string // the raw "dd/mm" token
	Date      time.Time
	DayOfWeek int
	Text      string
	Line      int
	// Lookback is the text preceding the marker, clipped to lookbackWindow
	// and to the end of the previous marker.
	Lookback string
	// Err is set when the marker itself is malformed. The block still
	// advances the context, but yields no entry.
	Err error
	// Warning is set when the day name disagrees with the calendar. The
	// entry keeps the calendar weekday.
	Warning error
}

// Blocks segments text into date blocks anchored to year in loc.
func Blocks(text string, year int, loc *time.Location) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		var (
			prev     *marker
			prevEnd  int
			line     = 1
			linePos  int
			pending  Block
			havePend bool
		)
		emit := func(end int) bool {
			if !havePend {
				return true
			}
			pending.Text = text[prev.end:end]
			return yield(pending)
		}

		for m := range markers(text) {
			if !emit(m.start) {
				return
			}
			line += strings.Count(text[linePos:m.start], "\n")
			linePos = m.start

			from := max(prevEnd, m.start-lookbackWindow)
			from = runeBoundary(text, from)

			b := Block{
				Label:    m.day + "/" + m.month,
				Line:     line,
				Lookback: text[from:m.start],
			}
			date, err := civilDate(year, m.day, m.month, loc)
			if err != nil {
				b.Err = err
			} else {
				b.Date = date
				dow, err := lookupWeekday(m.weekday)
				switch {
				case err != nil:
					b.Err = err
				case dow != int(date.Weekday()):
					b.Warning = fmt.Errorf("%w: %q names %s, but %s is a %s",
						ErrWeekdayMismatch, m.weekday, time.Weekday(dow), b.Label, date.Weekday())
				}
				b.DayOfWeek = int(date.Weekday())
			}

			mm := m
			prev = &mm
			prevEnd = m.end
			pending = b
			havePend = true
		}
		emit(len(text))
	}
}

// civilDate builds midnight of dd/mm/year in loc, rejecting impossible days.
func civilDate(year int, dd, mm string, loc *time.Location) (time.Time, error) {
	d, errD := strconv.Atoi(dd)
	m, errM := strconv.Atoi(mm)
	if errD != nil || errM != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("%w: %s/%s", ErrInvalidDate, dd, mm)
	}
	t := time.Date(year, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, fmt.Errorf("%w: %s/%s does not exist in %d", ErrInvalidDate, dd, mm, year)
	}
	return t, nil
}

// lookupWeekday resolves a day-name word through weekdayTable. There is no
// fallback day: an unknown word is an error.
func lookupWeekday(word string) (int, error) {
	f := strings.TrimSuffix(fold(word), "-feira")
	if utf8.RuneCountInString(f) < 3 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, word)
	}
	for dow, names := range weekdayTable {
		for _, name := range names {
			if strings.HasPrefix(name, f) {
				return dow, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, word)
}
