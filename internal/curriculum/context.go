package curriculum

import (
	"regexp"
	"strconv"
	"time"
)

var (
	weekPattern     = regexp.MustCompile(`(?i)\b(?:semana|week)\s*(?:n[º°o.]\s*)?(\d{1,2})\b`)
	bimesterPattern = regexp.MustCompile(`(?i)(?:\b([1-4])\s*[º°ªo]?\s*bimestre|\bbimest(?:re|er)\s*(?:n[º°o.]\s*)?([1-4])\b)`)
)

// Context is the week/bimester state carried from one block to the next.
// Zero means "not seen yet".
type Context struct {
	Week     int
	Bimester int
}

// Advance returns the context for a block given the text in front of its
// marker. The last marker inside the window wins; values missing from the
// window carry over from c.
func (c Context) Advance(lookback string) Context {
	next := c
	if ms := weekPattern.FindAllStringSubmatch(lookback, -1); len(ms) > 0 {
		if n, err := strconv.Atoi(ms[len(ms)-1][1]); err == nil && n >= 1 && n <= 53 {
			next.Week = n
		}
	}
	if ms := bimesterPattern.FindAllStringSubmatch(lookback, -1); len(ms) > 0 {
		last := ms[len(ms)-1]
		raw := last[1]
		if raw == "" {
			raw = last[2]
		}
		if n, err := strconv.Atoi(raw); err == nil {
			next.Bimester = n
		}
	}
	return next
}

// WeekFor returns the tracked week, or the ISO week of date when no week
// marker has been seen yet.
func (c Context) WeekFor(date time.Time) int {
	if c.Week > 0 {
		return c.Week
	}
	_, w := date.ISOWeek()
	return w
}

// BimesterPtr returns the tracked bimester, or nil when unknown.
func (c Context) BimesterPtr() *int {
	if c.Bimester == 0 {
		return nil
	}
	b := c.Bimester
	return &b
}
