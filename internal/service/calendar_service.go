package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"matriz-curricular/backend/internal/authz"
	"matriz-curricular/backend/internal/dto"
)

// ── Calendar feed ───────────────────────────────────────────
//
// Every entry becomes one all-day VEVENT (RFC 5545):
//   - UID        entry_id@matriz-curricular, stable across exports
//   - SUMMARY    "<campo label> · <objective code>"
//   - CATEGORIES campo code, so clients can colour by campo
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//matriz-curricular//matrix calendar//PT"

func (s *matrixService) Calendar(ctx context.Context, caller authz.Caller, id string) ([]byte, string, error) {
	matrix, err := s.authorizedMatrix(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.entries(ctx, matrix)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s %d", matrix.Name, matrix.Year))

	stamp := matrix.UpdatedAt.UTC()
	for _, e := range entries {
		day, err := time.Parse(time.DateOnly, e.Date)
		if err != nil {
			// stored dates are always DATE columns; skip anything else
			continue
		}
		addEntryEvent(cal, e, day, stamp)
	}

	filename := fmt.Sprintf("matriz_%s_%d.ics", sanitizeFilename(matrix.Segment), matrix.Year)
	return []byte(cal.Serialize()), filename, nil
}

func addEntryEvent(cal *ics.Calendar, e dto.MatrixEntryResponse, day, stamp time.Time) {
	evt := cal.AddEvent(e.ID + "@matriz-curricular")
	evt.SetDtStampTime(stamp)
	evt.SetAllDayStartAt(day)
	evt.SetAllDayEndAt(day.AddDate(0, 0, 1))

	summary := e.CampoLabel
	if code := strOrEmpty(e.ObjectiveCode); code != "" {
		summary += " · " + code
	}
	evt.SetSummary(summary)
	evt.SetDescription(entryDescription(e))
	evt.AddProperty(ics.ComponentPropertyCategories, e.Campo)
}

func entryDescription(e dto.MatrixEntryResponse) string {
	var b strings.Builder
	b.WriteString(e.ObjectiveText)
	if e.CurriculumText != "" {
		b.WriteString("\n\nCurrículo: ")
		b.WriteString(e.CurriculumText)
	}
	if v := strOrEmpty(e.Intentionality); v != "" {
		b.WriteString("\n\nIntencionalidade: ")
		b.WriteString(v)
	}
	if v := strOrEmpty(e.ExampleActivity); v != "" {
		b.WriteString("\n\nExemplo: ")
		b.WriteString(v)
	}
	return b.String()
}
