package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"matriz-curricular/backend/internal/curriculum"
	"matriz-curricular/backend/internal/model"
)

func sampleEntry() curriculum.Entry {
	bim := 1
	return curriculum.Entry{
		Date:            time.Date(2026, 2, 16, 0, 0, 0, 0, testLoc),
		WeekOfYear:      7,
		DayOfWeek:       1,
		Bimester:        &bim,
		Campo:           curriculum.CampoEuOutroNos,
		ObjectiveCode:   "EI01EO03",
		ObjectiveText:   "Interagir com crianças da mesma faixa etária e adultos.",
		CurriculumText:  "Ampliar as relações interpessoais nas rotinas diárias.",
		Intentionality:  "Possibilitar momentos de acolhida em roda.",
		ExampleActivity: "Brincadeira de roda com os nomes das crianças.",
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(*curriculum.Entry)
		force     bool
		action    Action
		changed   []string
		protected []string
	}{
		{
			name:   "identical",
			edit:   func(*curriculum.Entry) {},
			action: ActionUnchanged,
		},
		{
			name:   "whitespace only",
			edit:   func(e *curriculum.Entry) { e.ObjectiveText = "  Interagir com crianças da mesma\nfaixa etária e adultos. " },
			action: ActionUnchanged,
		},
		{
			name:    "editable field",
			edit:    func(e *curriculum.Entry) { e.ExampleActivity = "Caixa sensorial com tecidos." },
			action:  ActionUpdate,
			changed: []string{"example_activity"},
		},
		{
			name:      "normative field without force",
			edit:      func(e *curriculum.Entry) { e.Campo = curriculum.CampoEscutaFala },
			action:    ActionUnchanged,
			protected: []string{"campo"},
		},
		{
			name:    "normative field with force",
			edit:    func(e *curriculum.Entry) { e.Campo = curriculum.CampoEscutaFala },
			force:   true,
			action:  ActionUpdate,
			changed: []string{"campo"},
		},
		{
			name: "mixed without force",
			edit: func(e *curriculum.Entry) {
				e.CurriculumText = "Outro texto do currículo municipal."
				e.Intentionality = ""
			},
			action:    ActionUpdate,
			changed:   []string{"intentionality"},
			protected: []string{"curriculum_text"},
		},
		{
			name:      "bimester removed",
			edit:      func(e *curriculum.Entry) { e.Bimester = nil },
			action:    ActionUnchanged,
			protected: []string{"bimester"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := sampleEntry()
			parsed := sampleEntry()
			tt.edit(&parsed)

			d := Classify(parsed, stored, tt.force)

			if d.Action != tt.action {
				t.Errorf("action: expected %s, got %s", tt.action, d.Action)
			}
			if !reflect.DeepEqual(d.Changed, tt.changed) {
				t.Errorf("changed: expected %v, got %v", tt.changed, d.Changed)
			}
			if !reflect.DeepEqual(d.Protected, tt.protected) {
				t.Errorf("protected: expected %v, got %v", tt.protected, d.Protected)
			}
			if !reflect.DeepEqual(d.Entry, parsed) {
				t.Errorf("decision must carry the parsed entry, got %+v", d.Entry)
			}
		})
	}
}

func TestReconciler_Plan(t *testing.T) {
	entries := newMockEntryRepo()
	stored := sampleEntry()
	stored.ExampleActivity = "Atividade antiga."
	if err := entries.Create(context.Background(), model.NewMatrixEntry(testMatrixID, stored, nil)); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	next := sampleEntry()
	next.Date = next.Date.AddDate(0, 0, 1)
	next.DayOfWeek = 2

	plan := NewReconciler(entries, testLoc).Plan(context.Background(), testMatrixID,
		[]curriculum.Entry{sampleEntry(), next}, false)

	if plan.Updates != 1 || plan.Inserts != 1 || plan.Unchanged != 0 || plan.Failed != 0 {
		t.Errorf("expected 1 update and 1 insert, got %+v", plan)
	}
	if len(plan.Decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(plan.Decisions))
	}
	if plan.Decisions[0].Existing == nil {
		t.Error("first decision should carry the stored row")
	}
	if plan.Decisions[1].Existing != nil {
		t.Error("insert decision should have no stored row")
	}

	preview := plan.Preview(1)
	if len(preview) != 1 {
		t.Fatalf("expected preview of 1, got %d", len(preview))
	}
	if preview[0].Action != "UPDATE" {
		t.Errorf("expected UPDATE, got %s", preview[0].Action)
	}
	if !reflect.DeepEqual(preview[0].ChangedFields, []string{"example_activity"}) {
		t.Errorf("changed fields: got %v", preview[0].ChangedFields)
	}
}

func TestReconciler_StoredRowReadsBackInPlanLocation(t *testing.T) {
	entries := newMockEntryRepo()
	row := model.NewMatrixEntry(testMatrixID, sampleEntry(), nil)
	// drivers may scan a DATE column as UTC midnight
	row.Date = time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	if err := entries.Create(context.Background(), row); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	plan := NewReconciler(entries, testLoc).Plan(context.Background(), testMatrixID,
		[]curriculum.Entry{sampleEntry()}, true)

	if plan.Unchanged != 1 {
		t.Errorf("expected the stored row to read back unchanged, got %+v", plan)
	}
}
