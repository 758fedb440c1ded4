package quiz

import (
	"reflect"
	"testing"

	"lesson-quiz-service/internal/domain"
)

func TestMultipleChoiceKeepsSingleSelection(t *testing.T) {
	store := NewAnswerStore(sampleDefinition())

	store.RecordMultipleChoice("q1", "A")
	store.RecordMultipleChoice("q1", "B")

	rec, ok := store.Get("q1")
	if !ok {
		t.Fatalf("expected record for q1")
	}
	if !reflect.DeepEqual(rec.SelectedChoiceIDs, []domain.ID{"B"}) {
		t.Fatalf("expected exactly B selected, got %v", rec.SelectedChoiceIDs)
	}
}

func TestAnswerStoreSnapshotIsDetached(t *testing.T) {
	store := NewAnswerStore(sampleDefinition())
	store.RecordMultipleChoice("q1", "A")

	snap := store.Snapshot()
	store.RecordMultipleChoice("q1", "C")
	store.RecordOpenEnded("q3", "later")

	if got, _ := snap["q1"].Selected(); got != "A" {
		t.Fatalf("snapshot changed after mutation: %v", got)
	}
	if snap["q3"].TextAnswer != "" {
		t.Fatalf("snapshot picked up text %q", snap["q3"].TextAnswer)
	}
}

func TestAnswerStoreResetSeedsEmptyRecords(t *testing.T) {
	def := sampleDefinition()
	store := NewAnswerStore(def)
	store.RecordMultipleChoice("q1", "A")
	store.RecordOpenEnded("q3", "text")

	store.Reset(def)

	for _, q := range def.Questions {
		rec, ok := store.Get(q.ID)
		if !ok {
			t.Fatalf("missing record for %s", q.ID)
		}
		if len(rec.SelectedChoiceIDs) != 0 || rec.TextAnswer != "" {
			t.Fatalf("record for %s not empty: %+v", q.ID, rec)
		}
		if rec.Type != q.Type {
			t.Fatalf("record type %s, want %s", rec.Type, q.Type)
		}
	}
}
