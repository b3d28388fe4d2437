package bank_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-qbank/internal/bank"
)

func strp(s string) *string { return &s }

func TestQuizPatchKeepsOmittedFields(t *testing.T) {
	stored := bank.Quiz{ID: 4, Code: "Q-1", Question: "old", Example: strp("ex"), ExamID: ptr(2)}

	var p bank.QuizPatch
	if err := json.Unmarshal([]byte(`{"id":4,"question":"new"}`), &p); err != nil {
		t.Fatal(err)
	}
	got := p.Merge(stored)

	if got.Question != "new" {
		t.Fatalf("question: %q", got.Question)
	}
	if got.Code != "Q-1" || got.Example == nil || *got.Example != "ex" || got.ExamID == nil || *got.ExamID != 2 {
		t.Fatalf("omitted fields changed: %+v", got)
	}
}

func TestPatchNullLeavesValue(t *testing.T) {
	stored := bank.Exam{ID: 1, Title: "T", AgencyID: ptr(3), EffectiveDate: bank.NewDate(2024, time.March, 1)}

	var p bank.ExamPatch
	if err := json.Unmarshal([]byte(`{"id":1,"agency_id":null,"title":null}`), &p); err != nil {
		t.Fatal(err)
	}
	got := p.Merge(stored)
	if got.AgencyID == nil || *got.AgencyID != 3 || got.Title != "T" {
		t.Fatalf("null overwrote stored value: %+v", got)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	stored := bank.Exam{ID: 1, Title: "T", EffectiveDate: bank.NewDate(2024, time.March, 1)}

	var p bank.ExamPatch
	body := `{"id":1,"title":"U","exam_type":"ENGLISH","effective_date":"2025-01-02","license_id":6}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatal(err)
	}
	once := p.Merge(stored)
	twice := p.Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("merge not idempotent:\n%+v\n%+v", once, twice)
	}
	if once.ExamType == nil || *once.ExamType != bank.ExamTypeEnglish {
		t.Fatalf("exam_type: %v", once.ExamType)
	}
	if once.EffectiveDate.String() != "2025-01-02" {
		t.Fatalf("effective_date: %s", once.EffectiveDate)
	}
}

func TestExplainPatch(t *testing.T) {
	stored := bank.Explain{ID: 2, Answer: bank.AnswerQ1, QuizID: ptr(8)}
	var p bank.ExplainPatch
	if err := json.Unmarshal([]byte(`{"id":2,"answer":"Q4","description":"because"}`), &p); err != nil {
		t.Fatal(err)
	}
	got := p.Merge(stored)
	if got.Answer != bank.AnswerQ4 || got.Description == nil || *got.Description != "because" || *got.QuizID != 8 {
		t.Fatalf("got %+v", got)
	}
}

func TestDateJSON(t *testing.T) {
	var e bank.Exam
	if err := json.Unmarshal([]byte(`{"title":"x","effective_date":"2023-12-31"}`), &e); err != nil {
		t.Fatal(err)
	}
	if e.EffectiveDate.String() != "2023-12-31" {
		t.Fatalf("got %s", e.EffectiveDate)
	}
	b, err := json.Marshal(bank.Exam{Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"title":"x","effective_date":null}` {
		t.Fatalf("got %s", b)
	}
}
