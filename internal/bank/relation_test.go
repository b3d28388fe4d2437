package bank_test

import (
	"testing"

	"github.com/mind-engage/mindengage-qbank/internal/bank"
)

func ptr(id int64) *int64 { return &id }

func ids(list []bank.Exam) []int64 {
	out := make([]int64, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestRelationSetDetachesDroppedMembers(t *testing.T) {
	a := bank.Agency{ID: 1, Name: "AAAA", Exams: []bank.Exam{
		{ID: 10, AgencyID: ptr(1)},
		{ID: 11, AgencyID: ptr(1)},
	}}
	detached := bank.AgencyExams.Set(&a, []bank.Exam{{ID: 11}, {ID: 12, AgencyID: ptr(7)}})

	if len(detached) != 1 || detached[0].ID != 10 || detached[0].AgencyID != nil {
		t.Fatalf("detached: %+v", detached)
	}
	if got := ids(a.Exams); len(got) != 2 || got[0] != 11 || got[1] != 12 {
		t.Fatalf("members: %v", got)
	}
	for _, e := range a.Exams {
		if !bank.AgencyExams.PointsTo(&a, &e) {
			t.Fatalf("exam %d not linked back to agency", e.ID)
		}
	}
}

func TestRelationSetEmpty(t *testing.T) {
	l := bank.License{ID: 3, Exams: []bank.Exam{{ID: 1, LicenseID: ptr(3)}, {ID: 2, LicenseID: ptr(3)}}}
	detached := bank.LicenseExams.Set(&l, nil)
	if len(detached) != 2 || len(l.Exams) != 0 {
		t.Fatalf("detached=%d members=%d", len(detached), len(l.Exams))
	}
	for _, e := range detached {
		if e.LicenseID != nil {
			t.Fatalf("exam %d still points at license", e.ID)
		}
	}
}

func TestRelationAddIsIdempotent(t *testing.T) {
	e := bank.Exam{ID: 5}
	q := bank.Quiz{ID: 9, Code: "c"}
	bank.ExamQuizzes.Add(&e, q)
	linked := bank.ExamQuizzes.Add(&e, q)

	if len(e.Quizzes) != 1 {
		t.Fatalf("want one member, got %d", len(e.Quizzes))
	}
	if linked.ExamID == nil || *linked.ExamID != 5 {
		t.Fatalf("back-reference not set: %+v", linked.ExamID)
	}
}

func TestRelationRemove(t *testing.T) {
	q := bank.Quiz{ID: 2}
	bank.QuizExplains.Add(&q, bank.Explain{ID: 1})
	bank.QuizExplains.Add(&q, bank.Explain{ID: 2})

	got, ok := bank.QuizExplains.Remove(&q, bank.Explain{ID: 1, QuizID: ptr(2)})
	if !ok || got.QuizID != nil {
		t.Fatalf("remove member: ok=%v quiz_id=%v", ok, got.QuizID)
	}
	if len(q.Explains) != 1 || q.Explains[0].ID != 2 {
		t.Fatalf("members after remove: %+v", q.Explains)
	}

	// not a member and pointing elsewhere: nothing changes
	other := bank.Explain{ID: 8, QuizID: ptr(99)}
	got, ok = bank.QuizExplains.Remove(&q, other)
	if ok || got.QuizID == nil || *got.QuizID != 99 {
		t.Fatalf("remove non-member: ok=%v quiz_id=%v", ok, got.QuizID)
	}
	if len(q.Explains) != 1 {
		t.Fatalf("collection changed: %+v", q.Explains)
	}
}

func TestEqualityIsByID(t *testing.T) {
	if !(bank.Exam{ID: 1, Title: "a"}).Equal(bank.Exam{ID: 1, Title: "b"}) {
		t.Fatal("same id must be equal")
	}
	if (bank.Exam{}).Equal(bank.Exam{}) {
		t.Fatal("unsaved entities are never equal")
	}
	if (bank.Quiz{ID: 1}).Equal(bank.Quiz{ID: 2}) {
		t.Fatal("different ids must differ")
	}
}
