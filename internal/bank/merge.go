package bank

import "github.com/mind-engage/mindengage-qbank/internal/patch"

// Patch payloads for PATCH requests. Every member is tri-state: absent and
// null leave the stored value alone, a value overwrites it.

type AgencyPatch struct {
	ID   *int64              `json:"id"`
	Name patch.Field[string] `json:"name,omitzero"`
}

type LicensePatch struct {
	ID    *int64              `json:"id"`
	Title patch.Field[string] `json:"title,omitzero"`
}

type ExamPatch struct {
	ID            *int64                `json:"id"`
	Title         patch.Field[string]   `json:"title,omitzero"`
	ExamType      patch.Field[ExamType] `json:"exam_type,omitzero"`
	EffectiveDate patch.Field[Date]     `json:"effective_date,omitzero"`
	AgencyID      patch.Field[int64]    `json:"agency_id,omitzero"`
	LicenseID     patch.Field[int64]    `json:"license_id,omitzero"`
}

type QuizPatch struct {
	ID         *int64              `json:"id"`
	Code       patch.Field[string] `json:"code,omitzero"`
	Question   patch.Field[string] `json:"question,omitzero"`
	Example    patch.Field[string] `json:"example,omitzero"`
	Selections patch.Field[string] `json:"selections,omitzero"`
	ExamID     patch.Field[int64]  `json:"exam_id,omitzero"`
}

type ExplainPatch struct {
	ID          *int64                  `json:"id"`
	Answer      patch.Field[AnswerType] `json:"answer,omitzero"`
	Description patch.Field[string]     `json:"description,omitzero"`
	QuizID      patch.Field[int64]      `json:"quiz_id,omitzero"`
}

func (p AgencyPatch) Merge(a Agency) Agency {
	p.Name.Apply(&a.Name)
	return a
}

func (p LicensePatch) Merge(l License) License {
	p.Title.Apply(&l.Title)
	return l
}

func (p ExamPatch) Merge(e Exam) Exam {
	p.Title.Apply(&e.Title)
	p.ExamType.ApplyPtr(&e.ExamType)
	p.EffectiveDate.Apply(&e.EffectiveDate)
	p.AgencyID.ApplyPtr(&e.AgencyID)
	p.LicenseID.ApplyPtr(&e.LicenseID)
	return e
}

func (p QuizPatch) Merge(q Quiz) Quiz {
	p.Code.Apply(&q.Code)
	p.Question.Apply(&q.Question)
	p.Example.ApplyPtr(&q.Example)
	p.Selections.ApplyPtr(&q.Selections)
	p.ExamID.ApplyPtr(&q.ExamID)
	return q
}

func (p ExplainPatch) Merge(x Explain) Explain {
	p.Answer.Apply(&x.Answer)
	p.Description.ApplyPtr(&x.Description)
	p.QuizID.ApplyPtr(&x.QuizID)
	return x
}

// Replace overwrites every stored field with the incoming entity. Optional
// fields missing from the payload end up cleared. The derived collection of
// the stored entity is kept since it is never persisted.

func replaceAgency(stored, in Agency) Agency {
	in.Exams = stored.Exams
	return in
}

func replaceLicense(stored, in License) License {
	in.Exams = stored.Exams
	return in
}

func replaceExam(stored, in Exam) Exam {
	in.normalizeRefs()
	in.Quizzes = stored.Quizzes
	return in
}

func replaceQuiz(stored, in Quiz) Quiz {
	in.normalizeRefs()
	in.Explains = stored.Explains
	return in
}

func replaceExplain(_, in Explain) Explain {
	in.normalizeRefs()
	return in
}
