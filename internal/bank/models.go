package bank

type ExamType string

const (
	ExamTypeKorean  ExamType = "KOREAN"
	ExamTypeEnglish ExamType = "ENGLISH"
)

// AnswerType labels one answer choice of a quiz.
type AnswerType string

const (
	AnswerQ1 AnswerType = "Q1"
	AnswerQ2 AnswerType = "Q2"
	AnswerQ3 AnswerType = "Q3"
	AnswerQ4 AnswerType = "Q4"
	AnswerQ5 AnswerType = "Q5"
)

// Agency administers exams. Exams is a derived view of the exams whose
// agency_id points here; it is only filled by association calls.
type Agency struct {
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name" validate:"required"`
	Exams []Exam `json:"exams,omitempty" validate:"-"`
}

type License struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title" validate:"required"`
	Exams []Exam `json:"exams,omitempty" validate:"-"`
}

type Exam struct {
	ID            int64     `json:"id,omitempty"`
	Title         string    `json:"title" validate:"required"`
	ExamType      *ExamType `json:"exam_type,omitempty" validate:"omitempty,oneof=KOREAN ENGLISH"`
	EffectiveDate Date      `json:"effective_date" validate:"required"`

	AgencyID  *int64 `json:"agency_id,omitempty"`
	LicenseID *int64 `json:"license_id,omitempty"`

	// Filled only by eager reads.
	Agency  *Agency  `json:"agency,omitempty" validate:"-"`
	License *License `json:"license,omitempty" validate:"-"`

	Quizzes []Quiz `json:"quizzes,omitempty" validate:"-"`
}

type Quiz struct {
	ID         int64   `json:"id,omitempty"`
	Code       string  `json:"code" validate:"required"`
	Question   string  `json:"question" validate:"required,max=1024"`
	Example    *string `json:"example,omitempty"`
	Selections *string `json:"selections,omitempty" validate:"omitempty,max=1024"`

	ExamID *int64 `json:"exam_id,omitempty"`
	Exam   *Exam  `json:"exam,omitempty" validate:"-"`

	Explains []Explain `json:"explains,omitempty" validate:"-"`
}

type Explain struct {
	ID          int64      `json:"id,omitempty"`
	Answer      AnswerType `json:"answer" validate:"required,oneof=Q1 Q2 Q3 Q4 Q5"`
	Description *string    `json:"description,omitempty"`

	QuizID *int64 `json:"quiz_id,omitempty"`
	Quiz   *Quiz  `json:"quiz,omitempty" validate:"-"`
}

// sameID reports entity identity: both ids assigned and equal.
func sameID(a, b int64) bool { return a != 0 && b != 0 && a == b }

func (a Agency) Equal(o Agency) bool   { return sameID(a.ID, o.ID) }
func (l License) Equal(o License) bool { return sameID(l.ID, o.ID) }
func (e Exam) Equal(o Exam) bool       { return sameID(e.ID, o.ID) }
func (q Quiz) Equal(o Quiz) bool       { return sameID(q.ID, o.ID) }
func (x Explain) Equal(o Explain) bool { return sameID(x.ID, o.ID) }

// normalizeRefs accepts {"agency":{"id":1}} as an alternative to agency_id and
// drops materialized targets so only the keys are persisted.
func (e *Exam) normalizeRefs() {
	if e.AgencyID == nil && e.Agency != nil && e.Agency.ID != 0 {
		e.AgencyID = ref(e.Agency.ID)
	}
	if e.LicenseID == nil && e.License != nil && e.License.ID != 0 {
		e.LicenseID = ref(e.License.ID)
	}
	e.Agency, e.License, e.Quizzes = nil, nil, nil
}

func (q *Quiz) normalizeRefs() {
	if q.ExamID == nil && q.Exam != nil && q.Exam.ID != 0 {
		q.ExamID = ref(q.Exam.ID)
	}
	q.Exam, q.Explains = nil, nil
}

func (x *Explain) normalizeRefs() {
	if x.QuizID == nil && x.Quiz != nil && x.Quiz.ID != 0 {
		x.QuizID = ref(x.Quiz.ID)
	}
	x.Quiz = nil
}

func ref(id int64) *int64 { return &id }
