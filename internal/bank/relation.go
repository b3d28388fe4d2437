package bank

// Relation describes one bidirectional one-to-many link. The child holds the
// foreign key; the owner's collection is an in-memory view that Set, Add and
// Remove keep consistent with it. None of them persist anything.
type Relation[O, C any] struct {
	Owner string // entity names, for errors and events
	Child string
	FK    string // child column holding the owner id
	Name  string // owner collection name

	ownerID    func(*O) int64
	collection func(*O) *[]C
	childID    func(*C) int64
	backRef    func(*C) **int64
}

var (
	AgencyExams = Relation[Agency, Exam]{
		Owner: "agency", Child: "exam", FK: "agency_id", Name: "exams",
		ownerID:    func(a *Agency) int64 { return a.ID },
		collection: func(a *Agency) *[]Exam { return &a.Exams },
		childID:    func(e *Exam) int64 { return e.ID },
		backRef:    func(e *Exam) **int64 { return &e.AgencyID },
	}
	LicenseExams = Relation[License, Exam]{
		Owner: "license", Child: "exam", FK: "license_id", Name: "exams",
		ownerID:    func(l *License) int64 { return l.ID },
		collection: func(l *License) *[]Exam { return &l.Exams },
		childID:    func(e *Exam) int64 { return e.ID },
		backRef:    func(e *Exam) **int64 { return &e.LicenseID },
	}
	ExamQuizzes = Relation[Exam, Quiz]{
		Owner: "exam", Child: "quiz", FK: "exam_id", Name: "quizzes",
		ownerID:    func(e *Exam) int64 { return e.ID },
		collection: func(e *Exam) *[]Quiz { return &e.Quizzes },
		childID:    func(q *Quiz) int64 { return q.ID },
		backRef:    func(q *Quiz) **int64 { return &q.ExamID },
	}
	QuizExplains = Relation[Quiz, Explain]{
		Owner: "quiz", Child: "explain", FK: "quiz_id", Name: "explains",
		ownerID:    func(q *Quiz) int64 { return q.ID },
		collection: func(q *Quiz) *[]Explain { return &q.Explains },
		childID:    func(x *Explain) int64 { return x.ID },
		backRef:    func(x *Explain) **int64 { return &x.QuizID },
	}
)

// Members returns the owner's current collection view.
func (r Relation[O, C]) Members(owner *O) []C { return *r.collection(owner) }

// PointsTo reports whether the child's back-reference names the owner.
func (r Relation[O, C]) PointsTo(owner *O, child *C) bool {
	fk := *r.backRef(child)
	return fk != nil && sameID(*fk, r.ownerID(owner))
}

// Set replaces the owner's collection with next. Members of the old collection
// missing from next lose their back-reference and are returned so the caller
// can persist them; every member of next is pointed at the owner. Elements of
// next are updated in place and next becomes the owner's collection.
func (r Relation[O, C]) Set(owner *O, next []C) (detached []C) {
	cur := r.collection(owner)
	for i := range *cur {
		old := &(*cur)[i]
		if r.indexOf(next, old) >= 0 {
			continue
		}
		*r.backRef(old) = nil
		detached = append(detached, *old)
	}
	for i := range next {
		r.link(owner, &next[i])
	}
	*cur = next
	return detached
}

// Add links child to owner and returns the linked copy. A child already in the
// collection is replaced in place.
func (r Relation[O, C]) Add(owner *O, child C) C {
	r.link(owner, &child)
	cur := r.collection(owner)
	if i := r.indexOf(*cur, &child); i >= 0 {
		(*cur)[i] = child
	} else {
		*cur = append(*cur, child)
	}
	return child
}

// Remove drops child from the collection and clears its back-reference when it
// pointed at owner. ok is false when child was neither a member nor linked.
func (r Relation[O, C]) Remove(owner *O, child C) (C, bool) {
	cur := r.collection(owner)
	i := r.indexOf(*cur, &child)
	linked := r.PointsTo(owner, &child)
	if i < 0 && !linked {
		return child, false
	}
	if i >= 0 {
		*cur = append((*cur)[:i:i], (*cur)[i+1:]...)
	}
	*r.backRef(&child) = nil
	return child, true
}

func (r Relation[O, C]) link(owner *O, child *C) {
	*r.backRef(child) = ref(r.ownerID(owner))
}

func (r Relation[O, C]) indexOf(list []C, child *C) int {
	id := r.childID(child)
	for i := range list {
		if sameID(r.childID(&list[i]), id) {
			return i
		}
	}
	return -1
}
