package bank

import (
	"context"
	"errors"
	"fmt"
)

// Eager reads resolve every to-one key of a batch with one FindMany per
// relation, so a list costs the same number of queries as a single row.
// Collections are never loaded here.

func resolveExams(ctx context.Context, tx Tx, list []Exam) error {
	agencies, err := loadTargets(ctx, tx.Agencies(), list, func(e *Exam) *int64 { return e.AgencyID })
	if err != nil {
		return err
	}
	licenses, err := loadTargets(ctx, tx.Licenses(), list, func(e *Exam) *int64 { return e.LicenseID })
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Agency = pick(agencies, list[i].AgencyID)
		list[i].License = pick(licenses, list[i].LicenseID)
	}
	return nil
}

func resolveQuizzes(ctx context.Context, tx Tx, list []Quiz) error {
	exams, err := loadTargets(ctx, tx.Exams(), list, func(q *Quiz) *int64 { return q.ExamID })
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Exam = pick(exams, list[i].ExamID)
	}
	return nil
}

func resolveExplains(ctx context.Context, tx Tx, list []Explain) error {
	quizzes, err := loadTargets(ctx, tx.Quizzes(), list, func(x *Explain) *int64 { return x.QuizID })
	if err != nil {
		return err
	}
	for i := range list {
		list[i].Quiz = pick(quizzes, list[i].QuizID)
	}
	return nil
}

func loadTargets[C, R any](ctx context.Context, t Table[R], list []C, fk func(*C) *int64) (map[int64]R, error) {
	seen := map[int64]bool{}
	ids := make([]int64, 0, len(list))
	for i := range list {
		if p := fk(&list[i]); p != nil && !seen[*p] {
			seen[*p] = true
			ids = append(ids, *p)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return t.FindMany(ctx, ids)
}

// pick returns nil for an absent key or a key whose target is gone.
func pick[R any](m map[int64]R, id *int64) *R {
	if id == nil {
		return nil
	}
	v, ok := m[*id]
	if !ok {
		return nil
	}
	return &v
}

// checkRef fails with a validation error when id names a missing row.
func checkRef[R any](ctx context.Context, t Table[R], entity, field, target string, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := t.Find(ctx, *id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidField(entity, field, fmt.Sprintf("%s %d does not exist", target, *id))
		}
		return err
	}
	return nil
}
