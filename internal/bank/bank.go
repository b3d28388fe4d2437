// Package bank holds the question bank: agencies and licenses that own exams,
// exams made of quizzes, and quizzes explained by answer notes.
package bank

import (
	"context"
	"log/slog"

	syncx "github.com/mind-engage/mindengage-qbank/internal/sync"
)

// Bank wires one Service per entity and one Association per relationship
// over a single Store.
type Bank struct {
	Agencies *Service[Agency, AgencyPatch]
	Licenses *Service[License, LicensePatch]
	Exams    *Service[Exam, ExamPatch]
	Quizzes  *Service[Quiz, QuizPatch]
	Explains *Service[Explain, ExplainPatch]

	AgencyExams  *Association[Agency, Exam]
	LicenseExams *Association[License, Exam]
	ExamQuizzes  *Association[Exam, Quiz]
	QuizExplains *Association[Quiz, Explain]

	store Store
}

func New(store Store, log *slog.Logger) *Bank {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "bank")

	agencies := func(tx Tx) Table[Agency] { return tx.Agencies() }
	licenses := func(tx Tx) Table[License] { return tx.Licenses() }
	exams := func(tx Tx) Table[Exam] { return tx.Exams() }
	quizzes := func(tx Tx) Table[Quiz] { return tx.Quizzes() }
	explains := func(tx Tx) Table[Explain] { return tx.Explains() }

	b := &Bank{store: store}
	b.AgencyExams = newAssociation(store, AgencyExams, agencies, exams, log)
	b.LicenseExams = newAssociation(store, LicenseExams, licenses, exams, log)
	b.ExamQuizzes = newAssociation(store, ExamQuizzes, exams, quizzes, log)
	b.QuizExplains = newAssociation(store, QuizExplains, quizzes, explains, log)

	b.Agencies = newService(store, &kind[Agency, AgencyPatch]{
		name: "agency", title: "Agency", table: agencies,
		id:      func(a *Agency) *int64 { return &a.ID },
		patchID: func(p *AgencyPatch) *int64 { return p.ID },
		merge:   func(a Agency, p AgencyPatch) Agency { return p.Merge(a) },
		replace: replaceAgency,
		prepare: func(a *Agency) { a.Exams = nil },
		detach:  b.AgencyExams.detachAll,
	}, log)

	b.Licenses = newService(store, &kind[License, LicensePatch]{
		name: "license", title: "License", table: licenses,
		id:      func(l *License) *int64 { return &l.ID },
		patchID: func(p *LicensePatch) *int64 { return p.ID },
		merge:   func(l License, p LicensePatch) License { return p.Merge(l) },
		replace: replaceLicense,
		prepare: func(l *License) { l.Exams = nil },
		detach:  b.LicenseExams.detachAll,
	}, log)

	b.Exams = newService(store, &kind[Exam, ExamPatch]{
		name: "exam", title: "Exam", table: exams,
		id:      func(e *Exam) *int64 { return &e.ID },
		patchID: func(p *ExamPatch) *int64 { return p.ID },
		merge:   func(e Exam, p ExamPatch) Exam { return p.Merge(e) },
		replace: replaceExam,
		prepare: (*Exam).normalizeRefs,
		refs: func(ctx context.Context, tx Tx, e *Exam) error {
			if err := checkRef(ctx, tx.Agencies(), "exam", "agency_id", "agency", e.AgencyID); err != nil {
				return err
			}
			return checkRef(ctx, tx.Licenses(), "exam", "license_id", "license", e.LicenseID)
		},
		resolve: resolveExams,
		detach:  b.ExamQuizzes.detachAll,
	}, log)

	b.Quizzes = newService(store, &kind[Quiz, QuizPatch]{
		name: "quiz", title: "Quiz", table: quizzes,
		id:      func(q *Quiz) *int64 { return &q.ID },
		patchID: func(p *QuizPatch) *int64 { return p.ID },
		merge:   func(q Quiz, p QuizPatch) Quiz { return p.Merge(q) },
		replace: replaceQuiz,
		prepare: (*Quiz).normalizeRefs,
		refs: func(ctx context.Context, tx Tx, q *Quiz) error {
			return checkRef(ctx, tx.Exams(), "quiz", "exam_id", "exam", q.ExamID)
		},
		resolve: resolveQuizzes,
		detach:  b.QuizExplains.detachAll,
	}, log)

	b.Explains = newService(store, &kind[Explain, ExplainPatch]{
		name: "explain", title: "Explain", table: explains,
		id:      func(x *Explain) *int64 { return &x.ID },
		patchID: func(p *ExplainPatch) *int64 { return p.ID },
		merge:   func(x Explain, p ExplainPatch) Explain { return p.Merge(x) },
		replace: replaceExplain,
		prepare: (*Explain).normalizeRefs,
		refs: func(ctx context.Context, tx Tx, x *Explain) error {
			return checkRef(ctx, tx.Quizzes(), "explain", "quiz_id", "quiz", x.QuizID)
		},
		resolve: resolveExplains,
	}, log)

	return b
}

// Events pages through the change log, oldest first.
func (b *Bank) Events(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	var out []syncx.Event
	err := b.store.WithTx(ctx, func(tx Tx) error {
		list, err := tx.Events().List(ctx, after, limit)
		out = list
		return err
	})
	return out, err
}

// Ping runs an empty transaction, enough to tell the store is reachable.
func (b *Bank) Ping(ctx context.Context) error {
	return b.store.WithTx(ctx, func(Tx) error { return nil })
}
