package store

import (
	"github.com/pavelanni/quizbank/internal/model"
)

// Export gathers the subject's categories, questions, and quizzes with
// their attempts. Attempts whose quiz was deleted are listed under a
// placeholder quiz carrying only the ID.
func (s *Store) Export() model.SubjectExport {
	quizzes := s.ListQuizzes()
	attempts := s.ListAttempts("")

	byQuiz := make(map[string][]model.QuizAttempt)
	for _, a := range attempts {
		byQuiz[a.QuizID] = append(byQuiz[a.QuizID], a)
	}

	out := model.SubjectExport{
		Subject:    s.subject,
		ExportedAt: *s.stamp(),
		Categories: s.ListCategories(),
		Questions:  s.ListQuestions(QuestionFilter{}),
		Quizzes:    []model.QuizExport{},
	}
	seen := make(map[string]bool, len(quizzes))
	for _, q := range quizzes {
		seen[q.ID] = true
		qa := byQuiz[q.ID]
		if qa == nil {
			qa = []model.QuizAttempt{}
		}
		out.Quizzes = append(out.Quizzes, model.QuizExport{
			Quiz:        q,
			TotalPoints: q.TotalPoints(),
			Attempts:    qa,
		})
	}
	// Orphaned attempts, in first-seen order.
	for _, a := range attempts {
		if seen[a.QuizID] {
			continue
		}
		seen[a.QuizID] = true
		out.Quizzes = append(out.Quizzes, model.QuizExport{
			Quiz:     model.Quiz{ID: a.QuizID, Questions: []model.QuizQuestion{}},
			Attempts: byQuiz[a.QuizID],
		})
	}
	return out
}
