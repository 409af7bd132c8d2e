package grading

import (
	"sort"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// BestAttempts picks each student's highest-scoring submitted attempt. Ties
// keep the earlier attempt.
func BestAttempts(attempts []model.QuizAttempt) map[int64]model.QuizAttempt {
	best := make(map[int64]model.QuizAttempt)
	for _, a := range attempts {
		if !a.IsSubmitted {
			continue
		}
		cur, ok := best[a.StudentID]
		if !ok || a.Score > cur.Score {
			best[a.StudentID] = a
		}
	}
	return best
}

// ComputeQuizStatistics aggregates submitted attempts into quiz-level
// statistics. Score statistics and the pass rate run over each student's best
// attempt; per-question accuracy runs over every submitted attempt. The pass
// rate is 0 when the quiz has no passing score configured.
func ComputeQuizStatistics(quiz model.Quiz, attempts []model.QuizAttempt) model.QuizStatistics {
	best := BestAttempts(attempts)

	scores := make([]float64, 0, len(best))
	passing := 0
	for _, a := range best {
		scores = append(scores, a.Score)
		if a.Passed != nil && *a.Passed {
			passing++
		}
	}

	var stats model.QuizStatistics
	stats.Students = len(best)
	if s := Summarize(scores); s != nil {
		stats.MeanScore = s.Mean
		stats.MedianScore = s.Median
		stats.MinScore = s.Min
		stats.MaxScore = s.Max
		stats.StdDevScore = s.StdDev
	}
	if quiz.PassingScore != nil && len(best) > 0 {
		stats.PassRate = 100 * float64(passing) / float64(len(best))
	}

	answered := make(map[int64]int)
	correct := make(map[int64]int)
	for _, a := range attempts {
		if !a.IsSubmitted {
			continue
		}
		for _, ans := range a.Answers {
			answered[ans.QuestionID]++
			if ans.IsCorrect {
				correct[ans.QuestionID]++
			}
		}
	}
	for _, q := range quiz.Questions {
		qa := model.QuestionAccuracy{
			QuestionID: q.ID,
			Answered:   answered[q.ID],
			Correct:    correct[q.ID],
		}
		if qa.Answered > 0 {
			qa.Accuracy = 100 * float64(qa.Correct) / float64(qa.Answered)
		}
		stats.PerQuestion = append(stats.PerQuestion, qa)
	}
	sort.Slice(stats.PerQuestion, func(i, j int) bool {
		return stats.PerQuestion[i].QuestionID < stats.PerQuestion[j].QuestionID
	})
	return stats
}
