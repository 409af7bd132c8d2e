// Package grading holds the pure computation behind the gradebook and the
// quiz auto-grader: letter-grade mapping, aggregate recomputation, summary
// statistics, and answer scoring. Nothing here touches storage.
package grading

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/futuraise-gif/FuturaAIse-Academy-sub000/internal/model"
)

// letterBucket is one step of the grade scale. Buckets are checked in
// descending order, first match wins.
type letterBucket struct {
	min    float64
	letter string
}

var letterScale = []letterBucket{
	{97, "A+"},
	{93, "A"},
	{90, "A-"},
	{87, "B+"},
	{83, "B"},
	{80, "B-"},
	{77, "C+"},
	{73, "C"},
	{70, "C-"},
	{67, "D+"},
	{63, "D"},
	{60, "D-"},
}

// LetterGrade maps a percentage to its letter-grade bucket. Both per-entry
// and overall grades use this one function.
func LetterGrade(percentage float64) string {
	for _, b := range letterScale {
		if percentage >= b.min {
			return b.letter
		}
	}
	return "F"
}

// Percentage returns 100*earned/possible, or 0 when possible is not positive.
// Zero-point columns are rejected at creation, so the guard only matters for
// legacy data.
func Percentage(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return 100 * earned / possible
}

// Aggregate is the derived per-student summary of all grade entries in a
// course.
type Aggregate struct {
	PointsEarned   float64
	PointsPossible float64
	Percentage     float64
	LetterGrade    string
}

// ComputeAggregate derives the overall grade from the course's columns and
// the student's entries (keyed by column ID). Only columns flagged for
// inclusion count, and only where the student has an entry; an ungraded
// column contributes nothing, it is not a zero.
func ComputeAggregate(columns []model.GradeColumn, entries map[int64]model.GradeEntry) Aggregate {
	var agg Aggregate
	for _, col := range columns {
		if !col.IncludeInCalc {
			continue
		}
		entry, ok := entries[col.ID]
		if !ok {
			continue
		}
		agg.PointsEarned += entry.Grade
		agg.PointsPossible += col.Points
	}
	agg.Percentage = Percentage(agg.PointsEarned, agg.PointsPossible)
	agg.LetterGrade = LetterGrade(agg.Percentage)
	return agg
}

// Summarize computes mean, median, min, max and population standard
// deviation over the given values. For an even count the median is the
// upper-middle element of the sorted list, not the average of the two middle
// values. Returns nil for an empty slice.
func Summarize(values []float64) *model.ColumnStatistics {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	n := float64(len(sorted))
	mean := sum / n

	var variance float64
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= n

	return &model.ColumnStatistics{
		Count:  len(sorted),
		Mean:   mean,
		Median: sorted[len(sorted)/2],
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: math.Sqrt(variance),
	}
}

// AnswerResult is the graded outcome for one question.
type AnswerResult struct {
	QuestionID     int64
	SubmittedValue string
	IsCorrect      bool
	PointsEarned   float64
}

// SubmissionResult is the graded outcome for a full answer set.
type SubmissionResult struct {
	Answers    []AnswerResult
	Score      float64
	Percentage float64
	Passed     *bool
}

// ScoreSubmission grades a submitted answer set against the quiz's question
// list. Every question is graded, answered or not; a missing or malformed
// answer scores zero. Credit is binary per question. Passed is nil when the
// quiz has no passing score configured.
func ScoreSubmission(quiz model.Quiz, answers map[int64]any) SubmissionResult {
	var res SubmissionResult
	for _, q := range quiz.Questions {
		value, answered := answers[q.ID]
		correct := answered && answerCorrect(q, value)

		var points float64
		if correct {
			points = q.Points
		}
		res.Score += points

		raw := ""
		if answered {
			if b, err := json.Marshal(value); err == nil {
				raw = string(b)
			}
		}
		res.Answers = append(res.Answers, AnswerResult{
			QuestionID:     q.ID,
			SubmittedValue: raw,
			IsCorrect:      correct,
			PointsEarned:   points,
		})
	}
	res.Percentage = Percentage(res.Score, quiz.TotalPoints)
	if quiz.PassingScore != nil {
		passed := res.Percentage >= *quiz.PassingScore
		res.Passed = &passed
	}
	return res
}

// answerCorrect checks one submitted value against the question's key. Values
// arrive as decoded JSON: numbers are float64, booleans bool, text string.
func answerCorrect(q model.QuizQuestion, value any) bool {
	switch q.Kind {
	case model.QuestionMultipleChoice:
		if q.CorrectOptionIndex == nil {
			return false
		}
		idx, ok := numericIndex(value)
		return ok && idx == *q.CorrectOptionIndex
	case model.QuestionTrueFalse:
		if q.CorrectBool == nil {
			return false
		}
		b, ok := value.(bool)
		return ok && b == *q.CorrectBool
	case model.QuestionShortAnswer:
		s, ok := value.(string)
		if !ok {
			return false
		}
		return shortAnswerMatch(s, q.AcceptedAnswers, q.CaseSensitive)
	default:
		return false
	}
}

// numericIndex converts a decoded JSON number to an option index. Fractional
// values never match.
func numericIndex(value any) (int, bool) {
	f, ok := value.(float64)
	if !ok {
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// shortAnswerMatch is exact-match-after-normalization: trim, optionally
// lowercase, then compare against each accepted answer normalized the same
// way. No fuzzy matching.
func shortAnswerMatch(submitted string, accepted []string, caseSensitive bool) bool {
	normalize := func(s string) string {
		s = strings.TrimSpace(s)
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		return s
	}
	got := normalize(submitted)
	for _, want := range accepted {
		if got == normalize(want) {
			return true
		}
	}
	return false
}
