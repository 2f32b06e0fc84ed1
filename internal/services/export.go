package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

type ExportFormat string

const (
	ExportQuestions ExportFormat = "questions"
	ExportAnswers   ExportFormat = "answers"
)

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders the collection as CSV in the requested format.
func Export(questions []*Question, format ExportFormat) (*ExportResult, error) {
	if format == "" {
		format = ExportQuestions
	}
	var (
		b   []byte
		err error
	)
	switch format {
	case ExportQuestions:
		b, err = ExportQuestionsCSV(questions)
	case ExportAnswers:
		b, err = ExportAnswersCSV(questions)
	default:
		return nil, NewInvalidError("unsupported format")
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{Filename: string(format) + ".csv", ContentType: "text/csv", Data: b}, nil
}

// ExportQuestionsCSV writes one row per question. Tags are pipe-separated.
func ExportQuestionsCSV(questions []*Question) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "title", "author", "tags", "answers", "likes", "created_at"})
	for _, q := range questions {
		tags := make([]string, 0, len(q.Tags))
		for _, t := range q.Tags {
			tags = append(tags, string(t))
		}
		rec := []string{
			q.ID,
			q.Title,
			q.Author,
			strings.Join(tags, "|"),
			strconv.Itoa(len(q.Answers)),
			strconv.Itoa(q.Likes),
			q.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAnswersCSV writes one row per answer in collection order.
func ExportAnswersCSV(questions []*Question) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"question_id", "answer_id", "author", "likes", "dislikes", "text"})
	for _, q := range questions {
		for _, a := range q.Answers {
			rec := []string{
				q.ID,
				a.ID,
				a.Author,
				strconv.Itoa(a.LikeCount),
				strconv.Itoa(a.DislikeCount),
				a.Text,
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
