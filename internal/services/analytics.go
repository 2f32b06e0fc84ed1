package services

import "sort"

type TagCount struct {
	Tag   Tag `json:"tag"`
	Count int `json:"count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AuthorCount struct {
	Author  string `json:"author"`
	Answers int    `json:"answers"`
	Net     int    `json:"net_votes"`
}

// BoardSummary aggregates the collection for the stats view.
type BoardSummary struct {
	Questions  int           `json:"questions"`
	Answered   int           `json:"answered"`
	Unanswered int           `json:"unanswered"`
	Answers    int           `json:"answers"`
	Votes      int           `json:"votes"`
	Tags       []TagCount    `json:"tags"`
	Timeseries []DayCount    `json:"timeseries"`
	TopAuthors []AuthorCount `json:"top_authors"`
}

const topAuthorLimit = 5

// Summarize counts questions per tag in vocabulary order, questions per UTC
// day and the answer authors with the highest net votes.
func Summarize(questions []*Question) *BoardSummary {
	out := &BoardSummary{Questions: len(questions)}
	tagCounts := map[Tag]int{}
	countsByDay := map[string]int{}
	authors := map[string]*AuthorCount{}
	for _, q := range questions {
		if len(q.Answers) > 0 {
			out.Answered++
		}
		for _, t := range q.Tags {
			tagCounts[t]++
		}
		if !q.CreatedAt.IsZero() {
			countsByDay[q.CreatedAt.UTC().Format("2006-01-02")]++
		}
		for _, a := range q.Answers {
			out.Answers++
			out.Votes += a.LikeCount + a.DislikeCount
			ac := authors[a.Author]
			if ac == nil {
				ac = &AuthorCount{Author: a.Author}
				authors[a.Author] = ac
			}
			ac.Answers++
			ac.Net += a.LikeCount - a.DislikeCount
		}
	}
	out.Unanswered = out.Questions - out.Answered

	out.Tags = make([]TagCount, 0, len(Tags))
	for _, t := range Tags {
		out.Tags = append(out.Tags, TagCount{Tag: t, Count: tagCounts[t]})
	}
	out.Timeseries = buildTimeseries(countsByDay)
	out.TopAuthors = rankAuthors(authors, topAuthorLimit)
	return out
}

func buildTimeseries(counts map[string]int) []DayCount {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, DayCount{Date: d, Count: counts[d]})
	}
	return out
}

func rankAuthors(authors map[string]*AuthorCount, limit int) []AuthorCount {
	out := make([]AuthorCount, 0, len(authors))
	for _, ac := range authors {
		out = append(out, *ac)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Net != out[j].Net {
			return out[i].Net > out[j].Net
		}
		if out[i].Answers != out[j].Answers {
			return out[i].Answers > out[j].Answers
		}
		return out[i].Author < out[j].Author
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
