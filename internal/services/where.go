package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// whereEnv is the variable set visible to listing expressions, for example
// `answers == 0 && "DP" in tags` or `likes > 2 && author != "Admin"`.
type whereEnv struct {
	Title       string   `expr:"title"`
	Description string   `expr:"description"`
	Tags        []string `expr:"tags"`
	Author      string   `expr:"author"`
	Answers     int      `expr:"answers"`
	Likes       int      `expr:"likes"`
}

type whereFilter struct {
	source  string
	program *vm.Program
}

func compileWhere(source string) (*whereFilter, error) {
	program, err := expr.Compile(source, expr.Env(whereEnv{}), expr.AsBool())
	if err != nil {
		return nil, NewInvalidError(fmt.Sprintf("invalid where expression: %v", err))
	}
	return &whereFilter{source: source, program: program}, nil
}

func (w *whereFilter) match(q *Question) (bool, error) {
	env := whereEnv{
		Title:       q.Title,
		Description: q.Description,
		Tags:        make([]string, 0, len(q.Tags)),
		Author:      q.Author,
		Answers:     len(q.Answers),
		Likes:       q.Likes,
	}
	for _, t := range q.Tags {
		env.Tags = append(env.Tags, string(t))
	}
	out, err := expr.Run(w.program, env)
	if err != nil {
		return false, NewInvalidError(fmt.Sprintf("evaluate %q: %v", w.source, err))
	}
	b, ok := out.(bool)
	if !ok {
		return false, NewInvalidError(fmt.Sprintf("where expression %q is not boolean", w.source))
	}
	return b, nil
}
