package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/soaringjerry/stackit/internal/middleware"
	"github.com/soaringjerry/stackit/internal/services"
)

type Router struct {
	board    *services.BoardService
	auth     *services.AuthService
	pageSize int
	logger   *slog.Logger
}

type RouterOption func(*Router)

func WithPageSize(n int) RouterOption {
	return func(rt *Router) {
		if n > 0 {
			rt.pageSize = n
		}
	}
}

func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(rt *Router) {
		if l != nil {
			rt.logger = l
		}
	}
}

// NewRouter serves the board over HTTP. Accounts are stored in blob next to
// the board snapshot.
func NewRouter(board *services.BoardService, blob services.BlobStore, opts ...RouterOption) *Router {
	rt := &Router{
		board:    board,
		auth:     services.NewAuthService(newAuthStoreAdapter(blob), middleware.SignToken),
		pageSize: services.DefaultPageSize,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Register(mux *http.ServeMux) {
	auth := middleware.RequireAuth

	mux.HandleFunc("GET /api/questions", rt.handleListQuestions)
	mux.HandleFunc("POST /api/questions", rt.handleSubmitQuestion)
	mux.HandleFunc("GET /api/questions/{id}", rt.handleGetQuestion)
	mux.Handle("DELETE /api/questions/{id}", auth(http.HandlerFunc(rt.handleDeleteQuestion)))
	mux.HandleFunc("POST /api/questions/{id}/answers", rt.handleAddAnswer)
	mux.Handle("POST /api/questions/{id}/answers/{aid}/vote", auth(http.HandlerFunc(rt.handleVote)))
	mux.Handle("DELETE /api/questions/{id}/answers/{aid}", auth(http.HandlerFunc(rt.handleDeleteAnswer)))
	mux.HandleFunc("POST /api/questions/{id}/like", rt.handleToggleLike)
	mux.HandleFunc("GET /api/tags", rt.handleTags)
	mux.HandleFunc("GET /api/stats", rt.handleStats)
	mux.HandleFunc("POST /api/auth/register", rt.handleRegister)
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("GET /api/export", rt.handleExport)
}

func currentUser(r *http.Request) string {
	user, _ := middleware.UserFromContext(r.Context())
	return user
}

// GET /api/questions?tag=&mode=&q=&page=&page_size=&where=
func (rt *Router) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.ProjectParams{
		Tag:      services.Tag(q.Get("tag")),
		Mode:     services.FilterMode(q.Get("mode")),
		Search:   q.Get("q"),
		Page:     1,
		PageSize: rt.pageSize,
		Where:    q.Get("where"),
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rt.writeError(w, r, services.NewInvalidError("page must be an integer"))
			return
		}
		params.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			rt.writeError(w, r, services.NewInvalidError("page_size must be an integer"))
			return
		}
		params.PageSize = n
	}
	p, err := rt.board.ProjectQuestions(r.Context(), params)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/questions {title, description, tags}
func (rt *Router) handleSubmitQuestion(w http.ResponseWriter, r *http.Request) {
	var req submitQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	in := services.NewQuestion{Title: req.Title, Description: req.Description}
	for _, t := range req.Tags {
		in.Tags = append(in.Tags, services.Tag(t))
	}
	q, err := rt.board.SubmitQuestion(r.Context(), in, currentUser(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

type questionView struct {
	*services.Question
	Liked bool `json:"liked"`
}

// GET /api/questions/{id}
func (rt *Router) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q, err := rt.board.Question(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	liked, err := rt.board.QuestionLiked(r.Context(), id, currentUser(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questionView{Question: q, Liked: liked})
}

// DELETE /api/questions/{id}
func (rt *Router) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := rt.board.DeleteQuestion(r.Context(), r.PathValue("id"), currentUser(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/questions/{id}/answers {text}
func (rt *Router) handleAddAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.board.AddAnswer(r.Context(), r.PathValue("id"), req.Text, currentUser(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// POST /api/questions/{id}/answers/{aid}/vote {type}
func (rt *Router) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	a, err := rt.board.Vote(r.Context(), r.PathValue("id"), r.PathValue("aid"), services.VoteType(req.Type), currentUser(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DELETE /api/questions/{id}/answers/{aid}
func (rt *Router) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	if err := rt.board.DeleteAnswer(r.Context(), r.PathValue("id"), r.PathValue("aid"), currentUser(r)); err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/questions/{id}/like
func (rt *Router) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	liked, likes, err := rt.board.ToggleQuestionLike(r.Context(), r.PathValue("id"), currentUser(r))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"liked": liked, "likes": likes})
}

// GET /api/tags
func (rt *Router) handleTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tags": services.Tags})
}

// GET /api/stats
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.Summarize(rt.board.Questions(r.Context())))
}

// POST /api/auth/register {email, password}
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// POST /api/auth/login {email, password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/export?format=questions|answers
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	format := services.ExportFormat(strings.ToLower(r.URL.Query().Get("format")))
	res, err := services.Export(rt.board.Questions(r.Context()), format)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+res.Filename+"\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}
