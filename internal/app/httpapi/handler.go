package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	app "github.com/blogworks/blogserver/internal/app"
	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/services/comments"
	"github.com/blogworks/blogserver/internal/app/services/content"
	"github.com/blogworks/blogserver/internal/app/services/publishing"
	"github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/httputil"
	"github.com/blogworks/blogserver/internal/logging"
	"github.com/blogworks/blogserver/internal/middleware"
)

// topListLimit caps the admin ranking lists.
const topListLimit = 5

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logging.Logger
}

// NewHandler returns a router exposing the REST API. The auth middleware
// guards the routes that need a signed-in or admin caller.
func NewHandler(application *app.Application, auth *middleware.AuthMiddleware, log *logging.Logger) http.Handler {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.Handle("/auth/password", auth.Handler(http.HandlerFunc(h.changePassword))).Methods(http.MethodPost)

	r.HandleFunc("/blogs", h.listBlogs).Methods(http.MethodGet)
	r.Handle("/blogs", auth.Handler(http.HandlerFunc(h.createBlog))).Methods(http.MethodPost)
	r.Handle("/blogs/{id}", auth.Optional(http.HandlerFunc(h.getBlog))).Methods(http.MethodGet)
	r.Handle("/blogs/{id}", auth.Handler(http.HandlerFunc(h.updateBlog))).Methods(http.MethodPut)
	r.Handle("/blogs/{id}", auth.Handler(http.HandlerFunc(h.deleteBlog))).Methods(http.MethodDelete)
	r.Handle("/blogs/{id}/react", auth.Handler(http.HandlerFunc(h.react))).Methods(http.MethodPost)
	r.HandleFunc("/blogs/{id}/comments", h.listComments).Methods(http.MethodGet)
	r.Handle("/blogs/{id}/comments", auth.Handler(http.HandlerFunc(h.createComment))).Methods(http.MethodPost)
	r.Handle("/comments/{id}", auth.Handler(http.HandlerFunc(h.updateComment))).Methods(http.MethodPut)
	r.Handle("/comments/{id}", auth.Handler(http.HandlerFunc(h.deleteComment))).Methods(http.MethodDelete)

	r.Handle("/me", auth.Handler(http.HandlerFunc(h.profile))).Methods(http.MethodGet)
	r.Handle("/me/blogs", auth.Handler(http.HandlerFunc(h.myBlogs))).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Handler, auth.RequireAdmin)
	admin.HandleFunc("/blogs/pending", h.pendingBlogs).Methods(http.MethodGet)
	admin.HandleFunc("/blogs/top", h.topBlogs).Methods(http.MethodGet)
	admin.HandleFunc("/blogs", h.blogsByStatus).Methods(http.MethodGet)
	admin.HandleFunc("/blogs/{id}/approve", h.approveBlog).Methods(http.MethodPost)
	admin.HandleFunc("/blogs/{id}/reject", h.rejectBlog).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.listUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/block", h.blockUser).Methods(http.MethodPost)

	return r
}

// --- auth -------------------------------------------------------------------

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	u, err := h.app.Accounts.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse(u))
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	token, u, err := h.app.Accounts.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  userResponse(u),
	})
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	if err := h.app.Accounts.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), payload.CurrentPassword, payload.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.app.Accounts.GetProfile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(u))
}

// --- feed and detail --------------------------------------------------------

func (h *handler) listBlogs(w http.ResponseWriter, r *http.Request) {
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, r, errors.Validation("page must be a non-negative integer"))
			return
		}
		page = parsed
	}

	pageSize := h.app.PageSize()
	items, total, err := h.app.Content.ListApproved(r.Context(), page*pageSize, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summaries := summariesResponse(items)

	// Incremental loads ask for the bare item list.
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		writeJSON(w, http.StatusOK, summaries)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    summaries,
		"page":     page,
		"total":    total,
		"has_more": (page+1)*pageSize < total,
	})
}

func (h *handler) getBlog(w http.ResponseWriter, r *http.Request) {
	viewer := content.Viewer{
		ID:      middleware.GetUserID(r.Context()),
		IsAdmin: middleware.IsAdmin(r.Context()),
	}

	detail, err := h.app.Content.GetDetail(r.Context(), mux.Vars(r)["id"], viewer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse(detail))
}

func (h *handler) myBlogs(w http.ResponseWriter, r *http.Request) {
	var status *blog.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := blog.ParseStatus(raw)
		if err != nil {
			h.writeError(w, r, errors.Validation(err.Error()))
			return
		}
		status = &parsed
	}

	items, err := h.app.Content.ListByAuthor(r.Context(), middleware.GetUserID(r.Context()), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summariesResponse(items))
}

// --- authoring --------------------------------------------------------------

type blogPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *handler) createBlog(w http.ResponseWriter, r *http.Request) {
	var payload blogPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	created, err := h.app.Publishing.Create(r.Context(), h.actor(r), payload.Title, payload.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, blogResponse(created))
}

func (h *handler) updateBlog(w http.ResponseWriter, r *http.Request) {
	var payload blogPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	updated, err := h.app.Publishing.Update(r.Context(), h.actor(r), mux.Vars(r)["id"], payload.Title, payload.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, blogResponse(updated))
}

func (h *handler) deleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Publishing.Delete(r.Context(), h.actor(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- reactions --------------------------------------------------------------

func (h *handler) react(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Type string `json:"type"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	counts, err := h.app.Reactions.React(r.Context(), mux.Vars(r)["id"], middleware.GetUserID(r.Context()), reaction.Type(payload.Type))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// --- comments ---------------------------------------------------------------

func (h *handler) listComments(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Comments.ListByBlog(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commentsResponse(items))
}

func (h *handler) createComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	created, err := h.app.Comments.Create(r.Context(), h.commentActor(r), mux.Vars(r)["id"], payload.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse(created, ""))
}

func (h *handler) updateComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	updated, err := h.app.Comments.Update(r.Context(), h.commentActor(r), mux.Vars(r)["id"], payload.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commentResponse(updated, ""))
}

func (h *handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Comments.Delete(r.Context(), h.commentActor(r), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- admin ------------------------------------------------------------------

func (h *handler) pendingBlogs(w http.ResponseWriter, r *http.Request) {
	items, err := h.app.Moderation.ListPending(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summariesResponse(items))
}

func (h *handler) blogsByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := blog.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, errors.Validation(err.Error()))
		return
	}

	items, err := h.app.Moderation.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summariesResponse(items))
}

func (h *handler) approveBlog(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.app.Moderation.Approve, "blog approved", "blog missing or already approved")
}

func (h *handler) rejectBlog(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.app.Moderation.Reject, "blog rejected", "blog missing or already rejected")
}

// moderate runs one review action. A no-op outcome is reported in the body,
// not as an error status.
func (h *handler) moderate(w http.ResponseWriter, r *http.Request, action func(context.Context, string) (bool, error), okMsg, noopMsg string) {
	changed, err := action(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	message := okMsg
	if !changed {
		message = noopMsg
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"changed": changed,
		"message": message,
	})
}

func (h *handler) topBlogs(w http.ResponseWriter, r *http.Request) {
	var (
		items []blog.Summary
		err   error
	)
	switch r.URL.Query().Get("by") {
	case "likes":
		items, err = h.app.Content.TopLiked(r.Context(), topListLimit)
	case "comments":
		items, err = h.app.Content.TopCommented(r.Context(), topListLimit)
	case "":
		items, err = h.app.Content.TopBlogs(r.Context(), topListLimit)
	default:
		h.writeError(w, r, errors.Validation("by must be likes or comments"))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summariesResponse(items))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.app.Accounts.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		result = append(result, userResponse(u))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) blockUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Blocked bool `json:"blocked"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		h.writeError(w, r, errors.Validation("invalid request body"))
		return
	}

	u, err := h.app.Accounts.SetBlocked(r.Context(), mux.Vars(r)["id"], payload.Blocked)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(u))
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ----------------------------------------------------------------

func (h *handler) actor(r *http.Request) publishing.Actor {
	return publishing.Actor{
		ID:      middleware.GetUserID(r.Context()),
		IsAdmin: middleware.IsAdmin(r.Context()),
	}
}

func (h *handler) commentActor(r *http.Request) comments.Actor {
	return comments.Actor{
		ID:      middleware.GetUserID(r.Context()),
		IsAdmin: middleware.IsAdmin(r.Context()),
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		h.log.WithContext(r.Context()).WithError(err).Error("request failed")
		serviceErr = errors.Internal("internal error", nil)
	}
	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// --- response shapes --------------------------------------------------------

func userResponse(u user.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"is_admin":   u.IsAdmin,
		"is_blocked": u.IsBlocked,
		"created_at": u.CreatedAt,
	}
}

func blogResponse(b blog.Blog) map[string]interface{} {
	return map[string]interface{}{
		"id":         b.ID,
		"title":      b.Title,
		"content":    b.Content,
		"author_id":  b.AuthorID,
		"status":     b.Status,
		"created_at": b.CreatedAt,
		"updated_at": b.UpdatedAt,
	}
}

func summaryResponse(s blog.Summary) map[string]interface{} {
	resp := blogResponse(s.Blog)
	resp["author_name"] = s.AuthorName
	resp["likes"] = s.LikesCount
	resp["dislikes"] = s.DislikesCount
	resp["comments_count"] = s.CommentsCount
	return resp
}

func summariesResponse(items []blog.Summary) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(items))
	for _, s := range items {
		result = append(result, summaryResponse(s))
	}
	return result
}

func commentResponse(c comment.Comment, authorName string) map[string]interface{} {
	resp := map[string]interface{}{
		"id":         c.ID,
		"blog_id":    c.BlogID,
		"author_id":  c.AuthorID,
		"content":    c.Content,
		"created_at": c.CreatedAt,
	}
	if authorName != "" {
		resp["author_name"] = authorName
	}
	return resp
}

func commentsResponse(items []comment.WithAuthor) []map[string]interface{} {
	result := make([]map[string]interface{}, 0, len(items))
	for _, c := range items {
		result = append(result, commentResponse(c.Comment, c.AuthorName))
	}
	return result
}

func detailResponse(d content.Detail) map[string]interface{} {
	resp := summaryResponse(d.Summary)
	resp["comments"] = commentsResponse(d.Comments)
	if d.ViewerReaction != nil {
		resp["viewer_reaction"] = *d.ViewerReaction
	}
	return resp
}
