package vesteria

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Tes-sudo/Vesteria/pkg/models"
	"github.com/Tes-sudo/Vesteria/pkg/store"
	"github.com/Tes-sudo/Vesteria/pkg/store/cqrs"
)

// Post handlers implement the public feed. Reads are anonymous; writes
// require a session and, for updates and deletes, authorship of the target
// post.

// handleListPosts returns all posts, newest first, with author information
// joined in. Posts whose author record is missing still render, with the
// anonymous display name.
func (a *App) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := a.store.ListPosts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := a.attachAuthors(r, posts); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

func (a *App) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	ctx := r.Context()
	post, err := a.store.GetPost(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	if err := a.attachAuthors(r, []*models.Post{post}); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, post)
}

func (a *App) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "Content is required")
		return
	}

	post := &models.Post{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: user.ID,
	}

	ctx := r.Context()
	if err := a.store.CreatePost(ctx, post); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	post.Author = authorInfo(user)
	a.hub.Broadcast(PostEvent{Action: "created", Post: post})

	respondJSON(w, http.StatusCreated, post)
}

// handleUpdatePost applies a partial patch to a post. Omitted fields keep
// their current values. Only the author may update.
func (a *App) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx := r.Context()
	post, err := a.store.GetPost(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if post.AuthorID != user.ID {
		respondError(w, http.StatusForbidden, "Not authorized")
		return
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}

	if err := a.store.UpdatePost(ctx, post); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	post.Author = authorInfo(user)
	a.hub.Broadcast(PostEvent{Action: "updated", Post: post})

	respondJSON(w, http.StatusOK, post)
}

func (a *App) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx := r.Context()
	post, err := a.store.GetPost(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}
	if post.AuthorID != user.ID {
		respondError(w, http.StatusForbidden, "Not authorized")
		return
	}

	if err := a.store.DeletePost(ctx, id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.hub.Broadcast(PostEvent{Action: "deleted", Post: &models.Post{ID: id}})

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleListPostsByAuthor returns one user's posts, newest first, with author
// information joined in. The user must exist; an unknown ID is 404 rather
// than an empty list so callers can tell a deleted account from a quiet one.
func (a *App) handleListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx := r.Context()
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	posts, err := a.store.ListPostsByAuthor(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := a.attachAuthors(r, posts); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

// handleListCommentsByAuthor returns one user's comments, oldest first.
func (a *App) handleListCommentsByAuthor(w http.ResponseWriter, r *http.Request) {
	userID, err := models.ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	ctx := r.Context()
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	comments, err := a.store.ListCommentsByAuthor(ctx, userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// Comment handlers.

func (a *App) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	ctx := r.Context()
	comments, err := a.store.ListCommentsByPost(ctx, postID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

func (a *App) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := models.ParsePostID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx := r.Context()
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "Content is required")
		return
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: user.ID,
		Content:  req.Content,
	}
	if err := a.store.CreateComment(ctx, comment); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}

func (a *App) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseCommentID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx := r.Context()
	comment, err := a.store.GetComment(ctx, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if comment == nil {
		respondError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.AuthorID != user.ID {
		respondError(w, http.StatusForbidden, "Not authorized")
		return
	}

	if err := a.store.DeleteComment(ctx, id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Migration mode handlers expose the CQRS store's mode for operators driving
// a cutover. They respond 404 when the process runs a single backend.

func (a *App) handleGetMode(w http.ResponseWriter, r *http.Request) {
	cs := a.cqrsStore()
	if cs == nil {
		respondError(w, http.StatusNotFound, "Not running in migration configuration")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"mode": string(cs.GetMode())})
}

func (a *App) handleSetMode(w http.ResponseWriter, r *http.Request) {
	cs := a.cqrsStore()
	if cs == nil {
		respondError(w, http.StatusNotFound, "Not running in migration configuration")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	mode, err := cqrs.ParseMode(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := cs.SetMode(mode); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	a.logger.Info().Str("mode", req.Mode).Msg("migration mode changed")
	respondJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":    "healthy",
		"read_only": a.IsReadOnly(),
	}
	if cs := a.cqrsStore(); cs != nil {
		status["mode"] = string(cs.GetMode())
	}
	respondJSON(w, http.StatusOK, status)
}

// cqrsStore unwraps the read-only guard and returns the CQRS store when the
// process runs both backends, nil otherwise.
func (a *App) cqrsStore() *cqrs.CQRSStore {
	s := a.store
	if ro, ok := s.(*store.ReadOnlyStore); ok {
		s = ro.Unwrap()
	}
	cs, _ := s.(*cqrs.CQRSStore)
	return cs
}

// currentUser resolves the request's bearer token to a user. It returns
// (nil, nil) when no valid session exists; only store failures produce an
// error.
func (a *App) currentUser(r *http.Request) (*models.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}

	ctx := r.Context()
	session, err := a.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired() {
		return nil, nil
	}

	return a.store.GetUser(ctx, session.UserID)
}

// bearerToken extracts the token from the Authorization header. A bare token
// without the Bearer prefix is accepted too.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return auth
}

// attachAuthors fills in the Author field on each post with a one-pass lookup
// per distinct author. A missing author record is not an error; the post just
// renders anonymously.
func (a *App) attachAuthors(r *http.Request, posts []*models.Post) error {
	ctx := r.Context()
	authors := make(map[models.UserID]*models.AuthorInfo)

	for _, post := range posts {
		info, seen := authors[post.AuthorID]
		if !seen {
			user, err := a.store.GetUser(ctx, post.AuthorID)
			if err != nil {
				return err
			}
			info = authorInfo(user)
			authors[post.AuthorID] = info
		}
		post.Author = info
	}
	return nil
}

// authorInfo builds the embedded author payload, falling back to the
// anonymous display name when the user record is gone or nameless.
func authorInfo(user *models.User) *models.AuthorInfo {
	if user == nil {
		return &models.AuthorInfo{Name: "Anonymous"}
	}
	return &models.AuthorInfo{
		ID:    user.ID,
		Name:  user.DisplayName(),
		Email: user.Email,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	response, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}
