package vesteria

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Tes-sudo/Vesteria/pkg/mail"
	"github.com/Tes-sudo/Vesteria/pkg/models"
)

// sessionTTL is how long a verified sign-in stays valid.
const sessionTTL = 30 * 24 * time.Hour

// generateSessionToken creates a 32-byte random token encoded as hex. The
// token is the session's bearer credential; it carries no structure and is
// only meaningful through a store lookup.
func generateSessionToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// handleMagicLink starts a passwordless sign-in. The user record is created
// on first sight of the email address, then a pending link record is stored
// and a short-lived signed token referencing it is mailed as a link.
// Verification consumes the record, so each mailed link signs in at most
// once. A record whose mail never went out just sits until it expires.
//
// POST /api/auth/magic-link {"email": "..."}
func (a *App) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	ctx := r.Context()
	user, err := a.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		user = &models.User{Email: req.Email}
		if err := a.store.CreateUser(ctx, user); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	now := time.Now()
	link := &models.MagicLink{
		ID:        models.NewMagicLinkID(),
		Email:     req.Email,
		ExpiresAt: now.Add(magicLinkTTL),
	}
	if err := a.store.CreateMagicLink(ctx, link); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := newMagicLinkToken(a.config.AuthSecret, req.Email, link.ID.String(), now)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	verifyURL := fmt.Sprintf("%s/api/auth/verify?token=%s", a.config.BaseURL, url.QueryEscape(token))
	html, err := mail.MagicLinkHTML(verifyURL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := a.mailer.Send(ctx, req.Email, "Sign in to Vesteria", html); err != nil {
		a.logger.Error().Err(err).Str("email", req.Email).Msg("failed to send magic link")
		respondError(w, http.StatusInternalServerError, "Failed to send magic link email")
		return
	}

	a.logger.Info().Str("email", req.Email).Msg("magic link sent")
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// handleVerify completes the sign-in: validates the mailed token, consumes
// the pending link record, marks the email verified, and exchanges the link
// for a long-lived session. A link that was already followed once finds no
// record and is rejected, signature or not.
//
// GET /api/auth/verify?token=...
func (a *App) handleVerify(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return
	}

	email, linkIDStr, err := parseMagicLinkToken(a.config.AuthSecret, tokenStr)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired link")
		return
	}
	linkID, err := models.ParseMagicLinkID(linkIDStr)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired link")
		return
	}

	ctx := r.Context()
	link, err := a.store.ConsumeMagicLink(ctx, linkID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if link == nil || link.Expired() || link.Email != email {
		respondError(w, http.StatusUnauthorized, "Invalid or expired link")
		return
	}

	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired link")
		return
	}

	if user.EmailVerified == nil {
		now := time.Now()
		user.EmailVerified = &now
		if err := a.store.UpdateUser(ctx, user); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	token, err := generateSessionToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	session := &models.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(sessionTTL),
	}
	if err := a.store.CreateSession(ctx, session); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleSignOut deletes the caller's session. Signing out with no session is
// not an error.
func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		ctx := r.Context()
		session, err := a.store.GetSessionByToken(ctx, token)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if session != nil {
			if err := a.store.DeleteSession(ctx, session.ID); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// handleMe returns the authenticated user, the viewer query.
func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
