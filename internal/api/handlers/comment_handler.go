package handlers

import (
	"context"
	"net/http"

	"github.com/streetlives/streetlives-api/internal/domain/entities"
)

// CommentManager reads and posts location comments
type CommentManager interface {
	ListForLocation(ctx context.Context, locationID string) ([]*entities.Comment, error)
	Create(ctx context.Context, locationID, content string, postedBy, contactInfo *string) (*entities.Comment, error)
	Reply(ctx context.Context, commentID, content string, postedBy *string) (*entities.Comment, error)
}

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	comments CommentManager
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(comments CommentManager) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	LocationID  string  `json:"locationId"`
	Content     string  `json:"content"`
	PostedBy    *string `json:"postedBy"`
	ContactInfo *string `json:"contactInfo"`
}

type replyRequest struct {
	Content  string  `json:"content"`
	PostedBy *string `json:"postedBy"`
}

// ListComments handles GET /comments?locationId=
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	locationID, err := requireUUID("locationId", r.URL.Query().Get("locationId"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	comments, err := h.comments.ListForLocation(r.Context(), locationID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*entities.Comment{}
	}

	respondWithJSON(w, http.StatusOK, comments)
}

// CreateComment handles POST /comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if _, err := requireUUID("locationId", req.LocationID); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), req.LocationID, req.Content, req.PostedBy, req.ContactInfo)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

// ReplyToComment handles POST /comments/{commentId}/reply
func (h *CommentHandler) ReplyToComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := pathID(r, "commentId")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	var req replyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	reply, err := h.comments.Reply(r.Context(), commentID, req.Content, req.PostedBy)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, reply)
}
