package handler

import (
	"context"
	"net/http"

	"github.com/TooLazyToCreate/bookshelf-service/internal/model"
)

func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	h.changeFollow(w, r, h.users.Follow, "Followed user successfully")
}

func (h *Handler) unfollow(w http.ResponseWriter, r *http.Request) {
	h.changeFollow(w, r, h.users.Unfollow, "Unfollowed user successfully")
}

func (h *Handler) changeFollow(w http.ResponseWriter, r *http.Request,
	change func(ctx context.Context, followerID, targetID string) error, message string) {
	targetID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if err = change(r.Context(), identity(r).UserID, targetID); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond[any](w, h.logger, r, Ok[any](http.StatusOK, message, nil))
}

func (h *Handler) followers(w http.ResponseWriter, r *http.Request) {
	h.listProfiles(w, r, h.users.Followers, "Followers retrieved")
}

func (h *Handler) following(w http.ResponseWriter, r *http.Request) {
	h.listProfiles(w, r, h.users.Following, "Following retrieved")
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, userID string) ([]model.Profile, error), message string) {
	userID, err := pathID(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	profiles, err := list(r.Context(), userID)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond(w, h.logger, r, Ok(http.StatusOK, message, profiles))
}
