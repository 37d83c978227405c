package handler

import (
	"net/http"

	"github.com/TooLazyToCreate/bookshelf-service/internal/service"
	"github.com/TooLazyToCreate/bookshelf-service/internal/token"
)

type registerRequest struct {
	Username  string `json:"username" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=20,strong_password"`
	FirstName string `json:"first_name" validate:"required,alpha"`
	LastName  string `json:"last_name" validate:"required,alpha"`
}

func (req *registerRequest) normalize() {
	req.Username = normalize(req.Username)
	req.Email = normalize(req.Email)
	req.FirstName = capitalize(req.FirstName)
	req.LastName = capitalize(req.LastName)
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required,min=6,max=20"`
}

type resetPasswordRequest struct {
	Identifier  string `json:"identifier" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=20"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, h.logger, r, badBody(err))
		return
	}
	req.normalize()
	if err := h.validate(&req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	pair, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	h.cookies.setPair(w, pair)
	respond(w, h.logger, r, Ok(http.StatusCreated, "User Registration Successful", pair))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, h.logger, r, badBody(err))
		return
	}
	req.Identifier = normalize(req.Identifier)
	if err := h.validate(&req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	h.cookies.setPair(w, pair)
	respond(w, h.logger, r, Ok(http.StatusOK, "Authentication successful", pair))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), identity(r).UserID); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	h.cookies.clear(w)
	respond[any](w, h.logger, r, Ok[any](http.StatusOK, "Logged out successfully", nil))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.auth.RefreshTokens(r.Context(), identity(r).UserID, refreshTokenFrom(r.Context()))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	h.cookies.setPair(w, pair)
	respond(w, h.logger, r, Ok[token.Pair](http.StatusOK, "Token successfully generated", pair))
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, h.logger, r, badBody(err))
		return
	}
	req.Identifier = normalize(req.Identifier)
	if err := h.validate(&req); err != nil {
		fail(w, h.logger, r, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Identifier, req.NewPassword); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	respond[any](w, h.logger, r, Ok[any](http.StatusOK, "Password reset sucessfully.", nil))
}
