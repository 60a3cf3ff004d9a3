package users

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/apierr"
)

const refreshCookie = "refreshToken"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type signupBody struct {
	Data SignupRequest `json:"data"`
}

type signupManyBody struct {
	Data []SignupRequest `json:"data"`
}

type loginBody struct {
	Data struct {
		Auth struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		} `json:"auth"`
	} `json:"data"`
}

type idBody struct {
	Data struct {
		ID primitive.ObjectID `json:"id"`
	} `json:"data"`
}

type idSetBody struct {
	Data struct {
		IDs []primitive.ObjectID `json:"ids"`
	} `json:"data"`
}

type refreshBody struct {
	Data struct {
		ID           primitive.ObjectID `json:"id"`
		RefreshToken string             `json:"refreshToken"`
	} `json:"data"`
}

type editBody struct {
	Data EditRequest `json:"data"`
}

type editManyBody struct {
	Data EditManyRequest `json:"data"`
}

func (h *Handler) Signup(c echo.Context) error {
	var body signupBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.Register(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"user": dto})
}

func (h *Handler) SignupMany(c echo.Context) error {
	var body signupManyBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dtos, err := h.service.RegisterMany(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"users": dtos})
}

func (h *Handler) Login(c echo.Context) error {
	var body loginBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	result, err := h.service.Login(c.Request().Context(), body.Data.Auth.Login, body.Data.Auth.Password)
	if err != nil {
		return apierr.Respond(c, err)
	}
	setRefreshCookie(c, result.RefreshToken, 5*24*time.Hour)
	return apierr.OK(c, result)
}

func (h *Handler) Logout(c echo.Context) error {
	var body idBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	if err := h.service.Logout(c.Request().Context(), body.Data.ID); err != nil {
		return apierr.Respond(c, err)
	}
	clearRefreshCookie(c)
	return apierr.OK(c, echo.Map{"OK": true})
}

// Refresh takes the presented token from the body when given, falling back
// to the cookie set at login.
func (h *Handler) Refresh(c echo.Context) error {
	var body refreshBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	token := body.Data.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(refreshCookie); err == nil {
			token = cookie.Value
		}
	}
	result, err := h.service.Refresh(c.Request().Context(), body.Data.ID, token)
	if err != nil {
		return apierr.Respond(c, err)
	}
	setRefreshCookie(c, result.RefreshToken, 30*24*time.Hour)
	return apierr.OK(c, result)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := primitive.ObjectIDFromHex(c.QueryParam("id"))
	if err != nil {
		return apierr.Respond(c, apierr.Validation("invalid id"))
	}
	dto, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"user": dto})
}

func (h *Handler) GetMany(c echo.Context) error {
	ids, err := parseIDList(c.QueryParam("ids"))
	if err != nil {
		return apierr.Respond(c, err)
	}
	dtos, err := h.service.GetMany(c.Request().Context(), ids)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"users": dtos})
}

func (h *Handler) GetAll(c echo.Context) error {
	dtos, err := h.service.GetAll(c.Request().Context())
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"users": dtos})
}

func (h *Handler) Delete(c echo.Context) error {
	return h.mutateOne(c, h.service.Delete)
}

func (h *Handler) DeleteMany(c echo.Context) error {
	return h.mutateMany(c, h.service.DeleteMany)
}

func (h *Handler) Block(c echo.Context) error {
	return h.mutateOne(c, h.service.Block)
}

func (h *Handler) BlockMany(c echo.Context) error {
	return h.mutateMany(c, h.service.BlockMany)
}

func (h *Handler) Destroy(c echo.Context) error {
	var body idBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	if err := h.service.Destroy(c.Request().Context(), body.Data.ID); err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": echo.Map{"deletedCount": 1}})
}

func (h *Handler) DestroyMany(c echo.Context) error {
	var body idSetBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	deleted, err := h.service.DestroyMany(c.Request().Context(), body.Data.IDs)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": echo.Map{"deletedCount": deleted}})
}

func (h *Handler) Edit(c echo.Context) error {
	var body editBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.Edit(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"user": dto})
}

func (h *Handler) EditMany(c echo.Context) error {
	var body editManyBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	res, err := h.service.EditMany(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": res})
}

func (h *Handler) mutateOne(c echo.Context, op func(ctx context.Context, id primitive.ObjectID) (MutationResult, error)) error {
	var body idBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	res, err := op(c.Request().Context(), body.Data.ID)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": res})
}

func (h *Handler) mutateMany(c echo.Context, op func(ctx context.Context, ids []primitive.ObjectID) (MutationResult, error)) error {
	var body idSetBody
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	res, err := op(c.Request().Context(), body.Data.IDs)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": res})
}

func parseIDList(raw string) ([]primitive.ObjectID, error) {
	if raw == "" {
		return nil, apierr.Validation("ids query parameter is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]primitive.ObjectID, 0, len(parts))
	for _, part := range parts {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(part))
		if err != nil {
			return nil, apierr.Validation("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func setRefreshCookie(c echo.Context, token string, maxAge time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
	})
}

func clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
