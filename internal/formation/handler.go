package formation

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/apierr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Add(c echo.Context) error {
	var body struct {
		Data AddRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.Add(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formation": dto})
}

func (h *Handler) AddMany(c echo.Context) error {
	var body struct {
		Data []AddRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dtos, err := h.service.AddMany(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formations": dtos})
}

func (h *Handler) AddPositions(c echo.Context) error {
	var body struct {
		Data AddPositionsRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.AddPositions(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formation": dto})
}

func (h *Handler) DeletePositions(c echo.Context) error {
	var body struct {
		Data DeletePositionsRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.DeletePositions(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formation": dto})
}

func (h *Handler) EditPosition(c echo.Context) error {
	var body struct {
		Data EditPositionRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.EditPosition(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formation": dto})
}

func (h *Handler) Edit(c echo.Context) error {
	var body struct {
		Data EditRequest `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	dto, err := h.service.Edit(c.Request().Context(), body.Data)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formation": dto})
}

func (h *Handler) Delete(c echo.Context) error {
	var body struct {
		Data struct {
			ID primitive.ObjectID `json:"id"`
		} `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	if err := h.service.Delete(c.Request().Context(), body.Data.ID); err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": echo.Map{"deletedCount": 1}})
}

func (h *Handler) DeleteMany(c echo.Context) error {
	var body struct {
		Data struct {
			IDs []primitive.ObjectID `json:"ids"`
		} `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return apierr.Respond(c, apierr.Validation("invalid request"))
	}
	deleted, err := h.service.DeleteMany(c.Request().Context(), body.Data.IDs)
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"OK": true, "params": echo.Map{"deletedCount": deleted}})
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
	return apierr.OK(c, echo.Map{"formation": dto})
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
	return apierr.OK(c, echo.Map{"formations": dtos})
}

func (h *Handler) GetAll(c echo.Context) error {
	dtos, err := h.service.GetAll(c.Request().Context())
	if err != nil {
		return apierr.Respond(c, err)
	}
	return apierr.OK(c, echo.Map{"formations": dtos})
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
