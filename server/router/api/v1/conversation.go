package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

type turnResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"createdTs"`
}

type conversationResponse struct {
	Conversation string         `json:"conversation"`
	Turns        []turnResponse `json:"turns"`
}

func (s *APIV1Service) getConversation(c *echo.Context) error {
	number := c.Param("number")
	turns, err := s.Store.ListTurns(c.Request().Context(), number, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := conversationResponse{Conversation: number, Turns: make([]turnResponse, 0, len(turns))}
	for _, turn := range turns {
		resp.Turns = append(resp.Turns, turnResponse{
			Role:      string(turn.Role),
			Content:   turn.Content,
			CreatedTs: turn.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) clearConversation(c *echo.Context) error {
	number := c.Param("number")
	if err := s.Store.ClearTurns(c.Request().Context(), number); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared", "conversation": number})
}
