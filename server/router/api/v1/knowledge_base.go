package v1

import (
	"net/http"

	"github.com/labstack/echo/v5"
)

func (s *APIV1Service) knowledgeBaseCount(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]int{"count": s.Knowledge.Count()})
}

func (s *APIV1Service) knowledgeBaseClear(c *echo.Context) error {
	if err := s.Knowledge.Clear(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
