package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/availability"
	"github.com/danpilch/maxpal/internal/tz"
)

type handler struct {
	resolver resolver
	logger   *logrus.Logger
}

type travelRequest struct {
	Origin       string `json:"origin" binding:"required,alphanum,len=5"`
	Destination  string `json:"destination" binding:"required,alphanum,len=5"`
	FromTime     string `json:"fromTime" binding:"required"`
	ToTime       string `json:"toTime" binding:"required"`
	TgvmaxNumber string `json:"tgvmaxNumber" binding:"required,alphanum"`
}

func (r travelRequest) query() (availability.Query, error) {
	from, err := tz.Parse(r.FromTime)
	if err != nil {
		return availability.Query{}, fmt.Errorf("fromTime: %w", err)
	}
	to, err := tz.Parse(r.ToTime)
	if err != nil {
		return availability.Query{}, fmt.Errorf("toTime: %w", err)
	}
	if from.After(to) {
		return availability.Query{}, fmt.Errorf("fromTime must not be after toTime")
	}
	return availability.Query{
		Origin:      strings.ToUpper(r.Origin),
		Destination: strings.ToUpper(r.Destination),
		From:        from,
		To:          to,
		CardNumber:  r.TgvmaxNumber,
	}, nil
}

// POST /api/travels
func (h *handler) Travels(c *gin.Context) {
	var req travelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	q, err := req.query()
	if err != nil {
		h.badRequest(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		requestIDKey:  c.GetString(requestIDKey),
		"origin":      q.Origin,
		"destination": q.Destination,
		"from":        q.From.Format("2006-01-02T15:04"),
		"to":          q.To.Format("2006-01-02T15:04"),
	}).Info("processing search")

	c.JSON(http.StatusOK, h.resolver.Resolve(c.Request.Context(), q))
}

func (h *handler) badRequest(c *gin.Context, err error) {
	h.logger.WithFields(logrus.Fields{
		requestIDKey: c.GetString(requestIDKey),
		"error":      err,
	}).Debug("rejected search request")
	c.String(http.StatusBadRequest, "Bad request")
}
