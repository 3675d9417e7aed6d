package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/prodhub/internal/domain"
)

type createEventRequest struct {
	Name   string     `json:"name" binding:"required"`
	Start  *time.Time `json:"start"`
	Finish *time.Time `json:"finish"`
}

type updateEventRequest struct {
	Name   *string    `json:"name"`
	Start  *time.Time `json:"start"`
	Finish *time.Time `json:"finish"`
}

func (s *Server) handleListEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.events.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result := make([]eventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, toEventResponse(event))
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetEvent(c *gin.Context) {
	event, err := s.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	in := domain.CreateEvent{Name: req.Name, Start: req.Start, Finish: req.Finish}
	if err := in.Validate(); err != nil {
		s.respondError(c, err)
		return
	}

	event, err := s.events.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toEventResponse(event))
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, detailInvalidBody)
		return
	}

	in := domain.UpdateEvent{Name: req.Name, Start: req.Start, Finish: req.Finish}
	if err := in.Validate(); err != nil {
		s.respondError(c, err)
		return
	}

	event, err := s.events.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toEventResponse(event))
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if err := s.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseEventFilter(c *gin.Context) (domain.EventFilter, error) {
	var filter domain.EventFilter

	start, err := parseTimeQuery(c, "start")
	if err != nil {
		return domain.EventFilter{}, err
	}
	filter.Start = start

	finish, err := parseTimeQuery(c, "finish")
	if err != nil {
		return domain.EventFilter{}, err
	}
	filter.Finish = finish

	if raw, ok := c.GetQuery("filter"); ok {
		switch domain.EventTimeFilter(raw) {
		case domain.EventFilterFuture, domain.EventFilterPast, domain.EventFilterOngoing:
			filter.Filter = domain.EventTimeFilter(raw)
		default:
			return domain.EventFilter{}, errInvalid("invalid filter value")
		}
	}
	if raw, ok := c.GetQuery("order_by"); ok {
		switch domain.EventOrder(raw) {
		case domain.EventOrderName, domain.EventOrderStart, domain.EventOrderFinish:
			filter.OrderBy = domain.EventOrder(raw)
		default:
			return domain.EventFilter{}, errInvalidOrderBy
		}
	}

	return filter, nil
}
