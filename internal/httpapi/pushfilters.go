package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/model"
)

type pushFilterView struct {
	ID        int64                 `json:"id"`
	AccountID int64                 `json:"account_id"`
	Field     model.PushFilterField `json:"field"`
	Mode      model.PushFilterMode  `json:"mode"`
	Value     string                `json:"value"`
	RuleOrder int                   `json:"rule_order"`
}

func toPushFilterView(f *model.PushFilter) pushFilterView {
	return pushFilterView{
		ID:        f.ID,
		AccountID: f.AccountID,
		Field:     f.Field,
		Mode:      f.Mode,
		Value:     f.Value,
		RuleOrder: f.RuleOrder,
	}
}

func (s *Server) handleListPushFilters(c *gin.Context) {
	accountID, ok := parseIDParam(c)
	if !ok {
		return
	}
	filters, err := s.store.ListPushFilters(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]pushFilterView, 0, len(filters))
	for _, f := range filters {
		views = append(views, toPushFilterView(f))
	}
	c.JSON(http.StatusOK, views)
}

type createPushFilterRequest struct {
	Field     model.PushFilterField `json:"field" binding:"required"`
	Mode      model.PushFilterMode  `json:"mode" binding:"required"`
	Value     string                `json:"value"`
	RuleOrder int                   `json:"rule_order"`
}

func (s *Server) handleCreatePushFilter(c *gin.Context) {
	accountID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req createPushFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	f := &model.PushFilter{
		AccountID: accountID,
		Field:     req.Field,
		Mode:      req.Mode,
		Value:     req.Value,
		RuleOrder: req.RuleOrder,
	}
	if err := s.store.CreatePushFilter(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPushFilterView(f))
}

func (s *Server) handleDeletePushFilter(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := s.store.DeletePushFilter(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
