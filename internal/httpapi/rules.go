package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mailaggregator/mailaggregator/internal/model"
	"github.com/mailaggregator/mailaggregator/internal/store"
)

type ruleView struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	RuleOrder      int      `json:"rule_order"`
	AccountID      *int64   `json:"account_id"`
	SenderPattern  string   `json:"sender_pattern"`
	SubjectPattern string   `json:"subject_pattern"`
	BodyPattern    string   `json:"body_pattern"`
	AddLabels      []string `json:"add_labels"`
	PushTelegram   bool     `json:"push_telegram"`
	MarkRead       bool     `json:"mark_read"`
}

func toRuleView(r *model.Rule) ruleView {
	return ruleView{
		ID:             r.ID,
		Name:           r.Name,
		RuleOrder:      r.RuleOrder,
		AccountID:      r.AccountID,
		SenderPattern:  r.SenderPattern,
		SubjectPattern: r.SubjectPattern,
		BodyPattern:    r.BodyPattern,
		AddLabels:      r.AddLabels(),
		PushTelegram:   r.PushTelegram,
		MarkRead:       r.MarkRead,
	}
}

func (s *Server) handleListRules(c *gin.Context) {
	rules, err := s.store.ListAllRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]ruleView, 0, len(rules))
	for _, r := range rules {
		views = append(views, toRuleView(r))
	}
	c.JSON(http.StatusOK, views)
}

type createRuleRequest struct {
	Name           string   `json:"name"`
	RuleOrder      int      `json:"rule_order"`
	AccountID      *int64   `json:"account_id"`
	SenderPattern  string   `json:"sender_pattern"`
	SubjectPattern string   `json:"subject_pattern"`
	BodyPattern    string   `json:"body_pattern"`
	AddLabels      []string `json:"add_labels"`
	PushTelegram   bool     `json:"push_telegram"`
	MarkRead       bool     `json:"mark_read"`
}

func (s *Server) handleCreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	r := &model.Rule{
		Name:           req.Name,
		RuleOrder:      req.RuleOrder,
		AccountID:      req.AccountID,
		SenderPattern:  req.SenderPattern,
		SubjectPattern: req.SubjectPattern,
		BodyPattern:    req.BodyPattern,
		PushTelegram:   req.PushTelegram,
		MarkRead:       req.MarkRead,
	}
	r.SetAddLabels(req.AddLabels)

	if err := s.store.CreateRule(c.Request.Context(), r); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRuleView(r))
}

type updateRuleRequest struct {
	Name           *string   `json:"name"`
	RuleOrder      *int      `json:"rule_order"`
	AccountID      **int64   `json:"account_id"`
	SenderPattern  *string   `json:"sender_pattern"`
	SubjectPattern *string   `json:"subject_pattern"`
	BodyPattern    *string   `json:"body_pattern"`
	AddLabels      *[]string `json:"add_labels"`
	PushTelegram   *bool     `json:"push_telegram"`
	MarkRead       *bool     `json:"mark_read"`
}

func (s *Server) handleUpdateRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	patch := store.RulePatch{
		Name:           req.Name,
		RuleOrder:      req.RuleOrder,
		AccountID:      req.AccountID,
		SenderPattern:  req.SenderPattern,
		SubjectPattern: req.SubjectPattern,
		BodyPattern:    req.BodyPattern,
		AddLabels:      req.AddLabels,
		PushTelegram:   req.PushTelegram,
		MarkRead:       req.MarkRead,
	}

	ctx := c.Request.Context()
	if err := s.store.UpdateRule(ctx, id, patch); err != nil {
		respondError(c, err)
		return
	}
	r, err := s.store.GetRule(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRuleView(r))
}

func (s *Server) handleDeleteRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := s.store.DeleteRule(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
