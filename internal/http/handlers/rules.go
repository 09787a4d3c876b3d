package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assessment-backend/internal/http/response"
	"github.com/yungbote/assessment-backend/internal/services"
)

type RuleHandler struct {
	rules services.RuleService
}

func NewRuleHandler(rules services.RuleService) *RuleHandler {
	return &RuleHandler{rules: rules}
}

// GET /api/admin/processes/:process/rules
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.List(c.Request.Context(), c.Param("process"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rules": rules})
}

// PUT /api/admin/processes/:process/rules
// body: { "category": "...", "min_attempt": 1, "max_display": 3, "required_attempt": 2, "order": 0 }
func (h *RuleHandler) UpsertRule(c *gin.Context) {
	var req services.RuleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	rule, err := h.rules.Upsert(c.Request.Context(), c.Param("process"), req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rule": rule})
}

// DELETE /api/admin/processes/:process/rules/:category
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	if err := h.rules.Delete(c.Request.Context(), c.Param("process"), c.Param("category")); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
