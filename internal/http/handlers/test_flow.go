package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assessment-backend/internal/http/response"
	"github.com/yungbote/assessment-backend/internal/services"
)

type TestHandler struct {
	tests services.TestService
}

func NewTestHandler(tests services.TestService) *TestHandler {
	return &TestHandler{tests: tests}
}

// GET /api/tests/:process/questions
func (h *TestHandler) ListQuestions(c *gin.Context) {
	questions, err := h.tests.Questions(c.Request.Context(), c.Param("process"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": questions})
}

// POST /api/tests/:process/submit
// body: { "answers": { "<question_id>": <answer> } }
func (h *TestHandler) Submit(c *gin.Context) {
	var req struct {
		Answers map[string]json.RawMessage `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.tests.Submit(c.Request.Context(), c.Param("process"), req.Answers)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}
