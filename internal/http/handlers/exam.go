package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/http/response"
	"github.com/yungbote/assessment-backend/internal/services"
)

type ExamHandler struct {
	exams services.ExamService
}

func NewExamHandler(exams services.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// POST /api/exam/sessions
// body: { "process": "..." }
func (h *ExamHandler) StartSession(c *gin.Context) {
	var req struct {
		Process string `json:"process" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	view, err := h.exams.StartSession(c.Request.Context(), req.Process)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// GET /api/exam/sessions/:id
func (h *ExamHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	view, err := h.exams.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session": view})
}

// POST /api/exam/sessions/:id/answers
// body: { "question_id": "...", "answer": <string | string[] | null> }
func (h *ExamHandler) RecordAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	var req struct {
		QuestionID uuid.UUID       `json:"question_id" binding:"required"`
		Answer     json.RawMessage `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	accepted, err := h.exams.RecordAnswer(c.Request.Context(), sessionID, req.QuestionID, req.Answer)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"accepted": accepted})
}

// POST /api/exam/sessions/:id/complete
func (h *ExamHandler) CompleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	result, err := h.exams.CompleteSession(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

// GET /api/results?limit=
func (h *ExamHandler) ListResults(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	results, err := h.exams.ListResults(c.Request.Context(), limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}
