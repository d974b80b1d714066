package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/rag"
	"github.com/GuilhermeLVL/Onfly-RPA/internal/report"
)

type chatRequest struct {
	Question string `json:"pergunta"`
}

type chatResponse struct {
	Question string `json:"pergunta"`
	Answer   string `json:"resposta"`
}

func errorBody(detail string) gin.H {
	return gin.H{"detail": detail}
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "API está online!"})
}

func (s *Server) handleRunPipeline(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runner.Run(c.Request.Context())
	if err != nil {
		s.logger.Error("Pipeline run failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao executar o pipeline."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pipeline de ETL executado com sucesso!",
		"state":   res.State,
		"records": res.Records,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, errorBody("Pergunta não fornecida."))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := s.assistant.Ask(c.Request.Context(), req.Question)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, chatResponse{Question: req.Question, Answer: reply.Answer})
	case errors.Is(err, rag.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorBody("Chatbot não inicializado. Execute o pipeline primeiro."))
	case errors.Is(err, rag.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, errorBody("Pergunta não fornecida."))
	default:
		s.logger.Error("Chat answer failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Não foi possível obter uma resposta do chatbot."))
	}
}

func (s *Server) handleClearContext(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.assistant.ClearContext(c.Request.Context()); err != nil {
		s.logger.Error("Failed to clear context", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao limpar o contexto."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contexto do chatbot limpo com sucesso!"})
}

func (s *Server) handlePipelineReport(c *gin.Context) {
	if _, err := os.Stat(s.cfg.CSVPath); err != nil {
		c.JSON(http.StatusNotFound, errorBody("Relatório do pipeline não encontrado. Execute o pipeline primeiro."))
		return
	}

	t, err := report.ReadCSV(s.cfg.CSVPath)
	if err != nil {
		s.logger.Error("Failed to read report", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao ler o relatório CSV."))
		return
	}
	c.JSON(http.StatusOK, t.Records())
}

func (s *Server) handlePipelineChart(c *gin.Context) {
	if _, err := os.Stat(s.cfg.ChartPath); err != nil {
		c.JSON(http.StatusNotFound, errorBody("Gráfico do pipeline não encontrado. Execute o pipeline primeiro."))
		return
	}
	c.Header("Content-Type", "image/png")
	c.File(s.cfg.ChartPath)
}

func (s *Server) handleChatHistory(c *gin.Context) {
	history, err := s.assistant.HistoryText(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to read history", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao ler o histórico."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) handleChatData(c *gin.Context) {
	files, err := s.assistant.ChatData()
	if err != nil {
		s.logger.Error("Failed to read chat data", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("Erro ao ler os dados do chat."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": files})
}
