package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/orchestrator"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tabs": s.orch.Tabs()})
}

// handleBegin reports that a page load started.
// Body: {"load_id": "..."}; an empty body is a load without id.
func (s *Server) handleBegin(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	loadID := loadIDField(body)
	if err := s.orch.BeginLoad(tabID, loadID); err != nil {
		s.abortWithOrchestratorError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tab_id": tabID, "load_id": loadID})
}

// handleLoad reports a page snapshot.
// Body: {"load_id": "...", "snapshot": {...}}. The snapshot is decoded
// leniently; a missing snapshot is an empty page.
func (s *Server) handleLoad(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	loadID := loadIDField(body)
	snapshot := model.DecodeSnapshot([]byte(gjson.GetBytes(body, "snapshot").Raw))

	outcome, err := s.orch.HandleSnapshot(c.Request.Context(), orchestrator.PageLoadEvent{
		TabID:    tabID,
		LoadID:   loadID,
		Snapshot: snapshot,
	})
	if err != nil {
		s.abortWithOrchestratorError(c, err)
		return
	}

	resp := gin.H{
		"outcome": outcome.String(),
		"tab_id":  tabID,
		"load_id": loadID,
	}
	if view, ok := s.orch.Session(tabID); ok {
		resp["session_id"] = view.ID
	}

	status := http.StatusAccepted
	if outcome == orchestrator.OutcomeIgnored {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// handleNavigate abandons the tab's session.
func (s *Server) handleNavigate(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab_id": tabID, "abandoned": s.orch.Navigate(tabID)})
}

func (s *Server) handleSession(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}
	view, ok := s.orch.Session(tabID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleAlert returns the tab's pending alert, or 204 when there is none.
// The optional wait parameter blocks until an alert arrives, the tab goes
// away or the wait elapses.
func (s *Server) handleAlert(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}

	wait, err := parseWait(c.Query("wait"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wait"})
		return
	}
	wait = min(wait, s.maxWait)

	if wait <= 0 {
		alert, ok := s.hub.Collect(tabID)
		if !ok {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, alert)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	alert, err := s.hub.Wait(ctx, tabID)
	if err != nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// handleExplanation returns the top entries of the tab's explanation.
func (s *Server) handleExplanation(c *gin.Context) {
	tabID, ok := tabParam(c)
	if !ok {
		return
	}

	top := orchestrator.DefaultExplanationSize
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top"})
			return
		}
		top = n
	}

	entries, ok := s.orch.Explanation(tabID, top)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tab_id": tabID, "explanation": entries})
}

func (s *Server) abortWithOrchestratorError(c *gin.Context, err error) {
	if errors.Is(err, orchestrator.ErrClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	s.logger.Warn("page event failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// readBody reads the request body up to the size limit. An empty body is
// returned as nil. It writes the error response and returns false when the
// body is too large or not JSON.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return nil, false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, true
	}
	if !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return nil, false
	}
	return body, true
}

// tabParam parses the :tab path parameter. It writes a 400 response and
// returns false when the id is not a non-negative integer.
func tabParam(c *gin.Context) (int, bool) {
	tabID, err := strconv.Atoi(c.Param("tab"))
	if err != nil || tabID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tab id"})
		return 0, false
	}
	return tabID, true
}

// loadIDField returns the load_id of a request body. Numbers are accepted
// and kept in their JSON spelling.
func loadIDField(body []byte) string {
	v := gjson.GetBytes(body, "load_id")
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.Str)
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// parseWait accepts a Go duration ("5s") or a number of seconds ("5").
func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, strconv.ErrRange
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, strconv.ErrRange
	}
	return d, nil
}
