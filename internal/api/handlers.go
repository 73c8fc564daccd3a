package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/strands/strands/internal/adapters"
	"github.com/strands/strands/internal/controller"
	"github.com/strands/strands/internal/errs"
	"github.com/strands/strands/internal/playbook"
)

// Server bundles the dependencies the HTTP handlers call into.
type Server struct {
	Queue      *WebhookQueue
	Controller *controller.Controller
	Playbooks  *playbook.Store
	Graph      adapters.GraphStore
}

// AlertWebhook receives an Alertmanager-shaped payload and queues its
// alerts for the next tick, following kube-rca-backend's
// AlertmanagerWebhook handler shape.
func (s *Server) AlertWebhook(c *gin.Context) {
	var webhook AlertmanagerWebhook
	if err := c.ShouldBindJSON(&webhook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	alerts := make([]adapters.RawAlert, 0, len(webhook.Alerts))
	for _, a := range webhook.Alerts {
		fingerprint := a.Fingerprint
		if fingerprint == "" {
			fingerprint = uuid.NewString()
		}
		alerts = append(alerts, adapters.RawAlert{
			Provider:    "webhook",
			Fingerprint: fingerprint,
			Service:     a.Labels["service"],
			Severity:    a.Labels["severity"],
			Description: a.Annotations["description"],
			Labels:      a.Labels,
			Annotations: a.Annotations,
			Status:      a.Status,
			StartsAt:    a.StartsAt,
			EndsAt:      a.EndsAt,
		})
	}
	s.Queue.Push(alerts)

	c.JSON(http.StatusOK, gin.H{"status": "received", "alertCount": len(alerts)})
}

type reviewActionRequest struct {
	Notes string `json:"notes"`
}

// ApproveReview approves a pending decision's review, attributing the
// approval to the bearer token's reviewer identity.
func (s *Server) ApproveReview(c *gin.Context) {
	decisionID := c.Param("id")
	var req reviewActionRequest
	_ = c.ShouldBindJSON(&req)

	record, err := s.Controller.ApproveReview(c.Request.Context(), decisionID, ReviewerIdentity(c), req.Notes)
	if err != nil {
		writeReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// RejectReview rejects a pending decision's review.
func (s *Server) RejectReview(c *gin.Context) {
	decisionID := c.Param("id")
	var req reviewActionRequest
	_ = c.ShouldBindJSON(&req)

	record, err := s.Controller.RejectReview(c.Request.Context(), decisionID, ReviewerIdentity(c), req.Notes)
	if err != nil {
		writeReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func writeReviewError(c *gin.Context, err error) {
	switch errs.ClassOf(err) {
	case errs.IllegalStateTransition, errs.ReviewAlreadyClosed:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.InvalidReviewer:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// ListPendingPlaybooks lists playbooks awaiting human review.
func (s *Server) ListPendingPlaybooks(c *gin.Context) {
	playbooks, err := s.Playbooks.PendingReview(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, playbooks)
}

// GetPlaybook returns one playbook's full record.
func (s *Server) GetPlaybook(c *gin.Context) {
	p, found, err := s.Playbooks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "playbook not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPlaybookStats returns one playbook's execution statistics only,
// satisfying the read-only stats query surface independent of the
// full playbook record GetPlaybook returns.
func (s *Server) GetPlaybookStats(c *gin.Context) {
	p, found, err := s.Playbooks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "playbook not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"playbookId":      p.ID,
		"totalExecutions": p.Stats.TotalExecutions,
		"successCount":    p.Stats.SuccessCount,
		"failureCount":    p.Stats.FailureCount,
		"successRate":     p.Stats.SuccessRate(),
		"meanDuration":    p.Stats.MeanDuration,
		"variance":        p.Stats.Variance(),
		"lastExecutedAt":  p.Stats.LastExecutedAt,
	})
}

type playbookDecisionRequest struct {
	Reason string `json:"reason"`
}

// ApprovePlaybook promotes a PENDING_REVIEW playbook to ACTIVE.
func (s *Server) ApprovePlaybook(c *gin.Context) {
	if err := s.Playbooks.Approve(c.Request.Context(), c.Param("id"), ReviewerIdentity(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// RejectPlaybook archives a PENDING_REVIEW playbook.
func (s *Server) RejectPlaybook(c *gin.Context) {
	var req playbookDecisionRequest
	_ = c.ShouldBindJSON(&req)
	if err := s.Playbooks.Reject(c.Request.Context(), c.Param("id"), ReviewerIdentity(c), req.Reason); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Health pings the graph store and reports overall readiness.
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := s.Graph.Query(ctx, "RETURN 1", nil); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
