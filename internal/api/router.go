package api

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine: an unauthenticated webhook and
// health surface, and a JWT-protected group for review/playbook
// actions, following kube-rca-backend's route-group-per-concern shape.
func NewRouter(s *Server, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.Health)
	r.POST("/webhooks/alertmanager", s.AlertWebhook)

	protected := r.Group("/api/v1")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.POST("/reviews/:id/approve", s.ApproveReview)
		protected.POST("/reviews/:id/reject", s.RejectReview)

		protected.GET("/playbooks", s.ListPendingPlaybooks)
		protected.GET("/playbooks/:id", s.GetPlaybook)
		protected.GET("/playbooks/:id/stats", s.GetPlaybookStats)
		protected.POST("/playbooks/:id/approve", s.ApprovePlaybook)
		protected.POST("/playbooks/:id/reject", s.RejectPlaybook)
	}

	return r
}
