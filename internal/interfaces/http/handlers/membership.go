// internal/interfaces/http/handlers/membership.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/supplement-store-backend/internal/domain/membership"
	"github.com/your-org/supplement-store-backend/internal/interfaces/http/middleware"
)

// MembershipHandler handles membership endpoints
type MembershipHandler struct {
	membershipService *membership.Service
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipService *membership.Service) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

// GetMembership handles GET /users/membership
func (h *MembershipHandler) GetMembership(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	m, err := h.membershipService.GetMembership(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	isMember := m != nil && m.IsCurrent()
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"is_member":  isMember,
			"membership": m,
		},
	})
}

// GrantMembership handles POST /admin/memberships/:userId
func (h *MembershipHandler) GrantMembership(c *gin.Context) {
	userID, ok := parseUintParam(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		ExpiresAt *string `json:"expires_at"` // RFC3339, null means no expiry
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expiry timestamp"})
			return
		}
		expiresAt = &t
	}

	m, err := h.membershipService.Grant(c.Request.Context(), userID, expiresAt)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Membership granted successfully",
		"data":    m,
	})
}

// RevokeMembership handles DELETE /admin/memberships/:userId
func (h *MembershipHandler) RevokeMembership(c *gin.Context) {
	userID, ok := parseUintParam(c, "userId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.membershipService.Revoke(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Membership revoked successfully"})
}
