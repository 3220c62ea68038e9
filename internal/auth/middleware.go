package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "kanban_session"

// profileKey is the gin context key holding the authenticated profile.
const profileKey = "auth.profile"

// RequireUser gates a route group on a valid session. Unauthenticated
// browser requests are redirected to the login flow; API requests get a 401.
// On success the profile is attached to the request context.
func RequireUser(sessions *Sessions, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			reject(c, http.StatusUnauthorized, "/login")
			return
		}
		userID, err := sessions.Verify(token)
		if err != nil {
			reject(c, http.StatusUnauthorized, "/login")
			return
		}
		var profile models.Profile
		if err := db.First(&profile, "id = ?", userID).Error; err != nil {
			reject(c, http.StatusUnauthorized, "/login")
			return
		}
		c.Set(profileKey, &profile)
		c.Next()
	}
}

// RequireSiteAdmin gates a route group on the site-wide admin role. Must run
// after RequireUser. Non-admins are sent back to their dashboard.
func RequireSiteAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := CurrentProfile(c)
		if profile == nil || !profile.IsAdmin() {
			reject(c, http.StatusForbidden, "/dashboard")
			return
		}
		c.Next()
	}
}

// CurrentProfile returns the authenticated profile, or nil outside a
// RequireUser-gated route.
func CurrentProfile(c *gin.Context) *models.Profile {
	v, ok := c.Get(profileKey)
	if !ok {
		return nil
	}
	profile, _ := v.(*models.Profile)
	return profile
}

// tokenFromRequest reads the session token from the cookie or, for API
// clients, a bearer Authorization header.
func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// reject ends the request: JSON for API paths, a redirect for pages.
func reject(c *gin.Context, status int, location string) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/ws/") {
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}
