package web

import (
	"html"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
)

// The frontend is a separate single-page app in production; these pages
// exist so the server is usable on its own and so redirect targets resolve.

const loginPage = `<!doctype html>
<html>
<head><title>Kanban — Sign in</title></head>
<body>
<h1>Sign in</h1>
<form method="post" action="/api/auth/login" id="login">
  <input name="email" type="email" placeholder="email" required>
  <input name="password" type="password" placeholder="password" required>
  <button type="submit">Sign in</button>
</form>
</body>
</html>`

func (s *server) handleLoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

func (s *server) handleDashboardPage(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(
		"<!doctype html><html><head><title>Kanban</title></head><body><h1>Kanban</h1><p>Signed in as "+
			html.EscapeString(profile.Email)+"</p></body></html>"))
}
