package router

import (
	"net/http"
	"strings"

	"github.com/carryhub/carry-service/api"
	"github.com/carryhub/carry-service/internal/handler"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers — набор хендлеров, который монтирует роутер.
type Handlers struct {
	Ticket    *handler.TicketHandler
	Session   *handler.SessionHandler
	Blacklist *handler.BlacklistHandler
	Proof     *handler.ProofHandler
	Ready     http.HandlerFunc
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", gin.WrapF(handler.Health))
	r.GET("/ready", gin.WrapF(h.Ready))
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/") })
	r.GET("/swagger/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = "/swagger/index.html"
			c.Request.RequestURI = "/swagger/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions/open", h.Session.Open)
		v1.POST("/sessions/close", h.Session.Close)
		v1.GET("/sessions/current", h.Session.Current)
		v1.GET("/sessions/:id/stats", h.Session.Stats)

		v1.POST("/tickets", h.Ticket.Create)
		v1.GET("/tickets", h.Ticket.List)
		v1.GET("/tickets/:id", h.Ticket.Get)
		v1.GET("/tickets/:id/position", h.Ticket.Position)
		v1.GET("/tickets/:id/compatible", h.Ticket.Compatible)
		v1.POST("/tickets/:id/claim", h.Ticket.Claim)
		v1.POST("/tickets/:id/unclaim", h.Ticket.Unclaim)
		v1.POST("/tickets/:id/start", h.Ticket.Start)
		v1.POST("/tickets/:id/cohelper", h.Ticket.AddCohelper)
		v1.POST("/tickets/:id/merge", h.Ticket.Merge)
		v1.POST("/tickets/:id/complete", h.Ticket.Complete)
		v1.POST("/tickets/:id/close", h.Ticket.Close)
		v1.PUT("/tickets/:id/availability", h.Ticket.UpdateAvailability)

		v1.POST("/blacklist", h.Blacklist.Add)
		v1.GET("/blacklist", h.Blacklist.List)
		v1.DELETE("/blacklist/:requesterId", h.Blacklist.Remove)

		v1.GET("/proofs", h.Proof.Recent)
	}

	return r
}
