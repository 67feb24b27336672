package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"agriconnect/backend/internal/api/handlers"
	"agriconnect/backend/internal/api/middleware"
	"agriconnect/backend/internal/config"
	"agriconnect/backend/internal/services"
)

// SetupRouter configures and returns the main Gin engine. The request, user
// and activity services are shared with the background worker, so they are
// constructed by the caller; API-only services are constructed here.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client,
	requestService services.IContactRequestService, userService services.IUserService, activityService services.IActivityService) *gin.Engine {

	productService := services.NewProductService(db)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	creationLimiter := middleware.NewCreationLimiter(cfg)

	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewAuthHandler(userService, cfg)
	productHandler := handlers.NewProductHandler(productService)
	requestHandler := handlers.NewContactRequestHandler(requestService, userService, taskClient)
	adminHandler := handlers.NewAdminHandler(requestService, userService, taskClient)
	activityHandler := handlers.NewActivityHandler(activityService)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		// Public routes
		v1.POST("/register", authHandler.Register)
		v1.POST("/login", authHandler.Login)

		v1.GET("/product/search", productHandler.SearchProducts)
		v1.GET("/product/:id", productHandler.GetProductByID)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/request", creationLimiter.Limit(), requestHandler.CreateRequest)
			authRequired.GET("/request/mine", requestHandler.ListMyRequests)
			authRequired.GET("/request/incoming", requestHandler.ListIncomingRequests)
			authRequired.GET("/request/:id", requestHandler.GetRequestByID)
			authRequired.POST("/request/:id/accept", requestHandler.AcceptRequest)
			authRequired.POST("/request/:id/reject", requestHandler.RejectRequest)
			authRequired.POST("/request/:id/confirm", requestHandler.ConfirmAsRequester)
			authRequired.POST("/request/:id/confirm-farmer", requestHandler.ConfirmAsFarmer)

			authRequired.POST("/product", productHandler.CreateProduct)
			authRequired.PUT("/product/:id", productHandler.UpdateProduct)
			authRequired.DELETE("/product/:id", productHandler.DeleteProduct)

			authRequired.GET("/activity", activityHandler.ListMyActivity)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.GET("/request/disputed", adminHandler.ListDisputedRequests)
			adminRequired.POST("/request/:id/resolve", adminHandler.ResolveDispute)
			adminRequired.POST("/request/sweep", adminHandler.TriggerExpirySweep)
			adminRequired.POST("/user/:id/suspend", adminHandler.SuspendUser)
			adminRequired.POST("/user/:id/unsuspend", adminHandler.UnsuspendUser)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine used by
// integration tooling. Requires Redis for the getTestEmail endpoint.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			fmt.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
			}
		case "getTestEmail":
			var args []string // Expect ["notification_kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			kind := args[0]
			emailAddr := args[1]
			redisKey := fmt.Sprintf("mockemail:%s:%s", emailAddr, kind)

			// Poll Redis briefly for the key
			var emailJsonData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJsonData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJsonData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
