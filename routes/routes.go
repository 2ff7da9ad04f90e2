package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"readova/config"
	"readova/controllers"
	"readova/middleware"
	"readova/services"
	"readova/websocket"
)

// Options 路由相关配置
type Options struct {
	AllowOrigins    []string
	IngestRateLimit int // 每分钟
}

// SetupRoutes 设置路由
func SetupRoutes(r *gin.Engine, svcs *services.Services, hub *websocket.Hub, jwtService *config.JWTService, rdb *redis.Client, opts Options) {
	// 应用全局中间件
	r.Use(middleware.CORS(middleware.NewCORSConfig(opts.AllowOrigins)))
	r.Use(middleware.Logger())

	auth := middleware.NewAuthenticator(jwtService, svcs.Auth)

	authController := controllers.NewAuthController(svcs.Auth)
	userController := controllers.NewUserController(svcs.Auth)
	bookController := controllers.NewBookController(svcs.Books)
	borrowController := controllers.NewBorrowController(svcs.Borrows)
	subscriptionController := controllers.NewSubscriptionController(svcs.Subscription)
	ratingController := controllers.NewRatingController(svcs.Ratings)
	wishlistController := controllers.NewWishlistController(svcs.Wishlist)
	libraryController := controllers.NewLibraryController(svcs.Library)
	adminController := controllers.NewAdminController(svcs.Stats)

	// 带token时以token中的用户为准，否则使用请求中的 user_id
	api := r.Group("/", auth.OptionalAuth())
	{
		// ====== 认证 / 用户 ======
		api.POST("/register", authController.Register)
		api.POST("/login", authController.Login)
		api.POST("/logout", auth.RequireAuth(), authController.Logout)
		api.GET("/user", userController.GetUser)
		api.POST("/delete", auth.RequireAuth(), userController.DeleteUser)
		api.GET("/allusers", auth.AdminOnly(), userController.ListUsers)

		// ====== 书目 ======
		api.GET("/books",
			auth.AdminOnly(),
			middleware.RateLimit(rdb, "ingest", opts.IngestRateLimit, time.Minute),
			bookController.Ingest,
		)
		api.GET("/showbooks", bookController.ShowBooks)
		api.GET("/books/:id", bookController.GetBook)
		api.PUT("/books/:id/price", auth.AdminOnly(), bookController.UpdatePrice)
		api.DELETE("/deletebooks/:id", auth.AdminOnly(), bookController.DeleteBook)
		api.GET("/notifications", bookController.Notifications)

		// ====== 借阅 / 订阅 ======
		api.POST("/borrow", borrowController.Borrow)
		api.GET("/subscriptions/books", bookController.SubscriptionBooks)
		api.POST("/subscriptions/checkout", subscriptionController.Checkout)

		// ====== 评分 / 心愿单 / 书架 ======
		api.POST("/rate", ratingController.Rate)
		api.POST("/wishlist/toggle", wishlistController.Toggle)
		api.GET("/wishlist", wishlistController.List)
		api.GET("/wishlist/check/:id", wishlistController.Check)
		api.GET("/library/my-books", libraryController.MyBooks)

		// ====== 管理后台 ======
		api.GET("/admin/stats", auth.AdminOnly(), adminController.Stats)
	}

	// ====== WebSocket路由 ======
	r.GET("/ws/notifications", hub.HandleConnection)
}
