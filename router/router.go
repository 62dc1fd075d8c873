package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/club-pos/controllers"
	"github.com/yeremiapane/club-pos/kds"
	"github.com/yeremiapane/club-pos/middlewares"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/services"
	"gorm.io/gorm"
)

type Options struct {
	CORSOrigins  []string
	RateLimit    float64
	RateBurst    int
	SecureCookie bool
	// Hub receives floor and kitchen events. A new one is created when nil.
	Hub *kds.Hub
}

func SetupRouter(db *gorm.DB, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigins))
	if opts.RateLimit > 0 {
		r.Use(middlewares.NewRateLimiter(opts.RateLimit, opts.RateBurst).RateLimit())
	}

	hub := opts.Hub
	if hub == nil {
		hub = kds.NewHub()
	}

	// Services
	ledger := services.NewLedger(db)
	logs := services.NewSystemLogService(db)
	settings := services.NewSettingsService(db)

	// Controllers
	userCtrl := controllers.NewUserController(services.NewUserService(db), logs, opts.SecureCookie)
	sessionCtrl := controllers.NewSessionController(ledger, logs, hub)
	kitchenCtrl := controllers.NewKitchenController(services.NewKitchenService(db), hub)
	tableCtrl := controllers.NewTableController(services.NewTableService(db), logs, hub)
	menuCtrl := controllers.NewMenuController(services.NewMenuService(db), logs)
	debtCtrl := controllers.NewDebtController(ledger, logs)
	attendanceCtrl := controllers.NewAttendanceController(services.NewAttendanceService(db), logs)
	settingCtrl := controllers.NewSettingController(settings, logs)
	reportCtrl := controllers.NewReportController(services.NewReportService(db), ledger, settings)
	logCtrl := controllers.NewSystemLogController(logs)
	kdsCtrl := controllers.NewKDSController(hub, opts.CORSOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/login", middlewares.NewStrictRateLimiter().RateLimit(), userCtrl.Login)

	// Browsers cannot set headers on a WebSocket upgrade, so ?token= is accepted here.
	r.GET("/ws", middlewares.AuthMiddleware(true),
		middlewares.RequireRoles(models.RoleStaff, models.RoleKitchen), kdsCtrl.Connect)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(false))

	api.POST("/logout", userCtrl.Logout)
	api.GET("/profile", userCtrl.GetProfile)
	api.POST("/attendance/check-in", attendanceCtrl.CheckIn)
	api.POST("/attendance/check-out", attendanceCtrl.CheckOut)

	// Floor staff
	staff := api.Group("")
	staff.Use(middlewares.RequireRoles(models.RoleStaff))
	{
		staff.GET("/floor", sessionCtrl.FloorState)
		staff.GET("/sessions", sessionCtrl.ActiveSessions)
		staff.GET("/casts/free", sessionCtrl.FreeCasts)
		staff.GET("/tables/available", sessionCtrl.AvailableTables)
		staff.GET("/customers", sessionCtrl.Customers)
		staff.GET("/menus", menuCtrl.GetAllMenus)

		staff.POST("/sessions", sessionCtrl.Open)
		staff.POST("/sessions/:session_id/orders", sessionCtrl.AddOrders)
		staff.POST("/orders", sessionCtrl.AddOrdersForTable)
		staff.POST("/sessions/:session_id/cast", sessionCtrl.ChangeCast)
		staff.POST("/sessions/:session_id/move", sessionCtrl.MoveTable)
		staff.GET("/sessions/:session_id/checkout", sessionCtrl.PreviewCheckout)
		staff.POST("/sessions/:session_id/checkout", sessionCtrl.Checkout)
		staff.GET("/sessions/:session_id/bill.pdf", reportCtrl.BillSlip)
	}

	// Kitchen display
	kitchen := api.Group("/kitchen")
	kitchen.Use(middlewares.RequireRoles(models.RoleKitchen, models.RoleStaff))
	{
		kitchen.GET("/queue", kitchenCtrl.Queue)
		kitchen.POST("/orders/:order_id/start", kitchenCtrl.StartPreparing)
		kitchen.POST("/orders/:order_id/complete", kitchenCtrl.Complete)
	}

	// Casts
	api.GET("/cast/dashboard", middlewares.RequireRoles(models.RoleCast), reportCtrl.CastDashboard)

	// Admin only
	admin := api.Group("/admin")
	admin.Use(middlewares.RequireRoles())
	{
		admin.GET("/dashboard", reportCtrl.AdminDashboard)

		admin.GET("/tables", tableCtrl.GetAllTables)
		admin.GET("/tables/:table_id", tableCtrl.GetTableByID)
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		admin.GET("/menus", menuCtrl.GetAllMenus)
		admin.POST("/menus", menuCtrl.CreateMenu)
		admin.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
		admin.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)

		admin.GET("/users", userCtrl.GetAllUsers)
		admin.POST("/users", userCtrl.CreateUser)
		admin.PATCH("/users/:user_id", userCtrl.UpdateUser)
		admin.DELETE("/users/:user_id", userCtrl.DeactivateUser)

		admin.GET("/debts", debtCtrl.List)
		admin.POST("/debts", debtCtrl.Register)
		admin.GET("/debts/:debt_id", debtCtrl.Detail)
		admin.POST("/debts/:debt_id/payments", debtCtrl.RecordPayment)

		admin.GET("/settings", settingCtrl.Get)
		admin.PUT("/settings", settingCtrl.Update)

		admin.GET("/reports/sales", reportCtrl.Sales)
		admin.GET("/reports/sessions", reportCtrl.Sessions)
		admin.GET("/reports/export", reportCtrl.Export)

		admin.GET("/attendance/today", attendanceCtrl.Today)
		admin.GET("/attendance/history", attendanceCtrl.History)
		admin.GET("/attendance/monthly", attendanceCtrl.Monthly)

		admin.GET("/system-logs", logCtrl.List)
		admin.GET("/system-logs/export", logCtrl.Export)
	}

	return r
}
