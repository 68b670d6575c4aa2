package routes

import (
	"decorly/admin"
	"decorly/auth"
	"decorly/bookings"
	"decorly/decorators"
	"decorly/live"
	"decorly/middleware"
	"decorly/models"
	"decorly/payments"
	"decorly/ratelim"
	"decorly/services"
	"decorly/trackings"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, svc *auth.Service) {
	router.POST("/api/auth/register", rl.Limit(svc.Register))
	router.POST("/api/auth/login", rl.Limit(svc.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(svc.Logout))
	router.POST("/api/auth/token/refresh", rl.Limit(middleware.Authenticate(svc.RefreshToken)))
}

func AddDecoratorRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, guard *middleware.AuthGuard, svc *decorators.Service) {
	admin := guard.RequireRole(models.RoleAdmin)
	router.POST("/api/decorators/apply", rl.Limit(middleware.Authenticate(svc.Apply)))
	router.GET("/api/decorators/applications", middleware.Authenticate(admin(svc.ListApplications)))
	router.PATCH("/api/decorators/approve/:id", middleware.Authenticate(admin(svc.Approve)))
}

func AddBookingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, guard *middleware.AuthGuard, svc *bookings.Service) {
	admin := guard.RequireRole(models.RoleAdmin)
	router.POST("/api/bookings", rl.Limit(middleware.Authenticate(svc.CreateBooking)))
	router.GET("/api/bookings/user", middleware.Authenticate(svc.GetUserBookings))
	router.GET("/api/bookings", middleware.Authenticate(admin(svc.GetAllBookings)))
	router.PATCH("/api/bookings/:id/assign", middleware.Authenticate(admin(svc.AssignDecorator)))
	router.DELETE("/api/bookings/:id", middleware.Authenticate(admin(svc.DeleteBooking)))
}

func AddPaymentRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, svc *payments.Service) {
	router.POST("/api/payments", rl.Limit(middleware.Authenticate(svc.Pay)))
	router.POST("/api/payments/intent", rl.Limit(middleware.Authenticate(svc.CreateIntent)))
	router.GET("/api/payments/receipt/:bookingid", middleware.Authenticate(svc.Receipt))
}

func AddServiceRoutes(router *httprouter.Router, rl *ratelim.RateLimiter, guard *middleware.AuthGuard, svc *services.Service) {
	admin := guard.RequireRole(models.RoleAdmin)
	decorator := guard.RequireRole(models.RoleDecorator)
	router.POST("/api/services", middleware.Authenticate(admin(svc.Assign)))
	router.GET("/api/services", middleware.Authenticate(admin(svc.ListAll)))
	router.GET("/api/services/decorator", middleware.Authenticate(decorator(svc.ListForDecorator)))
	router.PATCH("/api/services/:id", rl.Limit(middleware.Authenticate(decorator(svc.UpdateStatus))))
	router.POST("/api/services/cashout/:id", rl.Limit(middleware.Authenticate(decorator(svc.CashOut))))
}

func AddTrackingRoutes(router *httprouter.Router, svc *trackings.Service) {
	router.GET("/api/trackings/:bookingid", middleware.Authenticate(svc.Timeline))
}

func AddLiveRoutes(router *httprouter.Router, feed *live.Feed) {
	router.GET("/api/live/:bookingid", middleware.Authenticate(feed.HandleWS))
}

func AddAdminRoutes(router *httprouter.Router, guard *middleware.AuthGuard, svc *admin.Service) {
	adm := guard.RequireRole(models.RoleAdmin)
	router.GET("/api/admin/users", middleware.Authenticate(adm(svc.GetUsers)))
	router.PATCH("/api/admin/users/:email/block", middleware.Authenticate(adm(svc.SetBlocked)))
	router.DELETE("/api/admin/users/:email", middleware.Authenticate(adm(svc.DeleteUser)))
}
