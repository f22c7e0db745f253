package routes

import (
	"github.com/gofiber/fiber/v2"

	"novobicho/config"
	"novobicho/controllers/admin"
	"novobicho/controllers/gateway"
	"novobicho/controllers/user"
	"novobicho/middlewares"
)

func Setup(app *fiber.App, cfg config.Config) {
	gw := app.Group("/gateway", middlewares.GatewayAuth())
	gw.Post("/payments", gateway.PaymentHandler(cfg))
	gw.Post("/draws/result", gateway.DrawResultHandler(cfg))

	app.Post("/user/register", user.RegisterHandler(cfg))

	userroutes := app.Group("/user", middlewares.UserAuthMiddleware)
	userroutes.Get("/balance", user.BalanceHandler)
	userroutes.Get("/statement", user.StatementHandler)
	userroutes.Get("/bonuses", user.BonusesHandler)
	userroutes.Post("/bets", user.PlaceBetHandler)
	userroutes.Get("/bets", user.ListBetsHandler)
	userroutes.Post("/withdrawals", user.RequestWithdrawalHandler)
	userroutes.Get("/withdrawals/pending", user.PendingWithdrawalHandler)

	adminroutes := app.Group("/admin", middlewares.AdminAuth())
	adminroutes.Post("/draws", admin.CreateDrawHandler)
	adminroutes.Post("/adjustments", admin.AdjustmentHandler)
	adminroutes.Post("/bonuses/expire-sweep", admin.ExpireSweepHandler)
}
