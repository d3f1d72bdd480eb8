package http

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/filedrop-bot/internal/observability"
	"github.com/spec-kit/filedrop-bot/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and
// request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger) {
	app.Use(errorHandlingMiddleware(logger))
	app.Use(observability.RequestLogger(logger))
}

func errorHandlingMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				appErr := util.Classify(err)
				status := fiber.StatusInternalServerError
				if appErr.Class == util.ClassPolicy || appErr.Class == util.ClassCallback {
					status = fiber.StatusBadRequest
				}
				if appErr.Class == util.ClassInternal {
					logger.Error("request failed", zap.Error(appErr))
				}
				c.Status(status)
				_ = c.JSON(fiber.Map{"error": fiber.Map{
					"class":   appErr.Class,
					"message": appErr.Message,
				}})
				err = nil
			}
		}()
		return c.Next()
	}
}
