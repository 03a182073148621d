package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/log"
)

type errorDetail struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindProductNotFound, domain.KindProductInactive, domain.KindInsufficientStock:
		return fiber.StatusBadRequest
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindTransactionFailed:
		return fiber.StatusConflict
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindUpstreamUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage never exposes wrapped driver errors.
func publicMessage(err error) string {
	if domain.KindOf(err) == domain.KindInternal {
		return "internal error"
	}
	return domain.MessageOf(err)
}

// apiError logs err under action and writes the JSON error envelope.
func apiError(c *fiber.Ctx, action string, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	c.Status(status)
	if status >= fiber.StatusInternalServerError || kind == domain.KindTransactionFailed {
		log.Error(c, action+".fail", err, map[string]any{"kind": kind})
	} else {
		log.Security(c, "validation.fail", map[string]any{"action": action, "kind": kind, "msg": domain.MessageOf(err)})
	}
	return c.JSON(errorBody{Error: errorDetail{Kind: kind, Message: publicMessage(err)}})
}

func isAPI(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api")
}

// ErrorHandler is the last stop for errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	kind := domain.KindInternal
	msg := "Something went wrong. Please try again."

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		switch {
		case fe.Code == fiber.StatusNotFound:
			kind, msg = domain.KindNotFound, "not found"
		case fe.Code < fiber.StatusInternalServerError:
			kind, msg = domain.KindValidation, fe.Message
		}
	case domain.KindOf(err) != domain.KindInternal:
		kind = domain.KindOf(err)
		status = statusFor(kind)
		msg = domain.MessageOf(err)
	}

	if status >= fiber.StatusInternalServerError {
		log.Error(c, "server.error", err, nil)
	}

	if isAPI(c) {
		if kind == domain.KindInternal {
			msg = "internal error"
		}
		return c.Status(status).JSON(errorBody{Error: errorDetail{Kind: kind, Message: msg}})
	}
	if rerr := c.Status(status).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	if isAPI(c) {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: errorDetail{Kind: domain.KindNotFound, Message: "route not found"}})
	}
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
}
