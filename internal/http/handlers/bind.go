package handlers

import (
	"github.com/gofiber/fiber/v2"

	"smarttrack/internal/domain"
	"smarttrack/internal/validate"
)

// bindJSON decodes a JSON request body over v, which carries the defaults.
func bindJSON(c *fiber.Ctx, v any) error {
	if !c.Is("json") {
		return domain.Invalid("request body must be application/json")
	}
	if err := c.BodyParser(v); err != nil {
		return domain.Wrap(domain.KindValidation, err, "malformed JSON body")
	}
	return nil
}

func pathID(c *fiber.Ctx, what string) (int64, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return 0, domain.Invalid("%s id must be a positive integer", what)
	}
	return id, nil
}

func listFilter(c *fiber.Ctx) (domain.ListFilter, error) {
	page, err := validate.Page(c.Query("skip"), c.Query("limit"))
	if err != nil {
		return domain.ListFilter{}, err
	}
	rng, err := validate.Range(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return domain.ListFilter{}, err
	}
	return domain.ListFilter{Page: page, DateRange: rng}, nil
}
