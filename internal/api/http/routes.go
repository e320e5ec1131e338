package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/courierhq/delivery-fee-service/internal/fee"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *fee.Service, st store.Store) {
	v1 := app.Group("/api/v1")

	v1.Post("/delivery-fees/calculate", calculateHandler(service))

	v1.Get("/cities", listHandler(st.ListCities))
	v1.Post("/cities", createCityHandler(st))
	v1.Get("/cities/:id/weather/latest", latestWeatherHandler(st))

	v1.Get("/vehicle-types", listHandler(st.ListVehicleTypes))
	v1.Post("/vehicle-types", createVehicleTypeHandler(st))

	v1.Get("/stations", listHandler(st.ListStations))
	v1.Post("/stations", createStationHandler(st))

	v1.Get("/base-fees", listHandler(st.ListBaseFees))
	v1.Post("/base-fees", createBaseFeeHandler(st))

	v1.Get("/surcharge-rules", listHandler(st.ListSurchargeRules))
	v1.Post("/surcharge-rules", createSurchargeRuleHandler(st))
}

// calculateRequest identifies the (city, vehicle type) pair to quote.
type calculateRequest struct {
	CityID        string `json:"cityId" validate:"required,uuid"`
	VehicleTypeID string `json:"vehicleTypeId" validate:"required,uuid"`
}

func calculateHandler(service *fee.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req calculateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cityID, err := uuid.Parse(req.CityID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cityId")
		}
		vehicleTypeID, err := uuid.Parse(req.VehicleTypeID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid vehicleTypeId")
		}

		quote, notice, err := service.CalculateDeliveryFee(c.Context(), cityID, vehicleTypeID)
		if errors.Is(err, fee.ErrNoBaseFee) {
			return fiber.NewError(fiber.StatusBadRequest, "no base fee found for the given city and vehicle type")
		}
		if err != nil {
			// Logged upstream; callers only see a generic failure.
			return fiber.NewError(fiber.StatusInternalServerError, "failed to calculate delivery fee")
		}

		if notice != "" {
			return c.JSON(fiber.Map{"error": notice})
		}
		return c.JSON(quote)
	}
}

func latestWeatherHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cityID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid city id")
		}

		obs, err := st.LatestWeatherByCity(c.Context(), cityID)
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}
		return c.JSON(obs)
	}
}

// listHandler adapts a store list method into a GET handler.
func listHandler[T any](list func(ctx context.Context) ([]T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := list(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list entities")
		}
		if items == nil {
			items = []T{}
		}
		return c.JSON(items)
	}
}
