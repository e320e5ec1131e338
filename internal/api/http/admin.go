package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courierhq/delivery-fee-service/internal/domain"
	"github.com/courierhq/delivery-fee-service/internal/store"
)

// Administrative create endpoints. Thin wrappers over the store; the fee
// engine and the ingestion pipeline read whatever is configured here.

type createCityRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

func createCityHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createCityRequest
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}

		city := domain.City{ID: uuid.New(), Name: req.Name}
		if err := st.CreateCity(c.Context(), city); err != nil {
			return createErr("city", err)
		}
		return c.Status(fiber.StatusCreated).JSON(city)
	}
}

type createVehicleTypeRequest struct {
	Name string `json:"name" validate:"required,max=20"`

	// WeatherRestricted defaults from the legacy name match when omitted.
	WeatherRestricted *bool `json:"weatherRestricted"`
}

func createVehicleTypeHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createVehicleTypeRequest
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}

		restricted := domain.DefaultWeatherRestricted(req.Name)
		if req.WeatherRestricted != nil {
			restricted = *req.WeatherRestricted
		}

		vt := domain.VehicleType{ID: uuid.New(), Name: req.Name, WeatherRestricted: restricted}
		if err := st.CreateVehicleType(c.Context(), vt); err != nil {
			return createErr("vehicle type", err)
		}
		return c.Status(fiber.StatusCreated).JSON(vt)
	}
}

type createStationRequest struct {
	Name    string  `json:"name" validate:"required,max=60"`
	CityID  *string `json:"cityId" validate:"omitempty,uuid"`
	WmoCode *int    `json:"wmoCode"`
	Active  bool    `json:"active"`
}

func createStationHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createStationRequest
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}

		station := domain.Station{
			ID:      uuid.New(),
			Name:    req.Name,
			WmoCode: req.WmoCode,
			Active:  req.Active,
		}
		if req.CityID != nil {
			cityID, err := uuid.Parse(*req.CityID)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid cityId")
			}
			station.CityID = &cityID
		}

		if err := st.CreateStation(c.Context(), station); err != nil {
			return createErr("station", err)
		}
		return c.Status(fiber.StatusCreated).JSON(station)
	}
}

type createBaseFeeRequest struct {
	CityID        string `json:"cityId" validate:"required,uuid"`
	VehicleTypeID string `json:"vehicleTypeId" validate:"required,uuid"`
	Amount        string `json:"amount" validate:"required"`
}

func createBaseFeeHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createBaseFeeRequest
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}

		cityID, err := uuid.Parse(req.CityID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cityId")
		}
		vehicleTypeID, err := uuid.Parse(req.VehicleTypeID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid vehicleTypeId")
		}
		amount, err := parseFeeAmount(req.Amount)
		if err != nil {
			return err
		}

		f := domain.BaseFee{
			ID:            uuid.New(),
			CityID:        cityID,
			VehicleTypeID: vehicleTypeID,
			Amount:        amount,
		}
		if err := st.CreateBaseFee(c.Context(), f); err != nil {
			return createErr("base fee", err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

type createSurchargeRuleRequest struct {
	VehicleTypeID string  `json:"vehicleTypeId" validate:"required,uuid"`
	ConditionType string  `json:"conditionType" validate:"required"`
	Min           *string `json:"min"`
	Max           *string `json:"max"`
	Amount        string  `json:"amount" validate:"required"`
}

func createSurchargeRuleHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSurchargeRuleRequest
		if err := parseAndValidate(c, &req); err != nil {
			return err
		}

		vehicleTypeID, err := uuid.Parse(req.VehicleTypeID)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid vehicleTypeId")
		}

		kind := domain.ParseConditionKind(req.ConditionType)
		if kind == domain.KindUnknown {
			return fiber.NewError(fiber.StatusBadRequest, "unknown condition type")
		}

		amount, err := parseFeeAmount(req.Amount)
		if err != nil {
			return err
		}

		cond := domain.RuleCondition{Kind: kind}
		if req.Min != nil && req.Max != nil {
			mn, err := decimal.NewFromString(*req.Min)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid min value")
			}
			mx, err := decimal.NewFromString(*req.Max)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid max value")
			}
			if mx.LessThan(mn) {
				return fiber.NewError(fiber.StatusBadRequest, "max must not be less than min")
			}
			cond.Bounds = &domain.Bounds{Min: mn, Max: mx}
		}

		rule := domain.SurchargeRule{
			ID:            uuid.New(),
			VehicleTypeID: vehicleTypeID,
			Condition:     cond,
			Amount:        amount,
		}
		if err := st.CreateSurchargeRule(c.Context(), rule); err != nil {
			return createErr("surcharge rule", err)
		}
		return c.Status(fiber.StatusCreated).JSON(rule)
	}
}

func parseAndValidate(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func parseFeeAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fiber.NewError(fiber.StatusBadRequest, "invalid fee amount")
	}
	if !domain.FeeAmountValid(amount) {
		return decimal.Decimal{}, fiber.NewError(fiber.StatusBadRequest, "fee amount must be between 0.01 and 999.99")
	}
	return amount, nil
}

func createErr(entity string, err error) error {
	if errors.Is(err, store.ErrConflict) {
		return fiber.NewError(fiber.StatusConflict, entity+" already exists")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to create "+entity)
}
