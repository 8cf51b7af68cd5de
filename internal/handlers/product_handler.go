package handlers

import (
	"fmt"
	"strconv"

	"productos/internal/models"
	"productos/internal/services"
	"productos/pkg/response"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	titleInvalidInput   = "Datos de entrada inválidos"
	titleInvalidBody    = "Cuerpo de solicitud inválido"
	titleInvalidParam   = "Parámetro inválido"
	titleCreateConflict = "Error al crear producto"
	titleNotFound       = "Producto no encontrado"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	version  string
}

// NewProductHandler creates a new ProductHandler. version is reported in the
// meta member of every successful response.
func NewProductHandler(service *services.ProductService, version string) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
		version:  version,
	}
}

// RegisterRoutes registers the product routes. Handlers in mw run before
// every product route.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	productRoutes := router.Group("/productos", mw...)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	// Registered before /:id so they are not captured as an id.
	productRoutes.Get("/buscar/nombre", h.HandleSearchByName)
	productRoutes.Get("/buscar/precio", h.HandleSearchByPrice)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req models.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("invalid request body")
		return response.Fail(c, fiber.StatusBadRequest, titleInvalidBody, "El cuerpo de la solicitud no es un JSON válido")
	}

	if err := h.validate.Struct(req); err != nil {
		return h.validationFailed(c, err)
	}

	product, err := h.service.CreateProduct(ctx, req.Nombre, *req.Precio, req.Descripcion)
	if err != nil {
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			return response.Fail(c, fiber.StatusConflict, titleCreateConflict, conflict.Error())
		}
		if errors.Is(err, services.ErrInvalidProduct) {
			return response.Fail(c, fiber.StatusBadRequest, titleInvalidInput,
				"El producto no cumple las restricciones de almacenamiento")
		}
		return err
	}

	return response.Success(c, fiber.StatusCreated, product, h.version)
}

func (h *ProductHandler) validationFailed(c *fiber.Ctx, err error) error {
	msgs := validationMessages(err)
	log.Ctx(c.UserContext()).Warn().Strs("errors", msgs).Msg("validation failed")

	body := response.Response{Errors: make([]response.APIError, 0, len(msgs))}
	for _, msg := range msgs {
		body.Errors = append(body.Errors, response.NewAPIError(fiber.StatusBadRequest, titleInvalidInput, msg))
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	rawID := c.Params("id")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, titleInvalidParam,
			fmt.Sprintf("El ID debe ser un número entero: %s", rawID))
	}

	product, found, err := h.service.GetProductByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !found {
		return response.Fail(c, fiber.StatusNotFound, titleNotFound,
			fmt.Sprintf("No se encontró un producto con el ID: %d", id))
	}

	return response.Success(c, fiber.StatusOK, product, h.version)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, products, h.version)
}

// HandleSearchByName lists products whose name contains the nombre parameter.
func (h *ProductHandler) HandleSearchByName(c *fiber.Ctx) error {
	if !c.Context().QueryArgs().Has("nombre") {
		return response.Fail(c, fiber.StatusBadRequest, titleInvalidParam, "El parámetro 'nombre' es obligatorio")
	}

	products, err := h.service.SearchProductsByName(c.UserContext(), c.Query("nombre"))
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, products, h.version)
}

// HandleSearchByPrice lists products priced between minPrecio and maxPrecio,
// both inclusive.
func (h *ProductHandler) HandleSearchByPrice(c *fiber.Ctx) error {
	minPrecio, err := decimalQuery(c, "minPrecio")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, titleInvalidParam, err.Error())
	}
	maxPrecio, err := decimalQuery(c, "maxPrecio")
	if err != nil {
		return response.Fail(c, fiber.StatusBadRequest, titleInvalidParam, err.Error())
	}

	products, err := h.service.SearchProductsByPrice(c.UserContext(), minPrecio, maxPrecio)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, products, h.version)
}

func decimalQuery(c *fiber.Ctx, key string) (decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return decimal.Decimal{}, errors.Errorf("El parámetro '%s' es obligatorio", key)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, errors.Errorf("El parámetro '%s' debe ser un número decimal: %s", key, raw)
	}
	return d, nil
}
