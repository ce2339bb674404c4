package http

import (
	"encoding/json"
	"net/http"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/middleware"
	"avto-sawda/pkg/response"
	"avto-sawda/services/listing/internal/entity"
	"avto-sawda/services/listing/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ListingHandler struct {
	listingUseCase usecase.ListingUseCase
	logger         *logger.Logger
}

func NewListingHandler(listingUseCase usecase.ListingUseCase, logger *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		logger:         logger,
	}
}

type PromoteRequest struct {
	Days int `json:"days" binding:"required"`
}

func actorOf(c *gin.Context) entity.Actor {
	return entity.Actor{
		UserID: c.GetString(middleware.ContextUserID),
		Role:   c.GetString(middleware.ContextUserRole),
	}
}

func queryParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func (h *ListingHandler) fail(c *gin.Context, op string, err error) {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		h.logger.Error("Failed to %s: %v", op, err)
		response.Fail(c, http.StatusInternalServerError, "Failed to "+op)
		return
	}
	response.Error(c, err)
}

// ListCars godoc
// @Summary      Search cars
// @Description  Filtered, paginated search. Premium listings come first, then newest.
// @Tags         cars
// @Produce      json
// @Param        search query string false "Free text over brand and model"
// @Param        brand query string false "Brand substring"
// @Param        minPrice query number false "Minimum price"
// @Param        maxPrice query number false "Maximum price"
// @Param        page query int false "Page, from 1"
// @Param        limit query int false "Page size, 1..100"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /cars [get]
func (h *ListingHandler) ListCars(c *gin.Context) {
	res, err := h.listingUseCase.Search(c.Request.Context(), queryParams(c))
	if err != nil {
		h.fail(c, "fetch cars", err)
		return
	}
	response.Paginated(c, res.Listings, response.NewPagination(res.Total, res.Page.Page, res.Page.Limit))
}

// GetCar godoc
// @Summary      Get car by ID
// @Description  Returns the car with its price rank among similar listings and counts the view
// @Tags         cars
// @Produce      json
// @Param        id path string true "Car ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /cars/{id} [get]
func (h *ListingHandler) GetCar(c *gin.Context) {
	l, rank, err := h.listingUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "fetch car", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": l, "priceRank": rank})
}

// ListMyCars godoc
// @Summary      List my cars
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /cars/my [get]
func (h *ListingHandler) ListMyCars(c *gin.Context) {
	listings, err := h.listingUseCase.ListMine(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.fail(c, "fetch cars", err)
		return
	}
	response.OK(c, http.StatusOK, listings)
}

// SimilarCars godoc
// @Summary      Similar cars
// @Description  Up to six for-sale cars of a similar brand within 30% of the price
// @Tags         cars
// @Produce      json
// @Param        id path string true "Car ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /cars/{id}/similar [get]
func (h *ListingHandler) SimilarCars(c *gin.Context) {
	listings, err := h.listingUseCase.Similar(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "fetch similar cars", err)
		return
	}
	response.OK(c, http.StatusOK, listings)
}

// CreateCar godoc
// @Summary      Create a car listing
// @Description  Multipart form. Scalar fields are plain values, nested objects and arrays are JSON strings. At least one image is required.
// @Tags         cars
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        brand formData string true "Brand"
// @Param        model formData string true "Model"
// @Param        year formData int true "Year"
// @Param        price formData int false "Price"
// @Param        transmission formData string true "Transmission" Enums(automatic, manual, robot, cvt)
// @Param        fuelType formData string true "Fuel type" Enums(petrol, diesel, electric, hybrid, hybrid_plugin)
// @Param        condition formData string true "Condition" Enums(new, good, normal)
// @Param        contact formData string true "Contact as JSON, e.g. {\"phone\":\"+998...\"}"
// @Param        images formData file true "Image files"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /cars [post]
func (h *ListingHandler) CreateCar(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var attrs entity.Attributes
	if err := json.Unmarshal(payload.Attributes, &attrs); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid car fields: "+err.Error())
		return
	}

	l, err := h.listingUseCase.Create(c.Request.Context(), actorOf(c), usecase.CreateInput{
		Attributes: attrs,
		Files:      payload.Files,
	})
	if err != nil {
		h.fail(c, "create car", err)
		return
	}
	response.OK(c, http.StatusCreated, l)
}

// UpdateCar godoc
// @Summary      Update a car listing
// @Description  Partial update by the owner or an admin. existingImages is a JSON array of image URLs to keep, new files in images are appended.
// @Tags         cars
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Car ID"
// @Param        existingImages formData string false "JSON array of image URLs to keep"
// @Param        images formData file false "New image files"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /cars/{id} [put]
func (h *ListingHandler) UpdateCar(c *gin.Context) {
	payload, err := readPayload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	l, err := h.listingUseCase.Update(c.Request.Context(), actorOf(c), c.Param("id"), usecase.UpdateInput{
		Patch:          payload.Attributes,
		ExistingImages: payload.ExistingImages,
		Files:          payload.Files,
	})
	if err != nil {
		h.fail(c, "update car", err)
		return
	}
	response.OK(c, http.StatusOK, l)
}

// DeleteCar godoc
// @Summary      Delete a car listing
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Car ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /cars/{id} [delete]
func (h *ListingHandler) DeleteCar(c *gin.Context) {
	if err := h.listingUseCase.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		h.fail(c, "delete car", err)
		return
	}
	response.Message(c, http.StatusOK, "Car deleted successfully")
}

// DeleteAllCars godoc
// @Summary      Delete every car listing
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /cars/all [delete]
func (h *ListingHandler) DeleteAllCars(c *gin.Context) {
	n, err := h.listingUseCase.DeleteAll(c.Request.Context(), actorOf(c))
	if err != nil {
		h.fail(c, "delete cars", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "All cars deleted", "deleted": n})
}

// SaveCar godoc
// @Summary      Save a car
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Car ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /cars/{id}/save [post]
func (h *ListingHandler) SaveCar(c *gin.Context) {
	if err := h.listingUseCase.Save(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id")); err != nil {
		h.fail(c, "save car", err)
		return
	}
	response.Message(c, http.StatusOK, "Car saved")
}

// UnsaveCar godoc
// @Summary      Remove a car from saved
// @Tags         cars
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Car ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /cars/{id}/save [delete]
func (h *ListingHandler) UnsaveCar(c *gin.Context) {
	if err := h.listingUseCase.Unsave(c.Request.Context(), c.GetString(middleware.ContextUserID), c.Param("id")); err != nil {
		h.fail(c, "unsave car", err)
		return
	}
	response.Message(c, http.StatusOK, "Car removed from saved")
}

// PromoteCar godoc
// @Summary      Make a car premium
// @Tags         cars
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Car ID"
// @Param        request body PromoteRequest true "Premium duration in days"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /cars/{id}/premium [put]
func (h *ListingHandler) PromoteCar(c *gin.Context) {
	var req PromoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "days must be greater than 0")
		return
	}

	l, err := h.listingUseCase.Promote(c.Request.Context(), actorOf(c), c.Param("id"), req.Days)
	if err != nil {
		h.fail(c, "promote car", err)
		return
	}
	response.OK(c, http.StatusOK, l)
}
