package http

import (
	"errors"
	"net/http"

	"avto-sawda/pkg/apperr"
	"avto-sawda/pkg/logger"
	"avto-sawda/pkg/response"
	"avto-sawda/services/banner/internal/entity"
	"avto-sawda/services/banner/internal/usecase"

	"github.com/gin-gonic/gin"
)

type BannerHandler struct {
	bannerUseCase usecase.BannerUseCase
	logger        *logger.Logger
}

func NewBannerHandler(bannerUseCase usecase.BannerUseCase, logger *logger.Logger) *BannerHandler {
	return &BannerHandler{
		bannerUseCase: bannerUseCase,
		logger:        logger,
	}
}

// BannerForm is accepted as JSON or as multipart form fields next to an "image" file.
// An image URL can only be set through JSON.
type BannerForm struct {
	Title    *string `json:"title" form:"title"`
	Image    *string `json:"image" form:"-"`
	Link     *string `json:"link" form:"link"`
	Order    *int    `json:"order" form:"order"`
	IsActive *bool   `json:"isActive" form:"isActive"`
}

type OrderRequest struct {
	Order *int `json:"order" binding:"required"`
}

func (h *BannerHandler) fail(c *gin.Context, op string, err error) {
	if apperr.KindOf(err) == apperr.KindUnexpected {
		h.logger.Error("Failed to %s: %v", op, err)
		response.Fail(c, http.StatusInternalServerError, "Failed to "+op)
		return
	}
	response.Error(c, err)
}

func bindForm(c *gin.Context) (BannerForm, error) {
	var form BannerForm
	if c.Request.ContentLength == 0 && c.ContentType() == "" {
		return form, nil
	}
	if err := c.ShouldBind(&form); err != nil {
		return form, apperr.Validation("invalid banner payload: %v", err)
	}
	return form, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListBanners godoc
// @Summary      List active banners
// @Description  Active banners sorted by order
// @Tags         banners
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /banners [get]
func (h *BannerHandler) ListBanners(c *gin.Context) {
	banners, err := h.bannerUseCase.ListActive(c.Request.Context())
	if err != nil {
		h.fail(c, "fetch banners", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(banners), "data": banners})
}

// GetBanner godoc
// @Summary      Get banner
// @Tags         banners
// @Produce      json
// @Param        id path string true "Banner ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /banners/{id} [get]
func (h *BannerHandler) GetBanner(c *gin.Context) {
	b, err := h.bannerUseCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "fetch banner", err)
		return
	}
	response.OK(c, http.StatusOK, b)
}

// CreateBanner godoc
// @Summary      Create banner
// @Description  Admin only. Multipart with an "image" file, or JSON with an image URL.
// @Tags         banners
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title formData string true "Title"
// @Param        link formData string false "Link"
// @Param        order formData int false "Sort order"
// @Param        isActive formData bool false "Active, default true"
// @Param        image formData file true "Banner image"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Router       /banners [post]
func (h *BannerHandler) CreateBanner(c *gin.Context) {
	form, err := bindForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		response.Fail(c, http.StatusBadRequest, "invalid image upload")
		return
	}

	in := usecase.CreateInput{
		Title:     deref(form.Title),
		Link:      deref(form.Link),
		IsActive:  form.IsActive,
		ImageURL:  deref(form.Image),
		ImageFile: file,
	}
	if form.Order != nil {
		in.Order = *form.Order
	}

	b, err := h.bannerUseCase.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create banner", err)
		return
	}
	response.OK(c, http.StatusCreated, b)
}

// UpdateBanner godoc
// @Summary      Update banner
// @Description  Admin only. Omitted fields are kept. A new image replaces the stored one.
// @Tags         banners
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Banner ID"
// @Param        title formData string false "Title"
// @Param        link formData string false "Link"
// @Param        order formData int false "Sort order"
// @Param        isActive formData bool false "Active"
// @Param        image formData file false "Banner image"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /banners/{id} [put]
func (h *BannerHandler) UpdateBanner(c *gin.Context) {
	form, err := bindForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		response.Fail(c, http.StatusBadRequest, "invalid image upload")
		return
	}

	b, err := h.bannerUseCase.Update(c.Request.Context(), c.Param("id"), usecase.UpdateInput{
		Patch: entity.Patch{
			Title:    form.Title,
			Image:    form.Image,
			Link:     form.Link,
			Order:    form.Order,
			IsActive: form.IsActive,
		},
		ImageFile: file,
	})
	if err != nil {
		h.fail(c, "update banner", err)
		return
	}
	response.OK(c, http.StatusOK, b)
}

// DeleteBanner godoc
// @Summary      Delete banner
// @Tags         banners
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Banner ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /banners/{id} [delete]
func (h *BannerHandler) DeleteBanner(c *gin.Context) {
	if err := h.bannerUseCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete banner", err)
		return
	}
	response.Message(c, http.StatusOK, "Banner deleted")
}

// SetOrder godoc
// @Summary      Set banner order
// @Tags         banners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Banner ID"
// @Param        request body OrderRequest true "New order"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /banners/{id}/order [put]
func (h *BannerHandler) SetOrder(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "order is required")
		return
	}
	b, err := h.bannerUseCase.SetOrder(c.Request.Context(), c.Param("id"), *req.Order)
	if err != nil {
		h.fail(c, "reorder banner", err)
		return
	}
	response.OK(c, http.StatusOK, b)
}

// ToggleBanner godoc
// @Summary      Toggle banner
// @Description  Flips isActive
// @Tags         banners
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Banner ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /banners/{id}/toggle [put]
func (h *BannerHandler) ToggleBanner(c *gin.Context) {
	b, err := h.bannerUseCase.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "toggle banner", err)
		return
	}
	response.OK(c, http.StatusOK, b)
}
