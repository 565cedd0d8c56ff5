package httpserver

import (
	"net/http"
	"strconv"

	"farmisian/internal/domain"
	productsvc "farmisian/internal/service/product"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type productListResponse struct {
	Count   int              `json:"count"`
	Results []domain.Product `json:"results"`
}

func (h *handlers) listProducts(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	products, err := h.deps.ProductSvc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, productListResponse{Count: len(products), Results: products})
}

func parseFilter(c *gin.Context) (productsvc.Filter, error) {
	f := productsvc.Filter{
		Query:      c.Query("q"),
		Categories: c.QueryArray("category"),
		Sort:       productsvc.ParseSort(c.Query("sort")),
	}
	var err error
	if f.MinPrice, err = decimalParam(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = decimalParam(c, "maxPrice"); err != nil {
		return f, err
	}
	if f.OrganicOnly, err = boolParam(c, "organic"); err != nil {
		return f, err
	}
	if f.OnSaleOnly, err = boolParam(c, "sale"); err != nil {
		return f, err
	}
	return f, nil
}

func decimalParam(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &paramError{name: name}
	}
	return &d, nil
}

func boolParam(c *gin.Context, name string) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &paramError{name: name}
	}
	return v, nil
}

type paramError struct {
	name string
}

func (e *paramError) Error() string {
	return "invalid query parameter " + e.name
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.ProductSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) listCategories(c *gin.Context) {
	cats, err := h.deps.CategorySvc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, gin.H{"results": cats})
}

func (h *handlers) createProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid product body")
		return
	}
	created, err := h.deps.ProductSvc.Create(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) updateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid product body")
		return
	}
	updated, err := h.deps.ProductSvc.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	if err := h.deps.ProductSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
