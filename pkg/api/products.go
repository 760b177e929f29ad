package api

import (
	"net/http"

	"github.com/gorilla/mux"

	appotel "storefront/pkg/otel"
	"storefront/pkg/product"
)

// listProducts lists the catalog.
// @Summary List products
// @Produce json
// @Success 200 {array} product.Product
// @Router /products [get]
func (h *handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.listProducts")
	defer span.End()

	products, err := h.Catalog.List(ctx)
	if err != nil {
		h.fail(ctx, w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// getProduct retrieves a product by ID.
// @Summary Get product
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} product.Product
// @Failure 404 {object} errorResponse
// @Router /products/{id} [get]
func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.getProduct")
	defer span.End()

	p, err := h.Catalog.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.fail(ctx, w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// createProduct adds a product to the catalog.
// @Summary Create product
// @Accept json
// @Produce json
// @Param product body product.Product true "Product"
// @Success 201 {object} product.Product
// @Failure 400 {object} errorResponse
// @Security SessionCookie
// @Router /products [post]
func (h *handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.createProduct")
	defer span.End()

	var p product.Product
	if err := decode(w, r, &p); err != nil {
		h.fail(ctx, w, "create product", err)
		return
	}
	p, err := h.Catalog.Create(ctx, p)
	if err != nil {
		h.fail(ctx, w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// updateProduct merges fields into a product.
// @Summary Update product
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param product body product.Patch true "Fields to change"
// @Success 200 {object} product.Product
// @Failure 404 {object} errorResponse
// @Security SessionCookie
// @Router /products/{id} [put]
func (h *handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.updateProduct")
	defer span.End()

	var patch product.Patch
	if err := decode(w, r, &patch); err != nil {
		h.fail(ctx, w, "update product", err)
		return
	}
	p, err := h.Catalog.Update(ctx, mux.Vars(r)["id"], patch)
	if err != nil {
		h.fail(ctx, w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// deleteProduct removes a product.
// @Summary Delete product
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Security SessionCookie
// @Router /products/{id} [delete]
func (h *handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := appotel.AddSpan(r.Context(), "api.deleteProduct")
	defer span.End()

	if err := h.Catalog.Delete(ctx, mux.Vars(r)["id"]); err != nil {
		h.fail(ctx, w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
