package http

import (
	"net/http"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	items, err := h.service.ListCategories(r.Context(), activeOnly)
	respond(w, r, "list_categories", http.StatusOK, items, err)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuidParam(r, "category_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_category", err)
		return
	}
	category, err := h.service.GetCategory(r.Context(), categoryID)
	respond(w, r, "get_category", http.StatusOK, category, err)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.CategoryInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_category", err)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), actor, req)
	respond(w, r, "create_category", http.StatusCreated, category, err)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	categoryID, err := uuidParam(r, "category_id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_category", err)
		return
	}
	var req application.CategoryInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_category", err)
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), actor, categoryID, req)
	respond(w, r, "update_category", http.StatusOK, category, err)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	categoryID, err := uuidParam(r, "category_id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_category", err)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), actor, categoryID); err != nil {
		writeMappedError(r.Context(), w, "delete_category", err)
		return
	}
	writeMessage(w, http.StatusOK, "category deleted")
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req application.ProductInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_product", err)
		return
	}
	product, err := h.service.CreateProduct(r.Context(), actor, req)
	respond(w, r, "create_product", http.StatusCreated, product, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	productID, err := uuidParam(r, "product_id")
	if err != nil {
		writeValidationError(r.Context(), w, "update_product", err)
		return
	}
	var req application.ProductInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "update_product", err)
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), actor, productID, req)
	respond(w, r, "update_product", http.StatusOK, product, err)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	productID, err := uuidParam(r, "product_id")
	if err != nil {
		writeValidationError(r.Context(), w, "delete_product", err)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), actor, productID); err != nil {
		writeMappedError(r.Context(), w, "delete_product", err)
		return
	}
	writeMessage(w, http.StatusOK, "product deleted")
}

func (h *Handler) listMyProducts(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit, offset := pageParams(r)
	page, err := h.service.ListMyProducts(r.Context(), actor, limit, offset)
	respond(w, r, "list_my_products", http.StatusOK, page, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuidParam(r, "product_id")
	if err != nil {
		writeValidationError(r.Context(), w, "get_product", err)
		return
	}
	product, err := h.service.GetProduct(r.Context(), productID)
	respond(w, r, "get_product", http.StatusOK, product, err)
}
