package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront/internal/catalog"
)

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.List(ctx)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch products")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"products": ps})
}

func (h *Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to fetch product")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, in)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create product")
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]any{
		"product": p,
		"message": "Product created successfully",
	})
}

func (h *Handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	patch, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, id, patch)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update product")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"product": p,
		"message": "Product updated successfully",
	})
}

func (h *Handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Product not found")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id); err != nil {
		respondWithServiceError(w, r, err, "Failed to delete product")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}
