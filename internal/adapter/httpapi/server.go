package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/example/cart-sync-service/internal/domain"
	"github.com/example/cart-sync-service/internal/usecase"
)

type Server struct {
	Router   *mux.Router
	UCGet    usecase.GetCart
	UCAdd    usecase.AddItemToCart
	UCRemove usecase.RemoveItemFromCart
}

func NewServer(ucGet usecase.GetCart, ucAdd usecase.AddItemToCart, ucRemove usecase.RemoveItemFromCart) *Server {
	s := &Server{Router: mux.NewRouter(), UCGet: ucGet, UCAdd: ucAdd, UCRemove: ucRemove}
	api := s.Router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/carts/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/carts/{id}/items", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/carts/{id}/items/{productId}", s.handleRemoveItem).Methods(http.MethodDelete)
	return s
}

type itemRequest struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type cartResponse struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"userId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Items     []domain.CartItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
}

func toResponse(c domain.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{ID: c.ID, UserID: c.UserID, CreatedAt: c.CreatedAt, Items: items, Total: c.Total()}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}
	cart, err := s.UCGet.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(cart))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	cart, err := s.UCAdd.Execute(r.Context(), id, domain.CartItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		ImageURL:  req.ImageURL,
		Quantity:  req.Quantity,
		Price:     req.Price,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(cart))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "invalid cart id", http.StatusBadRequest)
		return
	}
	productID, err := uuid.Parse(vars["productId"])
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}
	if err := s.UCRemove.Execute(r.Context(), id, productID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, "invalid data", http.StatusBadRequest)
	case errors.Is(err, domain.ErrVersionConflict):
		http.Error(w, "conflict", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
