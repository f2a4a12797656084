package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/raspadomilhao/raspay-sub003/internal/models"
	"github.com/raspadomilhao/raspay-sub003/internal/services"
)

func TestCreatePrizeDefaults(t *testing.T) {
	var got services.PrizeInput
	handler := newTestHandler(testDeps{inventory: stubInventory{
		createFn: func(_ context.Context, input services.PrizeInput, _ string) (models.PhysicalPrize, error) {
			got = input
			return models.PhysicalPrize{ID: "p1", Name: input.Name, EstimatedValue: input.EstimatedValue, StockQuantity: input.StockQuantity, IsActive: input.IsActive}, nil
		},
	}})

	rr := serve(t, handler, http.MethodPost, "/admin/physical-prizes",
		`{"name":"iPhone 15","estimatedValue":"5999.90","stockQuantity":3}`, fullToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !got.IsActive || got.RarityWeight != 1 {
		t.Fatalf("expected active prize with weight 1, got %+v", got)
	}
	body := decodeBody(t, rr)
	if body["estimatedValue"] != "5999.90" || body["stockQuantity"] != float64(3) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCreatePrizeRejectsBadValue(t *testing.T) {
	handler := newTestHandler(testDeps{})
	rr := serve(t, handler, http.MethodPost, "/admin/physical-prizes", `{"name":"Moto","estimatedValue":"x"}`, fullToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAddStockFallsBackToCredentialSubject(t *testing.T) {
	var got services.StockRequest
	handler := newTestHandler(testDeps{inventory: stubInventory{
		addStockFn: func(_ context.Context, req services.StockRequest) (services.StockResult, error) {
			got = req
			return services.StockResult{PrizeID: req.PrizeID, PreviousStock: 2, NewStock: 2 + req.Quantity}, nil
		},
	}})

	rr := serve(t, handler, http.MethodPost, "/admin/physical-prizes/p1/stock", `{"quantity":5,"reason":"reposição"}`, fullToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got.PrizeID != "p1" || got.AdminUser != "static" {
		t.Fatalf("unexpected stock request %+v", got)
	}
	if decodeBody(t, rr)["newStock"] != float64(7) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	serve(t, handler, http.MethodPost, "/admin/physical-prizes/p1/stock", `{"quantity":1,"admin_user":"maria"}`, fullToken)
	if got.AdminUser != "maria" {
		t.Fatalf("expected explicit admin user, got %q", got.AdminUser)
	}
}

func TestAwardPrizeOutOfStock(t *testing.T) {
	handler := newTestHandler(testDeps{inventory: stubInventory{
		winFn: func(_ context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error) {
			if req.PrizeID != "p1" || req.UserID != "user-1" {
				t.Fatalf("unexpected win request %+v", req)
			}
			return models.PhysicalPrizeWinner{}, services.ErrOutOfStock
		},
	}})

	rr := serve(t, handler, http.MethodPost, "/admin/physical-prizes/p1/win", `{"userId":"user-1","gameName":"raspadinha"}`, gameplayToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if decodeBody(t, rr)["kind"] != "out_of_stock" {
		t.Fatalf("expected out_of_stock kind")
	}
}

func TestDrawPrize(t *testing.T) {
	handler := newTestHandler(testDeps{inventory: stubInventory{
		drawFn: func(_ context.Context, req services.WinRequest) (models.PhysicalPrizeWinner, error) {
			if req.PrizeID != "" {
				t.Fatalf("draw must not pin a prize")
			}
			return models.PhysicalPrizeWinner{ID: "w1", PhysicalPrizeID: "p2", UserID: req.UserID, Status: "pending"}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/admin/physical-prizes/draw", `{"userId":"user-3","gameName":"raspadinha"}`, gameplayToken)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["physical_prize_id"] != "p2" || body["status"] != "pending" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestDeletePrizeWithOpenWinners(t *testing.T) {
	handler := newTestHandler(testDeps{inventory: stubInventory{
		deleteFn: func(context.Context, string, string) error { return services.ErrPrizeHasOpenWinners },
	}})
	rr := serve(t, handler, http.MethodDelete, "/admin/physical-prizes/p1/delete", "", fullToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if decodeBody(t, rr)["kind"] != "invalid_state" {
		t.Fatalf("expected invalid_state kind")
	}
}

func TestUpdateWinnerStatus(t *testing.T) {
	handler := newTestHandler(testDeps{inventory: stubInventory{
		winnerStatusFn: func(_ context.Context, winnerID, status, trackingCode, _ string) (models.PhysicalPrizeWinner, error) {
			if status == "pending" {
				return models.PhysicalPrizeWinner{}, services.ErrStatusRegression
			}
			return models.PhysicalPrizeWinner{ID: winnerID, Status: status, TrackingCode: trackingCode}, nil
		},
	}})

	rr := serve(t, handler, http.MethodPut, "/admin/physical-prizes/winners/w1/status", `{"status":"shipped","trackingCode":"BR123"}`, fullToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodeBody(t, rr)["tracking_code"] != "BR123" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}

	rr = serve(t, handler, http.MethodPut, "/admin/physical-prizes/winners/w1/status", `{"status":"pending"}`, fullToken)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on regression, got %d", rr.Code)
	}
}

func TestListPrizesActiveFilter(t *testing.T) {
	var activeOnly bool
	handler := newTestHandler(testDeps{inventory: stubInventory{
		listFn: func(_ context.Context, active bool) ([]models.PhysicalPrize, error) {
			activeOnly = active
			return []models.PhysicalPrize{{ID: "p1", StockQuantity: 1, MinStockAlert: 5}}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/admin/physical-prizes?active=true", "", fullToken)
	if rr.Code != http.StatusOK || !activeOnly {
		t.Fatalf("expected active listing, got %d active=%v", rr.Code, activeOnly)
	}
}

func TestGetPrizeNotFound(t *testing.T) {
	handler := newTestHandler(testDeps{inventory: stubInventory{
		getFn: func(context.Context, string) (models.PhysicalPrize, error) {
			return models.PhysicalPrize{}, services.ErrPrizeNotFound
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/admin/physical-prizes/ghost", "", fullToken)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
