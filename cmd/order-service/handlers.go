package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/phonestore/internal/apperr"
	"github.com/MikeMC777/phonestore/internal/cart"
	"github.com/MikeMC777/phonestore/internal/fulfillment"
	"github.com/MikeMC777/phonestore/internal/httpx"
	ord "github.com/MikeMC777/phonestore/internal/order"
	"github.com/MikeMC777/phonestore/internal/review"
)

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httpx.WriteError(c, apperr.Invalid("invalid json: %v", err))
		return false
	}
	return true
}

// createOrderHandler godoc
// @Summary  Checkout the caller's cart
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    Idempotency-Key header string false "replay guard"
// @Param    body body ord.CreateOrderRequest true "checkout"
// @Success  201 {object} ord.Order
// @Failure  400,409 {object} map[string]any
// @Router   /orders [post]
func createOrderHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.CreateOrderRequest
		if !bind(c, &req) {
			return
		}
		o, err := svc.Checkout(c.Request.Context(), httpx.Caller(c), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.Header("Location", "/orders/"+o.OrderNumber)
		c.JSON(http.StatusCreated, o)
	}
}

// getOrderHandler godoc
// @Summary  Order detail with tracking summary
// @Tags     orders
// @Produce  json
// @Param    number path string true "order number"
// @Success  200 {object} fulfillment.OrderDetail
// @Router   /orders/{number} [get]
func getOrderHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.GetOrder(c.Request.Context(), httpx.Caller(c), c.Param("number"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// listOrdersHandler godoc
// @Summary  Caller's orders, newest first
// @Tags     orders
// @Produce  json
// @Param    limit  query int false "page size (max 100)"
// @Param    offset query int false "offset"
// @Success  200 {object} fulfillment.OrderList
// @Router   /orders [get]
func listOrdersHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		if offset < 0 {
			offset = 0
		}
		list, err := svc.ListOrders(c.Request.Context(), httpx.Caller(c), limit, offset)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// cancelOrderHandler godoc
// @Summary  Cancel a pending order
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    number path string true "order number"
// @Param    body body ord.CancelOrderRequest false "reason"
// @Success  200 {object} ord.Order
// @Failure  409 {object} map[string]any
// @Router   /orders/{number}/cancel [post]
func cancelOrderHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The body is optional; an empty or missing one means no reason.
		var req ord.CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			httpx.WriteError(c, apperr.Invalid("invalid json: %v", err))
			return
		}
		o, err := svc.CancelOrder(c.Request.Context(), httpx.Caller(c), c.Param("number"), req.Reason)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// updateOrderStatusHandler godoc
// @Summary  Advance an order (admin)
// @Tags     orders
// @Accept   json
// @Produce  json
// @Param    number path string true "order number"
// @Param    body body ord.UpdateOrderStatusRequest true "target status"
// @Success  200 {object} ord.Order
// @Router   /orders/{number}/status [put]
func updateOrderStatusHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.UpdateOrderStatusRequest
		if !bind(c, &req) {
			return
		}
		o, err := svc.UpdateOrderStatus(c.Request.Context(), httpx.Caller(c), c.Param("number"), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// trackOrderHandler godoc
// @Summary  Tracking summary and event history
// @Tags     tracking
// @Produce  json
// @Param    number path string true "order number"
// @Success  200 {object} tracking.Summary
// @Router   /orders/{number}/tracking [get]
func trackOrderHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := svc.TrackOrder(c.Request.Context(), httpx.Caller(c), c.Param("number"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

// addShippingUpdateHandler godoc
// @Summary  Append a shipping update (admin)
// @Tags     tracking
// @Accept   json
// @Produce  json
// @Param    number path string true "order number"
// @Param    body body ord.ShippingUpdateRequest true "update"
// @Success  201 {object} tracking.Event
// @Router   /orders/{number}/tracking [post]
func addShippingUpdateHandler(svc *fulfillment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ord.ShippingUpdateRequest
		if !bind(c, &req) {
			return
		}
		ev, err := svc.AddShippingUpdate(c.Request.Context(), httpx.Caller(c), c.Param("number"), req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, ev)
	}
}

// createReviewHandler godoc
// @Summary  Review a delivered product
// @Tags     reviews
// @Accept   json
// @Produce  json
// @Param    body body review.CreateReviewRequest true "review"
// @Success  201 {object} review.Review
// @Failure  400,403,409 {object} map[string]any
// @Router   /reviews [post]
func createReviewHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req review.CreateReviewRequest
		if !bind(c, &req) {
			return
		}
		rv, err := svc.Create(c.Request.Context(), httpx.Caller(c).UserID, req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

// reviewEligibilityHandler godoc
// @Summary  Whether the caller may review a product
// @Tags     reviews
// @Produce  json
// @Param    id path string true "product id"
// @Success  200 {object} review.Eligibility
// @Router   /products/{id}/review-eligibility [get]
func reviewEligibilityHandler(svc *review.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := svc.Eligibility(c.Request.Context(), httpx.Caller(c).UserID, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// getCartHandler godoc
// @Summary  Caller's cart
// @Tags     cart
// @Produce  json
// @Success  200 {object} cart.Cart
// @Router   /cart [get]
func getCartHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct, err := svc.View(c.Request.Context(), httpx.Caller(c).UserID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartView(ct))
	}
}

// addCartItemHandler godoc
// @Summary  Add a product to the cart
// @Tags     cart
// @Accept   json
// @Produce  json
// @Param    body body cart.AddItemRequest true "line"
// @Success  200 {object} cart.Cart
// @Router   /cart/items [post]
func addCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.AddItemRequest
		if !bind(c, &req) {
			return
		}
		ct, err := svc.AddItem(c.Request.Context(), httpx.Caller(c).UserID, req)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartView(ct))
	}
}

// updateCartItemHandler godoc
// @Summary  Change a line quantity
// @Tags     cart
// @Accept   json
// @Produce  json
// @Param    id path string true "line id"
// @Param    body body cart.UpdateItemRequest true "quantity"
// @Success  200 {object} cart.Cart
// @Router   /cart/items/{id} [patch]
func updateCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cart.UpdateItemRequest
		if !bind(c, &req) {
			return
		}
		ct, err := svc.UpdateQuantity(c.Request.Context(), httpx.Caller(c).UserID, c.Param("id"), req.Quantity)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartView(ct))
	}
}

// removeCartItemHandler godoc
// @Summary  Remove a line
// @Tags     cart
// @Produce  json
// @Param    id path string true "line id"
// @Success  200 {object} cart.Cart
// @Router   /cart/items/{id} [delete]
func removeCartItemHandler(svc *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct, err := svc.RemoveItem(c.Request.Context(), httpx.Caller(c).UserID, c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartView(ct))
	}
}

func cartView(c *cart.Cart) gin.H {
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	return gin.H{"id": c.ID, "user_id": c.UserID, "lines": lines, "subtotal": c.Subtotal()}
}
