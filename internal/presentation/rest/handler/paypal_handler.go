package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	paymentapp "wallet-server/internal/application/payment"
)

// CreatePayPalOrder PayPal注文作成ハンドラー
// @Summary PayPal注文を作成
// @Description ルピー金額をUSDに換算してPayPal注文を作成し、承認URLを返します
// @Tags paypal
// @Accept json
// @Produce json
// @Param request body CreatePayPalOrderRequest true "注文作成リクエスト"
// @Success 200 {object} PayPalOrderResponse
// @Failure 400 {object} ErrorResponse "金額不正"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/paypal/create-order [post]
func (h *PaymentHandler) CreatePayPalOrder(c echo.Context) error {
	var reqBody CreatePayPalOrderRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	order, err := h.paymentService.CreatePayPalOrder(c.Request().Context(), &paymentapp.CreatePayPalOrderRequest{
		Amount:      reqBody.Amount,
		Description: reqBody.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PayPalOrderResponse{
		Success: true,
		Order:   toPayPalOrder(order),
	})
}

// CapturePayPalOrder PayPalキャプチャハンドラー
// @Summary 承認済みのPayPal注文をキャプチャ
// @Tags paypal
// @Accept json
// @Produce json
// @Param request body CapturePayPalOrderRequest true "キャプチャリクエスト"
// @Success 200 {object} CapturePayPalOrderResponse
// @Failure 400 {object} ErrorResponse "注文ID不足"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/paypal/capture-order [post]
func (h *PaymentHandler) CapturePayPalOrder(c echo.Context) error {
	var reqBody CapturePayPalOrderRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	capture, err := h.paymentService.CapturePayPalOrder(c.Request().Context(), reqBody.OrderID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CapturePayPalOrderResponse{
		Success: true,
		Message: "Payment captured successfully",
		Payment: PayPalCapture{
			ID:         capture.ID,
			Status:     capture.Status,
			CaptureID:  capture.CaptureID,
			Amount:     capture.Amount,
			Currency:   capture.Currency,
			PayerEmail: capture.PayerEmail,
			PayerName:  capture.PayerName,
		},
	})
}

// GetPayPalOrder PayPal注文取得ハンドラー
// @Summary PayPal注文を取得
// @Tags paypal
// @Produce json
// @Param orderId path string true "注文ID"
// @Success 200 {object} PayPalOrderResponse
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/paypal/order/{orderId} [get]
func (h *PaymentHandler) GetPayPalOrder(c echo.Context) error {
	order, err := h.paymentService.GetPayPalOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, PayPalOrderResponse{
		Success: true,
		Order:   toPayPalOrder(order),
	})
}

func toPayPalOrder(o *paymentapp.PayPalOrderResult) PayPalOrder {
	return PayPalOrder{
		ID:         o.ID,
		Status:     o.Status,
		ApproveURL: nullable(o.ApproveURL),
		Amount:     o.Amount,
		Currency:   o.Currency,
	}
}
