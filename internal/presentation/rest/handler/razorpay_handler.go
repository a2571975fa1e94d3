package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	paymentapp "wallet-server/internal/application/payment"
)

// CreateRazorpayOrder Razorpay注文作成ハンドラー
// @Summary Razorpay注文を作成
// @Description ルピー金額からRazorpay注文を作成し、ウィジェット用のキーIDを返します
// @Tags razorpay
// @Accept json
// @Produce json
// @Param request body CreateRazorpayOrderRequest true "注文作成リクエスト"
// @Success 200 {object} CreateRazorpayOrderResponse
// @Failure 400 {object} ErrorResponse "金額不正"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/create-order [post]
func (h *PaymentHandler) CreateRazorpayOrder(c echo.Context) error {
	var reqBody CreateRazorpayOrderRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	order, err := h.paymentService.CreateRazorpayOrder(c.Request().Context(), &paymentapp.CreateRazorpayOrderRequest{
		Amount:      reqBody.Amount,
		Currency:    reqBody.Currency,
		Description: reqBody.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreateRazorpayOrderResponse{
		Success: true,
		KeyID:   h.paymentService.RazorpayKeyID(),
		Order: RazorpayOrder{
			ID:       order.ID,
			Amount:   order.Amount,
			Currency: order.Currency,
			Receipt:  order.Receipt,
			Status:   order.Status,
		},
	})
}

// VerifyRazorpayPayment Razorpay決済検証ハンドラー
// @Summary Razorpay決済を検証
// @Description チェックアウトの署名を検証してから決済情報を取得します
// @Tags razorpay
// @Accept json
// @Produce json
// @Param request body VerifyRazorpayPaymentRequest true "検証リクエスト"
// @Success 200 {object} VerifyRazorpayPaymentResponse
// @Failure 400 {object} ErrorResponse "必須項目不足または署名不一致"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/verify-payment [post]
func (h *PaymentHandler) VerifyRazorpayPayment(c echo.Context) error {
	var reqBody VerifyRazorpayPaymentRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	p, err := h.paymentService.VerifyRazorpayPayment(c.Request().Context(), &paymentapp.VerifyRazorpayPaymentRequest{
		OrderID:   reqBody.OrderID,
		PaymentID: reqBody.PaymentID,
		Signature: reqBody.Signature,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, VerifyRazorpayPaymentResponse{
		Success: true,
		Message: "Payment verified successfully",
		Payment: RazorpayPayment{
			ID:        p.ID,
			Amount:    toFloat(p.Amount),
			Currency:  p.Currency,
			Status:    p.Status,
			Method:    p.Method,
			CreatedAt: p.CreatedAt,
		},
	})
}
