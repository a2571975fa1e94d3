package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	paymentapp "wallet-server/internal/application/payment"
	"wallet-server/internal/domain/payment"
)

// maxWebhookBody Webhook本文の上限
const maxWebhookBody = 1 << 20

// CreateCryptomusPayment Cryptomusインボイス作成ハンドラー
// @Summary Cryptomusインボイスを作成
// @Description USD建ての暗号資産インボイスを作成し、支払いページのURLを返します
// @Tags cryptomus
// @Accept json
// @Produce json
// @Param request body CreateCryptomusPaymentRequest true "インボイス作成リクエスト"
// @Success 200 {object} CreateCryptomusPaymentResponse
// @Failure 400 {object} ErrorResponse "金額不正"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/cryptomus/create-payment [post]
func (h *PaymentHandler) CreateCryptomusPayment(c echo.Context) error {
	var reqBody CreateCryptomusPaymentRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	inv, err := h.paymentService.CreateCryptomusPayment(c.Request().Context(), &paymentapp.CreateCryptomusPaymentRequest{
		Amount:      reqBody.Amount,
		Description: reqBody.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreateCryptomusPaymentResponse{
		Success: true,
		Payment: CryptomusPayment{
			UUID:     inv.UUID,
			URL:      inv.URL,
			OrderID:  inv.OrderID,
			Amount:   inv.Amount,
			Currency: inv.Currency,
		},
	})
}

// GetCryptomusPayment インボイス状態取得ハンドラー
// @Summary Cryptomusインボイスの状態を取得
// @Tags cryptomus
// @Produce json
// @Param uuid path string true "インボイスUUID"
// @Success 200 {object} GetCryptomusPaymentResponse
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/cryptomus/payment/{uuid} [get]
func (h *PaymentHandler) GetCryptomusPayment(c echo.Context) error {
	status, err := h.paymentService.GetCryptomusPayment(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, GetCryptomusPaymentResponse{
		Success: true,
		Payment: CryptomusPaymentStatus{
			UUID:         status.UUID,
			Status:       status.Status,
			Amount:       status.Amount,
			Currency:     status.Currency,
			FromAmount:   status.FromAmount,
			FromCurrency: status.FromCurrency,
			OrderID:      status.OrderID,
		},
	})
}

// CryptomusWebhook Cryptomus Webhookハンドラー
// 署名不一致は 400 {success:false}、それ以外の失敗は 500 {success:false}
// @Summary Cryptomus Webhookを受信
// @Description 署名を検証し、ステータスイベントを発行します。残高は変更しません
// @Tags cryptomus
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "署名不一致"
// @Router /api/cryptomus/webhook [post]
func (h *PaymentHandler) CryptomusWebhook(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false})
	}

	if _, err := h.paymentService.HandleCryptomusWebhook(c.Request().Context(), raw); err != nil {
		var verr *payment.ValidationError
		if errors.Is(err, payment.ErrProviderRejected) || errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Success: false})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Success: false})
	}

	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
