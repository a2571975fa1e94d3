package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	paymentapp "wallet-server/internal/application/payment"
	"wallet-server/internal/infrastructure/provider/wise"
)

// CreateWiseQuote Wise見積もり作成ハンドラー
// @Summary Wiseの為替見積もりを作成
// @Tags wise
// @Accept json
// @Produce json
// @Param request body CreateWiseQuoteRequest true "見積もりリクエスト"
// @Success 200 {object} CreateWiseQuoteResponse
// @Failure 400 {object} ErrorResponse "金額不正"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/wise/create-quote [post]
func (h *PaymentHandler) CreateWiseQuote(c echo.Context) error {
	var reqBody CreateWiseQuoteRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	q, err := h.paymentService.CreateWiseQuote(c.Request().Context(), &paymentapp.CreateWiseQuoteRequest{
		Amount:         reqBody.Amount,
		SourceCurrency: reqBody.SourceCurrency,
		TargetCurrency: reqBody.TargetCurrency,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreateWiseQuoteResponse{
		Success: true,
		Quote: WiseQuote{
			ID:             q.ID,
			SourceAmount:   toFloat(q.SourceAmount),
			SourceCurrency: q.SourceCurrency,
			TargetAmount:   toFloat(q.TargetAmount),
			TargetCurrency: q.TargetCurrency,
			Rate:           toFloat(q.Rate),
			RateType:       q.RateType,
			CreatedTime:    q.CreatedTime,
			ExpiresAt:      q.ExpiresAt,
		},
	})
}

// CreateWiseRecipient Wise受取口座作成ハンドラー
// @Summary Wiseの受取口座を作成
// @Tags wise
// @Accept json
// @Produce json
// @Param request body CreateWiseRecipientRequest true "受取口座リクエスト"
// @Success 200 {object} CreateWiseRecipientResponse
// @Failure 400 {object} ErrorResponse "必須項目不足"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/wise/create-recipient [post]
func (h *PaymentHandler) CreateWiseRecipient(c echo.Context) error {
	var reqBody CreateWiseRecipientRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	r, err := h.paymentService.CreateWiseRecipient(c.Request().Context(), &paymentapp.CreateWiseRecipientRequest{
		AccountNumber: reqBody.AccountNumber,
		Currency:      reqBody.Currency,
		Country:       reqBody.Country,
		Email:         reqBody.Email,
		FullName:      reqBody.FullName,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreateWiseRecipientResponse{
		Success: true,
		Recipient: WiseRecipient{
			ID:                r.ID,
			Currency:          r.Currency,
			Country:           r.Country,
			AccountHolderName: r.AccountHolderName,
			Type:              r.Type,
		},
	})
}

// CreateWiseTransfer Wise送金作成ハンドラー
// @Summary Wise送金を作成
// @Description 送金は自動承認しません。支払いURIがあれば返します
// @Tags wise
// @Accept json
// @Produce json
// @Param request body CreateWiseTransferRequest true "送金リクエスト"
// @Success 200 {object} WiseTransferResponse
// @Failure 400 {object} ErrorResponse "必須項目不足"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/wise/create-transfer [post]
func (h *PaymentHandler) CreateWiseTransfer(c echo.Context) error {
	var reqBody CreateWiseTransferRequest
	if err := bind(c, &reqBody); err != nil {
		return err
	}

	t, err := h.paymentService.CreateWiseTransfer(c.Request().Context(), &paymentapp.CreateWiseTransferRequest{
		QuoteID:         reqBody.QuoteID,
		RecipientID:     reqBody.RecipientID,
		CustomReference: reqBody.CustomReference,
	})
	if err != nil {
		return err
	}

	resp := toWiseTransfer(t)
	resp.SourceCurrency = ""
	resp.TargetCurrency = ""
	return c.JSON(http.StatusOK, WiseTransferResponse{Success: true, Transfer: resp})
}

// GetWiseTransfer Wise送金状態取得ハンドラー
// @Summary Wise送金の状態を取得
// @Tags wise
// @Produce json
// @Param transferId path string true "送金ID"
// @Success 200 {object} WiseTransferResponse
// @Failure 400 {object} ErrorResponse "送金ID不正"
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/wise/transfer/{transferId} [get]
func (h *PaymentHandler) GetWiseTransfer(c echo.Context) error {
	t, err := h.paymentService.GetWiseTransfer(c.Request().Context(), c.Param("transferId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, WiseTransferResponse{Success: true, Transfer: toWiseTransfer(t)})
}

// GetWiseRates 為替レート取得ハンドラー
// @Summary 為替レートを取得
// @Tags wise
// @Produce json
// @Param source query string false "換算元通貨" default(INR)
// @Param target query string false "換算先通貨" default(USD)
// @Success 200 {object} WiseRatesResponse
// @Failure 500 {object} ErrorResponse "上流エラー"
// @Router /api/wise/rates [get]
func (h *PaymentHandler) GetWiseRates(c echo.Context) error {
	rates, err := h.paymentService.GetWiseRates(c.Request().Context(), c.QueryParam("source"), c.QueryParam("target"))
	if err != nil {
		return err
	}

	out := make([]WiseRate, len(rates))
	for i, r := range rates {
		out[i] = WiseRate{
			Rate:   toFloat(r.Rate),
			Source: r.Source,
			Target: r.Target,
			Time:   r.Time,
		}
	}
	return c.JSON(http.StatusOK, WiseRatesResponse{Success: true, Rates: out})
}

func toWiseTransfer(t *wise.Transfer) WiseTransfer {
	return WiseTransfer{
		ID:             t.ID,
		Status:         t.Status,
		SourceAmount:   toFloat(t.SourceAmount),
		TargetAmount:   toFloat(t.TargetAmount),
		SourceCurrency: t.SourceCurrency,
		TargetCurrency: t.TargetCurrency,
		Rate:           toFloat(t.Rate),
		PaymentURI:     nullable(t.PaymentURI),
		Reference:      t.Details.Reference,
	}
}
