package payment

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"wallet-server/internal/domain/payment"
	"wallet-server/internal/infrastructure/provider/wise"
)

// CreateWiseQuote Wiseの為替見積もりを作成する
func (s *PaymentApplicationService) CreateWiseQuote(ctx context.Context, req *CreateWiseQuoteRequest) (*wise.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateWiseQuote")
	defer span.End()

	in := wise.CreateQuoteInput{
		SourceCurrency: orDefault(req.SourceCurrency, payment.CurrencyINR.String()),
		TargetCurrency: orDefault(req.TargetCurrency, payment.CurrencyUSD.String()),
		SourceAmount:   req.Amount,
	}
	span.SetAttributes(
		attribute.String("amount", req.Amount.String()),
		attribute.String("source_currency", in.SourceCurrency),
		attribute.String("target_currency", in.TargetCurrency),
	)

	if req.Amount.LessThan(minProviderAmount) {
		return nil, s.fail(ctx, span, "Invalid Wise quote amount", invalidAmount(), map[string]interface{}{
			"amount": req.Amount.String(),
		})
	}
	if !s.wise.Configured() {
		return nil, s.fail(ctx, span, "Wise is not configured", notConfigured(wise.Name, "Wise API key not configured"), nil)
	}

	var quote *wise.Quote
	err := s.call(ctx, wise.Name, "create_quote", func(ctx context.Context) error {
		var err error
		quote, err = s.wise.CreateQuote(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create Wise quote", err, nil)
	}

	s.logger.Info(ctx, "Wise quote created", map[string]interface{}{
		"quote_id":      quote.ID,
		"source_amount": quote.SourceAmount.String(),
		"target_amount": quote.TargetAmount.String(),
	})
	return quote, nil
}

// CreateWiseRecipient 送金先の口座を登録する
func (s *PaymentApplicationService) CreateWiseRecipient(ctx context.Context, req *CreateWiseRecipientRequest) (*wise.Recipient, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateWiseRecipient")
	defer span.End()

	if req.AccountNumber == "" || req.Currency == "" || req.Country == "" || req.FullName == "" {
		err := payment.NewValidationError(payment.ErrInvalidRequest, "Missing required fields: accountNumber, currency, country, fullName")
		return nil, s.fail(ctx, span, "Missing Wise recipient fields", err, nil)
	}
	if !s.wise.Configured() {
		return nil, s.fail(ctx, span, "Wise is not configured", notConfigured(wise.Name, "Wise API key not configured"), nil)
	}

	span.SetAttributes(
		attribute.String("currency", req.Currency),
		attribute.String("country", req.Country),
	)

	var recipient *wise.Recipient
	err := s.call(ctx, wise.Name, "create_recipient", func(ctx context.Context) error {
		var err error
		recipient, err = s.wise.CreateRecipient(ctx, wise.CreateRecipientInput{
			AccountNumber: req.AccountNumber,
			Currency:      req.Currency,
			Country:       req.Country,
			FullName:      req.FullName,
			Email:         req.Email,
		})
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create Wise recipient", err, nil)
	}

	s.logger.Info(ctx, "Wise recipient created", map[string]interface{}{
		"recipient_id": recipient.ID,
	})
	return recipient, nil
}

// CreateWiseTransfer 見積もりと受取口座から送金を作成する（自動承認はしない）
func (s *PaymentApplicationService) CreateWiseTransfer(ctx context.Context, req *CreateWiseTransferRequest) (*wise.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateWiseTransfer")
	defer span.End()

	if req.QuoteID == "" || req.RecipientID == 0 {
		err := payment.NewValidationError(payment.ErrInvalidRequest, "Quote ID and Recipient ID required")
		return nil, s.fail(ctx, span, "Missing Wise transfer fields", err, nil)
	}
	if !s.wise.Configured() {
		return nil, s.fail(ctx, span, "Wise is not configured", notConfigured(wise.Name, "Wise API key not configured"), nil)
	}

	span.SetAttributes(
		attribute.String("quote_id", req.QuoteID),
		attribute.Int64("recipient_id", req.RecipientID),
	)

	in := wise.CreateTransferInput{
		QuoteID:               req.QuoteID,
		RecipientID:           req.RecipientID,
		CustomerTransactionID: fmt.Sprintf("transfer_%d", s.now().UnixMilli()),
		Reference:             req.CustomReference,
	}

	var transfer *wise.Transfer
	err := s.call(ctx, wise.Name, "create_transfer", func(ctx context.Context) error {
		var err error
		transfer, err = s.wise.CreateTransfer(ctx, in)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create Wise transfer", err, map[string]interface{}{
			"quote_id": req.QuoteID,
		})
	}

	s.logger.Info(ctx, "Wise transfer created", map[string]interface{}{
		"transfer_id": transfer.ID,
		"status":      transfer.Status,
		"payment_uri": transfer.PaymentURI,
	})
	return transfer, nil
}

// GetWiseTransfer 送金の状態を取得する
func (s *PaymentApplicationService) GetWiseTransfer(ctx context.Context, transferID string) (*wise.Transfer, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.GetWiseTransfer")
	defer span.End()

	span.SetAttributes(attribute.String("transfer_id", transferID))

	id, err := strconv.ParseInt(transferID, 10, 64)
	if err != nil || id <= 0 {
		verr := payment.NewValidationError(payment.ErrInvalidRequest, "Invalid transfer ID")
		return nil, s.fail(ctx, span, "Invalid Wise transfer id", verr, nil)
	}
	if !s.wise.Configured() {
		return nil, s.fail(ctx, span, "Wise is not configured", notConfigured(wise.Name, "Wise API key not configured"), nil)
	}

	var transfer *wise.Transfer
	err = s.call(ctx, wise.Name, "get_transfer", func(ctx context.Context) error {
		var err error
		transfer, err = s.wise.GetTransfer(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch Wise transfer", err, map[string]interface{}{
			"transfer_id": transferID,
		})
	}
	return transfer, nil
}

// GetWiseRates 為替レートを取得する（既定は INR → USD）
func (s *PaymentApplicationService) GetWiseRates(ctx context.Context, source, target string) ([]wise.Rate, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.GetWiseRates")
	defer span.End()

	source = orDefault(source, payment.CurrencyINR.String())
	target = orDefault(target, payment.CurrencyUSD.String())
	span.SetAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
	)

	if !s.wise.Configured() {
		return nil, s.fail(ctx, span, "Wise is not configured", notConfigured(wise.Name, "Wise API key not configured"), nil)
	}

	var rates []wise.Rate
	err := s.call(ctx, wise.Name, "get_rates", func(ctx context.Context) error {
		var err error
		rates, err = s.wise.GetRates(ctx, source, target)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch Wise rates", err, nil)
	}
	return rates, nil
}
