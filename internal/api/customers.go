package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jpanderson91/aws-delivery-demo-app/internal/customer"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/errs"
	"github.com/jpanderson91/aws-delivery-demo-app/internal/store"
)

type createResponse struct {
	Message string `json:"message"`
	customer.Customer
}

type listResponse struct {
	Count int                 `json:"count"`
	Items []customer.Customer `json:"items"`
}

// createCustomer validates the body, builds the record and writes it with a
// single put. The put is the last step, so a failure anywhere leaves
// nothing behind.
func (h *Handler) createCustomer(ctx context.Context, req Request) (Response, error) {
	in, err := customer.Decode(req.Body)
	if err != nil {
		return Response{}, err
	}
	if err := in.Validate(); err != nil {
		return Response{}, err
	}

	c := customer.New(in, h.newID(), h.now(), h.cfg.TTLDays)
	if err := h.store.Put(ctx, c); err != nil {
		return Response{}, storeFailure(err, errs.StoreWrite)
	}

	zerolog.Ctx(ctx).Info().Str("customer_id", c.CustomerID).Msg("customer created")
	return jsonResponse(http.StatusCreated, createResponse{
		Message:  "Customer created successfully",
		Customer: c,
	}), nil
}

// listCustomers returns at most limit records. Count is the number of items
// in this response, not the table size.
func (h *Handler) listCustomers(ctx context.Context, req Request) (Response, error) {
	limit := h.cfg.ClampLimit(parseLimit(req.Query["limit"]))

	items, err := h.store.Scan(ctx, limit)
	if err != nil {
		return Response{}, storeFailure(err, errs.StoreRead)
	}
	if items == nil {
		items = []customer.Customer{}
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return jsonResponse(http.StatusOK, listResponse{Count: len(items), Items: items}), nil
}

// parseLimit returns 0 for anything that is not an integer; ClampLimit then
// substitutes the default.
func parseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return n
}

func storeFailure(err error, classify func(error) *errs.Error) error {
	if errors.Is(err, store.ErrTableUnavailable) {
		return errs.ConfigUnavailable(err)
	}
	return classify(err)
}
