package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/kitstore-backend/api/middleware"
	"github.com/angelmondragon/kitstore-backend/api/responses"
	"github.com/angelmondragon/kitstore-backend/api/validators"
	"github.com/angelmondragon/kitstore-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

const (
	paystackSignatureHeader = "x-paystack-signature"
	maxWebhookBytes         = 1 << 20
)

// PaystackInitialize starts a Paystack transaction for the storefront.
// Signed-in callers default the email to their account.
func PaystackInitialize(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}

		var input checkout.InitializeInput
		if err := decodeInitialize(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.InitializePayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func decodeInitialize(r *http.Request, input *checkout.InitializeInput) error {
	email := middleware.EmailFromContext(r.Context())
	return validators.DecodeJSONBodyWithDefaults(r, input, func() {
		if strings.TrimSpace(input.Email) == "" {
			input.Email = email
		}
	})
}

// PaystackWebhook verifies the HMAC signature over the raw body and marks
// the matching payment session paid on charge.success. Signature failures
// answer 401; unexpected failures answer 500 so Paystack retries.
func PaystackWebhook(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := svc.HandleWebhook(r.Context(), body, r.Header.Get(paystackSignatureHeader)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
