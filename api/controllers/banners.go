package controllers

import (
	"net/http"

	"github.com/angelmondragon/kitstore-backend/api/responses"
	"github.com/angelmondragon/kitstore-backend/api/validators"
	"github.com/angelmondragon/kitstore-backend/internal/banners"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

func ListBanners(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return listBanners(svc, logg, false)
}

func AdminListBanners(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return listBanners(svc, logg, true)
}

func listBanners(svc banners.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("banner"))
			return
		}
		out, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminCreateBanner(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("banner"))
			return
		}
		var input banners.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		banner, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, banner)
	}
}

func AdminUpdateBanner(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("banner"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "bannerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input banners.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		banner, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, banner)
	}
}

func AdminDeleteBanner(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("banner"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "bannerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type uploadURLRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

// AdminBannerUploadURL presigns a direct S3 upload for a banner image.
func AdminBannerUploadURL(svc banners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("banner"))
			return
		}
		var body uploadURLRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticket, err := svc.UploadURL(r.Context(), body.ContentType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ticket)
	}
}
