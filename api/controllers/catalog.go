package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/kitstore-backend/api/responses"
	"github.com/angelmondragon/kitstore-backend/api/validators"
	"github.com/angelmondragon/kitstore-backend/internal/leagues"
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

// ListLeagues returns static and custom leagues, optionally for one sport.
func ListLeagues(svc leagues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("league"))
			return
		}
		sport, err := sportParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.ListLeagues(r.Context(), sport)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

func ListTeams(svc leagues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("league"))
			return
		}
		sport, err := sportParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := svc.ListTeams(r.Context(), sport)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, out)
	}
}

// GetTeam returns one team with its active products.
func GetTeam(svc leagues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("league"))
			return
		}
		team, err := svc.GetTeam(r.Context(), chi.URLParam(r, "teamId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, team)
	}
}

// ListProducts serves the public catalog. Supported filters: teamId,
// category, q.
func ListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, false)
}

// AdminListProducts includes inactive products.
func AdminListProducts(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return listProducts(svc, logg, true)
}

func listProducts(svc products.Service, logg *logger.Logger, includeInactive bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		cursor, limit, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := products.ListFilter{
			TeamID:          validators.ParseQueryString(r, "teamId", 64),
			Category:        validators.ParseQueryString(r, "category", 60),
			Search:          validators.ParseQueryString(r, "q", 100),
			IncludeInactive: includeInactive,
			Cursor:          cursor,
			Limit:           limit,
		}
		if includeInactive {
			if filter.Active, err = validators.ParseQueryBool(r, "active"); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		page, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
