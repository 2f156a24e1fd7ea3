package controllers

import (
	"net/http"

	"github.com/angelmondragon/kitstore-backend/api/validators"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/pagination"
)

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

// sportParam reads ?sport=, returning "" when absent.
func sportParam(r *http.Request) (enums.Sport, error) {
	raw := validators.ParseQueryString(r, "sport", 40)
	if raw == "" {
		return "", nil
	}
	sport, err := enums.ParseSport(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sport").WithDetails(map[string]any{"field": "sport"})
	}
	return sport, nil
}

func pageParams(r *http.Request) (string, int, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return "", 0, err
	}
	return validators.ParseQueryString(r, "cursor", 512), limit, nil
}
