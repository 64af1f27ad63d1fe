package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okarpenko/retreathub-backend/api/responses"
	"github.com/okarpenko/retreathub-backend/api/validators"
	"github.com/okarpenko/retreathub-backend/internal/bookings"
	"github.com/okarpenko/retreathub-backend/internal/categories"
	"github.com/okarpenko/retreathub-backend/internal/retreats"
	"github.com/okarpenko/retreathub-backend/pkg/enums"
	pkgerrors "github.com/okarpenko/retreathub-backend/pkg/errors"
	"github.com/okarpenko/retreathub-backend/pkg/logger"
	"github.com/okarpenko/retreathub-backend/pkg/pagination"
)

// listInputFromQuery builds the listing parameters with lenient parsing:
// malformed filter values are dropped rather than rejected, so a bad query
// widens the result set instead of failing the request.
func listInputFromQuery(r *http.Request) retreats.ListInput {
	filters := retreats.ListFilters{
		Search:      validators.QueryString(r, "search"),
		Country:     validators.QueryString(r, "country"),
		City:        validators.QueryString(r, "city"),
		MinPrice:    validators.QueryDecimalLenient(r, "minPrice"),
		MaxPrice:    validators.QueryDecimalLenient(r, "maxPrice"),
		StartDate:   validators.QueryDateLenient(r, "startDate"),
		EndDate:     validators.QueryDateLenient(r, "endDate"),
		MinDuration: validators.QueryIntLenient(r, "minDuration"),
		MaxDuration: validators.QueryIntLenient(r, "maxDuration"),
		MinAge:      validators.QueryIntLenient(r, "minAge"),
		MaxAge:      validators.QueryIntLenient(r, "maxAge"),
		CategoryIDs: validators.QueryUUIDListLenient(r, "categories"),
	}

	if raw := validators.QueryString(r, "difficulty"); raw != nil {
		for _, part := range strings.Split(*raw, ",") {
			difficulty, err := enums.ParseDifficulty(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			filters.Difficulties = append(filters.Difficulties, difficulty)
		}
	}

	page, limit := 0, 0
	if v := validators.QueryIntLenient(r, "page"); v != nil {
		page = *v
	}
	if v := validators.QueryIntLenient(r, "limit"); v != nil {
		limit = *v
	}

	sortBy, sortOrder := "", ""
	if v := validators.QueryString(r, "sortBy"); v != nil {
		sortBy = *v
	}
	if v := validators.QueryString(r, "sortOrder"); v != nil {
		sortOrder = *v
	}

	return retreats.ListInput{
		Filters:    filters,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
		Pagination: pagination.Params{Page: page, Limit: limit},
	}
}

// RetreatList serves the public retreat search.
func RetreatList(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := svc.List(ctx, listInputFromQuery(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteList(w, out.Retreats, out.Pagination, out.Filters)
	}
}

// RetreatDetail serves the public retreat page by id or slug.
func RetreatDetail(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		idOrSlug := strings.TrimSpace(chi.URLParam(r, "idOrSlug"))
		if idOrSlug == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing retreat identifier"))
			return
		}

		detail, err := svc.GetDetail(ctx, idOrSlug)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type retreatPayload struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"required"`
	Country         string   `json:"country" validate:"required"`
	City            string   `json:"city" validate:"required"`
	Location        string   `json:"location" validate:"required"`
	Price           string   `json:"price" validate:"required"`
	OriginalPrice   *string  `json:"original_price"`
	Currency        string   `json:"currency"`
	MaxParticipants int      `json:"max_participants" validate:"required,min=1"`
	StartDate       string   `json:"start_date" validate:"required"`
	EndDate         string   `json:"end_date" validate:"required"`
	BookingDeadline *string  `json:"booking_deadline"`
	Difficulty      string   `json:"difficulty"`
	YogaStyles      []string `json:"yoga_styles"`
	MinAge          *int     `json:"min_age"`
	MaxAge          *int     `json:"max_age"`
	CategoryIDs     []string `json:"category_ids"`
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a decimal number")
	}
	return value, nil
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if value, err := time.Parse("2006-01-02", raw); err == nil {
		return value, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a date")
	}
	return value, nil
}

func (p retreatPayload) toCreateInput() (retreats.CreateRetreatInput, error) {
	price, err := parseMoney("price", p.Price)
	if err != nil {
		return retreats.CreateRetreatInput{}, err
	}
	startDate, err := parseDate("start_date", p.StartDate)
	if err != nil {
		return retreats.CreateRetreatInput{}, err
	}
	endDate, err := parseDate("end_date", p.EndDate)
	if err != nil {
		return retreats.CreateRetreatInput{}, err
	}

	input := retreats.CreateRetreatInput{
		Title:           p.Title,
		Description:     p.Description,
		Country:         p.Country,
		City:            p.City,
		Location:        p.Location,
		Price:           price,
		Currency:        p.Currency,
		MaxParticipants: p.MaxParticipants,
		StartDate:       startDate,
		EndDate:         endDate,
		YogaStyles:      p.YogaStyles,
		MinAge:          p.MinAge,
		MaxAge:          p.MaxAge,
	}

	if p.OriginalPrice != nil {
		original, err := parseMoney("original_price", *p.OriginalPrice)
		if err != nil {
			return retreats.CreateRetreatInput{}, err
		}
		input.OriginalPrice = &original
	}
	if p.BookingDeadline != nil {
		deadline, err := parseDate("booking_deadline", *p.BookingDeadline)
		if err != nil {
			return retreats.CreateRetreatInput{}, err
		}
		input.BookingDeadline = &deadline
	}
	if strings.TrimSpace(p.Difficulty) != "" {
		difficulty, err := enums.ParseDifficulty(p.Difficulty)
		if err != nil {
			return retreats.CreateRetreatInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown difficulty")
		}
		input.Difficulty = difficulty
	}
	for _, raw := range p.CategoryIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return retreats.CreateRetreatInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
		}
		input.CategoryIDs = append(input.CategoryIDs, id)
	}
	return input, nil
}

// OrganizerRetreatCreate publishes a new retreat under the caller.
func OrganizerRetreatCreate(svc retreats.Service, cats categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload retreatPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := cats.ValidateIDs(ctx, input.CategoryIDs); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.Create(ctx, actorID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

type retreatUpdatePayload struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Country         *string   `json:"country"`
	City            *string   `json:"city"`
	Location        *string   `json:"location"`
	Price           *string   `json:"price"`
	OriginalPrice   *string   `json:"original_price"`
	Currency        *string   `json:"currency"`
	MaxParticipants *int      `json:"max_participants"`
	StartDate       *string   `json:"start_date"`
	EndDate         *string   `json:"end_date"`
	BookingDeadline *string   `json:"booking_deadline"`
	Difficulty      *string   `json:"difficulty"`
	YogaStyles      *[]string `json:"yoga_styles"`
	MinAge          *int      `json:"min_age"`
	MaxAge          *int      `json:"max_age"`
	CategoryIDs     *[]string `json:"category_ids"`
}

func (p retreatUpdatePayload) toUpdateInput() (retreats.UpdateRetreatInput, error) {
	input := retreats.UpdateRetreatInput{
		Title:           p.Title,
		Description:     p.Description,
		Country:         p.Country,
		City:            p.City,
		Location:        p.Location,
		Currency:        p.Currency,
		MaxParticipants: p.MaxParticipants,
		YogaStyles:      p.YogaStyles,
		MinAge:          p.MinAge,
		MaxAge:          p.MaxAge,
	}

	if p.Price != nil {
		price, err := parseMoney("price", *p.Price)
		if err != nil {
			return retreats.UpdateRetreatInput{}, err
		}
		input.Price = &price
	}
	if p.OriginalPrice != nil {
		original, err := parseMoney("original_price", *p.OriginalPrice)
		if err != nil {
			return retreats.UpdateRetreatInput{}, err
		}
		input.OriginalPrice = &original
	}
	if p.StartDate != nil {
		startDate, err := parseDate("start_date", *p.StartDate)
		if err != nil {
			return retreats.UpdateRetreatInput{}, err
		}
		input.StartDate = &startDate
	}
	if p.EndDate != nil {
		endDate, err := parseDate("end_date", *p.EndDate)
		if err != nil {
			return retreats.UpdateRetreatInput{}, err
		}
		input.EndDate = &endDate
	}
	if p.BookingDeadline != nil {
		deadline, err := parseDate("booking_deadline", *p.BookingDeadline)
		if err != nil {
			return retreats.UpdateRetreatInput{}, err
		}
		input.BookingDeadline = &deadline
	}
	if p.Difficulty != nil {
		difficulty, err := enums.ParseDifficulty(*p.Difficulty)
		if err != nil {
			return retreats.UpdateRetreatInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown difficulty")
		}
		input.Difficulty = &difficulty
	}
	if p.CategoryIDs != nil {
		ids := make([]uuid.UUID, 0, len(*p.CategoryIDs))
		for _, raw := range *p.CategoryIDs {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return retreats.UpdateRetreatInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id")
			}
			ids = append(ids, id)
		}
		input.CategoryIDs = &ids
	}
	return input, nil
}

// OrganizerRetreatUpdate mutates a retreat owned by the caller (admins may
// edit any retreat).
func OrganizerRetreatUpdate(svc retreats.Service, cats categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, role, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		retreatID, err := pathUUID(r, "retreatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload retreatUpdatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.CategoryIDs != nil {
			if err := cats.ValidateIDs(ctx, *input.CategoryIDs); err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		detail, err := svc.Update(ctx, actorID, role, retreatID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// OrganizerRetreatDelete soft-deletes a retreat.
func OrganizerRetreatDelete(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, role, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		retreatID, err := pathUUID(r, "retreatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, actorID, role, retreatID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// OrganizerRetreatList returns the caller's retreats regardless of active flag.
func OrganizerRetreatList(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, _, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListByOrganizer(ctx, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// OrganizerRetreatBookings lists bookings against one of the caller's retreats.
func OrganizerRetreatBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actorID, role, err := actor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		retreatID, err := pathUUID(r, "retreatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListForRetreat(ctx, actorID, role, retreatID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminRetreatVerify toggles the verified moderation flag.
func AdminRetreatVerify(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return adminRetreatFlag(logg, "verified", svc.SetVerified)
}

// AdminRetreatFeature toggles the featured listing flag.
func AdminRetreatFeature(svc retreats.Service, logg *logger.Logger) http.HandlerFunc {
	return adminRetreatFlag(logg, "featured", svc.SetFeatured)
}

type flagPayload struct {
	Value bool `json:"value"`
}

func adminRetreatFlag(logg *logger.Logger, name string, apply func(context.Context, uuid.UUID, bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		retreatID, err := pathUUID(r, "retreatId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload flagPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := apply(ctx, retreatID, payload.Value); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{name: payload.Value})
	}
}
