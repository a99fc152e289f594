// Package http provides the read API and dashboard servers.
//
// This file decodes and validates write requests for the read API. Field
// rules live in struct tags checked by go-playground/validator.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// maxBodyBytes bounds write request bodies.
const maxBodyBytes = 1 << 20

// transactionRequest is the body accepted by POST /money.
type transactionRequest struct {
	Date       string      `json:"date" validate:"required,min=7,txdate"`
	Amount     json.Number `json:"amount" validate:"required,posamount"`
	TypeID     int         `json:"typeid" validate:"required,oneof=1 2"`
	CategoryID core.ID     `json:"categoryid" validate:"required"`
	Payment    string      `json:"payment" validate:"max=200"`
}

// categoryRequest is the body accepted by POST /category.
type categoryRequest struct {
	ID   core.ID `json:"id"`
	Name string  `json:"name" validate:"required,max=100"`
}

// transactionDTO is the wire form of a transaction: amounts travel as JSON
// numbers.
type transactionDTO struct {
	ID         core.ID     `json:"id,omitempty"`
	Date       string      `json:"date"`
	Amount     json.Number `json:"amount"`
	TypeID     int         `json:"typeid"`
	CategoryID core.ID     `json:"categoryid"`
	Payment    string      `json:"payment"`
}

func toTransactionDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:         tx.ID,
		Date:       tx.Date,
		Amount:     json.Number(tx.Amount.String()),
		TypeID:     int(tx.TypeID),
		CategoryID: tx.CategoryID,
		Payment:    tx.Payment,
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionDTO(tx))
	}
	return out
}

// newValidator returns a validator that reports json field names and knows
// the finboard-specific tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("txdate", validateTxDate)
	_ = v.RegisterValidation("posamount", validatePositiveAmount)
	return v
}

func validateTxDate(fl validator.FieldLevel) bool {
	_, err := core.ParseDate(fl.Field().String())
	return err == nil
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	d, err := core.ParseAmount(fl.Field().String())
	return err == nil && d.IsPositive()
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody reads a single JSON object from r into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// validationMessages maps validator failures to per-field messages.
func validationMessages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "txdate":
		return "must be a date like 2024-01-31"
	case "posamount":
		return "must be a positive number"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// parseTransactionRequest decodes and validates a POST /money body.
// Decode problems are returned as err; validation problems as fields.
func (p *requestParser) parseTransactionRequest(w http.ResponseWriter, r *http.Request) (core.Transaction, map[string]string, error) {
	var req transactionRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return core.Transaction{}, nil, err
	}
	req.Date = sanitizeInput(req.Date)
	req.Payment = sanitizeInput(req.Payment)
	req.CategoryID = core.ID(sanitizeInput(string(req.CategoryID)))

	if err := p.validate.Struct(req); err != nil {
		return core.Transaction{}, validationMessages(err), nil
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return core.Transaction{}, map[string]string{"amount": "must be a positive number"}, nil
	}
	return core.Transaction{
		Date:       req.Date,
		Amount:     amount,
		TypeID:     core.TypeID(req.TypeID),
		CategoryID: req.CategoryID,
		Payment:    req.Payment,
	}, nil, nil
}

// parseCategoryRequest decodes and validates a POST /category body.
func (p *requestParser) parseCategoryRequest(w http.ResponseWriter, r *http.Request) (core.Category, map[string]string, error) {
	var req categoryRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		return core.Category{}, nil, err
	}
	req.Name = sanitizeInput(req.Name)

	if err := p.validate.Struct(req); err != nil {
		return core.Category{}, validationMessages(err), nil
	}
	return core.Category{ID: req.ID, Name: req.Name}, nil, nil
}

type requestParser struct {
	validate *validator.Validate
}

func newRequestParser() *requestParser {
	return &requestParser{validate: newValidator()}
}
