package receipt

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pennywise/pennywise/internal/errs"
	"github.com/pennywise/pennywise/internal/rest"
	"github.com/pennywise/pennywise/pkg/user"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	formField    = "receipt"
	maxImageSize = 5 << 20
)

type ReceiptDTO struct {
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchantName"`
	Category     string          `json:"category"`
}

type Handler struct {
	scanner Scanner
}

func NewHandler(scanner Scanner) *Handler {
	return &Handler{scanner: scanner}
}

// Scan godoc
// @Summary Extract expense data from a receipt image
// @Tags Receipt
// @Accept multipart/form-data
// @Produce json
// @Param receipt formData file true "Receipt image, at most 5MB"
// @Success 200 {object} ReceiptDTO
// @Failure 400 {object} rest.ErrorResponse "Missing, oversized or non-image file"
// @Failure 502 {object} rest.ErrorResponse "Unusable answer from the AI service"
// @Router /api/receipt/scan [post]
// @Security XUserId
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Scanning receipt")
	if _, err := user.CurrentId(r.Context()); err != nil {
		rest.WriteError(w, err)
		return
	}

	image, mimeType, err := readImage(w, r)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	receipt, err := h.scanner.Scan(r.Context(), image, mimeType)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, ReceiptDTO{
		Amount:       receipt.Amount,
		Date:         receipt.Date,
		Description:  receipt.Description,
		MerchantName: receipt.MerchantName,
		Category:     receipt.Category,
	})
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	// leave room for the multipart framing around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize+1<<20)
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", errs.NewValidationError().Add(formField, "File size should be less than 5MB")
		}
		return nil, "", errs.NewValidationError().Add(formField, "Expected a multipart form")
	}
	file, header, err := r.FormFile(formField)
	if err != nil {
		return nil, "", errs.NewValidationError().Add(formField, "Receipt image is required")
	}
	defer file.Close()

	if header.Size > maxImageSize {
		return nil, "", errs.NewValidationError().Add(formField, "File size should be less than 5MB")
	}
	image, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", errs.NewValidationError().Add(formField, "Only image files are supported")
	}
	return image, mimeType, nil
}
