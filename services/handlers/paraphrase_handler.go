package handlers

import (
	"io"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/rephrase-labs/rephrase_api/dto"
	"github.com/rephrase-labs/rephrase_api/model"
	"github.com/rephrase-labs/rephrase_api/shared"
)

type ParaphraseHandler struct {
	paraphraseSvc  ParaphraseServiceInterface
	documentSvc    DocumentServiceInterface
	entitlementSvc EntitlementServiceInterface
	usageSvc       UsageWriterInterface
	storageSvc     StorageServiceInterface
}

func NewParaphraseHandler(
	paraphraseSvc ParaphraseServiceInterface,
	documentSvc DocumentServiceInterface,
	entitlementSvc EntitlementServiceInterface,
	usageSvc UsageWriterInterface,
	storageSvc StorageServiceInterface,
) *ParaphraseHandler {
	return &ParaphraseHandler{
		paraphraseSvc:  paraphraseSvc,
		documentSvc:    documentSvc,
		entitlementSvc: entitlementSvc,
		usageSvc:       usageSvc,
		storageSvc:     storageSvc,
	}
}

// @Summary Paraphrase text
// @Description Rewrite the submitted text in the requested mode
// @Tags paraphrase
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param paraphraseRequest body dto.ParaphraseRequest true "Text and mode"
// @Success 200 {object} shared.Response{data=dto.ParaphraseResponse}
// @Router /api/v1/paraphrase [post]
func (h *ParaphraseHandler) Paraphrase(c *fiber.Ctx) error {
	// Anonymous callers are admitted behind the rate limit; a resolved
	// principal puts the request under that account's entitlement.
	user, _ := c.Locals(shared.Principal).(*model.User)

	var req dto.ParaphraseRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.ErrBadRequest("Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if req.Mode == "" {
		req.Mode = shared.ModeStandard
	}

	return h.paraphrase(c, user, req.Text, req.Mode)
}

// @Summary Paraphrase a document
// @Description Extract text from an uploaded document and paraphrase it
// @Tags paraphrase
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param file formData file true "Document to paraphrase (pdf, docx, txt)"
// @Param mode formData string false "Paraphrase mode" default(standard)
// @Success 200 {object} shared.Response{data=dto.ParaphraseResponse}
// @Router /api/v1/paraphrase/document [post]
func (h *ParaphraseHandler) ParaphraseDocument(c *fiber.Ctx) error {
	user, ok := c.Locals(shared.Principal).(*model.User)
	if !ok {
		return shared.ErrTokenInvalid("")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return shared.ErrBadRequest("A file upload is required")
	}

	if fileHeader.Size > h.documentSvc.MaxBytes() {
		return shared.ErrPayloadTooLarge("")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !h.documentSvc.Supported(contentType) {
		return shared.ErrUnsupportedMedia(contentType)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return shared.ErrBadRequest("Unable to read uploaded file")
	}
	defer file.Close()

	fileBytes := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(file, fileBytes); err != nil {
		return shared.ErrBadRequest("Unable to read uploaded file")
	}

	text, err := h.documentSvc.ExtractText(fileBytes, contentType)
	if err != nil {
		return err
	}

	mode := c.FormValue("mode", shared.ModeStandard)
	req := dto.ParaphraseRequest{Text: text, Mode: mode}
	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	h.storageSvc.ArchiveUpload(user.ID, fileHeader.Filename, contentType, fileBytes)

	return h.paraphrase(c, user, text, mode)
}

// Entitlement is checked against the real character count before any inference
// work, and usage is committed only after the paraphrase succeeded.
func (h *ParaphraseHandler) paraphrase(c *fiber.Ctx, user *model.User, text, mode string) error {
	characters := int64(utf8.RuneCountInString(text))

	if user != nil {
		if err := h.entitlementSvc.Check(user, characters); err != nil {
			return err
		}
	}

	result, cached, err := h.paraphraseSvc.Paraphrase(c, text, mode)
	if err != nil {
		return err
	}

	if user != nil {
		if err := h.usageSvc.AddMonthlyUsage(user.ID, characters); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to commit usage")
		}
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", &dto.ParaphraseResponse{
		ParaphrasedText:   result,
		OriginalLength:    int(characters),
		ParaphrasedLength: utf8.RuneCountInString(result),
		Mode:              mode,
		Cached:            cached,
	})
}
