package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"adventurebuddha/internal/domain/models"
	"adventurebuddha/internal/http/middleware"
	"adventurebuddha/internal/services"

	"github.com/gin-gonic/gin"
)

// Templates

func (h *Handler) ListTemplates(c *gin.Context) {
	out, err := h.messaging(c).ListTemplates(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.messaging(c).GetTemplate(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	var req models.MessageTemplate
	if !BindJSONOrError(c, &req) {
		return
	}
	t, err := h.messaging(c).CreateTemplate(middleware.UserID(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.MessageTemplate
	if !BindJSONOrError(c, &req) {
		return
	}
	t, err := h.messaging(c).UpdateTemplate(middleware.UserID(c), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.messaging(c).DeleteTemplate(middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DuplicateTemplate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.messaging(c).DuplicateTemplate(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Contact lists

// POST /api/messaging/contact-lists (multipart: name, file, column_mapping?)
func (h *Handler) UploadContactList(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "file is required", err)
		return
	}
	var mapping map[string]string
	if raw := strings.TrimSpace(c.PostForm("column_mapping")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			RespondError(c, http.StatusBadRequest, "column_mapping must be a JSON object", err)
			return
		}
	}
	f, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "file could not be read", err)
		return
	}
	defer f.Close()

	name := c.PostForm("name")
	if strings.TrimSpace(name) == "" {
		name = fh.Filename
	}
	list, err := h.messaging(c).ImportContacts(c.Request.Context(), middleware.UserID(c), name, fh.Filename, f, mapping)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *Handler) ListContactLists(c *gin.Context) {
	out, err := h.messaging(c).ListLists(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetContactList(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.messaging(c).GetList(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteContactList(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.messaging(c).DeleteList(middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/messaging/contact-lists/:id/contacts?status=&whatsapp_status=
func (h *Handler) ContactListContacts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	out, err := h.messaging(c).ListContactsOf(middleware.UserID(c), id, c.Query("status"), queryBool(c, "whatsapp_status"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Contacts

func (h *Handler) ListContacts(c *gin.Context) {
	out, err := h.messaging(c).ListContacts(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetContact(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ct, err := h.messaging(c).GetContact(middleware.UserID(c), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.ContactUpdate
	if !BindJSONOrError(c, &req) {
		return
	}
	ct, err := h.messaging(c).UpdateContact(middleware.UserID(c), id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.messaging(c).DeleteContact(middleware.UserID(c), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/messaging/contacts/validate_numbers
func (h *Handler) ValidateNumbers(c *gin.Context) {
	var req struct {
		PhoneNumbers []string `json:"phone_numbers"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.messaging(c).ValidateNumbers(c.Request.Context(), req.PhoneNumbers)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// POST /api/messaging/validate-phone
func (h *Handler) ValidatePhone(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	out, err := h.messaging(c).ValidatePhone(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Sending

// POST /api/messaging/send-message
func (h *Handler) SendMessage(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Message     string `json:"message"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.messaging(c).SendMessage(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/messaging/bulk-message
func (h *Handler) BulkMessage(c *gin.Context) {
	var req services.BulkInput
	if !BindJSONOrError(c, &req) {
		return
	}
	task, err := h.messaging(c).BulkSend(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// GET /api/messaging/message/:id/status
func (h *Handler) ProviderMessageStatus(c *gin.Context) {
	st, err := h.messaging(c).MessageStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) MessagingStats(c *gin.Context) {
	st, err := h.messaging(c).Stats(middleware.UserID(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) AccountBalance(c *gin.Context) {
	b, err := h.messaging(c).Balance(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Unsubscribers

func (h *Handler) ListUnsubscribers(c *gin.Context) {
	out, err := h.messaging(c).Unsubscribed()
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unsubscribers": out, "total_unsubscribed": len(out)})
}

func (h *Handler) AddUnsubscriber(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Reason      string `json:"reason"`
	}
	if !BindJSONOrError(c, &req) {
		return
	}
	phone, err := h.messaging(c).Unsubscribe(req.PhoneNumber, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"phone_number": phone, "unsubscribed": true})
}
