package httpapi

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/esmailgumaan/contact_svc/internal/model"
	"github.com/esmailgumaan/contact_svc/internal/storage"
)

const (
	inboxHTMLContentType   = "text/html; charset=utf-8"
	inboxTimestampLayout   = "2006-01-02 15:04 UTC"
	inboxContactListLimit  = 100
	queryParameterLimit    = "limit"
	errorValueQueryFailed  = "query_failed"
	errorValueRenderFailed = "render_failed"

	logEventListContactsFailed = "list_contacts_failed"
	logEventCountFailed        = "count_contacts_failed"
	logEventRenderInboxFailed  = "render_inbox_failed"
)

// AdminHandlers serves the authenticated owner-facing views of stored
// contacts.
type AdminHandlers struct {
	contactStore *storage.ContactStore
	logger       *zap.Logger
}

// NewAdminHandlers creates handlers reading from the provided contact store.
func NewAdminHandlers(contactStore *storage.ContactStore, logger *zap.Logger) *AdminHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandlers{contactStore: contactStore, logger: logger}
}

type inboxContactView struct {
	Name          string
	Email         string
	Message       string
	FormattedDate string
}

type inboxTemplateData struct {
	Contacts      []inboxContactView
	TotalMessages int64
	GeneratedAt   string
}

// RenderInbox renders the HTML inbox with the newest contacts first.
func (handlers *AdminHandlers) RenderInbox(context *gin.Context) {
	contacts, listErr := handlers.contactStore.ListRecentContacts(context.Request.Context(), inboxContactListLimit)
	if listErr != nil {
		handlers.logger.Error(logEventListContactsFailed, zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	totalMessages, countErr := handlers.contactStore.CountContacts(context.Request.Context())
	if countErr != nil {
		handlers.logger.Warn(logEventCountFailed, zap.Error(countErr))
		totalMessages = int64(len(contacts))
	}

	templateData := inboxTemplateData{
		Contacts:      make([]inboxContactView, 0, len(contacts)),
		TotalMessages: totalMessages,
		GeneratedAt:   time.Now().UTC().Format(inboxTimestampLayout),
	}
	for _, contact := range contacts {
		templateData.Contacts = append(templateData.Contacts, inboxContactView{
			Name:          contact.Name,
			Email:         contact.Email,
			Message:       contact.Message,
			FormattedDate: contact.CreatedAt.UTC().Format(inboxTimestampLayout),
		})
	}

	var buffer bytes.Buffer
	if executeErr := inboxTemplate.Execute(&buffer, templateData); executeErr != nil {
		handlers.logger.Error(logEventRenderInboxFailed, zap.Error(executeErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}

	context.Data(http.StatusOK, inboxHTMLContentType, buffer.Bytes())
}

type contactListEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
	UserAgent string `json:"user_agent"`
	Consent   bool   `json:"consent"`
}

type listContactsResponse struct {
	Contacts []contactListEntry `json:"contacts"`
	Total    int64              `json:"total"`
}

// ListContacts returns the newest contacts as JSON, limited by the optional
// limit query parameter (clamped to at most 100).
func (handlers *AdminHandlers) ListContacts(context *gin.Context) {
	limit := inboxContactListLimit
	if rawLimit := context.Query(queryParameterLimit); rawLimit != "" {
		parsedLimit, parseErr := strconv.Atoi(rawLimit)
		if parseErr == nil && parsedLimit > 0 && parsedLimit <= inboxContactListLimit {
			limit = parsedLimit
		}
	}

	contacts, listErr := handlers.contactStore.ListRecentContacts(context.Request.Context(), limit)
	if listErr != nil {
		handlers.logger.Error(logEventListContactsFailed, zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	totalContacts, countErr := handlers.contactStore.CountContacts(context.Request.Context())
	if countErr != nil {
		handlers.logger.Warn(logEventCountFailed, zap.Error(countErr))
		totalContacts = int64(len(contacts))
	}

	response := listContactsResponse{
		Contacts: make([]contactListEntry, 0, len(contacts)),
		Total:    totalContacts,
	}
	for _, contact := range contacts {
		response.Contacts = append(response.Contacts, contactListEntryFromModel(contact))
	}

	context.JSON(http.StatusOK, response)
}

func contactListEntryFromModel(contact model.Contact) contactListEntry {
	return contactListEntry{
		ID:        contact.ID,
		Name:      contact.Name,
		Email:     contact.Email,
		Message:   contact.Message,
		CreatedAt: contact.CreatedAt.Unix(),
		UserAgent: contact.UserAgent,
		Consent:   contact.Consent,
	}
}
