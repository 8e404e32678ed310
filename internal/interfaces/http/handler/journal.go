package handler

import (
	financeapp "github.com/erp/ordertocash/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// JournalHandler exposes the posted ledger read side
type JournalHandler struct {
	BaseHandler
	journal *financeapp.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal *financeapp.JournalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// ListEntries godoc
// @Summary      List journal entries
// @Tags         ledger
// @Produce      json
// @Param        reference   query string false "Document number"
// @Param        source_type query string false "Source document type"
// @Param        source_id   query string false "Source document ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]financeapp.JournalEntryResponse}
// @Security     BearerAuth
// @Router       /journal-entries [get]
func (h *JournalHandler) ListEntries(c *gin.Context) {
	var filter financeapp.JournalFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	sourceID, ok := h.optionalUUIDQuery(c, "source_id")
	if !ok {
		return
	}
	filter.SourceID = sourceID
	resp, err := h.journal.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetEntry godoc
// @Summary      Get a journal entry
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.JournalEntryResponse}
// @Security     BearerAuth
// @Router       /journal-entries/{id} [get]
func (h *JournalHandler) GetEntry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.journal.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AccountBalance godoc
// @Summary      Get the posted balance of an account
// @Tags         ledger
// @Produce      json
// @Param        code path string true "Account code" example(1200)
// @Success      200 {object} dto.Response{data=finance.AccountBalance}
// @Security     BearerAuth
// @Router       /accounts/{code}/balance [get]
func (h *JournalHandler) AccountBalance(c *gin.Context) {
	resp, err := h.journal.AccountBalance(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// TrialBalance godoc
// @Summary      Trial balance of the whole ledger
// @Description  Lists every posted account with total debits and credits
// @Tags         ledger
// @Produce      json
// @Success      200 {object} dto.Response{data=finance.TrialBalance}
// @Security     BearerAuth
// @Router       /trial-balance [get]
func (h *JournalHandler) TrialBalance(c *gin.Context) {
	resp, err := h.journal.TrialBalance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
