package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

// maxImportSize bounds CSV uploads. Multipart bodies get multipartOverhead on
// top for the envelope around the file.
const (
	maxImportSize     = 10 << 20
	multipartOverhead = 1 << 20
)

type createContributionRequest struct {
	TeamUserID  string    `json:"teamUserId" binding:"required"`
	TypeID      string    `json:"typeId" binding:"required"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	DueDate     core.Date `json:"dueDate"`
}

func (s *Server) handleCreateContribution(c *gin.Context) {
	var req createContributionRequest
	if !bindJSON(c, &req) {
		return
	}
	ids, err := parseUUIDs([]string{req.TeamUserID, req.TypeID})
	if err != nil {
		respondError(c, err)
		return
	}
	amount, err := moneyOf(req.Amount, req.Currency, s.cfg.DefaultCurrency)
	if err != nil {
		respondError(c, err)
		return
	}
	contribution, err := s.svc.Contributions.Create(c.Request.Context(), services.CreateContributionInput{
		TeamUserID:  ids[0],
		TypeID:      ids[1],
		Description: req.Description,
		Amount:      amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContributionDTO(contribution, s.now()))
}

func (s *Server) handleListContributions(c *gin.Context) {
	var (
		q   services.ContributionQuery
		err error
	)
	if q.TeamUserID, err = queryUUID(c, "teamUserId"); err != nil {
		respondError(c, err)
		return
	}
	if q.TypeID, err = queryUUID(c, "typeId"); err != nil {
		respondError(c, err)
		return
	}
	if q.TeamID, err = queryUUID(c, "teamId"); err != nil {
		respondError(c, err)
		return
	}
	if q.Unpaid, err = queryBool(c, "unpaid"); err != nil {
		respondError(c, err)
		return
	}
	if q.Overdue, err = queryBool(c, "overdue"); err != nil {
		respondError(c, err)
		return
	}
	contributions, err := s.svc.Contributions.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContributionDTOs(contributions, s.now()))
}

func (s *Server) handleGetContribution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contribution, err := s.svc.Contributions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContributionDTO(contribution, s.now()))
}

type updateContributionRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

func (s *Server) handleUpdateContribution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateContributionRequest
	if !bindJSON(c, &req) {
		return
	}
	amount, err := moneyOf(req.Amount, req.Currency, s.cfg.DefaultCurrency)
	if err != nil {
		respondError(c, err)
		return
	}
	contribution, err := s.svc.Contributions.Update(c.Request.Context(), id, req.Description, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContributionDTO(contribution, s.now()))
}

func (s *Server) handleDeleteContribution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Contributions.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type dueDateRequest struct {
	DueDate core.Date `json:"dueDate"`
}

func (s *Server) handleUpdateDueDate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dueDateRequest
	if !bindJSON(c, &req) {
		return
	}
	contribution, err := s.svc.Contributions.UpdateDueDate(c.Request.Context(), id, req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContributionDTO(contribution, s.now()))
}

func (s *Server) handlePayContribution(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	contribution, err := s.svc.Contributions.Pay(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContributionDTO(contribution, s.now()))
}

func (s *Server) handleSetContributionActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		contribution, err := s.svc.Contributions.SetActive(c.Request.Context(), id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toContributionDTO(contribution, s.now()))
	}
}

// handleImportContributions reads the CSV from a multipart "file" field or
// from the raw request body.
func (s *Server) handleImportContributions(c *gin.Context) {
	var body io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize+multipartOverhead)
		fh, err := c.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				respondError(c, fmt.Errorf("%w: upload exceeds %d bytes", errTooLarge, maxImportSize))
				return
			}
			respondError(c, fmt.Errorf("%w: missing file field: %v", errBadRequest, err))
			return
		}
		if fh.Size > maxImportSize {
			respondError(c, fmt.Errorf("%w: file is %d bytes, limit %d", errTooLarge, fh.Size, maxImportSize))
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		defer f.Close()
		body = f
	} else {
		body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	}

	result, err := s.svc.Imports.Import(c.Request.Context(), body)
	if err != nil {
		if tooLarge(err) {
			err = fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, maxImportSize)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

type paymentRequest struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// details builds payment details. Without a currency the payment is taken to
// be in fallback, the currency of the contribution it settles.
func (r paymentRequest) details(fallback core.Currency) (core.PaymentDetails, error) {
	amount, err := moneyOf(r.Amount, r.Currency, fallback)
	if err != nil {
		return core.PaymentDetails{}, err
	}
	method, err := core.ParsePaymentMethod(r.Method)
	if err != nil {
		return core.PaymentDetails{}, err
	}
	return core.PaymentDetails{Amount: amount, Method: method, Reference: r.Reference, Notes: r.Notes}, nil
}

func (s *Server) handleAddPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	contribution, err := s.svc.Contributions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := req.details(contribution.Amount.Currency)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.svc.Payments.Add(c.Request.Context(), id, d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResultDTO(res, s.now()))
}

func (s *Server) handleListPayments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	payments, summary, err := s.svc.Payments.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]paymentDTO, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentDTO(&payments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out, "summary": toSummaryDTO(summary)})
}

func (s *Server) handleUpdatePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}
	existing, err := s.deps.Store.GetPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	d, err := req.details(existing.Amount.Currency)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := s.svc.Payments.Update(c.Request.Context(), id, d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResultDTO(res, s.now()))
}

func (s *Server) handleDeletePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := s.svc.Payments.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResultDTO(res, s.now()))
}

func (s *Server) handleRunRecurring(c *gin.Context) {
	created, err := s.svc.Recurring.ProcessDueContributions(c.Request.Context(), s.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
