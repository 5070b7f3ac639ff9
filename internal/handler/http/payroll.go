package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Creation
	CreatePayroll(w http.ResponseWriter, r *http.Request)
	CreateBatchPayroll(w http.ResponseWriter, r *http.Request)

	// Bulk workflow
	SubmitBulk(w http.ResponseWriter, r *http.Request)
	ApproveDepartment(w http.ResponseWriter, r *http.Request)
	RejectDepartment(w http.ResponseWriter, r *http.Request)

	// Payroll Records
	ListPayrollRecords(w http.ResponseWriter, r *http.Request)
	GetPayrollRecord(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)

	// Single record workflow
	Submit(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Resubmit(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	ProcessPayment(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// decodeBody treats an empty body as a zero request.
func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ========== CREATION ==========

func (h *payrollHandlerImpl) CreatePayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateSinglePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateSingleEmployeePayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll created", result)
}

func (h *payrollHandlerImpl) CreateBatchPayroll(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateBatchPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	summary, err := h.payrollService.CreateBatchPayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, summaryMessage(summary), map[string]interface{}{"summary": summary})
}

// ========== BULK WORKFLOW ==========

func (h *payrollHandlerImpl) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	var req payroll.SubmitBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	summary, err := h.payrollService.SubmitBulkPayrolls(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, summaryMessage(summary), map[string]interface{}{"summary": summary})
}

func (h *payrollHandlerImpl) ApproveDepartment(w http.ResponseWriter, r *http.Request) {
	var req payroll.DepartmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	summary, err := h.payrollService.ApproveDepartmentPayrolls(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, summaryMessage(summary), map[string]interface{}{"summary": summary})
}

func (h *payrollHandlerImpl) RejectDepartment(w http.ResponseWriter, r *http.Request) {
	var req payroll.DepartmentActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	summary, err := h.payrollService.RejectDepartmentPayrolls(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, summaryMessage(summary), map[string]interface{}{"summary": summary})
}

func summaryMessage(s *payroll.ProcessingSummary) string {
	return fmt.Sprintf("%d processed, %d skipped, %d failed", s.Processed, s.Skipped, s.Failed)
}

// ========== PAYROLL RECORDS ==========

func (h *payrollHandlerImpl) ListPayrollRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := payroll.ListPayrollQuery{
		DepartmentID: q.Get("department_id"),
		EmployeeID:   q.Get("employee_id"),
		Frequency:    q.Get("frequency"),
		Status:       q.Get("status"),
		Level:        q.Get("level"),
	}

	for key, dst := range map[string]*int{
		"period_month": &query.PeriodMonth,
		"period_year":  &query.PeriodYear,
		"page":         &query.Page,
		"limit":        &query.Limit,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid query parameter", map[string]string{key: "must be a number"})
			return
		}
		*dst = v
	}

	result, err := h.payrollService.ListPayrollRecords(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func (h *payrollHandlerImpl) GetPayrollRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	result, err := h.payrollService.GetPayrollRecord(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Payroll ID is required", nil)
		return
	}

	slip, err := h.payrollService.GetPayslip(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", slip.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", slip.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(slip.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(slip.Content)
}

// ========== SINGLE RECORD WORKFLOW ==========

func (h *payrollHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req payroll.SubmitPayrollRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.SubmitPayroll(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll submitted for approval", result)
}

// runAction serves the single-record transitions driven by ApprovalActionRequest.
func (h *payrollHandlerImpl) runAction(w http.ResponseWriter, r *http.Request, message string,
	action func(ctx context.Context, id string, req payroll.ApprovalActionRequest) (payroll.PayrollRecordResponse, error)) {
	id := chi.URLParam(r, "id")
	var req payroll.ApprovalActionRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := action(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

func (h *payrollHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "Payroll approved", h.payrollService.ApprovePayroll)
}

func (h *payrollHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "Payroll rejected", h.payrollService.RejectPayroll)
}

func (h *payrollHandlerImpl) Resubmit(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "Payroll resubmitted", h.payrollService.ResubmitPayroll)
}

func (h *payrollHandlerImpl) Cancel(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "Payroll cancelled", h.payrollService.CancelPayroll)
}

func (h *payrollHandlerImpl) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req payroll.ProcessPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.ProcessPayment(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payment processed", result)
}
