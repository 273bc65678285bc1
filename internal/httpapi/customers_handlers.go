package httpapi

import (
	"errors"
	"net/http"

	"courier-bridge/internal/auth"
	"courier-bridge/internal/customers"
	"courier-bridge/pkg/logger"

	"github.com/gin-gonic/gin"
)

type createCustomerRequest struct {
	Name              string `json:"name"`
	PhoneNumber       string `json:"phone_number"`
	AssignedCourierID string `json:"assigned_courier_id,omitempty"`
}

type updateCustomerRequest struct {
	Name              *string `json:"name,omitempty"`
	PhoneNumber       *string `json:"phone_number,omitempty"`
	Active            *bool   `json:"is_active,omitempty"`
	AssignedCourierID *string `json:"assigned_courier_id,omitempty"`
}

// CreateCustomer registers a new customer for today's list. Admin only.
func (h Handlers) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	actorID, _ := auth.UserID(c.Request.Context())
	cust := customers.Customer{
		Name:              req.Name,
		PhoneNumber:       req.PhoneNumber,
		CreatedBy:         actorID,
		AssignedCourierID: req.AssignedCourierID,
	}
	if err := h.Customers.Create(c.Request.Context(), &cust); err != nil {
		h.customerWriteError(c, err)
		return
	}

	h.auditCustomer(c, cust.ID, "customer created")
	c.JSON(http.StatusCreated, cust)
}

// ListCustomers returns all customers, phone numbers included. Admin only.
func (h Handlers) ListCustomers(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	out, err := h.Customers.List(c.Request.Context(), activeOnly)
	if err != nil {
		logger.FromGin(c).Error("customer list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

// ListCustomersPublic returns active customers without phone numbers, which
// is all a courier ever sees.
func (h Handlers) ListCustomersPublic(c *gin.Context) {
	rows, err := h.Customers.List(c.Request.Context(), true)
	if err != nil {
		logger.FromGin(c).Error("customer list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer lookup failed"})
		return
	}
	out := make([]customers.Public, 0, len(rows))
	for _, cust := range rows {
		out = append(out, cust.Public())
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

// GetCustomer returns one customer by id. Admin only.
func (h Handlers) GetCustomer(c *gin.Context) {
	cust, err := h.Customers.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, customers.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer lookup failed"})
		return
	}
	c.JSON(http.StatusOK, cust)
}

// UpdateCustomer applies a partial update. Admin only.
func (h Handlers) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	cust, err := h.Customers.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, customers.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer lookup failed"})
		return
	}

	if req.Name != nil {
		cust.Name = *req.Name
	}
	if req.PhoneNumber != nil {
		cust.PhoneNumber = *req.PhoneNumber
	}
	if req.Active != nil {
		cust.Active = *req.Active
	}
	if req.AssignedCourierID != nil {
		cust.AssignedCourierID = *req.AssignedCourierID
	}

	if err := h.Customers.Update(c.Request.Context(), cust); err != nil {
		h.customerWriteError(c, err)
		return
	}

	h.auditCustomer(c, cust.ID, "customer updated")
	c.JSON(http.StatusOK, cust)
}

// DeactivateCustomer soft-deletes a customer. Admin only.
func (h Handlers) DeactivateCustomer(c *gin.Context) {
	id := c.Param("id")
	err := h.Customers.Deactivate(c.Request.Context(), id)
	if errors.Is(err, customers.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer update failed"})
		return
	}

	h.auditCustomer(c, id, "customer deactivated")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Handlers) customerWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, customers.ErrInvalidPhone), errors.Is(err, customers.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": publicErrorMessage(err)})
	case errors.Is(err, customers.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "customer not found"})
	default:
		logger.FromGin(c).Error("customer write failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "customer write failed"})
	}
}

func (h Handlers) auditCustomer(c *gin.Context, customerID, message string) {
	if h.Audits == nil {
		return
	}
	actorID, _ := auth.UserID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if err := h.Audits.LogCustomerChange(c.Request.Context(), actorID, role, c.ClientIP(), customerID, message, ""); err != nil {
		logger.FromGin(c).Warn("audit write failed", "err", err)
	}
}
