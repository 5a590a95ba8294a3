package shop

import (
	"context"
	"errors"

	"github.com/erpsystem/doccheck/internal/models"
)

const (
	OpOrder             = "Order"
	OpUpdateOrderStatus = "UpdateOrderStatus"
)

// ErrOrderNotFound is returned when the order query resolves to null.
var ErrOrderNotFound = errors.New("order not found")

const orderQuery = `query Order($id: String) {
  order(id: $id) {
    id
    orderNumber
    status
    total
    items {
      id
      productName
      sku
      quantity
      unitPrice
      total
    }
    documents {
      id
      documentType
      state
      pdfUrl
      generatedAt
      templateKey
    }
  }
}`

const updateOrderStatusMutation = `mutation UpdateOrderStatus($orderId: String!, $status: String!) {
  updateOrderStatus(input: { orderId: $orderId, status: $status }) {
    id
    status
    documents {
      id
      documentType
      state
      templateKey
      generatedAt
    }
  }
}`

// Order fetches an order with its items and documents.
func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	var data struct {
		Order *models.Order `json:"order"`
	}
	if err := c.Do(ctx, OpOrder, orderQuery, map[string]interface{}{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Order == nil {
		return nil, ErrOrderNotFound
	}
	return data.Order, nil
}

// UpdateOrderStatus sets the status of an order and returns the immediate snapshot.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	var data struct {
		UpdateOrderStatus *models.Order `json:"updateOrderStatus"`
	}
	vars := map[string]interface{}{"orderId": orderID, "status": status}
	if err := c.Do(ctx, OpUpdateOrderStatus, updateOrderStatusMutation, vars, &data); err != nil {
		return nil, err
	}
	if data.UpdateOrderStatus == nil {
		return nil, ErrOrderNotFound
	}
	return data.UpdateOrderStatus, nil
}
