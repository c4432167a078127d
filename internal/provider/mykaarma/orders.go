package mykaarma

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// OrderSummary is one hit from a closed-order search. Only the UUID is needed
// to fetch the full detail.
type OrderSummary struct {
	OrderUUID string `json:"orderUuid"`
}

type orderSearchRequest struct {
	DateFilterType string `json:"dateFilterType"`
	FromOrderDate  string `json:"fromOrderDate"`
	ToOrderDate    string `json:"toOrderDate"`
	OrderType      string `json:"orderType"`
	OrderStatus    string `json:"orderStatus"`
	Size           string `json:"size"`
}

type orderSearchResponse struct {
	Orders []OrderSummary `json:"orders"`
}

// OrderDetail is the remote representation of one repair order.
type OrderDetail struct {
	UUID  string `json:"uuid"`
	Order struct {
		Header struct {
			OrderNumber string `json:"orderNumber"`
			CloseDate   string `json:"closeDate"`
		} `json:"header"`
		Vehicle struct {
			VIN  string `json:"vin"`
			UUID string `json:"uuid"`
		} `json:"vehicle"`
		Customer struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Key       string `json:"key"`
			UUID      string `json:"uuid"`
		} `json:"customer"`
		Jobs []struct {
			LaborOpCode string `json:"laborOpCode"`
		} `json:"jobs"`
	} `json:"order"`
}

type orderDetailResponse struct {
	Order OrderDetail `json:"order"`
}

// Opcodes returns the labor codes of every job on the order, empty codes
// dropped, order preserved.
func (d *OrderDetail) Opcodes() []string {
	var codes []string
	for _, job := range d.Order.Jobs {
		if job.LaborOpCode != "" {
			codes = append(codes, job.LaborOpCode)
		}
	}
	return codes
}

// SearchClosedOrders lists repair orders closed on the given date for one
// department.
func (c *Client) SearchClosedOrders(ctx context.Context, departmentUUID string, closeDate time.Time, pageSize int) ([]OrderSummary, error) {
	day := closeDate.Format("2006-01-02")
	body := orderSearchRequest{
		DateFilterType: "CLOSE_DATE",
		FromOrderDate:  day,
		ToOrderDate:    day,
		OrderType:      "RO",
		OrderStatus:    "C",
		Size:           strconv.Itoa(pageSize),
	}

	var out orderSearchResponse
	path := fmt.Sprintf("/order/v2/department/%s/order/specificSearch", departmentUUID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, &out, "order_search"); err != nil {
		return nil, err
	}
	c.logger.Debug("Closed order search complete", map[string]interface{}{
		"department": departmentUUID,
		"close_date": day,
		"count":      len(out.Orders),
	})
	return out.Orders, nil
}

// FetchOrderDetail retrieves the full repair order for one search hit.
func (c *Client) FetchOrderDetail(ctx context.Context, departmentUUID, orderUUID string) (*OrderDetail, error) {
	var out orderDetailResponse
	path := fmt.Sprintf("/order/v2/department/%s/global_order/%s", departmentUUID, orderUUID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "order_detail"); err != nil {
		return nil, err
	}
	return &out.Order, nil
}
