package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stayd/pkg/model"
)

// BookingsClient is the HTTP client for the bookings service, used by the
// sweep job and by other services that must not reach into the bookings
// collection directly.
type BookingsClient struct {
	httpClient *HttpClient
}

func NewBookingsClient(baseURL, token string) *BookingsClient {
	return &BookingsClient{
		httpClient: NewHttpClient(baseURL).WithToken(token),
	}
}

func (c *BookingsClient) Request(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

func (c *BookingsClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingsClient) Confirm(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/confirm", nil)
}

func (c *BookingsClient) Cancel(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", nil)
}

func (c *BookingsClient) Complete(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings/id/"+url.PathEscape(id)+"/complete", nil)
}

// Search lists bookings for a room, optionally filtered by status and an
// end-date upper bound (exclusive), both in YYYY-MM-DD form.
func (c *BookingsClient) Search(roomID string, status string, endBefore string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("room_id", roomID)
	if status != "" {
		q.Set("status", status)
	}
	if endBefore != "" {
		q.Set("end_before", endBefore)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET("/api/v1/bookings/search?" + q.Encode())
}

// SearchEndedConfirmed lists confirmed bookings whose end date has passed,
// across all rooms. The sweep job walks these and completes them.
func (c *BookingsClient) SearchEndedConfirmed(endBefore string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("status", string(model.BookingConfirmed))
	q.Set("end_before", endBefore)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	return c.httpClient.GET("/api/v1/bookings/search?" + q.Encode())
}

func (c *BookingsClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%+v\n%s", resp.ToString(), err)
	}

	return &booking, nil
}

func (c *BookingsClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return bookings, metadata, nil
}
