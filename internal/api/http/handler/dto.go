package handler

import (
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/sickfits-server/internal/model"
)

type userResponse struct {
	ID          uuid.UUID           `json:"id"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Permissions model.PermissionSet `json:"permissions"`
}

func toUser(u model.User) userResponse {
	perms := u.Permissions
	if perms == nil {
		perms = model.PermissionSet{}
	}
	return userResponse{ID: u.ID, Email: u.Email, Name: u.Name, Permissions: perms}
}

type itemResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	LargeImage  string    `json:"largeImage"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toItem(i model.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		OwnerID:     i.OwnerID,
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price,
		Image:       i.Image,
		LargeImage:  i.LargeImage,
		CreatedAt:   i.CreatedAt,
	}
}

type itemPageResponse struct {
	Items   []itemResponse `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

type cartItemResponse struct {
	ID       uuid.UUID     `json:"id"`
	ItemID   uuid.UUID     `json:"itemId"`
	Quantity int           `json:"quantity"`
	Item     *itemResponse `json:"item,omitempty"`
}

func toCartItem(c model.CartItem) cartItemResponse {
	return cartItemResponse{ID: c.ID, ItemID: c.ItemID, Quantity: c.Quantity}
}

func toCartLine(l model.CartLine) cartItemResponse {
	resp := toCartItem(l.CartItem)
	if l.Item != nil {
		item := toItem(*l.Item)
		resp.Item = &item
	}
	return resp
}

type orderLineResponse struct {
	ItemID      uuid.UUID `json:"itemId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Image       string    `json:"image"`
	LargeImage  string    `json:"largeImage"`
	Quantity    int       `json:"quantity"`
}

type orderResponse struct {
	ID        uuid.UUID           `json:"id"`
	Total     int64               `json:"total"`
	ChargeID  string              `json:"charge"`
	CreatedAt time.Time           `json:"createdAt"`
	Items     []orderLineResponse `json:"items"`
}

func toOrder(o model.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse(l))
	}
	return orderResponse{
		ID:        o.ID,
		Total:     o.Total,
		ChargeID:  o.ChargeID,
		CreatedAt: o.CreatedAt,
		Items:     lines,
	}
}
