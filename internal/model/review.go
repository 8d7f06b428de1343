package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type ItemType string

const (
	ItemTypeService ItemType = "service"
	ItemTypeProduct ItemType = "product"
)

// ReviewTarget is either a service or a product. The zero value targets
// nothing and is rejected wherever a target is required.
type ReviewTarget struct {
	kind ItemType
	id   string
}

func ServiceTarget(id string) ReviewTarget { return ReviewTarget{kind: ItemTypeService, id: id} }
func ProductTarget(id string) ReviewTarget { return ReviewTarget{kind: ItemTypeProduct, id: id} }

// ParseReviewTarget builds a target from the wire pair (item_type, item_id).
func ParseReviewTarget(itemType, itemID string) (ReviewTarget, error) {
	if itemID == "" {
		return ReviewTarget{}, fmt.Errorf("item_id is empty")
	}
	switch ItemType(itemType) {
	case ItemTypeService:
		return ServiceTarget(itemID), nil
	case ItemTypeProduct:
		return ProductTarget(itemID), nil
	}
	return ReviewTarget{}, fmt.Errorf("unknown item_type %q", itemType)
}

func (t ReviewTarget) Type() ItemType { return t.kind }
func (t ReviewTarget) ID() string     { return t.id }
func (t ReviewTarget) IsZero() bool   { return t.kind == "" }

func (t ReviewTarget) String() string {
	return string(t.kind) + "/" + t.id
}

type Review struct {
	ID        string
	Target    ReviewTarget
	UserID    string
	Rating    int32
	Comment   string
	CreatedAt time.Time
}

type reviewJSON struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	ItemType  ItemType  `json:"item_type"`
	UserID    string    `json:"user_id"`
	Rating    int32     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Review) MarshalJSON() ([]byte, error) {
	return json.Marshal(reviewJSON{
		ID:        r.ID,
		ItemID:    r.Target.ID(),
		ItemType:  r.Target.Type(),
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	})
}

func (r *Review) UnmarshalJSON(data []byte) error {
	var raw reviewJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	target, err := ParseReviewTarget(string(raw.ItemType), raw.ItemID)
	if err != nil {
		return err
	}
	*r = Review{
		ID:        raw.ID,
		Target:    target,
		UserID:    raw.UserID,
		Rating:    raw.Rating,
		Comment:   raw.Comment,
		CreatedAt: raw.CreatedAt,
	}
	return nil
}
