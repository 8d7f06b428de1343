package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validService() Document {
	return Document{
		"provider_id": "p1",
		"title":       "Logo Design",
		"description": "Vector logos",
		"category":    "design",
		"price":       50.0,
		"location":    "Remote",
		"created_at":  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func requireViolation(t *testing.T, err error) *Violation {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrViolation))
	var v *Violation
	require.True(t, errors.As(err, &v))
	return v
}

func TestValidate_ReturnsDocumentUnchanged(t *testing.T) {
	doc := validService()
	doc["icon"] = "🎨"

	out, err := New().Validate(Services, doc)

	require.NoError(t, err)
	assert.Equal(t, doc, out)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	required := []string{"provider_id", "title", "description", "category", "price", "location", "created_at"}
	for _, field := range required {
		t.Run(field, func(t *testing.T) {
			doc := validService()
			delete(doc, field)

			_, err := New().Validate(Services, doc)

			v := requireViolation(t, err)
			assert.Equal(t, Services, v.Kind)
			assert.Equal(t, field, v.Field)
			assert.Equal(t, ReasonMissing, v.Reason)
		})
	}
}

func TestValidate_NilCountsAsMissing(t *testing.T) {
	doc := validService()
	doc["title"] = nil

	_, err := New().Validate(Services, doc)

	v := requireViolation(t, err)
	assert.Equal(t, ReasonMissing, v.Reason)
}

func TestValidate_TypeMismatch(t *testing.T) {
	doc := validService()
	doc["price"] = "fifty"

	_, err := New().Validate(Services, doc)

	v := requireViolation(t, err)
	assert.Equal(t, "price", v.Field)
	assert.Equal(t, ReasonType, v.Reason)
	assert.Contains(t, v.Error(), "services.price")
}

func TestValidate_OptionalFieldIsTypeChecked(t *testing.T) {
	doc := validService()
	doc["rating"] = "great"

	_, err := New().Validate(Services, doc)

	v := requireViolation(t, err)
	assert.Equal(t, "rating", v.Field)
	assert.Equal(t, ReasonType, v.Reason)
}

func TestValidate_DateMustBeTime(t *testing.T) {
	doc := validService()
	doc["created_at"] = "2024-01-02"

	_, err := New().Validate(Services, doc)

	v := requireViolation(t, err)
	assert.Equal(t, "created_at", v.Field)
	assert.Equal(t, ReasonType, v.Reason)
}

func TestValidate_EnumIsDistinctReason(t *testing.T) {
	doc := Document{
		"name":          "Ann",
		"email":         "ann@example.com",
		"password_hash": "x",
		"user_type":     "admin",
		"created_at":    time.Now(),
	}

	_, err := New().Validate(Users, doc)

	v := requireViolation(t, err)
	assert.Equal(t, "user_type", v.Field)
	assert.Equal(t, ReasonEnum, v.Reason)

	doc["user_type"] = "seller"
	_, err = New().Validate(Users, doc)
	assert.NoError(t, err)
}

func TestValidate_Int32Bounds(t *testing.T) {
	base := func() Document {
		return Document{
			"seller_id":   "s1",
			"title":       "CV template",
			"description": "One page",
			"category":    "resume",
			"price":       9.5,
			"file_type":   "pdf",
			"file_url":    "https://files.example.com/cv.pdf",
			"created_at":  time.Now(),
		}
	}

	doc := base()
	doc["downloads"] = 3.0
	_, err := New().Validate(Products, doc)
	assert.NoError(t, err)

	doc = base()
	doc["downloads"] = 1.5
	_, err = New().Validate(Products, doc)
	assert.Equal(t, ReasonType, requireViolation(t, err).Reason)

	doc = base()
	doc["downloads"] = float64(1 << 40)
	_, err = New().Validate(Products, doc)
	assert.Equal(t, ReasonType, requireViolation(t, err).Reason)
}

func TestValidate_Rules(t *testing.T) {
	booking := Document{
		"customer_id":  "c1",
		"service_id":   "s1",
		"booking_date": "2024-05-01",
		"booking_time": "14:30",
		"notes":        "",
	}
	_, err := New().Validate(Bookings, booking)
	require.NoError(t, err)

	booking["booking_time"] = "2pm"
	_, err = New().Validate(Bookings, booking)
	v := requireViolation(t, err)
	assert.Equal(t, "booking_time", v.Field)
	assert.Equal(t, ReasonRule, v.Reason)

	review := Document{
		"item_id":   "x",
		"item_type": "product",
		"user_id":   "u",
		"rating":    6.0,
		"comment":   "too good",
	}
	_, err = New().Validate(Reviews, review)
	assert.Equal(t, ReasonRule, requireViolation(t, err).Reason)
}

func TestValidate_FirstViolationInDeclaredOrder(t *testing.T) {
	_, err := New().Validate(Services, Document{})

	v := requireViolation(t, err)
	assert.Equal(t, "provider_id", v.Field)
}

func TestValidateField(t *testing.T) {
	val := New()
	assert.NoError(t, val.ValidateField(Purchases, Document{"product_id": "p"}, "product_id"))

	err := val.ValidateField(Purchases, Document{}, "product_id")
	assert.Equal(t, ReasonMissing, requireViolation(t, err).Reason)

	assert.Error(t, val.ValidateField(Purchases, Document{}, "nope"))
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := New().Validate(Kind("widgets"), Document{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrViolation))
}
