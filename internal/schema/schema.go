package schema

import "markethub/marketplace/internal/model"

type Kind string

const (
	Users     Kind = "users"
	Services  Kind = "services"
	Products  Kind = "products"
	Bookings  Kind = "bookings"
	Purchases Kind = "purchases"
	Reviews   Kind = "reviews"
)

type Type int

const (
	String Type = iota
	Double
	Date
	Int32
	Enum
)

func (t Type) String() string {
	switch t {
	case String:
		return "string"
	case Double:
		return "double"
	case Date:
		return "date"
	case Int32:
		return "int"
	case Enum:
		return "enum"
	}
	return "unknown"
}

// Field declares one property of a collection. Rules holds extra
// go-playground validator tags checked after the type.
type Field struct {
	Name     string
	Type     Type
	Required bool
	Enum     []string
	Rules    string
}

// Schema is an ordered field list; validation reports the first failing
// field in this order.
type Schema struct {
	Kind   Kind
	Fields []Field
}

func userTypeNames() []string {
	out := make([]string, 0, len(model.UserTypes))
	for _, t := range model.UserTypes {
		out = append(out, string(t))
	}
	return out
}

// Default returns the collection schemas of the marketplace.
func Default() []Schema {
	return []Schema{
		{Kind: Users, Fields: []Field{
			{Name: "name", Type: String, Required: true},
			{Name: "email", Type: String, Required: true, Rules: "required"},
			{Name: "password_hash", Type: String, Required: true},
			{Name: "user_type", Type: Enum, Required: true, Enum: userTypeNames()},
			{Name: "created_at", Type: Date, Required: true},
		}},
		{Kind: Services, Fields: []Field{
			{Name: "provider_id", Type: String, Required: true},
			{Name: "title", Type: String, Required: true},
			{Name: "description", Type: String, Required: true},
			{Name: "category", Type: String, Required: true},
			{Name: "price", Type: Double, Required: true, Rules: "gte=0"},
			{Name: "location", Type: String, Required: true},
			{Name: "icon", Type: String},
			{Name: "rating", Type: Double},
			{Name: "created_at", Type: Date, Required: true},
		}},
		{Kind: Products, Fields: []Field{
			{Name: "seller_id", Type: String, Required: true},
			{Name: "title", Type: String, Required: true},
			{Name: "description", Type: String, Required: true},
			{Name: "category", Type: String, Required: true},
			{Name: "price", Type: Double, Required: true, Rules: "gte=0"},
			{Name: "file_type", Type: String, Required: true},
			{Name: "file_url", Type: String, Required: true, Rules: "required"},
			{Name: "icon", Type: String},
			{Name: "rating", Type: Double},
			{Name: "downloads", Type: Int32, Rules: "gte=0"},
			{Name: "created_at", Type: Date, Required: true},
		}},
		{Kind: Bookings, Fields: []Field{
			{Name: "customer_id", Type: String, Required: true},
			{Name: "service_id", Type: String, Required: true, Rules: "required"},
			{Name: "booking_date", Type: String, Required: true, Rules: "datetime=2006-01-02"},
			{Name: "booking_time", Type: String, Required: true, Rules: "datetime=15:04"},
			{Name: "notes", Type: String, Required: true},
			{Name: "status", Type: String},
			{Name: "created_at", Type: Date},
		}},
		{Kind: Purchases, Fields: []Field{
			{Name: "customer_id", Type: String, Required: true},
			{Name: "product_id", Type: String, Required: true, Rules: "required"},
			{Name: "payment_method", Type: String, Required: true, Rules: "required"},
			{Name: "amount", Type: Double},
			{Name: "status", Type: String},
			{Name: "download_url", Type: String},
			{Name: "created_at", Type: Date},
		}},
		{Kind: Reviews, Fields: []Field{
			{Name: "item_id", Type: String, Required: true, Rules: "required"},
			{Name: "item_type", Type: Enum, Required: true, Enum: []string{string(model.ItemTypeService), string(model.ItemTypeProduct)}},
			{Name: "user_id", Type: String, Required: true},
			{Name: "rating", Type: Int32, Required: true, Rules: "min=1,max=5"},
			{Name: "comment", Type: String, Required: true},
			{Name: "created_at", Type: Date},
		}},
	}
}
