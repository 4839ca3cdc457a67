package api

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Image is an uploaded asset as returned by /uploads.
type Image struct {
	Name     string `json:"name,omitempty"`
	Key      string `json:"key,omitempty"`
	Location string `json:"location" validate:"omitempty,url"`
}

// StringList accepts either a JSON array of strings or a single
// comma-separated string; the blog and media forms send the latter.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out StringList
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*l = out
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	*l = arr
	return nil
}

// Ref is a reference to another document. The backend returns either the
// bare ID or the populated document; a Ref always marshals back to the ID.
type Ref struct {
	ID    string
	Label string
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var doc struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	r.ID = doc.ID
	r.Label = doc.Name
	if r.Label == "" {
		r.Label = doc.Value
	}
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

// Product is a catalogue item with its sellable variants.
type Product struct {
	ID           string        `json:"_id,omitempty"`
	Name         string        `json:"name" validate:"required,max=200"`
	Slug         string        `json:"slug,omitempty"`
	Brand        string        `json:"brand,omitempty" validate:"max=100"`
	Description  string        `json:"description,omitempty"`
	HSN          string        `json:"hsn,omitempty" validate:"omitempty,alphanum,max=8"`
	Price        float64       `json:"price" validate:"gte=0"`
	Tax          float64       `json:"tax" validate:"gte=0,lte=100"`
	Thumbnail    *Image        `json:"thumbnail,omitempty"`
	Images       []Image       `json:"images,omitempty" validate:"dive"`
	IsFeatured   bool          `json:"isFeatured"`
	Tags         StringList    `json:"tags,omitempty"`
	Features     StringList    `json:"features,omitempty"`
	CareTips     StringList    `json:"careTips,omitempty"`
	VariantItems []VariantItem `json:"variantItems,omitempty" validate:"dive"`
	IsArchived   bool          `json:"isArchived"`
	Status       string        `json:"status,omitempty"`
	CreatedAt    string        `json:"createdAt,omitempty"`
}

// VariantItem is one SKU of a product.
type VariantItem struct {
	ItemID     string        `json:"itemId,omitempty"`
	SKU        string        `json:"sku" validate:"required,max=64"`
	Stock      int           `json:"stock" validate:"gte=0"`
	ExtraPrice float64       `json:"extraPrice" validate:"gte=0"`
	Specs      []VariantSpec `json:"specs,omitempty"`
}

// VariantSpec pins a variation (e.g. "Metal") to one of its options.
type VariantSpec struct {
	SpecID      string `json:"specId,omitempty"`
	VariationID string `json:"variationId"`
	OptionID    string `json:"optionId"`
}

// Category groups products; Parent is empty for top-level categories.
type Category struct {
	ID          string     `json:"_id,omitempty"`
	Name        string     `json:"name" validate:"required,max=120"`
	Parent      *Ref       `json:"parent"`
	Description string     `json:"description,omitempty"`
	Slug        string     `json:"slug,omitempty"`
	Image       *Image     `json:"image,omitempty"`
	ProductIDs  StringList `json:"productIds,omitempty"`
	IsArchived  bool       `json:"isArchived"`
	Status      string     `json:"status,omitempty"`
}

type Variation struct {
	ID      string `json:"_id,omitempty"`
	Name    string `json:"name" validate:"required,max=80"`
	Options []Ref  `json:"options"`
}

type Option struct {
	ID    string `json:"_id,omitempty"`
	Value string `json:"value" validate:"required,max=80"`
}

// Order is a storefront order. The console only updates status fields.
type Order struct {
	ID               string      `json:"_id,omitempty"`
	MerchantOrderID  string      `json:"merchantOrderId,omitempty"`
	Customer         Customer    `json:"customer"`
	PayMode          string      `json:"payMode,omitempty"`
	PayStatus        string      `json:"payStatus,omitempty"`
	Status           string      `json:"status,omitempty"`
	DeliveryType     string      `json:"deliveryType,omitempty"`
	OrderDate        string      `json:"orderDate,omitempty"`
	ExpectedDelivery string      `json:"expectedDelivery,omitempty"`
	Amount           float64     `json:"amount" validate:"gte=0"`
	Items            []OrderItem `json:"items,omitempty"`
	TrackingID       string      `json:"trackingId,omitempty"`
}

type Customer struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price,omitempty"`
}

// User is a storefront customer account.
type User struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Mobile    string `json:"mobile,omitempty"`
	Role      string `json:"role,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Address is a customer's saved delivery address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Country string `json:"country,omitempty"`
}

// UserDetail is a user together with their address and past orders.
type UserDetail struct {
	User         User     `json:"user"`
	Address      *Address `json:"address"`
	OrderHistory []Order  `json:"orderHistory"`
}

// Banner is a homepage hero or panel image.
type Banner struct {
	ID         string `json:"_id,omitempty"`
	Title      string `json:"title" validate:"required,max=120"`
	Subtitle   string `json:"subtitle,omitempty"`
	Panel      string `json:"panel,omitempty"`
	Index      int    `json:"index" validate:"gte=0"`
	ScreenType string `json:"screenType,omitempty" validate:"omitempty,oneof=desktop mobile tablet"`
	Image      *Image `json:"image,omitempty"`
}

type Discount struct {
	ID                   string     `json:"_id,omitempty"`
	Code                 string     `json:"code" validate:"required,alphanum,max=32"`
	Description          string     `json:"description,omitempty"`
	DiscountType         string     `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue        float64    `json:"discountValue" validate:"gt=0"`
	MinOrderAmount       float64    `json:"minOrderAmount" validate:"gte=0"`
	MaxDiscountAmount    float64    `json:"maxDiscountAmount" validate:"gte=0"`
	StartDate            string     `json:"startDate,omitempty"`
	EndDate              string     `json:"endDate,omitempty"`
	IsActive             bool       `json:"isActive"`
	AppliesAutomatically bool       `json:"appliesAutomatically"`
	ApplicableProducts   StringList `json:"applicableProducts,omitempty"`
	ApplicableCategories StringList `json:"applicableCategories,omitempty"`
}

// Blog is a journal post. Content is HTML and is sanitized before submit.
type Blog struct {
	ID          string     `json:"_id,omitempty"`
	Title       string     `json:"title" validate:"required,max=200"`
	Author      string     `json:"author,omitempty" validate:"max=100"`
	Slug        string     `json:"slug,omitempty"`
	Tags        StringList `json:"tags,omitempty"`
	Image       *Image     `json:"image,omitempty"`
	Content     string     `json:"content" validate:"required"`
	IsArchived  bool       `json:"isArchived"`
	PublishedAt string     `json:"publishedAt,omitempty"`
}

// Media is a gallery entry: an uploaded file or a YouTube link.
type Media struct {
	ID          string     `json:"_id,omitempty"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty"`
	FileType    string     `json:"filetype" validate:"required,oneof=image video"`
	File        *Image     `json:"file,omitempty"`
	YoutubeLink string     `json:"youtubeLink,omitempty" validate:"omitempty,url"`
	Tags        StringList `json:"tags,omitempty"`
	IsArchived  bool       `json:"isArchived"`
}

type MediaGroup struct {
	ID         string `json:"_id,omitempty"`
	Title      string `json:"title" validate:"required,max=200"`
	Media      []Ref  `json:"media"`
	IsArchived bool   `json:"isArchived"`
}

// ShippingCost is the price and lead time of one delivery type.
type ShippingCost struct {
	ID           string  `json:"_id,omitempty"`
	DeliveryType string  `json:"deliveryType" validate:"required,max=60"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	Duration     string  `json:"duration,omitempty"`
}

// SiteSettings is the storefront-wide configuration singleton.
type SiteSettings struct {
	StoreName    string  `json:"storeName" validate:"required,max=120"`
	Email        string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string  `json:"phone,omitempty" validate:"max=20"`
	CurrencyCode string  `json:"currencyCode,omitempty" validate:"omitempty,len=3,uppercase"`
	Address      string  `json:"address,omitempty"`
	TaxRate      float64 `json:"taxRate" validate:"gte=0,lte=100"`
}

// Dashboard is the landing-page summary. Chart series are passed through
// untouched.
type Dashboard struct {
	Metrics         json.RawMessage `json:"metrics_data,omitempty"`
	RecentOrders    []Order         `json:"recent_orders,omitempty"`
	SaleAnalytics   json.RawMessage `json:"sale_analytics,omitempty"`
	BestProducts    json.RawMessage `json:"best_prods,omitempty"`
	SalesByCategory json.RawMessage `json:"sales_by_category,omitempty"`
}
