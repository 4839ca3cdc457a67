// Package api is the typed back-office client for the jewellery backend's
// REST API. Every call goes through the sender it was built with, normally
// the operator's private client.
package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/content"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/slug"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// Status vocabularies accepted by the backend.
var (
	activeStatuses  = []string{"active", "inactive"}
	archiveStatuses = []string{"archived", "unarchived"}
	userStatuses    = []string{"active", "blocked", "unblocked"}
)

// Specs is the collection table of the back office.
var Specs = []Spec{
	{Name: "products", ListPath: "/products/all", BasePath: "/products", Statuses: activeStatuses, Create: true, Update: true},
	{Name: "categories", ListPath: "/categories/all", BasePath: "/categories", ItemKey: "category", Statuses: activeStatuses, Create: true, Update: true},
	{Name: "variations", ListPath: "/products/variations", BasePath: "/products/variations", Create: true, Update: true, Delete: true},
	{Name: "options", ListPath: "/products/options", BasePath: "/products/options", Create: true, Update: true, Delete: true},
	{Name: "orders", ListPath: "/orders/all", BasePath: "/orders", Update: true},
	{Name: "users", ListPath: "/users", BasePath: "/users", ItemKey: "user", ListKey: "users", Statuses: userStatuses, Update: true},
	{Name: "banners", ListPath: "/banners", BasePath: "/banners", ItemKey: "banner", Create: true, Update: true, Delete: true},
	{Name: "discounts", ListPath: "/discounts", BasePath: "/discounts", Create: true, Update: true, Delete: true},
	{Name: "blogs", ListPath: "/blogs/all", BasePath: "/blogs", ItemKey: "blog", Statuses: archiveStatuses, Create: true, Update: true},
	{Name: "media", ListPath: "/media/all", BasePath: "/media", ItemKey: "media", Statuses: archiveStatuses, Create: true, Update: true},
	{Name: "media-groups", ListPath: "/media-groups/admin/all", BasePath: "/media-groups", Statuses: archiveStatuses, Create: true, Update: true},
	{Name: "shipping-costs", ListPath: "/logistics/ship-costs/all", BasePath: "/logistics/ship-costs", Create: true, Update: true},
}

// SpecByName looks up a collection spec.
func SpecByName(name string) (Spec, bool) {
	for _, s := range Specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Client groups the typed resources over one sender.
type Client struct {
	sender httpclient.Sender

	Products      *Resource[Product]
	Categories    *Resource[Category]
	Variations    *Resource[Variation]
	Options       *Resource[Option]
	Orders        *Resource[Order]
	Users         *Resource[User]
	Banners       *Resource[Banner]
	Discounts     *Resource[Discount]
	Blogs         *Resource[Blog]
	Media         *Resource[Media]
	MediaGroups   *Resource[MediaGroup]
	ShippingCosts *Resource[ShippingCost]

	collections map[string]Collection
}

// New builds a Client. sanitizer cleans blog bodies and may be nil only in
// tests that never create blogs.
func New(sender httpclient.Sender, sanitizer *content.Sanitizer) *Client {
	spec := func(name string) Spec {
		s, _ := SpecByName(name)
		return s
	}

	c := &Client{sender: sender}
	c.Products = NewResource(spec("products"), sender, func(p *Product) error {
		p.Slug = slug.OrGenerate(p.Slug, p.Name)
		return nil
	})
	c.Categories = NewResource(spec("categories"), sender, func(cat *Category) error {
		cat.Slug = slug.OrGenerate(cat.Slug, cat.Name)
		return nil
	})
	c.Variations = NewResource[Variation](spec("variations"), sender, nil)
	c.Options = NewResource[Option](spec("options"), sender, nil)
	c.Orders = NewResource[Order](spec("orders"), sender, nil)
	c.Users = NewResource[User](spec("users"), sender, nil)
	c.Banners = NewResource[Banner](spec("banners"), sender, nil)
	c.Discounts = NewResource[Discount](spec("discounts"), sender, nil)
	c.Blogs = NewResource(spec("blogs"), sender, func(b *Blog) error {
		if sanitizer != nil {
			b.Title = sanitizer.Text(b.Title)
			b.Content = sanitizer.HTML(b.Content)
		}
		b.Slug = slug.OrGenerate(b.Slug, b.Title)
		return nil
	})
	c.Media = NewResource[Media](spec("media"), sender, nil)
	c.MediaGroups = NewResource[MediaGroup](spec("media-groups"), sender, nil)
	c.ShippingCosts = NewResource[ShippingCost](spec("shipping-costs"), sender, nil)

	c.collections = map[string]Collection{
		"products":       c.Products,
		"categories":     c.Categories,
		"variations":     c.Variations,
		"options":        c.Options,
		"orders":         c.Orders,
		"users":          userCollection{Resource: c.Users, client: c},
		"banners":        c.Banners,
		"discounts":      c.Discounts,
		"blogs":          c.Blogs,
		"media":          c.Media,
		"media-groups":   c.MediaGroups,
		"shipping-costs": c.ShippingCosts,
	}
	return c
}

// Collection returns the type-erased resource named name.
func (c *Client) Collection(name string) (Collection, bool) {
	col, ok := c.collections[name]
	return col, ok
}

// CollectionNames lists the collection names in sorted order.
func (c *Client) CollectionNames() []string {
	names := make([]string, 0, len(c.collections))
	for n := range c.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// UserDetail fetches a user with the address and order history the backend
// returns alongside it.
func (c *Client) UserDetail(ctx context.Context, id string) (UserDetail, error) {
	var d UserDetail
	path, err := c.Users.itemPath(id)
	if err != nil {
		return d, err
	}
	data, err := call(ctx, c.sender, httpclient.NewRequest(http.MethodGet, path))
	if err != nil {
		return d, err
	}
	if isNull(data) {
		return d, apperrors.NotFound("users", id)
	}
	if err := jsonUnmarshal(data, &d, "user detail"); err != nil {
		return d, err
	}
	if d.User.ID == "" {
		return d, apperrors.NotFound("users", id)
	}
	if d.OrderHistory == nil {
		d.OrderHistory = []Order{}
	}
	return d, nil
}

// userCollection serves the user detail on the generic get route.
type userCollection struct {
	*Resource[User]
	client *Client
}

func (u userCollection) GetAny(ctx context.Context, id string) (any, error) {
	return u.client.UserDetail(ctx, id)
}

// Dashboard fetches the landing-page summary.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	data, err := call(ctx, c.sender, httpclient.NewRequest(http.MethodGet, "/dashboard"))
	if err != nil || isNull(data) {
		return d, err
	}
	if err := jsonUnmarshal(data, &d, "dashboard"); err != nil {
		return d, err
	}
	return d, nil
}

// SiteSettings fetches the storefront settings singleton.
func (c *Client) SiteSettings(ctx context.Context) (SiteSettings, error) {
	var s SiteSettings
	data, err := call(ctx, c.sender, httpclient.NewRequest(http.MethodGet, "/settings/site"))
	if err != nil || isNull(data) {
		return s, err
	}
	return s, jsonUnmarshal(pickItem(data, "result"), &s, "site settings")
}

// UpdateSiteSettings validates and replaces the settings singleton.
func (c *Client) UpdateSiteSettings(ctx context.Context, s SiteSettings) (SiteSettings, error) {
	if err := validator.Validate(s); err != nil {
		return SiteSettings{}, err
	}
	req, err := httpclient.NewRequest(http.MethodPut, "/settings/site").WithJSON(s)
	if err != nil {
		return SiteSettings{}, err
	}
	data, err := call(ctx, c.sender, req)
	if err != nil {
		return SiteSettings{}, err
	}
	if isNull(data) {
		return s, nil
	}
	var out SiteSettings
	return out, jsonUnmarshal(pickItem(data, "result"), &out, "site settings")
}

// shippingBulk is the body of the bulk shipping update.
type shippingBulk struct {
	Shipping []ShippingCost `json:"shipping" validate:"required,min=1,dive"`
}

// ReplaceShippingCosts updates every delivery type in one call.
func (c *Client) ReplaceShippingCosts(ctx context.Context, costs []ShippingCost) ([]ShippingCost, error) {
	body := shippingBulk{Shipping: costs}
	if err := validator.Validate(body); err != nil {
		return nil, err
	}
	req, err := httpclient.NewRequest(http.MethodPut, "/logistics/ship-costs/all").WithJSON(body)
	if err != nil {
		return nil, err
	}
	data, err := call(ctx, c.sender, req)
	if err != nil {
		return nil, err
	}
	if isNull(data) {
		return costs, nil
	}
	items, _, err := decodeList[ShippingCost](data, "shipping")
	return items, err
}
