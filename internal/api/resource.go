package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httpclient"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/pagination"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// Spec describes one backend collection.
type Spec struct {
	Name     string   // console name, e.g. "media-groups"
	ListPath string   // GET list endpoint
	BasePath string   // POST target; items live at BasePath/{id}
	ItemKey  string   // key of the item inside data; "result" is the fallback
	ListKey  string   // key of the page items inside data; "result" is the fallback
	Statuses []string // accepted status values; empty disables SetStatus
	Create   bool
	Update   bool
	Delete   bool
}

// Collection is the type-erased view of a Resource used by the console's
// generic routes.
type Collection interface {
	Spec() Spec
	ListAny(ctx context.Context, p ListParams) (any, error)
	GetAny(ctx context.Context, id string) (any, error)
	CreateJSON(ctx context.Context, body []byte) (any, error)
	UpdateJSON(ctx context.Context, id string, body []byte) (any, error)
	SetStatusAny(ctx context.Context, id, status string) (any, error)
	Delete(ctx context.Context, id string) error
}

// Resource is a typed CRUD client for one collection.
type Resource[T any] struct {
	spec    Spec
	sender  httpclient.Sender
	prepare func(*T) error
}

// NewResource binds spec to sender. prepare, when non-nil, runs on create
// and update payloads before validation.
func NewResource[T any](spec Spec, sender httpclient.Sender, prepare func(*T) error) *Resource[T] {
	if spec.ItemKey == "" {
		spec.ItemKey = "result"
	}
	if spec.ListKey == "" {
		spec.ListKey = "result"
	}
	return &Resource[T]{spec: spec, sender: sender, prepare: prepare}
}

func (r *Resource[T]) Spec() Spec { return r.spec }

func (r *Resource[T]) itemPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.InvalidInput(r.spec.Name + " id is required")
	}
	return r.spec.BasePath + "/" + url.PathEscape(id), nil
}

func (r *Resource[T]) decodeItem(data json.RawMessage, fallback T) (T, error) {
	if isNull(data) {
		return fallback, nil
	}
	var out T
	if err := json.Unmarshal(pickItem(data, r.spec.ItemKey, "result"), &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", r.spec.Name, err)
	}
	return out, nil
}

// List fetches one page. Range filters are validated before the request.
func (r *Resource[T]) List(ctx context.Context, p ListParams) (Page[T], error) {
	if err := p.Validate(); err != nil {
		return Page[T]{}, err
	}
	p.Params = p.Params.Normalize()

	req := httpclient.NewRequest(http.MethodGet, r.spec.ListPath).WithQuery(p.Query())
	data, err := call(ctx, r.sender, req)
	if err != nil {
		return Page[T]{}, err
	}

	items, total, err := decodeList[T](data, r.spec.ListKey)
	if err != nil {
		return Page[T]{}, fmt.Errorf("decode %s list: %w", r.spec.Name, err)
	}
	return Page[T]{Items: items, Pagination: pagination.NewMeta(p.Params, total)}, nil
}

func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	data, err := call(ctx, r.sender, httpclient.NewRequest(http.MethodGet, path))
	if err != nil {
		return zero, err
	}
	if isNull(data) {
		return zero, apperrors.NotFound(r.spec.Name, id)
	}
	return r.decodeItem(data, zero)
}

func (r *Resource[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	if !r.spec.Create {
		return zero, apperrors.InvalidInput(r.spec.Name + " cannot be created from the console")
	}
	if err := r.check(&v); err != nil {
		return zero, err
	}
	req, err := httpclient.NewRequest(http.MethodPost, r.spec.BasePath).WithJSON(v)
	if err != nil {
		return zero, err
	}
	data, err := call(ctx, r.sender, req)
	if err != nil {
		return zero, err
	}
	return r.decodeItem(data, v)
}

func (r *Resource[T]) Update(ctx context.Context, id string, v T) (T, error) {
	var zero T
	if !r.spec.Update {
		return zero, apperrors.InvalidInput(r.spec.Name + " cannot be edited from the console")
	}
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	if err := r.check(&v); err != nil {
		return zero, err
	}
	req, err := httpclient.NewRequest(http.MethodPut, path).WithJSON(v)
	if err != nil {
		return zero, err
	}
	data, err := call(ctx, r.sender, req)
	if err != nil {
		return zero, err
	}
	return r.decodeItem(data, v)
}

// SetStatus forwards status as-is. Setting the status an item already has is
// not an error.
func (r *Resource[T]) SetStatus(ctx context.Context, id, status string) (T, error) {
	var zero T
	if len(r.spec.Statuses) == 0 {
		return zero, apperrors.InvalidInput(r.spec.Name + " has no status")
	}
	if !slices.Contains(r.spec.Statuses, status) {
		return zero, apperrors.InvalidInput(fmt.Sprintf("status must be one of [%s]", strings.Join(r.spec.Statuses, " ")))
	}
	path, err := r.itemPath(id)
	if err != nil {
		return zero, err
	}
	req, err := httpclient.NewRequest(http.MethodPatch, path).WithJSON(map[string]string{"status": status})
	if err != nil {
		return zero, err
	}
	data, err := call(ctx, r.sender, req)
	if err != nil {
		return zero, err
	}
	return r.decodeItem(data, zero)
}

func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if !r.spec.Delete {
		return apperrors.InvalidInput(r.spec.Name + " cannot be deleted")
	}
	path, err := r.itemPath(id)
	if err != nil {
		return err
	}
	_, err = call(ctx, r.sender, httpclient.NewRequest(http.MethodDelete, path))
	return err
}

func (r *Resource[T]) check(v *T) error {
	if r.prepare != nil {
		if err := r.prepare(v); err != nil {
			return err
		}
	}
	return validator.Validate(v)
}

func (r *Resource[T]) ListAny(ctx context.Context, p ListParams) (any, error) {
	return r.List(ctx, p)
}

func (r *Resource[T]) GetAny(ctx context.Context, id string) (any, error) {
	return r.Get(ctx, id)
}

func (r *Resource[T]) CreateJSON(ctx context.Context, body []byte) (any, error) {
	v, err := decodePayload[T](body)
	if err != nil {
		return nil, err
	}
	return r.Create(ctx, v)
}

func (r *Resource[T]) UpdateJSON(ctx context.Context, id string, body []byte) (any, error) {
	v, err := decodePayload[T](body)
	if err != nil {
		return nil, err
	}
	return r.Update(ctx, id, v)
}

func (r *Resource[T]) SetStatusAny(ctx context.Context, id, status string) (any, error) {
	return r.SetStatus(ctx, id, status)
}

func decodePayload[T any](body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return v, nil
}
