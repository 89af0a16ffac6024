package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EduPay/app/repository"
)

type record[T any] interface {
	*T
	repository.Entity
}

// embedder attaches related records named in rels to row.
type embedder[T any] func(ctx context.Context, rc *relationCache, row T, rels []string) (interface{}, error)

// resource serves the CRUD routes of one ledger table.
type resource[T any, PT record[T]] struct {
	name  string
	store repository.Store[T]
	embed embedder[T]
	rc    func() *relationCache
}

// protectedFields cannot be changed through PATCH.
var protectedFields = map[string]bool{
	"id":         true,
	"version":    true,
	"created_at": true,
	"updated_at": true,
}

func (r *resource[T, PT]) install(router fiber.Router) {
	g := router.Group("/" + r.name)
	g.Get("/", r.list)
	g.Post("/", r.create)
	g.Get("/:id", r.get)
	g.Patch("/:id", r.patch)
	g.Put("/:id", r.patch)
	g.Delete("/:id", r.remove)
}

func (r *resource[T, PT]) list(c *fiber.Ctx) error {
	filter := repository.Filter{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if strings.HasPrefix(key, "_") {
			return
		}
		filter[key] = string(v)
	})
	rels, err := relations(c)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := r.store.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	if r.embed == nil || len(rels) == 0 {
		return c.JSON(rows)
	}

	rc := r.rc()
	out := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		item, err := r.embed(c.UserContext(), rc, row, rels)
		if err != nil {
			return respondError(c, err)
		}
		out = append(out, item)
	}
	return c.JSON(out)
}

func (r *resource[T, PT]) get(c *fiber.Ctx) error {
	rels, err := relations(c)
	if err != nil {
		return respondError(c, err)
	}
	rec, err := r.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	setETag(c, PT(rec).GetVersion())
	if r.embed == nil || len(rels) == 0 {
		return c.JSON(rec)
	}
	item, err := r.embed(c.UserContext(), r.rc(), *rec, rels)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (r *resource[T, PT]) create(c *fiber.Ctx) error {
	rec := new(T)
	if err := c.BodyParser(rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": fmt.Sprintf("invalid %s payload: %v", r.name, err),
		})
	}
	if err := r.store.Create(c.UserContext(), rec); err != nil {
		return respondError(c, err)
	}
	setETag(c, PT(rec).GetVersion())
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// patch merges the body onto the stored record. An If-Match header turns the
// write into a compare-and-swap on the record version.
func (r *resource[T, PT]) patch(c *fiber.Ctx) error {
	expected, err := ifMatch(c)
	if err != nil {
		return respondError(c, err)
	}
	current, err := r.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if expected == 0 {
		expected = PT(current).GetVersion()
	}

	merged, err := merge(current, c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": fmt.Sprintf("invalid %s patch: %v", r.name, err),
		})
	}
	PT(merged).SetID(PT(current).GetID())

	if err := r.store.Update(c.UserContext(), merged, expected); err != nil {
		return respondError(c, err)
	}
	setETag(c, PT(merged).GetVersion())
	return c.JSON(merged)
}

func (r *resource[T, PT]) remove(c *fiber.Ctx) error {
	rec, err := r.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if err := r.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(rec)
}

// merge overlays the top-level fields of patch onto current.
func merge[T any](current *T, patch []byte) (*T, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, err
	}
	for k, v := range changes {
		if protectedFields[k] {
			continue
		}
		fields[k] = v
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ifMatch reads the expected version from the If-Match header, 0 when absent.
func ifMatch(c *fiber.Ctx) (int64, error) {
	raw := strings.Trim(strings.TrimSpace(c.Get(fiber.HeaderIfMatch)), `"`)
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	if raw == "" || raw == "*" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: If-Match must be a record version", errBadRequest)
	}
	return v, nil
}

func setETag(c *fiber.Ctx, version int64) {
	c.Set(fiber.HeaderETag, strconv.Quote(strconv.FormatInt(version, 10)))
}
