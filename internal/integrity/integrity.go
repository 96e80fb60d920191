// Package integrity checks migrated cart and order items against the
// catalog: hierarchy fields present, size offered, and price as listed.
package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/tillpoint/tillpoint-server/internal/domain"
	"github.com/tillpoint/tillpoint-server/internal/hierarchy"
	"github.com/tillpoint/tillpoint-server/internal/store"
	"github.com/tillpoint/tillpoint-server/internal/validation"
)

// DefaultPriceTolerance is the largest absolute price difference accepted.
const DefaultPriceTolerance = 0.01

// Severity classifies a finding.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one problem with one item.
type Finding struct {
	Severity    Severity `json:"severity"`
	Location    string   `json:"location"`
	ProductName string   `json:"productName,omitempty"`
	Message     string   `json:"message"`
}

func (f Finding) String() string {
	if f.ProductName == "" {
		return fmt.Sprintf("%s: %s", f.Location, f.Message)
	}
	return fmt.Sprintf("%s (%s): %s", f.Location, f.ProductName, f.Message)
}

// Report is the outcome of a check. IsValid is false when any finding is
// an error.
type Report struct {
	IsValid  bool      `json:"isValid"`
	Checked  int       `json:"checked"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings"`
	Findings []Finding `json:"findings"`
}

func newReport() *Report {
	return &Report{IsValid: true, Errors: []string{}, Warnings: []string{}, Findings: []Finding{}}
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
	if f.Severity == SeverityError {
		r.IsValid = false
		r.Errors = append(r.Errors, f.String())
		return
	}
	r.Warnings = append(r.Warnings, f.String())
}

func (r *Report) merge(other *Report) {
	r.Checked += other.Checked
	for _, f := range other.Findings {
		r.add(f)
	}
}

// Options configures a Checker.
type Options struct {
	PriceTolerance float64
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{PriceTolerance: DefaultPriceTolerance}
}

// Checker validates items against a hierarchy service. It never mutates
// what it checks.
type Checker struct {
	svc       *hierarchy.Service
	validator *validation.Validator
	opts      Options
}

// NewChecker creates a Checker. A negative tolerance is treated as zero.
func NewChecker(svc *hierarchy.Service, v *validation.Validator, opts Options) *Checker {
	if opts.PriceTolerance < 0 {
		opts.PriceTolerance = 0
	}
	if v == nil {
		v = validation.New()
	}
	return &Checker{svc: svc, validator: v, opts: opts}
}

// item is the part of a cart or order line the checks read.
type item struct {
	location    string
	productName string
	category    string
	productType string
	typ         string
	size        string
	quantity    float64
	price       float64
	record      any
}

// CheckCartItems checks every cart item.
func (c *Checker) CheckCartItems(items []domain.CartItem) *Report {
	r := newReport()
	for i, it := range items {
		c.checkItem(r, item{
			location:    fmt.Sprintf("cart[%d]", i),
			productName: it.ProductName,
			category:    it.CategoryName,
			productType: it.ProductTypeName,
			typ:         it.Type,
			size:        it.Size.String(),
			quantity:    it.Quantity,
			price:       it.Price,
			record:      it,
		})
	}
	return r
}

// CheckOrders checks every order item, and warns about orders whose status
// disagrees with the amount paid.
func (c *Checker) CheckOrders(orders []domain.Order) *Report {
	r := newReport()
	for i, o := range orders {
		loc := fmt.Sprintf("orders[%d]", i)
		if !o.Status.Valid() {
			r.add(Finding{Severity: SeverityError, Location: loc, Message: fmt.Sprintf("unknown status %q", o.Status)})
		} else if !o.StatusConsistent() {
			r.add(Finding{
				Severity: SeverityWarning,
				Location: loc,
				Message:  fmt.Sprintf("status %s but paid %.2f of %.2f", o.Status, o.Paid(), o.Total),
			})
		}

		for k, it := range o.Items {
			c.checkItem(r, item{
				location:    fmt.Sprintf("%s.items[%d]", loc, k),
				productName: it.ProductName,
				category:    it.CategoryName,
				productType: it.ProductTypeName,
				typ:         it.Type,
				size:        it.Size.String(),
				quantity:    it.Quantity,
				price:       it.Price,
				record:      it,
			})
		}
	}
	return r
}

func (c *Checker) checkItem(r *Report, it item) {
	r.Checked++
	fail := func(sev Severity, format string, args ...any) {
		r.add(Finding{Severity: sev, Location: it.location, ProductName: it.productName, Message: fmt.Sprintf(format, args...)})
	}

	for _, msg := range c.validator.Messages(it.record) {
		fail(SeverityError, "%s", msg)
	}

	if it.category == "" || it.productType == "" {
		fail(SeverityError, "missing hierarchy (category %q, product type %q)", it.category, it.productType)
		return
	}
	if it.category == domain.LegacyCategory {
		fail(SeverityWarning, "in the %s category", domain.LegacyCategory)
		return
	}

	if sizes := c.svc.GetAvailableSizes(it.category, it.productType, it.typ); len(sizes) > 0 && !slices.Contains(sizes, it.size) {
		fail(SeverityError, "size %q not offered (available: %v)", it.size, sizes)
	}

	unit, ok := c.svc.GetPrice(it.category, it.productType, it.size, it.typ)
	if !ok {
		return
	}
	expected := unit * it.quantity
	if math.Abs(it.price-expected) > c.opts.PriceTolerance+1e-9 {
		fail(SeverityError, "price %.2f does not match catalog %.2f (%g x %.2f)", it.price, expected, it.quantity, unit)
	}
}

// CheckStore reads cart and orders from kv and checks them. A collection
// that cannot be read or parsed is reported as an error finding.
func (c *Checker) CheckStore(ctx context.Context, kv store.KV) *Report {
	r := newReport()

	var cart []domain.CartItem
	if loadInto(ctx, kv, store.KeyCart, &cart, r) {
		r.merge(c.CheckCartItems(cart))
	}

	var orders []domain.Order
	if loadInto(ctx, kv, store.KeyOrders, &orders, r) {
		r.merge(c.CheckOrders(orders))
	}

	return r
}

func loadInto(ctx context.Context, kv store.KV, key string, dest any, r *Report) bool {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		r.add(Finding{Severity: SeverityError, Location: key, Message: err.Error()})
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.add(Finding{Severity: SeverityError, Location: key, Message: fmt.Sprintf("parse: %v", err)})
		return false
	}
	return true
}
