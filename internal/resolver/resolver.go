// Package resolver lấp các trường còn thiếu từ output của parser bằng các
// heuristic theo thứ tự cố định, dựa trên candidates và text đã chuẩn hóa.
package resolver

import (
	"context"

	"github.com/address-classifier/app/models"
	"github.com/address-classifier/internal/normalizer"
)

// Field tên trường địa chỉ đã resolve
type Field string

const (
	FieldStreet      Field = "street"
	FieldHouseNumber Field = "house_number"
	FieldPostalCode  Field = "postal_code"
	FieldCity        Field = "city"
)

// Tên các bước gửi tới Tracer
const (
	StepBaseline           = "baseline"
	StepPostalFromText     = "postal_from_text"
	StepCityAdjacentPostal = "city_adjacent_postal"
	StepHouseNumberSplit   = "house_number_split"
	StepSuburbAsCity       = "suburb_as_city"
	StepStreetMarkerCity   = "street_marker_city"
)

// Resolver không có state, dùng chung giữa nhiều goroutine được
type Resolver struct {
	tracer Tracer
}

// Option cấu hình Resolver
type Option func(*Resolver)

// WithTracer gắn trace hook
func WithTracer(t Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New tạo mới Resolver. Mặc định không trace.
func New(opts ...Option) *Resolver {
	r := &Resolver{tracer: NopTracer{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve trích xuất street, house number, postal code và city. Kết quả chỉ
// phụ thuộc vào text, countryCode và candidates; Complete luôn để false.
func (r *Resolver) Resolve(ctx context.Context, text, countryCode string, candidates models.CandidateMap) models.ResolvedAddress {
	s := &state{
		ctx:        ctx,
		tracer:     r.tracer,
		text:       text,
		country:    normalizer.NormalizeCountry(countryCode),
		candidates: candidates,
	}

	s.step = StepBaseline
	s.set(FieldStreet, candidates.First(models.LabelRoad))
	s.set(FieldHouseNumber, candidates.First(models.LabelHouseNumber))
	s.set(FieldPostalCode, candidates.First(models.LabelPostcode))
	s.set(FieldCity, candidates.First(models.LabelCity))

	for _, rule := range gapFillRules {
		s.step = rule.step
		s.applied = false
		rule.apply(s)
		if !s.applied {
			s.tracer.Trace(ctx, TraceEvent{Step: rule.step})
		}
	}

	return s.out
}

// state dữ liệu tạm cho mỗi lần gọi Resolve
type state struct {
	ctx        context.Context
	tracer     Tracer
	text       string
	country    string
	candidates models.CandidateMap

	out     models.ResolvedAddress
	step    string
	applied bool
}

func (s *state) get(f Field) string {
	switch f {
	case FieldStreet:
		return s.out.Street
	case FieldHouseNumber:
		return s.out.HouseNumber
	case FieldPostalCode:
		return s.out.PostalCode
	case FieldCity:
		return s.out.City
	}
	return ""
}

func (s *state) set(f Field, value string) {
	if value == "" {
		return
	}
	switch f {
	case FieldStreet:
		s.out.Street = value
	case FieldHouseNumber:
		s.out.HouseNumber = value
	case FieldPostalCode:
		s.out.PostalCode = value
	case FieldCity:
		s.out.City = value
	}
	s.applied = true
	s.tracer.Trace(s.ctx, TraceEvent{Step: s.step, Field: f, Value: value, Applied: true})
}

func (s *state) missing(f Field) bool {
	return s.get(f) == ""
}
