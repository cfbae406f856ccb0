package apm

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/token-deployer/internal/apperror"
)

type Span interface {
	SetAttributes(value ...attribute.KeyValue)
	End(options ...trace.SpanEndOption)
	NoticeError(err error)
	SpanContext() trace.SpanContext
}

type traceSpan struct {
	span trace.Span
}

func NewSpan(span trace.Span) Span {
	return &traceSpan{span}
}

func (t *traceSpan) SetAttributes(values ...attribute.KeyValue) {
	t.span.SetAttributes(values...)
}

func (t *traceSpan) End(options ...trace.SpanEndOption) {
	t.span.End(options...)
}

// NoticeError records err and marks the span failed. An AppError in the
// chain is stamped with the span's trace id. Nil is ignored.
func (t *traceSpan) NoticeError(err error) {
	if err == nil {
		return
	}
	t.span.RecordError(err)
	t.span.SetStatus(codes.Error, err.Error())

	var appErr *apperror.AppError
	if sc := t.span.SpanContext(); sc.HasTraceID() && errors.As(err, &appErr) && appErr.TraceID == "" {
		appErr.WithTraceID(sc.TraceID().String())
	}
}

func (t *traceSpan) SpanContext() trace.SpanContext {
	return t.span.SpanContext()
}
