package logger

import "log/slog"

// Error records err under "error". Nil errors produce an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// EventID records the provider event identifier under "event_id".
func EventID(id string) slog.Attr {
	return slog.String("event_id", id)
}

// EventType records the provider event type under "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// TenantID records the tenant identifier under "tenant_id".
// If id is nil, it returns an empty Attr.
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// CustomerID records the billing provider customer id under "customer_id".
func CustomerID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("customer_id", id)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Duration records a duration under "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
