package logging

import "log/slog"

// Actor returns the attribute for a platform user identifier.
func Actor(id int64) slog.Attr {
	return slog.Int64("actor_id", id)
}

// Certificate returns the attribute for a certificate identifier.
func Certificate(id int64) slog.Attr {
	return slog.Int64("certificate_id", id)
}

// Update returns the attribute for an inbound update identifier.
func Update(id int64) slog.Attr {
	return slog.Int64("update_id", id)
}

// Component returns the attribute naming the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
