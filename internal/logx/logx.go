package logx

import (
	"context"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

type contextKey int

const (
	userKey contextKey = iota
	tabKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithUser annotates the logger with the user id if present.
func WithUser(ctx context.Context, userID schema.UserID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if userID != "" {
		if current, ok := ctx.Value(userKey).(schema.UserID); ok && current == userID {
			return log
		}
		log = log.With("user", userID)
	}
	return log
}

// WithUserTab annotates the logger with user and tab identifiers.
func WithUserTab(ctx context.Context, userID schema.UserID, tabID schema.TabID) pslog.Logger {
	log := WithUser(ctx, userID)
	if tabID != "" {
		if current, ok := ctx.Value(tabKey).(schema.TabID); ok && current == tabID {
			return log
		}
		log = log.With("tab", tabID)
	}
	return log
}

// WithPane annotates the logger with a pane id when available.
func WithPane(log pslog.Logger, paneID schema.PaneID) pslog.Logger {
	if paneID != "" {
		log = log.With("pane", paneID)
	}
	return log
}

// WithHost annotates the logger with host metadata when available.
func WithHost(log pslog.Logger, host schema.Host) pslog.Logger {
	if host.ID != "" {
		log = log.With("host", host.ID)
	}
	if target := host.Target(); target != "" {
		log = log.With("target", target)
	}
	return log
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// ContextWithUser stores the user marker on the context for log de-duplication.
func ContextWithUser(ctx context.Context, userID schema.UserID) context.Context {
	if ctx == nil || userID == "" {
		return ctx
	}
	return context.WithValue(ctx, userKey, userID)
}

// ContextWithTab stores the tab marker on the context for log de-duplication.
func ContextWithTab(ctx context.Context, tabID schema.TabID) context.Context {
	if ctx == nil || tabID == "" {
		return ctx
	}
	return context.WithValue(ctx, tabKey, tabID)
}

// ContextWithUserLogger attaches the logger and user marker to the context.
func ContextWithUserLogger(ctx context.Context, log pslog.Logger, userID schema.UserID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	return ContextWithUser(ctx, userID)
}
