// Package slog adapts a log/slog handler to the logger.Logger interface.
package slog

import (
	"log/slog"
)

type Handler struct {
	logger *slog.Logger
}

func New(h slog.Handler) *Handler {
	return &Handler{logger: slog.New(h)}
}

func (h *Handler) Error(msg string, args ...any) {
	h.logger.Error(msg, args...)
}

func (h *Handler) Warn(msg string, args ...any) {
	h.logger.Warn(msg, args...)
}

func (h *Handler) Info(msg string, args ...any) {
	h.logger.Info(msg, args...)
}

func (h *Handler) Debug(msg string, args ...any) {
	h.logger.Debug(msg, args...)
}
