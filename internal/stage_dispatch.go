package internal

import (
	"errors"
	"log/slog"
	"net/http"
)

// dispatchStage runs the filter chain and the controller action. It is
// the last stage and always produces a response.
type dispatchStage struct {
	// global filters run before route filters on every request.
	filters []Filter
	logger  *slog.Logger
}

func newDispatchStage(filters []Filter, logger *slog.Logger) *dispatchStage {
	return &dispatchStage{filters: filters, logger: logger}
}

func (s *dispatchStage) Name() string { return "dispatch" }

func (s *dispatchStage) Process(c *Context) Outcome {
	for _, filter := range s.filters {
		if resp := filter(c); resp != nil {
			return Complete(resp)
		}
	}
	for _, filter := range c.Route().Filters {
		if resp := filter(c); resp != nil {
			return Complete(resp)
		}
	}

	args, err := c.Route().binder.Bind(c)
	if err != nil {
		var bindErr *BindingError
		if errors.As(err, &bindErr) {
			// A matched route with unparseable parameters is a
			// programming error on the server side.
			s.logger.ErrorContext(c.Context(), "parameter binding failed",
				slog.String("param", bindErr.Param),
				slog.String("value", bindErr.Value),
				slog.Any("error", bindErr.Err))
		}
		return Complete(NewResponse(http.StatusInternalServerError).
			WithTextBody("Internal Server Error"))
	}

	resp := c.Route().Handler(c, args)
	if resp == nil {
		s.logger.ErrorContext(c.Context(), "handler returned nil response",
			slog.String("controller", c.Route().Controller),
			slog.String("action", c.Route().Action))
		return Complete(NewResponse(http.StatusInternalServerError).
			WithTextBody("Internal Server Error"))
	}
	return Complete(resp)
}
