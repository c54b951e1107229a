package internal

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/strandkit/strand/pkg/state"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing.
const maxMultipartMemory = 10 << 20

// formParseStage fills the request form from a posted body. Fields
// named "name[]" collect under "name". A parse failure leaves the form
// unsubmitted rather than failing the request.
type formParseStage struct {
	logger *slog.Logger
}

func newFormParseStage(logger *slog.Logger) *formParseStage {
	return &formParseStage{logger: logger}
}

func (s *formParseStage) Name() string { return "form" }

func (s *formParseStage) Process(c *Context) Outcome {
	r := c.Request()
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return Proceed()
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return Proceed()
	}

	form := state.NewForm()
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := parseURLEncoded(r, form); err != nil {
			s.logger.WarnContext(c.Context(), "failed to parse form body", slog.Any("error", err))
			return Proceed()
		}
	case "multipart/form-data":
		if err := parseMultipart(r, form); err != nil {
			s.logger.WarnContext(c.Context(), "failed to parse multipart body", slog.Any("error", err))
			return Proceed()
		}
	default:
		return Proceed()
	}

	form.SetSubmitted(true)
	c.form = form
	return Proceed()
}

// parseURLEncoded reads the body pair by pair so field order survives,
// which url.Values would throw away.
func parseURLEncoded(r *http.Request, form *state.Form) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMultipartMemory))
	if err != nil {
		return err
	}

	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		rawName, rawValue, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(rawName)
		if err != nil {
			return err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return err
		}
		form.Add(fieldName(name), value)
	}
	return nil
}

func parseMultipart(r *http.Request, form *state.Form) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return err
	}

	mf := r.MultipartForm
	for name, values := range mf.Value {
		for _, value := range values {
			form.Add(fieldName(name), value)
		}
	}
	for name, headers := range mf.File {
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				return err
			}
			data, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return err
			}
			form.AddFile(fieldName(name), state.File{Name: header.Filename, Data: data})
		}
	}
	return nil
}

func fieldName(name string) string {
	return strings.TrimSuffix(name, "[]")
}
