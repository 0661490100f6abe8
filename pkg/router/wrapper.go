package router

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/xcontext"
)

func wrapHandler[Request, Response any](
	r *Router, method string, handler HandlerFunc[Request, Response],
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			writeError(w, errorx.New(errorx.BadRequest, "Not supported method %s", req.Method))
			return
		}

		ctx := r.baseCtx
		begin := time.Now()

		var err error
		for _, middleware := range r.middlewares {
			ctx, err = middleware(ctx, req)
			if err != nil {
				writeError(w, err)
				return
			}
		}

		var request Request
		if err := parseRequest(req, &request); err != nil {
			writeError(w, errorx.New(errorx.BadRequest, "Cannot parse request"))
			return
		}

		resp, err := handler(ctx, &request)
		xcontext.Logger(ctx).Infof("%s %s (%s) err=%v",
			req.Method, req.URL.Path, time.Since(begin), err)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"data": resp})
	})
}

func parseRequest(req *http.Request, v any) error {
	if req.Method == http.MethodGet {
		return parseQuery(req, v)
	}

	if req.Body == nil {
		return nil
	}

	defer req.Body.Close()
	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(v); err != nil && err.Error() != "EOF" {
		return err
	}

	return nil
}

// parseQuery fills string and int fields of a request struct from the url
// query, matching on json tags.
func parseQuery(req *http.Request, v any) error {
	value := reflect.ValueOf(v).Elem()
	t := value.Type()

	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("json")
		if name == "" {
			continue
		}

		raw := req.URL.Query().Get(name)
		if raw == "" {
			continue
		}

		field := value.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return err
			}

			field.SetInt(n)
		case reflect.Uint64:
			n, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}

			field.SetUint(n)
		}
	}

	return nil
}

func writeError(w http.ResponseWriter, err error) {
	xerr, ok := err.(errorx.Error)
	if !ok {
		xerr = errorx.Unknown
	}

	writeJSON(w, httpStatus(xerr.Code), map[string]any{
		"error": map[string]any{
			"code":    xerr.Code,
			"message": xerr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Encoding a marshalable body cannot fail at this point.
	_ = json.NewEncoder(w).Encode(body)
}

func httpStatus(code errorx.Code) int {
	switch code {
	case errorx.BadRequest:
		return http.StatusBadRequest
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.PermissionDenied:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.Conflict, errorx.TerminalState, errorx.AlreadyExists:
		return http.StatusConflict
	case errorx.TooManyRequests:
		return http.StatusTooManyRequests
	case errorx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
