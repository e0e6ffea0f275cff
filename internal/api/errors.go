package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError は 2xx 以外の応答です。Detail にはサーバーが返したメッセージが入ります。
type HTTPError struct {
	StatusCode int
	Detail     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NotFound はジョブが存在しない場合に true を返します。
func (e *HTTPError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// newHTTPError は {"detail": "..."} と {"code": "...", "message": "..."} のどちらの形式も読み取ります。
func newHTTPError(code int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: code, Body: body}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Detail = strings.TrimSpace(string(body))
		return e
	}

	switch {
	case len(payload.Detail) > 0:
		e.Detail = detailText(payload.Detail)
	case payload.Message != "":
		e.Detail = payload.Message
		if payload.Code != "" {
			e.Detail = payload.Code + ": " + payload.Message
		}
	}
	return e
}

// detailText は文字列または検証エラーの配列 ([{"msg": ...}]) をメッセージにします。
func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}
